package resources

import (
	"net/http"

	"github.com/kudocloud/kudo-internal/internal/common/apperrors"
)

var (
	ErrResource     apperrors.Error = apperrors.New("resource error").SetStatusCode(http.StatusInternalServerError)
	ErrNotFound     apperrors.Error = ErrResource.New("resource not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidInput apperrors.Error = ErrResource.New("invalid input").SetStatusCode(http.StatusBadRequest)
	// ErrMalformedItem is a present-but-undecodable record. Deliberately
	// distinct from ErrNotFound: callers decide how to treat the difference.
	ErrMalformedItem apperrors.Error = ErrResource.New("malformed resource record").SetStatusCode(http.StatusBadGateway)
	// ErrBadFaceMetadata carries CodeBadFaceMetadata for client display.
	ErrBadFaceMetadata apperrors.Error = ErrResource.New("unsupported font face metadata").SetStatusCode(http.StatusBadRequest)
)

// Domain error codes surfaced to API clients.
const (
	CodeBadFaceMetadata = "E_FONT_FACE_METADATA"
)
