// Package kverror defines the typed errors surfaced by store adapters.
package kverror

import (
	"net/http"

	"github.com/kudocloud/kudo-internal/internal/common/apperrors"
)

var (
	ErrStore            apperrors.Error = apperrors.New("store error").SetStatusCode(http.StatusInternalServerError)
	ErrStoreUnavailable apperrors.Error = ErrStore.New("backend unavailable").SetStatusCode(http.StatusServiceUnavailable)
	ErrInvalidItem      apperrors.Error = ErrStore.New("item missing partition or sort key").SetStatusCode(http.StatusBadRequest)
	ErrInvalidQuery     apperrors.Error = ErrStore.New("invalid query").SetStatusCode(http.StatusBadRequest)
)
