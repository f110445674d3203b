package apis

import (
	"net/http"

	"github.com/kudocloud/kudo-internal/internal/common/httpx"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/capability"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

type moveResourceRequest struct {
	NewParent string `json:"newParent"`
}

// moveResource relocates the caller-visible record to another folder. A
// grantee moves their own grant; everyone else needs the move capability on
// the canonical record.
func (s *Service) moveResource(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	t, err := resourceTypeParam(r)
	if err != nil {
		return nil, err
	}
	objectID, err := objectIDParam(r)
	if err != nil {
		return nil, err
	}
	scope, err := scopeQuery(r)
	if err != nil {
		return nil, err
	}
	var req moveResourceRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}

	viewer := rescommon.UserIdFromContext(ctx)
	orgID := rescommon.OrgIdFromContext(ctx)
	res, aerr := s.repo.GetByID(ctx, t, objectID, scope, viewer, orgID)
	if aerr != nil {
		return nil, aerr
	}
	if res.IsCanonical() {
		role := roleFor(res, viewer, orgID)
		if !capability.For(role, kindOf(res)).Has(capability.CanMove) {
			return nil, httpx.ErrUnAuthorized("caller cannot move this resource")
		}
	} else if res.SharedUserID != viewer {
		return nil, httpx.ErrUnAuthorized("caller cannot move another user's grant")
	}

	moved, aerr := s.repo.Move(ctx, res, req.NewParent, viewer)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: toObjectInfo(moved, viewer, orgID)}, nil
}
