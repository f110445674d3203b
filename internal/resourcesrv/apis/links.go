package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kudocloud/kudo-internal/internal/common/httpx"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/capability"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

// issueLink mints a public viewer link for an object the caller can manage
// links on.
func (s *Service) issueLink(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	t, err := resourceTypeParam(r)
	if err != nil {
		return nil, err
	}
	objectID, err := objectIDParam(r)
	if err != nil {
		return nil, err
	}

	viewer := rescommon.UserIdFromContext(ctx)
	orgID := rescommon.OrgIdFromContext(ctx)
	res, aerr := s.repo.GetByID(ctx, t, objectID, "", viewer, orgID)
	if aerr != nil {
		return nil, aerr
	}
	role := roleFor(res, viewer, orgID)
	set := capability.For(role, kindOf(res))
	if role == capability.RoleCustom {
		set = capability.Custom(res.Capabilities)
	}
	if !set.Has(capability.CanManagePublicLink) {
		return nil, httpx.ErrUnAuthorized("caller cannot manage public links")
	}

	token, aerr := s.links.Issue(t, res.ObjectID)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Response:   map[string]string{"token": token},
	}, nil
}

// resolveLink verifies a link token and returns the object with viewer
// capabilities. This is the one route that works without a caller identity.
func (s *Service) resolveLink(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")
	if token == "" {
		return nil, httpx.ErrInvalidRequest("missing token")
	}

	grant, aerr := s.links.Verify(token)
	if aerr != nil {
		return nil, aerr
	}
	res, aerr := s.repo.GetByID(ctx, grant.ResourceType, grant.ObjectID, "", "", "")
	if aerr != nil {
		return nil, aerr
	}
	if res.Deleted {
		return nil, httpx.ErrNotFound()
	}

	info := toObjectInfo(res, "", "")
	info.Capabilities = capability.For(grant.Role, kindOf(res)).List()
	info.Shares = nil
	return &httpx.Response{StatusCode: http.StatusOK, Response: info}, nil
}
