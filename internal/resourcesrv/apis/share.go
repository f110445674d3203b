package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kudocloud/kudo-internal/internal/common/httpx"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/capability"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

type shareResourceRequest struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	// Capabilities, when present, makes this a CUSTOM grant with exactly
	// these capabilities.
	Capabilities []string `json:"capabilities,omitempty"`
}

// shareResource grants another user access to an object the caller can
// manage. The grantee is named by id or resolved from an email address.
func (s *Service) shareResource(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	t, err := resourceTypeParam(r)
	if err != nil {
		return nil, err
	}
	objectID, err := objectIDParam(r)
	if err != nil {
		return nil, err
	}
	var req shareResourceRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}

	grantee := req.UserID
	if grantee == "" && req.Email != "" {
		u, derr := s.users.FindUserByEmail(ctx, req.Email)
		if derr != nil {
			return nil, derr
		}
		grantee = u.ID
	}
	if grantee == "" {
		return nil, httpx.ErrInvalidRequest("missing grantee")
	}

	viewer := rescommon.UserIdFromContext(ctx)
	orgID := rescommon.OrgIdFromContext(ctx)
	canonical, aerr := s.repo.GetByID(ctx, t, objectID, "", viewer, orgID)
	if aerr != nil {
		return nil, aerr
	}
	if !canonical.IsCanonical() {
		return nil, httpx.ErrInvalidRequest("only the canonical record can be shared")
	}
	role := roleFor(canonical, viewer, orgID)
	if !capability.For(role, kindOf(canonical)).Has(capability.CanManagePermissions) {
		return nil, httpx.ErrUnAuthorized("caller cannot manage permissions")
	}

	grant, aerr := s.repo.Share(ctx, canonical, grantee, req.Capabilities)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Response:   toObjectInfo(grant, grantee, ""),
	}, nil
}

// unshareResource revokes one user's grant. The parent query parameter names
// the folder the grant lives under; when absent the grant is located by
// reverse lookup. Grants keep their share-time parent, so the canonical
// parent is only a last-resort guess for a grant that no longer exists.
func (s *Service) unshareResource(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	t, err := resourceTypeParam(r)
	if err != nil {
		return nil, err
	}
	objectID, err := objectIDParam(r)
	if err != nil {
		return nil, err
	}
	grantee := chi.URLParam(r, "userId")
	if grantee == "" {
		return nil, httpx.ErrInvalidRequest("missing grantee")
	}

	viewer := rescommon.UserIdFromContext(ctx)
	orgID := rescommon.OrgIdFromContext(ctx)
	parent := r.URL.Query().Get("parent")

	canonical, aerr := s.repo.GetByID(ctx, t, objectID, "", viewer, orgID)
	if aerr != nil {
		return nil, aerr
	}
	if parent == "" {
		parent = canonical.Parent
		grants, gerr := s.repo.Grants(ctx, t, objectID)
		if gerr != nil {
			return nil, gerr
		}
		for _, g := range grants {
			if g.SharedUserID == grantee {
				parent = g.Parent
				break
			}
		}
	}
	// revoking your own grant is always allowed
	if grantee != viewer {
		role := roleFor(canonical, viewer, orgID)
		if !capability.For(role, kindOf(canonical)).Has(capability.CanManagePermissions) {
			return nil, httpx.ErrUnAuthorized("caller cannot manage permissions")
		}
	}

	if aerr := s.repo.Unshare(ctx, t, objectID, parent, grantee); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: map[string]string{"status": "unshared"}}, nil
}
