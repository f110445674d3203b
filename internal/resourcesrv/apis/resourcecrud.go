package apis

import (
	"encoding/json"
	"net/http"

	"github.com/kudocloud/kudo-internal/internal/common/httpx"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/capability"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/resources"
)

type createResourceRequest struct {
	ObjectID    string               `json:"objectId,omitempty"`
	ObjectType  rescommon.ObjectType `json:"objectType,omitempty"`
	OwnerScope  rescommon.OwnerScope `json:"ownerScope"`
	OwnerID     string               `json:"ownerId,omitempty"`
	Parent      string               `json:"parent"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Thumbnail   string               `json:"thumbnail,omitempty"`
	Attributes  map[string]any       `json:"attributes,omitempty"`
}

func (s *Service) createResource(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	t, err := resourceTypeParam(r)
	if err != nil {
		return nil, err
	}
	var req createResourceRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}

	res, aerr := s.repo.Create(ctx, resources.CreateRequest{
		ObjectID:       req.ObjectID,
		Type:           t,
		ObjectType:     req.ObjectType,
		OwnerScope:     req.OwnerScope,
		OwnerID:        req.OwnerID,
		ViewerUserID:   rescommon.UserIdFromContext(ctx),
		OrganizationID: rescommon.OrgIdFromContext(ctx),
		Parent:         req.Parent,
		Name:           req.Name,
		Description:    req.Description,
		Thumbnail:      req.Thumbnail,
		Attributes:     req.Attributes,
	})
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/resources/" + string(t) + "/" + res.ObjectID,
		Response:   toObjectInfo(res, rescommon.UserIdFromContext(ctx), rescommon.OrgIdFromContext(ctx)),
	}, nil
}

func (s *Service) getResource(r *http.Request) (*httpx.Response, error) {
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

	viewer := rescommon.UserIdFromContext(ctx)
	orgID := rescommon.OrgIdFromContext(ctx)
	res, aerr := s.repo.GetByID(ctx, t, objectID, scope, viewer, orgID)
	if aerr != nil {
		return nil, aerr
	}

	info := toObjectInfo(res, viewer, orgID)
	if res.IsCanonical() && capability.For(roleFor(res, viewer, orgID), kindOf(res)).Has(capability.CanViewPermissions) {
		grants, gerr := s.repo.Grants(ctx, t, objectID)
		if gerr != nil {
			return nil, gerr
		}
		info = withShares(info, grants)
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: info}, nil
}

type updateResourceRequest struct {
	Set          map[string]any  `json:"set,omitempty"`
	FaceMetadata json.RawMessage `json:"faceMetadata,omitempty"`
}

func (s *Service) updateResource(r *http.Request) (*httpx.Response, error) {
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
	var req updateResourceRequest
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
		need := capability.CanEdit
		if res.ObjectType == rescommon.ObjectTypeFolder {
			need = capability.CanRename
		}
		if !capability.For(roleFor(res, viewer, orgID), kindOf(res)).Has(need) {
			return nil, httpx.ErrUnAuthorized("caller cannot update this resource")
		}
	} else if res.SharedUserID != viewer {
		return nil, httpx.ErrUnAuthorized("caller cannot update another user's grant")
	}
	pk, sk := res.Keys()
	updated, aerr := s.repo.Update(ctx, pk, sk, kvstore.Item(req.Set), t, req.FaceMetadata)
	if aerr != nil {
		return nil, aerr
	}
	// grants are point-in-time clones; propagate display-field changes
	if updated.IsCanonical() && touchesDisplayFields(req.Set) {
		if aerr := s.repo.RefreshGrants(ctx, updated); aerr != nil {
			return nil, aerr
		}
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: toObjectInfo(updated, viewer, orgID)}, nil
}

func touchesDisplayFields(set map[string]any) bool {
	for _, k := range []string{"name", "description", "thumbnail"} {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}

// deleteResource removes the caller-visible record of the object. Deleting a
// grant removes only that grant and only for its grantee; deleting a
// canonical folder soft-deletes it; deleting a canonical file removes the
// record and all of its grants. Canonical deletion needs the corresponding
// capability on the record.
func (s *Service) deleteResource(r *http.Request) (*httpx.Response, error) {
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

	viewer := rescommon.UserIdFromContext(ctx)
	orgID := rescommon.OrgIdFromContext(ctx)
	res, aerr := s.repo.GetByID(ctx, t, objectID, scope, viewer, orgID)
	if aerr != nil {
		return nil, aerr
	}
	caps := capability.For(roleFor(res, viewer, orgID), kindOf(res))
	switch {
	case !res.IsCanonical():
		if res.SharedUserID != viewer {
			return nil, httpx.ErrUnAuthorized("caller cannot remove another user's grant")
		}
		aerr = s.repo.Unshare(ctx, t, objectID, res.Parent, res.SharedUserID)
	case res.ObjectType == rescommon.ObjectTypeFolder:
		if !caps.Has(capability.CanManageTrash) {
			return nil, httpx.ErrUnAuthorized("caller cannot delete this resource")
		}
		pk, sk := res.Keys()
		aerr = s.repo.MarkFolderDeleted(ctx, pk, sk)
	default:
		if !caps.Has(capability.CanDelete) {
			return nil, httpx.ErrUnAuthorized("caller cannot delete this resource")
		}
		aerr = s.repo.DeletePlacements(ctx, t, objectID)
	}
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: map[string]string{"status": "deleted"}}, nil
}
