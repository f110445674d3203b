package apis

import (
	"net/http"

	"github.com/kudocloud/kudo-internal/internal/common/httpx"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

// listResources lists one folder for the caller. Query parameters: parent,
// scope (required), ownerId (defaults to the caller or their organization),
// objectType (optional FILE/FOLDER filter). Organization and public listings
// honor the caller's self-exclusion ledger.
func (s *Service) listResources(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	t, err := resourceTypeParam(r)
	if err != nil {
		return nil, err
	}
	scope, err := scopeQuery(r)
	if err != nil {
		return nil, err
	}
	if scope == "" {
		return nil, httpx.ErrInvalidRequest("missing owner scope")
	}

	viewer := rescommon.UserIdFromContext(ctx)
	orgID := rescommon.OrgIdFromContext(ctx)
	q := r.URL.Query()
	parent := q.Get("parent")
	ownerID := q.Get("ownerId")
	if ownerID == "" {
		switch scope {
		case rescommon.ScopeOwned:
			ownerID = viewer
		case rescommon.ScopeOrg:
			ownerID = orgID
		}
	}
	objectType := rescommon.ObjectType(q.Get("objectType"))

	listed, aerr := s.repo.ListByFolder(ctx, t, parent, scope, ownerID, viewer, objectType)
	if aerr != nil {
		return nil, aerr
	}

	ids, eerr := s.excl.GetExcluded(ctx, viewer, scope, t)
	if eerr != nil {
		return nil, eerr
	}
	excluded := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		excluded[id] = struct{}{}
	}

	infos := make([]*ObjectInfo, 0, len(listed))
	for _, res := range listed {
		if _, skip := excluded[res.ObjectID]; skip {
			continue
		}
		infos = append(infos, toObjectInfo(res, viewer, orgID))
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"resources": infos},
	}, nil
}
