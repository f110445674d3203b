package apis

import (
	"net/http"

	"github.com/kudocloud/kudo-internal/internal/common/httpx"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

// excludeResource hides an organization or public resource from the caller's
// own listings. The object itself is untouched.
func (s *Service) excludeResource(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	scope, err := scopeParam(r)
	if err != nil {
		return nil, err
	}
	t, err := resourceTypeParam(r)
	if err != nil {
		return nil, err
	}
	objectID, err := objectIDParam(r)
	if err != nil {
		return nil, err
	}
	if aerr := s.excl.Exclude(ctx, rescommon.UserIdFromContext(ctx), scope, t, objectID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: map[string]string{"status": "excluded"}}, nil
}

// includeResource undoes a previous exclusion.
func (s *Service) includeResource(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	scope, err := scopeParam(r)
	if err != nil {
		return nil, err
	}
	t, err := resourceTypeParam(r)
	if err != nil {
		return nil, err
	}
	objectID, err := objectIDParam(r)
	if err != nil {
		return nil, err
	}
	if aerr := s.excl.Include(ctx, rescommon.UserIdFromContext(ctx), scope, t, objectID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: map[string]string{"status": "included"}}, nil
}

func (s *Service) listExclusions(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	scope, err := scopeParam(r)
	if err != nil {
		return nil, err
	}
	t, err := resourceTypeParam(r)
	if err != nil {
		return nil, err
	}
	ids, aerr := s.excl.GetExcluded(ctx, rescommon.UserIdFromContext(ctx), scope, t)
	if aerr != nil {
		return nil, aerr
	}
	if ids == nil {
		ids = []string{}
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: map[string]any{"objectIds": ids}}, nil
}
