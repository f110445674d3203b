package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kudocloud/kudo-internal/internal/common/httpx"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

func resourceTypeParam(r *http.Request) (rescommon.ResourceType, error) {
	t := rescommon.ResourceType(chi.URLParam(r, "resourceType"))
	if !t.IsValid() {
		return "", httpx.ErrInvalidRequest("invalid resource type")
	}
	return t, nil
}

func objectIDParam(r *http.Request) (string, error) {
	id := chi.URLParam(r, "objectId")
	if id == "" {
		return "", httpx.ErrInvalidRequest("missing object id")
	}
	return id, nil
}

// scopeQuery reads an optional ?scope= query value.
func scopeQuery(r *http.Request) (rescommon.OwnerScope, error) {
	s := rescommon.OwnerScope(r.URL.Query().Get("scope"))
	if s != "" && !s.IsValid() {
		return "", httpx.ErrInvalidRequest("invalid owner scope")
	}
	return s, nil
}

func scopeParam(r *http.Request) (rescommon.OwnerScope, error) {
	s := rescommon.OwnerScope(chi.URLParam(r, "ownerScope"))
	if !s.IsValid() {
		return "", httpx.ErrInvalidRequest("invalid owner scope")
	}
	return s, nil
}
