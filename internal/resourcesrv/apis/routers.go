// Package apis exposes the resource index over HTTP: resource CRUD,
// folder listings, sharing, moves, the self-exclusion ledger and public
// links. Handlers translate between the wire shapes and the repository,
// projecting every returned record through the capability model.
package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kudocloud/kudo-internal/internal/common/httpx"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/exclusion"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/publiclink"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/resources"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/userdir"
)

// Service wires the handlers to their collaborators.
type Service struct {
	repo  *resources.Repository
	excl  *exclusion.Ledger
	links *publiclink.Issuer
	users userdir.Directory
}

func NewService(store kvstore.Store, users userdir.Directory, links *publiclink.Issuer) *Service {
	return &Service{
		repo:  resources.NewRepository(store, users),
		excl:  exclusion.New(store),
		links: links,
		users: users,
	}
}

func (s *Service) routes() []httpx.ResponseHandlerParam {
	return []httpx.ResponseHandlerParam{
		{
			Method:  http.MethodPost,
			Path:    "/resources/{resourceType}",
			Handler: s.createResource,
		},
		{
			Method:  http.MethodGet,
			Path:    "/resources/{resourceType}",
			Handler: s.listResources,
		},
		{
			Method:  http.MethodGet,
			Path:    "/resources/{resourceType}/{objectId}",
			Handler: s.getResource,
		},
		{
			Method:  http.MethodPut,
			Path:    "/resources/{resourceType}/{objectId}",
			Handler: s.updateResource,
		},
		{
			Method:  http.MethodDelete,
			Path:    "/resources/{resourceType}/{objectId}",
			Handler: s.deleteResource,
		},
		{
			Method:  http.MethodPost,
			Path:    "/resources/{resourceType}/{objectId}/share",
			Handler: s.shareResource,
		},
		{
			Method:  http.MethodDelete,
			Path:    "/resources/{resourceType}/{objectId}/share/{userId}",
			Handler: s.unshareResource,
		},
		{
			Method:  http.MethodPost,
			Path:    "/resources/{resourceType}/{objectId}/move",
			Handler: s.moveResource,
		},
		{
			Method:  http.MethodPost,
			Path:    "/resources/{resourceType}/{objectId}/link",
			Handler: s.issueLink,
		},
		{
			Method:  http.MethodGet,
			Path:    "/links/{token}",
			Handler: s.resolveLink,
		},
		{
			Method:  http.MethodPut,
			Path:    "/exclusions/{ownerScope}/{resourceType}/{objectId}",
			Handler: s.excludeResource,
		},
		{
			Method:  http.MethodDelete,
			Path:    "/exclusions/{ownerScope}/{resourceType}/{objectId}",
			Handler: s.includeResource,
		},
		{
			Method:  http.MethodGet,
			Path:    "/exclusions/{ownerScope}/{resourceType}",
			Handler: s.listExclusions,
		},
	}
}

// Router mounts the handlers on r. Every route requires an authenticated
// user id in the request context.
func (s *Service) Router(r chi.Router) {
	r.Use(requireCallerIdentity)
	for _, handler := range s.routes() {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
}

// requireCallerIdentity rejects requests the server middleware did not tag
// with a user id. Link resolution is the one anonymous route.
func requireCallerIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rescommon.UserIdFromContext(r.Context()) == "" && !isAnonymousRoute(r) {
			httpx.ErrUnAuthorized().Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAnonymousRoute(r *http.Request) bool {
	return r.Method == http.MethodGet && len(r.URL.Path) > len("/links/") && r.URL.Path[:len("/links/")] == "/links/"
}
