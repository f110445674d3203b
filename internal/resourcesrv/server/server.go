// Package server assembles the resource index HTTP server: store bootstrap,
// router, middleware and the API mount.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/kudocloud/kudo-internal/internal/common/httpx"
	"github.com/kudocloud/kudo-internal/internal/common/logtrace"
	commonmiddleware "github.com/kudocloud/kudo-internal/internal/common/middleware"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/apis"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/config"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore/memory"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore/postgres"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/publiclink"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/server/middleware"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/userdir"
)

type ResourceServer struct {
	Router *chi.Mux
	store  kvstore.Store
	users  userdir.Directory
}

// CreateNewServer builds a server from the loaded configuration.
func CreateNewServer(ctx context.Context) (*ResourceServer, error) {
	cfg := config.Config()
	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	users := userdir.NewStatic(cfg.Directory.Users, cfg.Directory.Organizations)
	return NewServerWith(store, users), nil
}

// NewServerWith builds a server around explicit collaborators; tests use it
// with the memory store.
func NewServerWith(store kvstore.Store, users userdir.Directory) *ResourceServer {
	return &ResourceServer{
		Router: chi.NewRouter(),
		store:  store,
		users:  users,
	}
}

// NewStore bootstraps the configured store backend.
func NewStore(ctx context.Context, cfg *config.ConfigParam) (kvstore.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memory.New(), nil
	case "postgres":
		return postgres.New(ctx, postgres.Config{
			DSN:          cfg.Store.DSN,
			Table:        cfg.Store.Table,
			MaxOpenConns: cfg.Store.MaxOpenConns,
			MaxAttempts:  uint(cfg.Store.MaxAttempts),
		})
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}

func (s *ResourceServer) MountHandlers() error {
	cfg := config.Config()

	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	if cfg.HandleCORS {
		s.Router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"https://*", "http://*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", middleware.HeaderUserID, middleware.HeaderOrgID},
			MaxAge:         300,
		}))
	}

	validity, err := cfg.Link.GetValidity()
	if err != nil {
		return fmt.Errorf("invalid link validity: %w", err)
	}
	svc := apis.NewService(s.store, s.users, publiclink.NewIssuer([]byte(cfg.Link.SigningKey), validity))

	s.Router.Route("/", func(r chi.Router) {
		r.Use(middleware.LoadIdentity(s.users))
		r.Group(svc.Router)
		r.Get("/version", s.getVersion)
	})

	if logtrace.IsTraceEnabled() {
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			fmt.Printf("Logging err: %s\n", err.Error())
		}
	}
	return nil
}

type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (s *ResourceServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &GetVersionRsp{
		ServerVersion: "Kudo Resource Server: 0.1.0",
		ApiVersion:    "v1alpha1",
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}
