package middleware

import (
	"net/http"
	"strings"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/userdir"
)

const (
	HeaderUserID = "X-Kudo-User-ID"
	HeaderOrgID  = "X-Kudo-Org-ID"
)

// LoadIdentity copies the caller identity established by the edge gateway
// into the request context. Token validation happens at the gateway; by the
// time a request reaches this service the identity headers are trusted. When
// the organization header is absent the user's home organization from the
// directory is used.
func LoadIdentity(users userdir.Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
			orgID := strings.TrimSpace(r.Header.Get(HeaderOrgID))
			if userID != "" {
				ctx = rescommon.SetUserIdInContext(ctx, userID)
				if orgID == "" {
					if u, err := users.GetUser(ctx, userID); err == nil {
						orgID = u.OrgID
					}
				}
			}
			if orgID != "" {
				ctx = rescommon.SetOrgIdInContext(ctx, orgID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
