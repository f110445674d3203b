// Package rescommon provides context carriers and id minting for the
// resource service.
package rescommon

import "context"

type ctxKeyType string

const (
	ctxUserIdKey ctxKeyType = "KudoUserId"
	ctxOrgIdKey  ctxKeyType = "KudoOrgId"
)

// SetUserIdInContext sets the calling user's id in the context.
func SetUserIdInContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserIdKey, userID)
}

// UserIdFromContext retrieves the calling user's id, or "".
func UserIdFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxUserIdKey).(string); ok {
		return id
	}
	return ""
}

// SetOrgIdInContext sets the caller's organization id in the context.
func SetOrgIdInContext(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, ctxOrgIdKey, orgID)
}

// OrgIdFromContext retrieves the caller's organization id, or "".
func OrgIdFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxOrgIdKey).(string); ok {
		return id
	}
	return ""
}
