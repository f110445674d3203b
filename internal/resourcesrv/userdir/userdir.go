// Package userdir is the boundary to the external user/organization
// directory. The resource service only needs display names for owner
// denormalization and email resolution for sharing; authentication lives
// elsewhere entirely.
package userdir

import (
	"context"
	"net/http"
	"sync"

	"github.com/kudocloud/kudo-internal/internal/common/apperrors"
)

var (
	ErrDirectory    apperrors.Error = apperrors.New("user directory error").SetStatusCode(http.StatusInternalServerError)
	ErrUserNotFound apperrors.Error = ErrDirectory.New("user not found").SetStatusCode(http.StatusNotFound)
	ErrOrgNotFound  apperrors.Error = ErrDirectory.New("organization not found").SetStatusCode(http.StatusNotFound)
)

type User struct {
	ID          string `toml:"id" json:"id"`
	DisplayName string `toml:"display_name" json:"displayName"`
	Email       string `toml:"email" json:"email"`
	OrgID       string `toml:"org_id" json:"orgId,omitempty"`
}

type Organization struct {
	ID          string `toml:"id" json:"id"`
	DisplayName string `toml:"display_name" json:"displayName"`
}

type Directory interface {
	GetUser(ctx context.Context, userID string) (*User, apperrors.Error)
	GetOrganization(ctx context.Context, orgID string) (*Organization, apperrors.Error)
	FindUserByEmail(ctx context.Context, email string) (*User, apperrors.Error)
}

// static is a fixed directory loaded from configuration. Production
// deployments plug in a client for the account service instead.
type static struct {
	mu    sync.RWMutex
	users map[string]User
	orgs  map[string]Organization
}

func NewStatic(users []User, orgs []Organization) Directory {
	d := &static{
		users: make(map[string]User, len(users)),
		orgs:  make(map[string]Organization, len(orgs)),
	}
	for _, u := range users {
		d.users[u.ID] = u
	}
	for _, o := range orgs {
		d.orgs[o.ID] = o
	}
	return d
}

func (d *static) GetUser(ctx context.Context, userID string) (*User, apperrors.Error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.users[userID]; ok {
		return &u, nil
	}
	return nil, ErrUserNotFound
}

func (d *static) GetOrganization(ctx context.Context, orgID string) (*Organization, apperrors.Error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if o, ok := d.orgs[orgID]; ok {
		return &o, nil
	}
	return nil, ErrOrgNotFound
}

func (d *static) FindUserByEmail(ctx context.Context, email string) (*User, apperrors.Error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}
