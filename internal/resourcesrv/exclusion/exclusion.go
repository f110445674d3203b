// Package exclusion is the self-exclusion ledger: per-user lists of
// organization/public resources the user has hidden from their own view.
// Entries are dedicated store items keyed by (user, scope, resource type) and
// adjusted with targeted set updates, so concurrent exclude/include calls for
// different resource types cannot lose each other's writes.
package exclusion

import (
	"context"
	"net/http"

	"github.com/kudocloud/kudo-internal/internal/common/apperrors"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

var (
	ErrExclusion          apperrors.Error = apperrors.New("exclusion ledger error").SetStatusCode(http.StatusInternalServerError)
	ErrInvalidEntry       apperrors.Error = ErrExclusion.New("invalid exclusion entry").SetStatusCode(http.StatusBadRequest)
	ErrScopeNotExcludable apperrors.Error = ErrExclusion.New("only organization and public resources can be excluded").SetStatusCode(http.StatusBadRequest)
)

const attrObjectIds = "objectIds"

type Ledger struct {
	store kvstore.Store
}

func New(store kvstore.Store) *Ledger {
	return &Ledger{store: store}
}

// Exclude hides objectID from the user's view of the given scope/type.
// Excluding an already-excluded object is a no-op.
func (l *Ledger) Exclude(ctx context.Context, userID string, scope rescommon.OwnerScope, resourceType rescommon.ResourceType, objectID string) apperrors.Error {
	if err := validateEntry(userID, resourceType, objectID); err != nil {
		return err
	}
	if !excludable(scope) {
		return ErrScopeNotExcludable
	}
	_, err := l.store.Update(ctx, ledgerPK(userID), ledgerSK(scope, resourceType), kvstore.Delta{
		AddToSet: map[string][]string{attrObjectIds: {objectID}},
	})
	if err != nil {
		return ErrExclusion.Err(err)
	}
	return nil
}

// Include removes objectID from the user's exclusion list. Including an
// object that was never excluded is a no-op.
func (l *Ledger) Include(ctx context.Context, userID string, scope rescommon.OwnerScope, resourceType rescommon.ResourceType, objectID string) apperrors.Error {
	if err := validateEntry(userID, resourceType, objectID); err != nil {
		return err
	}
	if !excludable(scope) {
		return ErrScopeNotExcludable
	}
	_, err := l.store.Update(ctx, ledgerPK(userID), ledgerSK(scope, resourceType), kvstore.Delta{
		RemoveFromSet: map[string][]string{attrObjectIds: {objectID}},
	})
	if err != nil {
		return ErrExclusion.Err(err)
	}
	return nil
}

// GetExcluded returns the user's excluded object ids for the scope/type.
// OWNED and SHARED resources cannot be self-excluded, so those scopes always
// yield an empty list regardless of ledger contents.
func (l *Ledger) GetExcluded(ctx context.Context, userID string, scope rescommon.OwnerScope, resourceType rescommon.ResourceType) ([]string, apperrors.Error) {
	if userID == "" || !resourceType.IsValid() {
		return nil, ErrInvalidEntry
	}
	if !excludable(scope) {
		return nil, nil
	}
	it, err := l.store.Get(ctx, ledgerPK(userID), ledgerSK(scope, resourceType))
	if err != nil {
		return nil, ErrExclusion.Err(err)
	}
	if it == nil {
		return nil, nil
	}
	list, _ := it[attrObjectIds].([]any)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func excludable(scope rescommon.OwnerScope) bool {
	return scope == rescommon.ScopeOrg || scope == rescommon.ScopePublic
}

func validateEntry(userID string, resourceType rescommon.ResourceType, objectID string) apperrors.Error {
	if userID == "" || objectID == "" || !resourceType.IsValid() {
		return ErrInvalidEntry
	}
	return nil
}

func ledgerPK(userID string) string {
	return "EXCLUDE#" + userID
}

func ledgerSK(scope rescommon.OwnerScope, resourceType rescommon.ResourceType) string {
	return string(scope) + "#" + string(resourceType)
}
