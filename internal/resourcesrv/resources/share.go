package resources

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kudocloud/kudo-internal/internal/common/apperrors"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

// Share materializes a grant for one user: a clone of the canonical record
// keyed under the SHARED scope with the grantee's id, remembering the scope
// it was shared from. Sharing an already-shared record re-clones it, so a
// repeated share refreshes the grant's snapshot. When capabilities is
// non-empty the grant carries a CUSTOM capability override stored verbatim.
func (rp *Repository) Share(ctx context.Context, canonical *Resource, granteeUserID string, capabilities []string) (*Resource, apperrors.Error) {
	if canonical == nil || granteeUserID == "" {
		return nil, ErrInvalidInput
	}
	if !canonical.IsCanonical() {
		return nil, ErrInvalidInput.Msg("cannot share a grant")
	}
	if _, err := rp.users.GetUser(ctx, granteeUserID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("grantee", granteeUserID).Msg("grantee not in directory")
		return nil, ErrInvalidInput.Msg("unknown grantee")
	}

	grant := *canonical
	grant.OwnerType = rescommon.ScopeShared
	grant.SharedUserID = granteeUserID
	grant.SharedScope = canonical.OwnerType
	grant.Capabilities = capabilities
	grant.CreatedAt = time.Now()
	grant.UpdatedAt = time.Time{}
	grant.MovingFrom = ""

	if err := rp.store.Put(ctx, grant.Item()); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("object_id", canonical.ObjectID).Str("grantee", granteeUserID).Msg("failed to write grant")
		return nil, ErrResource.Err(err)
	}
	return &grant, nil
}

// Unshare removes exactly one user's grant, leaving the canonical record and
// every other grant untouched. Unsharing a grant that does not exist is a
// no-op.
func (rp *Repository) Unshare(ctx context.Context, t rescommon.ResourceType, objectID, parent, granteeUserID string) apperrors.Error {
	if !t.IsValid() || objectID == "" || granteeUserID == "" {
		return ErrInvalidInput
	}
	if err := rp.store.Delete(ctx, PrimaryKey(t, objectID), SharedKey(parent, granteeUserID)); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("object_id", objectID).Str("grantee", granteeUserID).Msg("failed to remove grant")
		return ErrResource.Err(err)
	}
	return nil
}

// Grants returns the SHARED records of an object, one per grantee.
func (rp *Repository) Grants(ctx context.Context, t rescommon.ResourceType, objectID string) ([]*Resource, apperrors.Error) {
	placements, err := rp.Placements(ctx, t, objectID)
	if err != nil {
		return nil, err
	}
	grants := placements[:0:0]
	for _, r := range placements {
		if !r.IsCanonical() {
			grants = append(grants, r)
		}
	}
	return grants, nil
}

// RefreshGrants re-clones every grant of an object from its current canonical
// record, preserving each grant's grantee and capability override. Called
// after canonical updates that grants should reflect, such as a rename.
func (rp *Repository) RefreshGrants(ctx context.Context, canonical *Resource) apperrors.Error {
	if canonical == nil || !canonical.IsCanonical() {
		return ErrInvalidInput
	}
	grants, err := rp.Grants(ctx, canonical.Type, canonical.ObjectID)
	if err != nil {
		return err
	}
	for _, g := range grants {
		pk, sk := g.Keys()
		delta := kvstore.Delta{Set: kvstore.Item{
			attrName:      canonical.Name,
			attrOwnerType: string(rescommon.ScopeShared),
		}}
		if canonical.Description != "" {
			delta.Set[attrDescription] = canonical.Description
		} else {
			delta.Remove = append(delta.Remove, attrDescription)
		}
		if canonical.Thumbnail != "" {
			delta.Set[attrThumbnail] = canonical.Thumbnail
		} else {
			delta.Remove = append(delta.Remove, attrThumbnail)
		}
		if _, uerr := rp.store.Update(ctx, pk, sk, delta); uerr != nil {
			log.Ctx(ctx).Error().Err(uerr).Str("pk", pk).Str("sk", sk).Msg("failed to refresh grant")
			return ErrResource.Err(uerr)
		}
	}
	return nil
}
