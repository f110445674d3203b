package resources

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/kudocloud/kudo-internal/internal/common/apperrors"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

// Move relocates one record to a new parent folder. The sort key encodes the
// parent, so a move is a re-key: write the record under the new key first,
// carrying a movingFrom marker naming the old sort key, then delete the old
// record, then clear the marker. If the sequence is interrupted the object is
// never lost — at worst it is briefly visible in both folders, and the marker
// tells a sweeper which side to finish.
func (rp *Repository) Move(ctx context.Context, r *Resource, newParent, viewerUserID string) (*Resource, apperrors.Error) {
	if r == nil {
		return nil, ErrInvalidInput
	}
	if newParent == r.Parent {
		return r, nil
	}

	oldPK, oldSK := r.Keys()

	moved := *r
	moved.Parent = newParent
	moved.MovingFrom = oldSK

	// collision check against the destination folder
	name, err := rp.collisionSafeName(ctx, moved.Type, newParent, moved.OwnerType, moved.OwnerID, viewerUserID, r.Name, r.ObjectType == rescommon.ObjectTypeFile)
	if err != nil {
		return nil, err
	}
	moved.Name = name

	if serr := rp.store.Put(ctx, moved.Item()); serr != nil {
		log.Ctx(ctx).Error().Err(serr).Str("object_id", r.ObjectID).Msg("failed to write moved record")
		return nil, ErrResource.Err(serr)
	}
	if serr := rp.store.Delete(ctx, oldPK, oldSK); serr != nil {
		// new record exists with the marker intact; report and let the
		// sweeper retire the old one
		log.Ctx(ctx).Error().Err(serr).Str("object_id", r.ObjectID).Str("sk", oldSK).Msg("failed to retire old record after move")
		return nil, ErrResource.Err(serr)
	}

	newPK, newSK := moved.Keys()
	it, uerr := rp.store.Update(ctx, newPK, newSK, kvstore.Delta{Remove: []string{attrMovingFrom}})
	if uerr != nil {
		log.Ctx(ctx).Error().Err(uerr).Str("object_id", r.ObjectID).Msg("failed to clear move marker")
		return nil, ErrResource.Err(uerr)
	}
	return rp.decodeChosen(it)
}

// FinishInterruptedMoves completes moves whose marker survived a crash: for
// every record of the object still carrying movingFrom, the stale source
// record is deleted and the marker cleared.
func (rp *Repository) FinishInterruptedMoves(ctx context.Context, t rescommon.ResourceType, objectID string) apperrors.Error {
	placements, err := rp.Placements(ctx, t, objectID)
	if err != nil {
		return err
	}
	for _, r := range placements {
		if r.MovingFrom == "" {
			continue
		}
		pk, sk := r.Keys()
		if serr := rp.store.Delete(ctx, pk, r.MovingFrom); serr != nil {
			return ErrResource.Err(serr)
		}
		if _, uerr := rp.store.Update(ctx, pk, sk, kvstore.Delta{Remove: []string{attrMovingFrom}}); uerr != nil {
			return ErrResource.Err(uerr)
		}
		log.Ctx(ctx).Info().Str("object_id", objectID).Str("from", r.MovingFrom).Str("to", sk).Msg("completed interrupted move")
	}
	return nil
}
