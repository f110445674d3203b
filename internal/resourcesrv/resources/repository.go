// Package resources implements the resource ownership and sharing index:
// key-space codec, repository operations and the rules layered on them
// (collision-safe renaming, soft delete, share materialization).
package resources

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kudocloud/kudo-internal/internal/common/apperrors"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/userdir"
)

type Repository struct {
	store kvstore.Store
	users userdir.Directory
}

func NewRepository(store kvstore.Store, users userdir.Directory) *Repository {
	return &Repository{store: store, users: users}
}

// ListByFolder returns the resources of one type visible under
// (parent, scope). Soft-deleted records are excluded. The listing is driven
// by the forward index, whose read-after-write consistency may lag; callers
// must not use it for access decisions.
func (rp *Repository) ListByFolder(ctx context.Context, t rescommon.ResourceType, parent string, scope rescommon.OwnerScope, ownerID, viewerUserID string, objectType rescommon.ObjectType) ([]*Resource, apperrors.Error) {
	return rp.listFolder(ctx, t, parent, scope, ownerID, viewerUserID, objectType, "")
}

// FindByNameInFolder is ListByFolder restricted to an exact name; used for
// collision detection before create and move.
func (rp *Repository) FindByNameInFolder(ctx context.Context, t rescommon.ResourceType, parent string, scope rescommon.OwnerScope, ownerID, viewerUserID, name string) ([]*Resource, apperrors.Error) {
	if name == "" {
		return nil, ErrInvalidInput.Msg("missing name")
	}
	return rp.listFolder(ctx, t, parent, scope, ownerID, viewerUserID, "", name)
}

func (rp *Repository) listFolder(ctx context.Context, t rescommon.ResourceType, parent string, scope rescommon.OwnerScope, ownerID, viewerUserID string, objectType rescommon.ObjectType, name string) ([]*Resource, apperrors.Error) {
	if !t.IsValid() {
		return nil, ErrInvalidInput.Msg("invalid resource type")
	}
	if !scope.IsValid() {
		return nil, ErrInvalidInput.Msg("invalid owner scope")
	}

	filter := []kvstore.Cond{
		{Attr: attrDeleted, Op: kvstore.OpNotExists},
	}
	if objectType != "" {
		filter = append(filter, kvstore.Cond{Attr: attrObjectType, Op: kvstore.OpEqual, Value: string(objectType)})
	}
	if name != "" {
		filter = append(filter, kvstore.Cond{Attr: attrName, Op: kvstore.OpEqual, Value: name})
	}

	items, err := rp.store.Query(ctx, kvstore.Query{
		Index:       kvstore.IndexForward,
		HashKey:     ForwardKey(scope, parent, ownerID, viewerUserID),
		RangePrefix: PrimaryKeyPrefix(t),
		Filter:      filter,
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("parent", parent).Msg("folder listing failed")
		return nil, ErrResource.Err(err)
	}

	out := make([]*Resource, 0, len(items))
	for _, it := range items {
		r, derr := resourceFromItem(it)
		if derr != nil {
			// one undecodable row must not take down the whole listing
			log.Ctx(ctx).Error().Err(derr).Str("pk", it.PK()).Str("sk", it.SK()).Msg("skipping malformed record")
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ListBlocksInLibrary lists the blocks of one library. Block object ids are
// composite (library#block), so this is a prefix query on the same axis that
// GetByID uses for a single block.
func (rp *Repository) ListBlocksInLibrary(ctx context.Context, libraryID string, scope rescommon.OwnerScope, ownerID, viewerUserID string) ([]*Resource, apperrors.Error) {
	if libraryID == "" {
		return nil, ErrInvalidInput.Msg("missing library id")
	}
	items, err := rp.store.Query(ctx, kvstore.Query{
		Index:       kvstore.IndexForward,
		HashKey:     ForwardKey(scope, libraryID, ownerID, viewerUserID),
		RangePrefix: BlockLibraryPrefix(libraryID),
		Filter:      []kvstore.Cond{{Attr: attrDeleted, Op: kvstore.OpNotExists}},
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("library_id", libraryID).Msg("block listing failed")
		return nil, ErrResource.Err(err)
	}
	out := make([]*Resource, 0, len(items))
	for _, it := range items {
		r, derr := resourceFromItem(it)
		if derr != nil {
			log.Ctx(ctx).Error().Err(derr).Str("pk", it.PK()).Msg("skipping malformed record")
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Placements returns every record of the object — the canonical copy plus all
// SHARED grants — via the reverse-lookup key.
func (rp *Repository) Placements(ctx context.Context, t rescommon.ResourceType, objectID string) ([]*Resource, apperrors.Error) {
	if !t.IsValid() || objectID == "" {
		return nil, ErrInvalidInput
	}
	items, err := rp.store.Query(ctx, kvstore.Query{
		Index:   kvstore.IndexPrimary,
		HashKey: PrimaryKey(t, objectID),
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("object_id", objectID).Msg("reverse lookup failed")
		return nil, ErrResource.Err(err)
	}
	out := make([]*Resource, 0, len(items))
	for _, it := range items {
		r, derr := resourceFromItem(it)
		if derr != nil {
			log.Ctx(ctx).Error().Err(derr).Str("sk", it.SK()).Msg("skipping malformed record")
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// GetByID resolves the record of an object for a viewer via the primary
// index. Resolution order: an explicitly requested scope wins; otherwise a
// grant materialized for the viewer, then the public record, then the
// viewer's organization record (reported as organization-owned), then the
// sole canonical record. Soft-deleted records resolve normally so cascade
// and restore logic can reach them.
func (rp *Repository) GetByID(ctx context.Context, t rescommon.ResourceType, objectID string, scope rescommon.OwnerScope, viewerUserID, organizationID string) (*Resource, apperrors.Error) {
	if !t.IsValid() || objectID == "" {
		return nil, ErrInvalidInput
	}
	if scope != "" && !scope.IsValid() {
		return nil, ErrInvalidInput.Msg("invalid owner scope")
	}

	items, err := rp.store.Query(ctx, kvstore.Query{
		Index:   kvstore.IndexPrimary,
		HashKey: PrimaryKey(t, objectID),
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("object_id", objectID).Msg("point lookup failed")
		return nil, ErrResource.Err(err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}

	if scope != "" {
		for _, it := range items {
			if keyHasScope(it.SK(), scope) {
				return rp.decodeChosen(it)
			}
		}
		return nil, ErrNotFound
	}

	for _, it := range items {
		if keyHasScope(it.SK(), rescommon.ScopeShared) && keyHasGrantee(it.SK(), viewerUserID) {
			return rp.decodeChosen(it)
		}
	}
	for _, it := range items {
		if keyHasScope(it.SK(), rescommon.ScopePublic) {
			return rp.decodeChosen(it)
		}
	}
	for _, it := range items {
		if !keyHasScope(it.SK(), rescommon.ScopeShared) && keyHasGrantee(it.SK(), organizationID) {
			r, derr := rp.decodeChosen(it)
			if derr != nil {
				return nil, derr
			}
			r.OwnerType = rescommon.ScopeOrg
			return r, nil
		}
	}
	for _, it := range items {
		if !keyHasScope(it.SK(), rescommon.ScopeShared) {
			return rp.decodeChosen(it)
		}
	}
	return nil, ErrNotFound
}

// decodeChosen decodes the record GetByID settled on. A present but
// undecodable record is malformed, deliberately distinct from not-found.
func (rp *Repository) decodeChosen(it kvstore.Item) (*Resource, apperrors.Error) {
	r, err := resourceFromItem(it)
	if err != nil {
		if appErr, ok := err.(apperrors.Error); ok {
			return nil, appErr
		}
		return nil, ErrMalformedItem.Err(err)
	}
	return r, nil
}

// CreateRequest carries the inputs for Create. When ObjectID is empty a new
// id is minted.
type CreateRequest struct {
	ObjectID       string
	Type           rescommon.ResourceType
	ObjectType     rescommon.ObjectType
	OwnerScope     rescommon.OwnerScope
	OwnerID        string
	ViewerUserID   string
	OrganizationID string
	Parent         string
	Name           string
	Description    string
	Thumbnail      string
	Attributes     map[string]any
}

// Create writes the canonical record of a new object. A SHARED owner scope is
// normalized at creation time to the resolved canonical scope — organization
// when the object is organization-scoped, otherwise owned by the creating
// user — so a grant is never the first record written for an object. The
// owner display name is denormalized from the user directory, and the name is
// made collision-safe against existing siblings.
func (rp *Repository) Create(ctx context.Context, req CreateRequest) (*Resource, apperrors.Error) {
	if !req.Type.IsValid() {
		return nil, ErrInvalidInput.Msg("invalid resource type")
	}
	if !req.OwnerScope.IsValid() {
		return nil, ErrInvalidInput.Msg("invalid owner scope")
	}
	if req.Name == "" {
		return nil, ErrInvalidInput.Msg("missing name")
	}
	if req.ObjectType == "" {
		req.ObjectType = rescommon.ObjectTypeFile
	}

	scope, ownerID := req.OwnerScope, req.OwnerID
	if scope == rescommon.ScopeShared {
		if req.OrganizationID != "" {
			scope, ownerID = rescommon.ScopeOrg, req.OrganizationID
		} else {
			scope, ownerID = rescommon.ScopeOwned, req.ViewerUserID
		}
	}
	switch scope {
	case rescommon.ScopePublic:
		ownerID = ""
	case rescommon.ScopeOrg:
		if ownerID == "" {
			ownerID = req.OrganizationID
		}
	case rescommon.ScopeOwned:
		if ownerID == "" {
			ownerID = req.ViewerUserID
		}
	}
	if scope != rescommon.ScopePublic && ownerID == "" {
		return nil, ErrInvalidInput.Msg("missing owner id")
	}

	objectID := req.ObjectID
	if objectID == "" {
		objectID = rescommon.NewObjectID()
	}

	name, err := rp.collisionSafeName(ctx, req.Type, req.Parent, scope, ownerID, req.ViewerUserID, req.Name, req.ObjectType == rescommon.ObjectTypeFile)
	if err != nil {
		return nil, err
	}

	r := &Resource{
		ObjectID:    objectID,
		Type:        req.Type,
		ObjectType:  req.ObjectType,
		OwnerType:   scope,
		OwnerID:     ownerID,
		OwnerName:   rp.ownerName(ctx, scope, ownerID),
		Parent:      req.Parent,
		Name:        name,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		CreatedAt:   time.Now(),
		Attributes:  req.Attributes,
	}
	if serr := rp.store.Put(ctx, r.Item()); serr != nil {
		log.Ctx(ctx).Error().Err(serr).Str("object_id", objectID).Msg("failed to write resource")
		return nil, ErrResource.Err(serr)
	}
	return r, nil
}

// collisionSafeName returns a name unique among the destination folder's
// live siblings: the candidate itself when it is free, otherwise the
// candidate carrying the smallest free numeric suffix.
func (rp *Repository) collisionSafeName(ctx context.Context, t rescommon.ResourceType, parent string, scope rescommon.OwnerScope, ownerID, viewerUserID, candidate string, isFile bool) (string, apperrors.Error) {
	taken, err := rp.FindByNameInFolder(ctx, t, parent, scope, ownerID, viewerUserID, candidate)
	if err != nil {
		return "", err
	}
	if len(taken) == 0 {
		return candidate, nil
	}
	// suffix selection needs the full sibling name set
	siblings, err := rp.ListByFolder(ctx, t, parent, scope, ownerID, viewerUserID, "")
	if err != nil {
		return "", err
	}
	return RenameOnCollision(siblingNames(siblings), candidate, isFile), nil
}

// ownerName resolves the display name to denormalize onto the record. The
// directory is external; a miss is logged and leaves the name empty rather
// than failing the write.
func (rp *Repository) ownerName(ctx context.Context, scope rescommon.OwnerScope, ownerID string) string {
	switch scope {
	case rescommon.ScopeOwned:
		u, err := rp.users.GetUser(ctx, ownerID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("owner_id", ownerID).Msg("owner not in directory")
			return ""
		}
		return u.DisplayName
	case rescommon.ScopeOrg:
		o, err := rp.users.GetOrganization(ctx, ownerID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("owner_id", ownerID).Msg("organization not in directory")
			return ""
		}
		return o.DisplayName
	}
	return ""
}

// Update applies a partial attribute delta to one record and stamps
// updatedAt. For font resources a face-metadata payload is folded in per the
// SHX rule (see applyFacePayload).
func (rp *Repository) Update(ctx context.Context, pk, sk string, set kvstore.Item, t rescommon.ResourceType, typePayload []byte) (*Resource, apperrors.Error) {
	if pk == "" || sk == "" {
		return nil, ErrInvalidInput.Msg("missing record keys")
	}
	delta := kvstore.Delta{Set: kvstore.Item{}}
	for k, v := range set {
		if verr := validateUpdateAttr(k); verr != nil {
			return nil, verr
		}
		delta.Set[k] = v
	}
	delta.Set[attrUpdatedAt] = time.Now().UTC().Format(time.RFC3339Nano)

	if t == rescommon.ResourceTypeFont && typePayload != nil {
		if err := applyFacePayload(&delta, typePayload); err != nil {
			return nil, err
		}
	}

	it, err := rp.store.Update(ctx, pk, sk, delta)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("pk", pk).Msg("failed to update resource")
		return nil, ErrResource.Err(err)
	}
	return rp.decodeChosen(it)
}

// Attributes a partial update may set directly. The rest of the known
// vocabulary is either derived from the record's keys or maintained by the
// repository itself; overwriting it would detach the record from its keys.
var updatableAttrs = map[string]struct{}{
	attrName: {}, attrDescription: {}, attrThumbnail: {},
}

// validateUpdateAttr rejects identity and bookkeeping attributes, and names
// the jsonb delta codec would read as a path expression instead of a flat
// key. Backends must agree on what an attribute name means.
func validateUpdateAttr(k string) apperrors.Error {
	if k == "" || strings.ContainsAny(k, `.*?|\`) {
		return ErrInvalidInput.Msg("invalid attribute name: " + k)
	}
	if _, known := knownAttrs[k]; known {
		if _, ok := updatableAttrs[k]; !ok {
			return ErrInvalidInput.Msg("attribute is not updatable: " + k)
		}
	}
	return nil
}

// Delete physically removes exactly one record: the canonical copy or one
// SHARED grant. Cascading over an object's remaining grants is the caller's
// responsibility, see DeletePlacements.
func (rp *Repository) Delete(ctx context.Context, pk, sk string) apperrors.Error {
	if pk == "" || sk == "" {
		return ErrInvalidInput.Msg("missing record keys")
	}
	if err := rp.store.Delete(ctx, pk, sk); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("pk", pk).Msg("failed to delete resource")
		return ErrResource.Err(err)
	}
	return nil
}

// DeletePlacements removes the canonical record and every SHARED grant of an
// object in one batch.
func (rp *Repository) DeletePlacements(ctx context.Context, t rescommon.ResourceType, objectID string) apperrors.Error {
	placements, err := rp.Placements(ctx, t, objectID)
	if err != nil {
		return err
	}
	if len(placements) == 0 {
		return nil
	}
	keys := make([]kvstore.Key, 0, len(placements))
	for _, r := range placements {
		pk, sk := r.Keys()
		keys = append(keys, kvstore.Key{PK: pk, SK: sk})
	}
	if serr := rp.store.BatchDelete(ctx, keys); serr != nil {
		log.Ctx(ctx).Error().Err(serr).Str("object_id", objectID).Msg("failed to delete placements")
		return ErrResource.Err(serr)
	}
	return nil
}

// MarkFolderDeleted soft-deletes a folder record: listings stop returning it
// while direct lookups still resolve it, so children and links keep working
// during cascade cleanup.
func (rp *Repository) MarkFolderDeleted(ctx context.Context, pk, sk string) apperrors.Error {
	if pk == "" || sk == "" {
		return ErrInvalidInput.Msg("missing record keys")
	}
	_, err := rp.store.Update(ctx, pk, sk, kvstore.Delta{
		Set: kvstore.Item{attrDeleted: true},
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("pk", pk).Msg("failed to mark folder deleted")
		return ErrResource.Err(err)
	}
	return nil
}

func siblingNames(siblings []*Resource) []string {
	names := make([]string, 0, len(siblings))
	for _, s := range siblings {
		names = append(names, s.Name)
	}
	return names
}
