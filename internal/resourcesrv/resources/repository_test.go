package resources

import (
	"context"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore/memory"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/userdir"
)

func newTestRepo() *Repository {
	dir := userdir.NewStatic(
		[]userdir.User{
			{ID: "u1", DisplayName: "Ada Lovelace", Email: "ada@example.com", OrgID: "org1"},
			{ID: "u2", DisplayName: "Grace Hopper", Email: "grace@example.com", OrgID: "org1"},
			{ID: "u3", DisplayName: "Alan Turing", Email: "alan@example.com", OrgID: "org1"},
		},
		[]userdir.Organization{
			{ID: "org1", DisplayName: "Acme Engineering"},
		},
	)
	return NewRepository(memory.New(), dir)
}

func testContext() context.Context {
	return log.Logger.WithContext(context.Background())
}

func TestCreateMintsIDAndDenormalizesOwner(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	r, err := rp.Create(ctx, CreateRequest{
		Type:         rescommon.ResourceTypeLibrary,
		ObjectType:   rescommon.ObjectTypeFile,
		OwnerScope:   rescommon.ScopeOwned,
		ViewerUserID: "u1",
		Parent:       "f1",
		Name:         "parts.dwg",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ObjectID)
	assert.Equal(t, "u1", r.OwnerID)
	assert.Equal(t, "Ada Lovelace", r.OwnerName)
	assert.False(t, r.CreatedAt.IsZero())

	got, err := rp.GetByID(ctx, rescommon.ResourceTypeLibrary, r.ObjectID, "", "u1", "org1")
	require.NoError(t, err)
	assert.Equal(t, r.ObjectID, got.ObjectID)
	assert.Equal(t, "parts.dwg", got.Name)
}

func TestCreateRenamesOnCollision(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	req := CreateRequest{
		Type:         rescommon.ResourceTypeLibrary,
		ObjectType:   rescommon.ObjectTypeFile,
		OwnerScope:   rescommon.ScopeOwned,
		ViewerUserID: "u1",
		Parent:       "f1",
		Name:         "plan.dwg",
	}
	first, err := rp.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "plan.dwg", first.Name)

	second, err := rp.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "plan (1).dwg", second.Name)

	third, err := rp.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "plan (2).dwg", third.Name)
}

func TestCreateNormalizesSharedScope(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	// SHARED with an organization resolves to the organization record
	r, err := rp.Create(ctx, CreateRequest{
		Type:           rescommon.ResourceTypeTemplate,
		OwnerScope:     rescommon.ScopeShared,
		ViewerUserID:   "u1",
		OrganizationID: "org1",
		Parent:         "f1",
		Name:           "title block",
	})
	require.NoError(t, err)
	assert.Equal(t, rescommon.ScopeOrg, r.OwnerType)
	assert.Equal(t, "org1", r.OwnerID)
	assert.Equal(t, "Acme Engineering", r.OwnerName)

	// without an organization it falls back to the creating user
	r, err = rp.Create(ctx, CreateRequest{
		Type:         rescommon.ResourceTypeTemplate,
		OwnerScope:   rescommon.ScopeShared,
		ViewerUserID: "u1",
		Parent:       "f1",
		Name:         "title block",
	})
	require.NoError(t, err)
	assert.Equal(t, rescommon.ScopeOwned, r.OwnerType)
	assert.Equal(t, "u1", r.OwnerID)
}

func TestPublicScopeDropsOwnerFromKey(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	r, err := rp.Create(ctx, CreateRequest{
		Type:         rescommon.ResourceTypeFont,
		OwnerScope:   rescommon.ScopePublic,
		OwnerID:      "u1",
		ViewerUserID: "u1",
		Parent:       "fonts",
		Name:         "simplex",
	})
	require.NoError(t, err)
	assert.Empty(t, r.OwnerID)
	_, sk := r.Keys()
	assert.Equal(t, "PUBLIC#fonts", sk)

	// visible to a different user with no owner id at hand
	listed, err := rp.ListByFolder(ctx, rescommon.ResourceTypeFont, "fonts", rescommon.ScopePublic, "", "u2", "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, r.ObjectID, listed[0].ObjectID)
}

func TestListScopeIsolation(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	_, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "mine.dwg",
	})
	require.NoError(t, err)
	_, err = rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopePublic,
		ViewerUserID: "u1", Parent: "f1", Name: "everyone.dwg",
	})
	require.NoError(t, err)

	// same parent, different scope partitions
	owned, err := rp.ListByFolder(ctx, rescommon.ResourceTypeLibrary, "f1", rescommon.ScopeOwned, "u1", "u1", "")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "mine.dwg", owned[0].Name)

	public, err := rp.ListByFolder(ctx, rescommon.ResourceTypeLibrary, "f1", rescommon.ScopePublic, "", "u1", "")
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "everyone.dwg", public[0].Name)

	// a different type under the same key partition stays invisible
	fonts, err := rp.ListByFolder(ctx, rescommon.ResourceTypeFont, "f1", rescommon.ScopeOwned, "u1", "u1", "")
	require.NoError(t, err)
	assert.Empty(t, fonts)
}

func TestListObjectTypeFilter(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	_, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeGeneric, ObjectType: rescommon.ObjectTypeFolder,
		OwnerScope: rescommon.ScopeOwned, ViewerUserID: "u1", Parent: "root", Name: "drawings",
	})
	require.NoError(t, err)
	_, err = rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeGeneric, ObjectType: rescommon.ObjectTypeFile,
		OwnerScope: rescommon.ScopeOwned, ViewerUserID: "u1", Parent: "root", Name: "site.pdf",
	})
	require.NoError(t, err)

	folders, err := rp.ListByFolder(ctx, rescommon.ResourceTypeGeneric, "root", rescommon.ScopeOwned, "u1", "u1", rescommon.ObjectTypeFolder)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "drawings", folders[0].Name)
}

func TestFindByNameInFolder(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	for _, name := range []string{"plan.dwg", "site.dwg"} {
		_, err := rp.Create(ctx, CreateRequest{
			Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
			ViewerUserID: "u1", Parent: "f1", Name: name,
		})
		require.NoError(t, err)
	}

	found, err := rp.FindByNameInFolder(ctx, rescommon.ResourceTypeLibrary, "f1", rescommon.ScopeOwned, "u1", "u1", "plan.dwg")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "plan.dwg", found[0].Name)

	found, err = rp.FindByNameInFolder(ctx, rescommon.ResourceTypeLibrary, "f1", rescommon.ScopeOwned, "u1", "u1", "missing.dwg")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = rp.FindByNameInFolder(ctx, rescommon.ResourceTypeLibrary, "f1", rescommon.ScopeOwned, "u1", "u1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestShareAndGetResolution(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	canonical, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "shared.dwg",
	})
	require.NoError(t, err)

	grant, err := rp.Share(ctx, canonical, "u2", nil)
	require.NoError(t, err)
	assert.Equal(t, rescommon.ScopeShared, grant.OwnerType)
	assert.Equal(t, "u2", grant.SharedUserID)
	assert.Equal(t, rescommon.ScopeOwned, grant.SharedScope)
	assert.Equal(t, canonical.OwnerID, grant.OwnerID)
	assert.True(t, grant.UpdatedAt.IsZero())

	// reverse lookup now sees both records
	placements, err := rp.Placements(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID)
	require.NoError(t, err)
	assert.Len(t, placements, 2)

	// the grantee resolves to the grant, the owner to the canonical record
	got, err := rp.GetByID(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID, "", "u2", "org1")
	require.NoError(t, err)
	assert.False(t, got.IsCanonical())
	assert.Equal(t, "u2", got.SharedUserID)

	got, err = rp.GetByID(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID, "", "u1", "org1")
	require.NoError(t, err)
	assert.True(t, got.IsCanonical())

	// explicit scope overrides grantee preference
	got, err = rp.GetByID(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID, rescommon.ScopeOwned, "u2", "org1")
	require.NoError(t, err)
	assert.True(t, got.IsCanonical())
}

func TestUnshareRemovesOnlyTargetedGrant(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	canonical, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "shared.dwg",
	})
	require.NoError(t, err)

	_, err = rp.Share(ctx, canonical, "u2", nil)
	require.NoError(t, err)

	require.NoError(t, rp.Unshare(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID, canonical.Parent, "u2"))

	placements, err := rp.Placements(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID)
	require.NoError(t, err)
	require.Len(t, placements, 1)
	assert.True(t, placements[0].IsCanonical())

	// unsharing again is a no-op
	require.NoError(t, rp.Unshare(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID, canonical.Parent, "u2"))
}

func TestUnshareWithMultipleGrantees(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	canonical, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "shared.dwg",
	})
	require.NoError(t, err)

	_, err = rp.Share(ctx, canonical, "u2", nil)
	require.NoError(t, err)
	_, err = rp.Share(ctx, canonical, "u3", nil)
	require.NoError(t, err)

	placements, err := rp.Placements(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID)
	require.NoError(t, err)
	require.Len(t, placements, 3)

	require.NoError(t, rp.Unshare(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID, canonical.Parent, "u2"))

	// the canonical record and the other grant survive
	placements, err = rp.Placements(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID)
	require.NoError(t, err)
	require.Len(t, placements, 2)
	grants, err := rp.Grants(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "u3", grants[0].SharedUserID)

	// the revoked grantee falls back to the canonical record
	got, err := rp.GetByID(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID, "", "u2", "org1")
	require.NoError(t, err)
	assert.True(t, got.IsCanonical())

	got, err = rp.GetByID(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID, "", "u3", "org1")
	require.NoError(t, err)
	assert.Equal(t, "u3", got.SharedUserID)
}

func TestShareCustomCapabilities(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	canonical, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "shared.dwg",
	})
	require.NoError(t, err)

	_, err = rp.Share(ctx, canonical, "u2", []string{"view", "download"})
	require.NoError(t, err)

	got, err := rp.GetByID(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID, "", "u2", "org1")
	require.NoError(t, err)
	assert.Equal(t, []string{"view", "download"}, got.Capabilities)
}

func TestShareRejectsUnknownGrantee(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	canonical, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "shared.dwg",
	})
	require.NoError(t, err)

	_, err = rp.Share(ctx, canonical, "ghost", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSoftDeletedFolderHiddenFromListButGettable(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	folder, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeGeneric, ObjectType: rescommon.ObjectTypeFolder,
		OwnerScope: rescommon.ScopeOwned, ViewerUserID: "u1", Parent: "root", Name: "old projects",
	})
	require.NoError(t, err)

	pk, sk := folder.Keys()
	require.NoError(t, rp.MarkFolderDeleted(ctx, pk, sk))

	listed, err := rp.ListByFolder(ctx, rescommon.ResourceTypeGeneric, "root", rescommon.ScopeOwned, "u1", "u1", "")
	require.NoError(t, err)
	assert.Empty(t, listed)

	got, err := rp.GetByID(ctx, rescommon.ResourceTypeGeneric, folder.ObjectID, "", "u1", "org1")
	require.NoError(t, err)
	assert.True(t, got.Deleted)
}

func TestMoveRekeysRecord(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	r, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "plan.dwg",
	})
	require.NoError(t, err)

	moved, err := rp.Move(ctx, r, "f2", "u1")
	require.NoError(t, err)
	assert.Equal(t, "f2", moved.Parent)
	assert.Empty(t, moved.MovingFrom)

	src, err := rp.ListByFolder(ctx, rescommon.ResourceTypeLibrary, "f1", rescommon.ScopeOwned, "u1", "u1", "")
	require.NoError(t, err)
	assert.Empty(t, src)

	dst, err := rp.ListByFolder(ctx, rescommon.ResourceTypeLibrary, "f2", rescommon.ScopeOwned, "u1", "u1", "")
	require.NoError(t, err)
	require.Len(t, dst, 1)
	assert.Equal(t, r.ObjectID, dst[0].ObjectID)

	// exactly one record remains on the reverse axis
	placements, err := rp.Placements(ctx, rescommon.ResourceTypeLibrary, r.ObjectID)
	require.NoError(t, err)
	assert.Len(t, placements, 1)
}

func TestMoveSameParentIsNoOp(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	r, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "plan.dwg",
	})
	require.NoError(t, err)

	moved, err := rp.Move(ctx, r, "f1", "u1")
	require.NoError(t, err)
	assert.Same(t, r, moved)
}

func TestMoveRenamesOnDestinationCollision(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	_, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f2", Name: "plan.dwg",
	})
	require.NoError(t, err)
	r, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "plan.dwg",
	})
	require.NoError(t, err)

	moved, err := rp.Move(ctx, r, "f2", "u1")
	require.NoError(t, err)
	assert.Equal(t, "plan (1).dwg", moved.Name)
}

func TestFinishInterruptedMoves(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	r, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "plan.dwg",
	})
	require.NoError(t, err)
	_, oldSK := r.Keys()

	// simulate a crash after the destination write: both records exist and
	// the new one still carries the marker
	stuck := *r
	stuck.Parent = "f2"
	stuck.MovingFrom = oldSK
	require.NoError(t, rp.store.Put(ctx, stuck.Item()))

	require.NoError(t, rp.FinishInterruptedMoves(ctx, rescommon.ResourceTypeLibrary, r.ObjectID))

	placements, err := rp.Placements(ctx, rescommon.ResourceTypeLibrary, r.ObjectID)
	require.NoError(t, err)
	require.Len(t, placements, 1)
	assert.Equal(t, "f2", placements[0].Parent)
	assert.Empty(t, placements[0].MovingFrom)
}

func TestUpdateStampsUpdatedAt(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	r, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "plan.dwg",
	})
	require.NoError(t, err)
	require.True(t, r.UpdatedAt.IsZero())

	pk, sk := r.Keys()
	updated, err := rp.Update(ctx, pk, sk, map[string]any{attrDescription: "rev B"}, r.Type, nil)
	require.NoError(t, err)
	assert.Equal(t, "rev B", updated.Description)
	assert.False(t, updated.UpdatedAt.IsZero())
}

func TestUpdateRejectsProtectedAttributes(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	r, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "plan.dwg",
	})
	require.NoError(t, err)
	pk, sk := r.Keys()

	// identity and bookkeeping attributes cannot be overwritten
	for _, attr := range []string{attrOwnerType, attrObjectID, attrCreatedAt, attrUserID, "pk"} {
		_, err := rp.Update(ctx, pk, sk, map[string]any{attr: "x"}, r.Type, nil)
		require.Error(t, err, attr)
		assert.ErrorIs(t, err, ErrInvalidInput, attr)
	}

	// names the jsonb codec would read as path expressions
	for _, attr := range []string{"meta.color", "faces*", ""} {
		_, err := rp.Update(ctx, pk, sk, map[string]any{attr: "x"}, r.Type, nil)
		require.Error(t, err, attr)
		assert.ErrorIs(t, err, ErrInvalidInput, attr)
	}

	// nothing was written
	got, err := rp.GetByID(ctx, rescommon.ResourceTypeLibrary, r.ObjectID, "", "u1", "org1")
	require.NoError(t, err)
	assert.Equal(t, rescommon.ScopeOwned, got.OwnerType)
	assert.True(t, got.UpdatedAt.IsZero())
}

func TestUpdateFontFaces(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	r, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeFont, OwnerScope: rescommon.ScopePublic,
		ViewerUserID: "u1", Parent: "fonts", Name: "roman",
	})
	require.NoError(t, err)
	pk, sk := r.Keys()

	payload := []byte(`{"format":"ttf","faces":[{"family":"Roman","style":"Regular","index":0}]}`)
	updated, err := rp.Update(ctx, pk, sk, nil, rescommon.ResourceTypeFont, payload)
	require.NoError(t, err)
	require.Contains(t, updated.Attributes, "faces")

	// SHX payloads strip the faces attribute instead of setting it
	updated, err = rp.Update(ctx, pk, sk, nil, rescommon.ResourceTypeFont, []byte(`{"format":"shx"}`))
	require.NoError(t, err)
	assert.NotContains(t, updated.Attributes, "faces")

	// a malformed payload is rejected before any write
	_, err = rp.Update(ctx, pk, sk, nil, rescommon.ResourceTypeFont, []byte(`{"format":"ttf","faces":[]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadFaceMetadata)
}

func TestDeletePlacementsRemovesGrantsToo(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	canonical, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "shared.dwg",
	})
	require.NoError(t, err)
	_, err = rp.Share(ctx, canonical, "u2", nil)
	require.NoError(t, err)

	require.NoError(t, rp.DeletePlacements(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID))

	_, err = rp.GetByID(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID, "", "u1", "org1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByIDNotFoundVsMalformed(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	_, err := rp.GetByID(ctx, rescommon.ResourceTypeLibrary, "missing", "", "u1", "org1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	// a present record missing its identity attributes is malformed, not
	// not-found
	require.NoError(t, rp.store.Put(ctx, map[string]any{
		"pk": PrimaryKey(rescommon.ResourceTypeLibrary, "broken"),
		"sk": "OWNED#f1#u1",
	}))
	_, err = rp.GetByID(ctx, rescommon.ResourceTypeLibrary, "broken", "", "u1", "org1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedItem)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestListBlocksInLibrary(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	for _, blk := range []string{"bolt", "nut"} {
		_, err := rp.Create(ctx, CreateRequest{
			ObjectID: BlockObjectID("lib1", blk), Type: rescommon.ResourceTypeBlock,
			OwnerScope: rescommon.ScopePublic, ViewerUserID: "u1", Parent: "lib1", Name: blk,
		})
		require.NoError(t, err)
	}
	// a block of another library with a shared id prefix
	_, err := rp.Create(ctx, CreateRequest{
		ObjectID: BlockObjectID("lib10", "bolt"), Type: rescommon.ResourceTypeBlock,
		OwnerScope: rescommon.ScopePublic, ViewerUserID: "u1", Parent: "lib10", Name: "bolt",
	})
	require.NoError(t, err)

	blocks, err := rp.ListBlocksInLibrary(ctx, "lib1", rescommon.ScopePublic, "", "u1")
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
}

func TestRefreshGrantsPropagatesDisplayFields(t *testing.T) {
	ctx := testContext()
	rp := newTestRepo()

	canonical, err := rp.Create(ctx, CreateRequest{
		Type: rescommon.ResourceTypeLibrary, OwnerScope: rescommon.ScopeOwned,
		ViewerUserID: "u1", Parent: "f1", Name: "old.dwg", Description: "first cut",
	})
	require.NoError(t, err)
	_, err = rp.Share(ctx, canonical, "u2", []string{"view"})
	require.NoError(t, err)

	pk, sk := canonical.Keys()
	updated, err := rp.Update(ctx, pk, sk, map[string]any{attrName: "new.dwg"}, canonical.Type, nil)
	require.NoError(t, err)
	// the canonical description survives; only name changed
	require.Equal(t, "new.dwg", updated.Name)

	require.NoError(t, rp.RefreshGrants(ctx, updated))

	grants, err := rp.Grants(ctx, rescommon.ResourceTypeLibrary, canonical.ObjectID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "new.dwg", grants[0].Name)
	assert.Equal(t, "first cut", grants[0].Description)
	// the capability override is untouched by a refresh
	assert.Equal(t, []string{"view"}, grants[0].Capabilities)
}
