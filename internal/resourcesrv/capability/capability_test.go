package capability

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonotonicity(t *testing.T) {
	for _, kind := range []ResourceKind{KindFile, KindFolder} {
		viewer := For(RoleViewer, kind)
		editor := For(RoleEditor, kind)
		owner := For(RoleOwner, kind)
		assert.True(t, editor.ContainsAll(viewer), "viewer ⊆ editor for %s", kind)
		assert.True(t, owner.ContainsAll(editor), "editor ⊆ owner for %s", kind)
	}
}

func TestBaseCapability(t *testing.T) {
	for _, role := range []Role{RoleViewer, RoleEditor, RoleOwner} {
		for _, kind := range []ResourceKind{KindFile, KindFolder} {
			assert.True(t, For(role, kind).Has(CanDownload), "%s/%s", role, kind)
		}
	}
}

func TestFileFolderConditionals(t *testing.T) {
	// viewer on a file can open and comment; on a folder neither
	assert.True(t, For(RoleViewer, KindFile).Has(CanOpen))
	assert.True(t, For(RoleViewer, KindFile).Has(CanComment))
	assert.False(t, For(RoleViewer, KindFolder).Has(CanOpen))

	// editor manages permissions on files, only an owner does on folders
	assert.True(t, For(RoleEditor, KindFile).Has(CanManagePermissions))
	assert.False(t, For(RoleEditor, KindFolder).Has(CanManagePermissions))
	assert.True(t, For(RoleOwner, KindFolder).Has(CanManagePermissions))

	// folder editors create and move content
	editor := For(RoleEditor, KindFolder)
	assert.True(t, editor.Has(CanCreateFolders))
	assert.True(t, editor.Has(CanCreateFiles))
	assert.True(t, editor.Has(CanMoveFrom))
	assert.True(t, editor.Has(CanMoveTo))
	assert.False(t, For(RoleEditor, KindFile).Has(CanCreateFolders))

	// delete/move/trash are owner-only
	assert.False(t, editor.Has(CanDelete))
	owner := For(RoleOwner, KindFolder)
	assert.True(t, owner.Has(CanDelete))
	assert.True(t, owner.Has(CanMove))
	assert.True(t, owner.Has(CanManageTrash))
	assert.True(t, owner.Has(CanChangeOwner))
}

func TestCustomRoleDerivesNothing(t *testing.T) {
	assert.Empty(t, For(RoleCustom, KindFile))
	assert.Empty(t, For(Role("bogus"), KindFolder))

	s := Custom([]string{"canDownload", "canComment"})
	assert.True(t, s.Has(CanDownload))
	assert.True(t, s.Has(CanComment))
	assert.False(t, s.Has(CanDelete))
}

func TestSetJSON(t *testing.T) {
	b, err := json.Marshal(NewSet(CanRename, CanDownload))
	assert.NoError(t, err)
	assert.JSONEq(t, `["canDownload","canRename"]`, string(b))
}
