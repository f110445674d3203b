package exclusion

import (
	"context"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore/memory"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

func TestExcludeInclude(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	l := New(memory.New())

	err := l.Exclude(ctx, "u1", rescommon.ScopePublic, rescommon.ResourceTypeFont, "f1")
	require.NoError(t, err)
	err = l.Exclude(ctx, "u1", rescommon.ScopePublic, rescommon.ResourceTypeFont, "f2")
	require.NoError(t, err)

	// excluding twice is a no-op
	err = l.Exclude(ctx, "u1", rescommon.ScopePublic, rescommon.ResourceTypeFont, "f1")
	require.NoError(t, err)

	got, err := l.GetExcluded(ctx, "u1", rescommon.ScopePublic, rescommon.ResourceTypeFont)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, got)

	// entries are isolated per scope, resource type and user
	got, err = l.GetExcluded(ctx, "u1", rescommon.ScopeOrg, rescommon.ResourceTypeFont)
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = l.GetExcluded(ctx, "u1", rescommon.ScopePublic, rescommon.ResourceTypeTemplate)
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = l.GetExcluded(ctx, "u2", rescommon.ScopePublic, rescommon.ResourceTypeFont)
	require.NoError(t, err)
	assert.Empty(t, got)

	err = l.Include(ctx, "u1", rescommon.ScopePublic, rescommon.ResourceTypeFont, "f1")
	require.NoError(t, err)
	got, err = l.GetExcluded(ctx, "u1", rescommon.ScopePublic, rescommon.ResourceTypeFont)
	require.NoError(t, err)
	assert.Equal(t, []string{"f2"}, got)

	// including an absent object is a no-op
	err = l.Include(ctx, "u1", rescommon.ScopePublic, rescommon.ResourceTypeFont, "missing")
	require.NoError(t, err)
}

func TestScopeRestriction(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	l := New(memory.New())

	err := l.Exclude(ctx, "u1", rescommon.ScopeOwned, rescommon.ResourceTypeFont, "f1")
	assert.ErrorIs(t, err, ErrScopeNotExcludable)
	err = l.Exclude(ctx, "u1", rescommon.ScopeShared, rescommon.ResourceTypeFont, "f1")
	assert.ErrorIs(t, err, ErrScopeNotExcludable)

	// OWNED always reads back empty, whatever the ledger holds
	require.NoError(t, l.Exclude(ctx, "u1", rescommon.ScopePublic, rescommon.ResourceTypeFont, "f1"))
	got, gerr := l.GetExcluded(ctx, "u1", rescommon.ScopeOwned, rescommon.ResourceTypeFont)
	require.NoError(t, gerr)
	assert.Empty(t, got)
	got, gerr = l.GetExcluded(ctx, "u1", rescommon.ScopeShared, rescommon.ResourceTypeFont)
	require.NoError(t, gerr)
	assert.Empty(t, got)
}

func TestValidation(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	l := New(memory.New())

	assert.ErrorIs(t, l.Exclude(ctx, "", rescommon.ScopePublic, rescommon.ResourceTypeFont, "f1"), ErrInvalidEntry)
	assert.ErrorIs(t, l.Exclude(ctx, "u1", rescommon.ScopePublic, rescommon.ResourceTypeFont, ""), ErrInvalidEntry)
	assert.ErrorIs(t, l.Exclude(ctx, "u1", rescommon.ScopePublic, rescommon.ResourceType("BOGUS"), "f1"), ErrInvalidEntry)
	_, err := l.GetExcluded(ctx, "", rescommon.ScopePublic, rescommon.ResourceTypeFont)
	assert.ErrorIs(t, err, ErrInvalidEntry)
}
