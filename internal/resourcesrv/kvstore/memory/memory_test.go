package memory

import (
	"context"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
)

func TestGetPutDelete(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	s := New()

	it, err := s.Get(ctx, "RESOURCE#FONT#f1", "OWNED#root#u1")
	assert.NoError(t, err)
	assert.Nil(t, it)

	err = s.Put(ctx, kvstore.Item{
		"pk":   "RESOURCE#FONT#f1",
		"sk":   "OWNED#root#u1",
		"name": "arial.ttf",
	})
	require.NoError(t, err)

	it, err = s.Get(ctx, "RESOURCE#FONT#f1", "OWNED#root#u1")
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, "arial.ttf", it.String("name"))

	// returned items are copies, not aliases
	it["name"] = "mutated"
	it2, err := s.Get(ctx, "RESOURCE#FONT#f1", "OWNED#root#u1")
	require.NoError(t, err)
	assert.Equal(t, "arial.ttf", it2.String("name"))

	err = s.Delete(ctx, "RESOURCE#FONT#f1", "OWNED#root#u1")
	assert.NoError(t, err)
	it, err = s.Get(ctx, "RESOURCE#FONT#f1", "OWNED#root#u1")
	assert.NoError(t, err)
	assert.Nil(t, it)
}

func TestQueryBothIndexes(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	s := New()

	items := []kvstore.Item{
		{"pk": "RESOURCE#FONT#f1", "sk": "OWNED#root#u1", "name": "a"},
		{"pk": "RESOURCE#FONT#f1", "sk": "SHARED#root#u2", "name": "a"},
		{"pk": "RESOURCE#FONT#f2", "sk": "OWNED#root#u1", "name": "b"},
		{"pk": "RESOURCE#TEMPLATE#t1", "sk": "OWNED#root#u1", "name": "c"},
	}
	for _, it := range items {
		require.NoError(t, s.Put(ctx, it))
	}

	// reverse lookup: all placements of f1
	got, err := s.Query(ctx, kvstore.Query{
		Index:   kvstore.IndexPrimary,
		HashKey: "RESOURCE#FONT#f1",
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// forward lookup restricted to one resource type
	got, err = s.Query(ctx, kvstore.Query{
		Index:       kvstore.IndexForward,
		HashKey:     "OWNED#root#u1",
		RangePrefix: "RESOURCE#FONT",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "RESOURCE#FONT#f1", got[0].PK())
	assert.Equal(t, "RESOURCE#FONT#f2", got[1].PK())

	// post-filter
	got, err = s.Query(ctx, kvstore.Query{
		Index:       kvstore.IndexForward,
		HashKey:     "OWNED#root#u1",
		RangePrefix: "RESOURCE#FONT",
		Filter:      []kvstore.Cond{{Attr: "name", Op: kvstore.OpEqual, Value: "b"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "RESOURCE#FONT#f2", got[0].PK())
}

func TestQueryConsistencyAfterDelete(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	s := New()

	require.NoError(t, s.Put(ctx, kvstore.Item{"pk": "RESOURCE#FONT#f1", "sk": "OWNED#root#u1"}))
	require.NoError(t, s.Delete(ctx, "RESOURCE#FONT#f1", "OWNED#root#u1"))

	// both access paths must forget the item
	got, err := s.Query(ctx, kvstore.Query{Index: kvstore.IndexPrimary, HashKey: "RESOURCE#FONT#f1"})
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = s.Query(ctx, kvstore.Query{Index: kvstore.IndexForward, HashKey: "OWNED#root#u1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateUpsertAndSets(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	s := New()

	// upsert on absent key
	it, err := s.Update(ctx, "EXCLUDE#u1", "PUBLIC#FONT", kvstore.Delta{
		AddToSet: map[string][]string{"objectIds": {"f1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"f1"}, it["objectIds"])

	// adding an existing member is a no-op
	it, err = s.Update(ctx, "EXCLUDE#u1", "PUBLIC#FONT", kvstore.Delta{
		AddToSet: map[string][]string{"objectIds": {"f1", "f2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"f1", "f2"}, it["objectIds"])

	it, err = s.Update(ctx, "EXCLUDE#u1", "PUBLIC#FONT", kvstore.Delta{
		RemoveFromSet: map[string][]string{"objectIds": {"f1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"f2"}, it["objectIds"])

	// set and remove plain attributes
	it, err = s.Update(ctx, "EXCLUDE#u1", "PUBLIC#FONT", kvstore.Delta{
		Set:    kvstore.Item{"deleted": true},
		Remove: []string{"objectIds"},
	})
	require.NoError(t, err)
	assert.True(t, it.Bool("deleted"))
	assert.NotContains(t, it, "objectIds")
}

func TestBatchDelete(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	s := New()

	require.NoError(t, s.Put(ctx, kvstore.Item{"pk": "RESOURCE#FONT#f1", "sk": "OWNED#root#u1"}))
	require.NoError(t, s.Put(ctx, kvstore.Item{"pk": "RESOURCE#FONT#f1", "sk": "SHARED#root#u2"}))

	err := s.BatchDelete(ctx, []kvstore.Key{
		{PK: "RESOURCE#FONT#f1", SK: "OWNED#root#u1"},
		{PK: "RESOURCE#FONT#f1", SK: "SHARED#root#u2"},
	})
	require.NoError(t, err)

	got, err := s.Query(ctx, kvstore.Query{Index: kvstore.IndexPrimary, HashKey: "RESOURCE#FONT#f1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
