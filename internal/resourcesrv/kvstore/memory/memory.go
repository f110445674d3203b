// Package memory provides an embedded Store implementation backed by two
// maps, one per access path. Every write updates both maps under one lock, so
// the forward index never lags the primary index. Used by unit tests and
// single-node deployments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore/kverror"
)

type store struct {
	mu sync.RWMutex
	// byObject: pk -> sk -> item (primary index)
	byObject map[string]map[string]kvstore.Item
	// byFolder: sk -> pk -> item (forward index)
	byFolder map[string]map[string]kvstore.Item
}

// New returns an empty in-memory store.
func New() kvstore.Store {
	return &store{
		byObject: make(map[string]map[string]kvstore.Item),
		byFolder: make(map[string]map[string]kvstore.Item),
	}
}

func (s *store) Get(ctx context.Context, pk, sk string) (kvstore.Item, error) {
	if pk == "" || sk == "" {
		return nil, kverror.ErrInvalidItem
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if it, ok := s.byObject[pk][sk]; ok {
		return it.Clone(), nil
	}
	return nil, nil
}

func (s *store) Query(ctx context.Context, q kvstore.Query) ([]kvstore.Item, error) {
	if q.HashKey == "" {
		return nil, kverror.ErrInvalidQuery
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var partition map[string]kvstore.Item
	switch q.Index {
	case kvstore.IndexPrimary:
		partition = s.byObject[q.HashKey]
	case kvstore.IndexForward:
		partition = s.byFolder[q.HashKey]
	default:
		return nil, kverror.ErrInvalidQuery
	}

	rangeKeys := make([]string, 0, len(partition))
	for rk := range partition {
		if q.RangePrefix != "" && !strings.HasPrefix(rk, q.RangePrefix) {
			continue
		}
		rangeKeys = append(rangeKeys, rk)
	}
	// range-key order, as the backing table would return
	sort.Strings(rangeKeys)

	var out []kvstore.Item
	for _, rk := range rangeKeys {
		it := partition[rk]
		if kvstore.Matches(it, q.Filter) {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

func (s *store) Put(ctx context.Context, item kvstore.Item) error {
	pk, sk := item.PK(), item.SK()
	if pk == "" || sk == "" {
		return kverror.ErrInvalidItem
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(pk, sk, item.Clone())
	return nil
}

func (s *store) Update(ctx context.Context, pk, sk string, delta kvstore.Delta) (kvstore.Item, error) {
	if pk == "" || sk == "" {
		return nil, kverror.ErrInvalidItem
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.byObject[pk][sk]
	if !ok {
		it = kvstore.Item{kvstore.AttrPK: pk, kvstore.AttrSK: sk}
	} else {
		it = it.Clone()
	}
	applyDelta(it, delta)
	s.set(pk, sk, it)
	return it.Clone(), nil
}

func (s *store) Delete(ctx context.Context, pk, sk string) error {
	if pk == "" || sk == "" {
		return kverror.ErrInvalidItem
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unset(pk, sk)
	return nil
}

func (s *store) BatchDelete(ctx context.Context, keys []kvstore.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if k.PK == "" || k.SK == "" {
			return kverror.ErrInvalidItem
		}
		s.unset(k.PK, k.SK)
	}
	return nil
}

// set writes the item into both maps. Callers hold the write lock.
func (s *store) set(pk, sk string, it kvstore.Item) {
	if s.byObject[pk] == nil {
		s.byObject[pk] = make(map[string]kvstore.Item)
	}
	if s.byFolder[sk] == nil {
		s.byFolder[sk] = make(map[string]kvstore.Item)
	}
	s.byObject[pk][sk] = it
	s.byFolder[sk][pk] = it
}

func (s *store) unset(pk, sk string) {
	if m := s.byObject[pk]; m != nil {
		delete(m, sk)
		if len(m) == 0 {
			delete(s.byObject, pk)
		}
	}
	if m := s.byFolder[sk]; m != nil {
		delete(m, pk)
		if len(m) == 0 {
			delete(s.byFolder, sk)
		}
	}
}

func applyDelta(it kvstore.Item, delta kvstore.Delta) {
	for k, v := range delta.Set {
		it[k] = v
	}
	for _, k := range delta.Remove {
		delete(it, k)
	}
	for attr, members := range delta.AddToSet {
		list, _ := it[attr].([]any)
		for _, m := range members {
			if !containsString(list, m) {
				list = append(list, m)
			}
		}
		it[attr] = list
	}
	for attr, members := range delta.RemoveFromSet {
		list, _ := it[attr].([]any)
		var kept []any
		for _, v := range list {
			s, _ := v.(string)
			if !stringIn(members, s) {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			delete(it, attr)
			continue
		}
		it[attr] = kept
	}
}

func containsString(list []any, s string) bool {
	for _, v := range list {
		if vs, ok := v.(string); ok && vs == s {
			return true
		}
	}
	return false
}

func stringIn(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
