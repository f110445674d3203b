// Package kvstore defines the contract over the sparse, schemaless key-value
// table backing the resource index. Items are flat attribute maps addressed by
// a (partition key, sort key) pair. The table carries exactly one secondary
// index with the hash/range roles swapped, so the same item set is queryable
// both by partition key (reverse lookup) and by sort key (forward lookup).
package kvstore

import "context"

// Attribute names every item carries.
const (
	AttrPK = "pk"
	AttrSK = "sk"
)

// Item is a flat map of string/number/boolean/list-valued attributes.
type Item map[string]any

// PK returns the item's partition key, or "".
func (it Item) PK() string {
	s, _ := it[AttrPK].(string)
	return s
}

// SK returns the item's sort key, or "".
func (it Item) SK() string {
	s, _ := it[AttrSK].(string)
	return s
}

// String returns the named attribute as a string, or "".
func (it Item) String(attr string) string {
	s, _ := it[attr].(string)
	return s
}

// Bool returns the named attribute as a bool; absent attributes are false.
func (it Item) Bool(attr string) bool {
	b, _ := it[attr].(bool)
	return b
}

// Clone returns a shallow copy with list attributes copied one level deep.
func (it Item) Clone() Item {
	out := make(Item, len(it))
	for k, v := range it {
		if l, ok := v.([]any); ok {
			out[k] = append([]any(nil), l...)
			continue
		}
		out[k] = v
	}
	return out
}

// Key addresses one item.
type Key struct {
	PK string
	SK string
}

// Index selects which access path a Query uses.
type Index int

const (
	// IndexPrimary hashes on the partition key and ranges over sort keys:
	// "every placement of object X".
	IndexPrimary Index = iota
	// IndexForward hashes on the sort key and ranges over partition keys:
	// "everything visible under this scope/folder".
	IndexForward
)

// CondOp is a post-filter comparison operator.
type CondOp string

const (
	OpEqual      CondOp = "EQ"
	OpNotEqual   CondOp = "NE"
	OpBeginsWith CondOp = "BEGINS_WITH"
	OpExists     CondOp = "EXISTS"
	OpNotExists  CondOp = "NOT_EXISTS"
)

// Cond is one post-filter condition over an item attribute. Conditions in a
// Query are conjoined.
type Cond struct {
	Attr  string
	Op    CondOp
	Value string
}

// Query describes a range query over one index: an exact match on the index's
// hash attribute, an optional begins-with predicate on its range attribute,
// and post-filter conditions applied to the matched items.
type Query struct {
	Index       Index
	HashKey     string
	RangePrefix string
	Filter      []Cond
}

// Delta is a partial update. Set entries overwrite attributes, Remove deletes
// them, AddToSet/RemoveFromSet atomically adjust string-list attributes
// without duplicating members. An update against an absent key creates the
// item (upsert), matching the backing table's semantics.
type Delta struct {
	Set           Item
	Remove        []string
	AddToSet      map[string][]string
	RemoveFromSet map[string][]string
}

// Store is the adapter contract. Get returns (nil, nil) when no item exists;
// absence is a result, not an error. All calls are blocking I/O and honor
// context cancellation. Retry policy for transient backend failures belongs
// to the implementation, not to callers.
type Store interface {
	Get(ctx context.Context, pk, sk string) (Item, error)
	Query(ctx context.Context, q Query) ([]Item, error)
	Put(ctx context.Context, item Item) error
	Update(ctx context.Context, pk, sk string, delta Delta) (Item, error)
	Delete(ctx context.Context, pk, sk string) error
	BatchDelete(ctx context.Context, keys []Key) error
}

// Matches reports whether the item satisfies all conditions.
func Matches(it Item, conds []Cond) bool {
	for _, c := range conds {
		v, present := it[c.Attr]
		s, _ := v.(string)
		switch c.Op {
		case OpEqual:
			if !present || s != c.Value {
				return false
			}
		case OpNotEqual:
			if present && s == c.Value {
				return false
			}
		case OpBeginsWith:
			if !present || len(s) < len(c.Value) || s[:len(c.Value)] != c.Value {
				return false
			}
		case OpExists:
			if !present {
				return false
			}
		case OpNotExists:
			if present {
				return false
			}
		}
	}
	return true
}
