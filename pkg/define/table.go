package define

import (
	"errors"
	"slices"
)

var (
	// ErrDuplicateKey is returned by [Table.Insert] and [Table.Rekey] when the
	// key is already present. The stored record is left unchanged.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrUnknownKey is returned by [Table.Rekey] when the old key is not present.
	ErrUnknownKey = errors.New("unknown key")
)

// Table is an insertion-ordered collection of records of one kind, keyed by
// a comparable symbolic key. Records are stored by pointer so that later
// events can keep writing fields into a record after it was inserted.
//
// The zero value is not usable - use [NewTable].
type Table[K comparable, V any] struct {
	order []K
	rows  map[K]*V
}

// NewTable creates an empty table.
func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{rows: make(map[K]*V)}
}

// Insert adds v under k. It returns ErrDuplicateKey if k is already present;
// an existing record is never overwritten.
func (t *Table[K, V]) Insert(k K, v *V) error {
	if _, exists := t.rows[k]; exists {
		return ErrDuplicateKey
	}
	t.rows[k] = v
	t.order = append(t.order, k)
	return nil
}

// Get returns the record stored under k.
func (t *Table[K, V]) Get(k K) (*V, bool) {
	v, ok := t.rows[k]
	return v, ok
}

// Has reports whether k is present.
func (t *Table[K, V]) Has(k K) bool {
	_, ok := t.rows[k]
	return ok
}

// Delete removes k and reports whether it was present.
func (t *Table[K, V]) Delete(k K) bool {
	if _, ok := t.rows[k]; !ok {
		return false
	}
	delete(t.rows, k)
	t.order = slices.DeleteFunc(t.order, func(o K) bool { return o == k })
	return true
}

// Rekey moves the record stored under oldKey to newKey, keeping its
// position in insertion order.
func (t *Table[K, V]) Rekey(oldKey, newKey K) error {
	v, ok := t.rows[oldKey]
	if !ok {
		return ErrUnknownKey
	}
	if oldKey == newKey {
		return nil
	}
	if _, exists := t.rows[newKey]; exists {
		return ErrDuplicateKey
	}
	delete(t.rows, oldKey)
	t.rows[newKey] = v
	for i, k := range t.order {
		if k == oldKey {
			t.order[i] = newKey
			break
		}
	}
	return nil
}

// Keys returns a copy of all keys in insertion order.
func (t *Table[K, V]) Keys() []K { return slices.Clone(t.order) }

// All returns all records in insertion order. The pointers refer to the
// stored records, so modifications affect the table.
func (t *Table[K, V]) All() []*V {
	out := make([]*V, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.rows[k])
	}
	return out
}

// Len returns the number of records.
func (t *Table[K, V]) Len() int { return len(t.order) }
