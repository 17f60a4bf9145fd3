// Package sortjoin resolves key values to row positions without per-lookup scans.
//
// An Index is built once from a column of unique keys: the keys are sorted and the sort
// permutation is kept, so every lookup is a binary search over the sorted keys followed by a
// jump back through the permutation to the original row. Building costs O(n log n) and
// resolving m instances costs O(m log n).
//
// All id-to-attribute resolution and edge-endpoint matching in the module goes through this
// package.
package sortjoin

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Index maps key values to their position in the column it was built from.
type Index[K constraints.Ordered] struct {
	sorted []K   // keys in ascending order
	perm   []int // perm[i] is the original position of sorted[i]
}

// New builds an index over uniques. It fails with a *DuplicateKeyError if any key repeats.
// The uniques slice is not retained or modified.
func New[K constraints.Ordered](uniques []K) (*Index[K], error) {
	perm := make([]int, len(uniques))
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool {
		return uniques[perm[a]] < uniques[perm[b]]
	})

	sorted := make([]K, len(uniques))
	for i, p := range perm {
		sorted[i] = uniques[p]
	}

	var dups []K
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] && (len(dups) == 0 || dups[len(dups)-1] != sorted[i]) {
			dups = append(dups, sorted[i])
		}
	}
	if len(dups) > 0 {
		return nil, newDuplicateKeyError(dups)
	}

	return &Index[K]{sorted: sorted, perm: perm}, nil
}

// Len returns the number of keys in the index.
func (ix *Index[K]) Len() int {
	return len(ix.sorted)
}

// Lookup returns the original position of key, or false if the key is absent.
func (ix *Index[K]) Lookup(key K) (int, bool) {
	i := ix.search(key)
	if i < 0 {
		return 0, false
	}
	return ix.perm[i], true
}

// Contains reports whether key is present in the index.
func (ix *Index[K]) Contains(key K) bool {
	return ix.search(key) >= 0
}

// Positions resolves every instance to its position in the indexed column, preserving the
// order and multiplicity of instances. It fails with a *KeyNotFoundError listing every absent
// key; no partial result is returned in that case.
func (ix *Index[K]) Positions(instances []K) ([]int, error) {
	out := make([]int, len(instances))
	var missing []K
	for n, key := range instances {
		i := ix.search(key)
		if i < 0 {
			missing = append(missing, key)
			continue
		}
		out[n] = ix.perm[i]
	}
	if len(missing) > 0 {
		return nil, newKeyNotFoundError(missing)
	}
	return out, nil
}

// search returns the index into sorted holding key, or -1.
func (ix *Index[K]) search(key K) int {
	i := sort.Search(len(ix.sorted), func(i int) bool {
		return ix.sorted[i] >= key
	})
	if i < len(ix.sorted) && ix.sorted[i] == key {
		return i
	}
	return -1
}

// Join builds a one-shot index over uniques and resolves instances against it.
func Join[K constraints.Ordered](uniques, instances []K) ([]int, error) {
	ix, err := New(uniques)
	if err != nil {
		return nil, err
	}
	return ix.Positions(instances)
}

// Gather resolves instances against keys and returns the value column entries at the
// resolved positions. keys and values must be the same length.
func Gather[K constraints.Ordered, V any](keys []K, values []V, instances []K) ([]V, error) {
	if len(keys) != len(values) {
		return nil, &LengthMismatchError{Keys: len(keys), Values: len(values)}
	}
	pos, err := Join(keys, instances)
	if err != nil {
		return nil, err
	}
	out := make([]V, len(pos))
	for i, p := range pos {
		out[i] = values[p]
	}
	return out, nil
}
