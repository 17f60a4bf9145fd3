// Package grouper turns parallel edge endpoint columns into grouped adjacency views: the
// distinct sources in ascending order and, for each, the targets it points at.
package grouper

import (
	"sort"

	"golang.org/x/exp/constraints"

	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/sortjoin"
)

// Groups is an adjacency view: Targets[i] holds the targets of Sources[i], in their original
// edge order. Sources is ascending and free of repeats.
type Groups[K constraints.Ordered, V any] struct {
	Sources []K
	Targets [][]V
}

// Len returns the number of distinct sources.
func (g Groups[K, V]) Len() int {
	return len(g.Sources)
}

// Flatten returns every target in group order.
func (g Groups[K, V]) Flatten() []V {
	var out []V
	for _, ts := range g.Targets {
		out = append(out, ts...)
	}
	return out
}

// BySource stable-sorts the pairs (src[i], dst[i]) by source and splits the targets at the
// first occurrence of each distinct source. src and dst must have equal length, otherwise a
// *sortjoin.LengthMismatchError is returned. The inputs are not modified.
func BySource[K constraints.Ordered, V any](src []K, dst []V) (Groups[K, V], error) {
	if len(src) != len(dst) {
		return Groups[K, V]{}, &sortjoin.LengthMismatchError{Keys: len(src), Values: len(dst)}
	}
	return group(src, dst), nil
}

func group[K constraints.Ordered, V any](src []K, dst []V) Groups[K, V] {
	n := len(src)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return src[order[a]] < src[order[b]]
	})

	var g Groups[K, V]
	for i, o := range order {
		if i == 0 || src[o] != src[order[i-1]] {
			g.Sources = append(g.Sources, src[o])
			g.Targets = append(g.Targets, nil)
		}
		last := len(g.Targets) - 1
		g.Targets[last] = append(g.Targets[last], dst[o])
	}
	return g
}

// Reverse swaps the endpoint columns, turning a child -> parent edge list into a
// parent -> child one.
func Reverse[K any](src, dst []K) ([]K, []K) {
	return dst, src
}

// Outgoing groups an edge table by source: each source node with its targets.
func Outgoing(t *graph.EdgeTable) Groups[graph.NodeID, graph.NodeID] {
	return group(t.Src(), t.Dst())
}

// Incoming groups an edge table by destination: each target node with the nodes linking to it.
func Incoming(t *graph.EdgeTable) Groups[graph.NodeID, graph.NodeID] {
	src, dst := Reverse(t.Src(), t.Dst())
	return group(src, dst)
}

// Resolve maps every id of a nested id array to values[p], where keys[p] is that id, keeping
// the nesting. keys must be unique and as long as values. One index is built over keys and
// used for every group.
func Resolve[K constraints.Ordered, V any](groups [][]K, keys []K, values []V) ([][]V, error) {
	if len(keys) != len(values) {
		return nil, &sortjoin.LengthMismatchError{Keys: len(keys), Values: len(values)}
	}
	ix, err := sortjoin.New(keys)
	if err != nil {
		return nil, err
	}

	var flat []K
	for _, grp := range groups {
		flat = append(flat, grp...)
	}
	pos, err := ix.Positions(flat)
	if err != nil {
		return nil, err
	}

	out := make([][]V, len(groups))
	next := 0
	for i, grp := range groups {
		out[i] = make([]V, len(grp))
		for j := range grp {
			out[i][j] = values[pos[next]]
			next++
		}
	}
	return out, nil
}
