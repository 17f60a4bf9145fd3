// Package idalloc moves a freshly built node table into the global id space of a collection.
package idalloc

import (
	"fmt"

	"github.com/dd0wney/cluso-kg/pkg/graph"
)

const stage = "idalloc"

// Offset returns the shift that places ids strictly above every id in c:
// max(existing) + 1 - min(ids). An empty collection counts as max(existing) = -1.
// The maximum is read from c on every call.
func Offset(ids []graph.NodeID, c *graph.Collection) graph.NodeID {
	if len(ids) == 0 {
		return 0
	}
	maxExisting, ok := c.MaxNodeID()
	if !ok {
		maxExisting = -1
	}
	minNew := ids[0]
	for _, id := range ids[1:] {
		if id < minNew {
			minNew = id
		}
	}
	return maxExisting + 1 - minNew
}

// Reassign returns a copy of t with every id shifted by Offset(t.IDs(), c). An empty table is
// returned unchanged. It fails with an integrity error if any shifted id still collides with
// an id already in c, e.g. when the shift overflows int64.
func Reassign(t *graph.NodeTable, c *graph.Collection) (*graph.NodeTable, error) {
	if t.Len() == 0 {
		return t, nil
	}

	ids := t.IDs()
	offset := Offset(ids, c)
	for i := range ids {
		ids[i] += offset
	}

	existing := make(map[graph.NodeID]struct{}, c.NumNodes())
	for _, id := range c.NodeIDs() {
		existing[id] = struct{}{}
	}
	var collisions []graph.NodeID
	for _, id := range ids {
		if _, ok := existing[id]; ok {
			collisions = append(collisions, id)
		}
	}
	if len(collisions) > 0 {
		return nil, graph.IntegrityError(stage, t.Type().String(), collisions,
			fmt.Sprintf("shifted ids collide with existing ids (offset %d)", offset))
	}

	return t.WithIDs(ids)
}
