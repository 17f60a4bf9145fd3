package constraints

import (
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-kg/pkg/graph"
)

// UniqueNodeIDConstraint ensures no node id appears more than once across all node tables.
type UniqueNodeIDConstraint struct{}

// Name returns a human-readable name for this constraint
func (c *UniqueNodeIDConstraint) Name() string {
	return "UniqueNodeID"
}

// Validate reports one violation per node table holding a repeated id. An id repeated
// across two tables is attributed to the later one.
func (c *UniqueNodeIDConstraint) Validate(coll *graph.Collection) ([]Violation, error) {
	var violations []Violation

	// id -> type of the table that first introduced it
	seen := make(map[graph.NodeID]graph.NodeType, coll.NumNodes())

	for _, t := range coll.NodeTables() {
		var dups []graph.NodeID
		firstOwner := make(map[graph.NodeID]graph.NodeType)
		for _, id := range t.IDs() {
			if owner, ok := seen[id]; ok {
				if _, reported := firstOwner[id]; !reported {
					dups = append(dups, id)
					firstOwner[id] = owner
				}
				continue
			}
			seen[id] = t.Type()
		}
		if len(dups) == 0 {
			continue
		}
		sortIDs(dups)
		violations = append(violations, Violation{
			Type:       DuplicateNodeID,
			Severity:   Error,
			Table:      t.Type().String(),
			NodeIDs:    dups,
			Constraint: c.Name(),
			Message:    fmt.Sprintf("%d duplicate node id(s)", len(dups)),
			Details: map[string]any{
				"first_owner": ownerNames(dups, firstOwner),
			},
		})
	}

	return violations, nil
}

// UniqueTableTypeConstraint ensures each node type and each edge type has at most one table.
type UniqueTableTypeConstraint struct{}

// Name returns a human-readable name for this constraint
func (c *UniqueTableTypeConstraint) Name() string {
	return "UniqueTableType"
}

// Validate checks the collection's node and edge tables for repeated types
func (c *UniqueTableTypeConstraint) Validate(coll *graph.Collection) ([]Violation, error) {
	var violations []Violation

	nodeCounts := make(map[graph.NodeType]int)
	for _, t := range coll.NodeTables() {
		nodeCounts[t.Type()]++
	}
	for _, nt := range graph.NodeTypes() {
		if n := nodeCounts[nt]; n > 1 {
			violations = append(violations, Violation{
				Type:       DuplicateTable,
				Severity:   Error,
				Table:      nt.String(),
				Constraint: c.Name(),
				Message:    fmt.Sprintf("node type appears in %d tables", n),
				Details:    map[string]any{"count": n},
			})
		}
	}

	edgeCounts := make(map[graph.EdgeType]int)
	for _, t := range coll.EdgeTables() {
		edgeCounts[t.Type()]++
	}
	for _, et := range graph.EdgeTypes() {
		if n := edgeCounts[et]; n > 1 {
			violations = append(violations, Violation{
				Type:       DuplicateTable,
				Severity:   Error,
				Table:      et.String(),
				Constraint: c.Name(),
				Message:    fmt.Sprintf("edge type appears in %d tables", n),
				Details:    map[string]any{"count": n},
			})
		}
	}

	return violations, nil
}

func ownerNames(ids []graph.NodeID, owners map[graph.NodeID]graph.NodeType) map[graph.NodeID]string {
	out := make(map[graph.NodeID]string, len(ids))
	for _, id := range ids {
		out[id] = owners[id].String()
	}
	return out
}

func sortIDs(ids []graph.NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
