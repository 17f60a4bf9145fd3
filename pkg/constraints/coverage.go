package constraints

import (
	"fmt"

	"github.com/dd0wney/cluso-kg/pkg/graph"
)

// EndpointCoverageConstraint ensures the set of node ids equals the set of edge endpoint
// ids: no edge names a missing node (dangling) and no node is left without an incident
// edge (island).
type EndpointCoverageConstraint struct {
	// Pending lists node ids allowed to be islands, i.e. the rows of a node table appended
	// ahead of the edges that will reference it. Dangling endpoints are never allowed.
	Pending []graph.NodeID
}

// Name returns the constraint name
func (c *EndpointCoverageConstraint) Name() string {
	if len(c.Pending) > 0 {
		return fmt.Sprintf("EndpointCoverage(pending=%d)", len(c.Pending))
	}
	return "EndpointCoverage"
}

// Validate reports dangling endpoints per edge table and islands per node table
func (c *EndpointCoverageConstraint) Validate(coll *graph.Collection) ([]Violation, error) {
	var violations []Violation

	nodes := make(map[graph.NodeID]struct{}, coll.NumNodes())
	for _, t := range coll.NodeTables() {
		for _, id := range t.IDs() {
			nodes[id] = struct{}{}
		}
	}

	endpoints := make(map[graph.NodeID]struct{}, coll.NumNodes())
	for _, t := range coll.EdgeTables() {
		dangling := make(map[graph.NodeID]struct{})
		for _, col := range [][]graph.NodeID{t.Src(), t.Dst()} {
			for _, id := range col {
				endpoints[id] = struct{}{}
				if _, ok := nodes[id]; !ok {
					dangling[id] = struct{}{}
				}
			}
		}
		if len(dangling) == 0 {
			continue
		}
		ids := keys(dangling)
		violations = append(violations, Violation{
			Type:       DanglingEndpoint,
			Severity:   Error,
			Table:      t.Type().String(),
			NodeIDs:    ids,
			Constraint: c.Name(),
			Message:    fmt.Sprintf("%d edge endpoint(s) reference missing nodes", len(ids)),
			Details:    map[string]any{"edges": t.Len()},
		})
	}

	pending := make(map[graph.NodeID]struct{}, len(c.Pending))
	for _, id := range c.Pending {
		pending[id] = struct{}{}
	}

	for _, t := range coll.NodeTables() {
		islands := make(map[graph.NodeID]struct{})
		for _, id := range t.IDs() {
			if _, ok := endpoints[id]; ok {
				continue
			}
			if _, ok := pending[id]; ok {
				continue
			}
			islands[id] = struct{}{}
		}
		if len(islands) == 0 {
			continue
		}
		ids := keys(islands)
		violations = append(violations, Violation{
			Type:       IslandNode,
			Severity:   Error,
			Table:      t.Type().String(),
			NodeIDs:    ids,
			Constraint: c.Name(),
			Message:    fmt.Sprintf("%d node(s) not referenced by any edge", len(ids)),
			Details:    map[string]any{"nodes": t.Len()},
		})
	}

	return violations, nil
}

func keys(set map[graph.NodeID]struct{}) []graph.NodeID {
	out := make([]graph.NodeID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sortIDs(out)
	return out
}
