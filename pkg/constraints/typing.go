package constraints

import (
	"fmt"

	"github.com/dd0wney/cluso-kg/pkg/graph"
)

// EdgeTypingConstraint ensures every edge table connects nodes of the types its EdgeType
// declares, e.g. ThemeToSubIndustry edges start at Theme nodes and end at SubIndustry nodes.
// Endpoints that name no node at all are left to EndpointCoverageConstraint.
type EdgeTypingConstraint struct{}

// Name returns a human-readable name for this constraint
func (c *EdgeTypingConstraint) Name() string {
	return "EdgeTyping"
}

// Validate checks endpoint node types for every edge table
func (c *EdgeTypingConstraint) Validate(coll *graph.Collection) ([]Violation, error) {
	var violations []Violation

	types := make(map[graph.NodeID]graph.NodeType, coll.NumNodes())
	for _, t := range coll.NodeTables() {
		for _, id := range t.IDs() {
			if _, ok := types[id]; !ok {
				types[id] = t.Type()
			}
		}
	}

	for _, t := range coll.EdgeTables() {
		et := t.Type()
		wrong := make(map[graph.NodeID]struct{})
		check := func(ids []graph.NodeID, want graph.NodeType) {
			for _, id := range ids {
				if got, ok := types[id]; ok && got != want {
					wrong[id] = struct{}{}
				}
			}
		}
		check(t.Src(), et.Source())
		check(t.Dst(), et.Target())

		if len(wrong) == 0 {
			continue
		}
		ids := keys(wrong)
		violations = append(violations, Violation{
			Type:       EndpointTypeMismatch,
			Severity:   Error,
			Table:      et.String(),
			NodeIDs:    ids,
			Constraint: c.Name(),
			Message: fmt.Sprintf("%d endpoint(s) are not %s -> %s nodes",
				len(ids), et.Source(), et.Target()),
			Details: map[string]any{
				"source_type": et.Source().String(),
				"target_type": et.Target().String(),
			},
		})
	}

	return violations, nil
}
