package clustereval

import (
	"fmt"

	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/sortjoin"
)

const stage = "augment"

// Stats counts how an augmentation join went. Unused counts evaluated labels with no row in
// the table.
type Stats struct {
	Level     Level
	Matched   int
	Unmatched int
	Unused    int
}

// Augment left-joins eval onto t by label equality. The result carries the same ids and
// labels in the same order; rows whose label has no evaluation keep empty text and note.
func Augment(t *graph.NodeTable, eval ClustersEval) (*graph.NodeTable, Stats, error) {
	if _, err := ParseLevel(string(eval.Level)); err != nil {
		return nil, Stats{}, graph.PreconditionError(stage, t.Type().String(), err.Error())
	}
	want := eval.Level.NodeType()
	if t.Type() != want {
		return nil, Stats{}, graph.PreconditionError(stage, t.Type().String(),
			fmt.Sprintf("%s evaluation applies to %s tables", eval.Level, want))
	}

	ix, err := sortjoin.New(eval.Labels())
	if err != nil {
		return nil, Stats{}, graph.JoinError(stage, t.Type().String(), err)
	}

	stats := Stats{Level: eval.Level}
	labels := t.Labels()
	texts := make([]string, len(labels))
	notes := make([]string, len(labels))
	used := make([]bool, len(eval.Members))
	for i, l := range labels {
		p, ok := ix.Lookup(l)
		if !ok {
			stats.Unmatched++
			continue
		}
		texts[i], notes[i] = eval.Members[p].Text, eval.Members[p].Note
		used[p] = true
		stats.Matched++
	}
	for _, u := range used {
		if !u {
			stats.Unused++
		}
	}

	out, err := t.WithClusterText(texts, notes)
	if err != nil {
		return nil, Stats{}, err
	}
	return out, stats, nil
}

// AugmentCollection applies each evaluation to the table of its level and swaps the table
// in wholesale. The returned stats follow the order of evals.
func AugmentCollection(c *graph.Collection, evals ...ClustersEval) (*graph.Collection, []Stats, error) {
	stats := make([]Stats, 0, len(evals))
	for _, eval := range evals {
		t, ok := c.Nodes(eval.Level.NodeType())
		if !ok {
			return nil, nil, graph.PreconditionError(stage, eval.Level.NodeType().String(), "no table to augment")
		}
		augmented, s, err := Augment(t, eval)
		if err != nil {
			return nil, nil, err
		}
		if c, err = c.ReplaceNodes(augmented); err != nil {
			return nil, nil, err
		}
		stats = append(stats, s)
	}
	return c, stats, nil
}
