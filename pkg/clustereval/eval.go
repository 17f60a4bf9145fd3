// Package clustereval reads the text labels and evaluation notes an LLM wrote for each
// cluster and joins them onto the SubIndustry and Industry tables.
package clustereval

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/validation"
)

// Level names the layer an evaluation describes.
type Level string

const (
	LevelSubIndustry Level = "sub_industry"
	LevelIndustry    Level = "industry"
)

// ParseLevel accepts "sub_industry" or "industry".
func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelSubIndustry, LevelIndustry:
		return l, nil
	}
	return "", fmt.Errorf("unknown evaluation level %q", s)
}

// NodeType returns the cluster node type the level annotates.
func (l Level) NodeType() graph.NodeType {
	if l == LevelIndustry {
		return graph.NodeIndustry
	}
	return graph.NodeSubIndustry
}

func (l Level) String() string { return string(l) }

// Member is the evaluation of one cluster.
type Member struct {
	Label graph.ClusterLabel `json:"-"`
	Text  string             `json:"cluster_label" validate:"required,notblank,max=200"`
	Note  string             `json:"evaluation_note" validate:"max=2000"`
}

// ClustersEval is every member evaluation of one level, ordered by label.
type ClustersEval struct {
	Level   Level
	Members []Member
}

// Labels returns the member labels in order.
func (e ClustersEval) Labels() []graph.ClusterLabel {
	out := make([]graph.ClusterLabel, len(e.Members))
	for i, m := range e.Members {
		out[i] = m.Label
	}
	return out
}

// Parse reads an object keyed by decimal cluster label:
//
//	{"0": {"cluster_label": "Solar", "evaluation_note": "coherent"}, "1": {...}}
//
// A key that is not an integer, or a member that fails validation, is an error.
func Parse(level Level, r io.Reader) (ClustersEval, error) {
	if _, err := ParseLevel(string(level)); err != nil {
		return ClustersEval{}, err
	}

	var raw map[string]Member
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return ClustersEval{}, fmt.Errorf("%s evaluation: %w", level, err)
	}

	members := make([]Member, 0, len(raw))
	for key, m := range raw {
		label, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return ClustersEval{}, fmt.Errorf("%s evaluation: cluster key %q is not an integer", level, key)
		}
		m.Label = graph.ClusterLabel(label)
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Label < members[j].Label })

	// "01" and "1" parse to the same label
	for i := 1; i < len(members); i++ {
		if members[i].Label == members[i-1].Label {
			return ClustersEval{}, fmt.Errorf("%s evaluation: cluster %d listed twice", level, members[i].Label)
		}
	}
	for i := range members {
		if err := validation.Struct(&members[i]); err != nil {
			return ClustersEval{}, fmt.Errorf("%s evaluation: cluster %d: %w", level, members[i].Label, err)
		}
	}
	return ClustersEval{Level: level, Members: members}, nil
}

// ReadFile parses the evaluation file at path.
func ReadFile(level Level, path string) (ClustersEval, error) {
	f, err := os.Open(path)
	if err != nil {
		return ClustersEval{}, err
	}
	defer f.Close()

	eval, err := Parse(level, f)
	if err != nil {
		return ClustersEval{}, fmt.Errorf("%s: %w", path, err)
	}
	return eval, nil
}
