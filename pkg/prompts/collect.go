// Package prompts gathers the member themes of every cluster and renders the messages an
// external LLM client sends to obtain cluster text labels and evaluation notes.
package prompts

import (
	"sort"

	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/grouper"
	"github.com/dd0wney/cluso-kg/pkg/sortjoin"
)

const stage = "prompts"

// SubIndustryInput is one SubIndustry cluster and the themes grouped into it.
type SubIndustryInput struct {
	Label  graph.ClusterLabel
	Themes []string
}

// IndustryInput is one Industry cluster and, per member SubIndustry, that cluster's themes.
type IndustryInput struct {
	Label         graph.ClusterLabel
	SubIndustries [][]string
}

// CollectSubIndustryInput lists, for every SubIndustry node with members, its label and the
// theme names linked to it. The result is ordered by label; themes keep edge order.
func CollectSubIndustryInput(c *graph.Collection) ([]SubIndustryInput, error) {
	edges, themes, subs, err := tables(c, graph.EdgeThemeToSubIndustry)
	if err != nil {
		return nil, err
	}

	groups := grouper.Incoming(edges)
	labels, err := sortjoin.Gather(subs.IDs(), subs.Labels(), groups.Sources)
	if err != nil {
		return nil, graph.JoinError(stage, subs.Type().String(), err)
	}
	members, err := grouper.Resolve(groups.Targets, themes.IDs(), themes.Themes())
	if err != nil {
		return nil, graph.JoinError(stage, themes.Type().String(), err)
	}

	out := make([]SubIndustryInput, len(labels))
	for i := range labels {
		out[i] = SubIndustryInput{Label: labels[i], Themes: members[i]}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// CollectIndustryInput lists, for every Industry node with members, its label and the theme
// lists of its member SubIndustry clusters, looked up by label in subs.
func CollectIndustryInput(c *graph.Collection, subs []SubIndustryInput) ([]IndustryInput, error) {
	edges, subTable, industries, err := tables(c, graph.EdgeSubIndustryToIndustry)
	if err != nil {
		return nil, err
	}

	groups := grouper.Incoming(edges)
	labels, err := sortjoin.Gather(industries.IDs(), industries.Labels(), groups.Sources)
	if err != nil {
		return nil, graph.JoinError(stage, industries.Type().String(), err)
	}
	memberLabels, err := grouper.Resolve(groups.Targets, subTable.IDs(), subTable.Labels())
	if err != nil {
		return nil, graph.JoinError(stage, subTable.Type().String(), err)
	}

	subLabels := make([]graph.ClusterLabel, len(subs))
	subThemes := make([][]string, len(subs))
	for i, s := range subs {
		subLabels[i], subThemes[i] = s.Label, s.Themes
	}
	nested, err := grouper.Resolve(memberLabels, subLabels, subThemes)
	if err != nil {
		return nil, graph.JoinError(stage, subTable.Type().String(), err)
	}

	out := make([]IndustryInput, len(labels))
	for i := range labels {
		out[i] = IndustryInput{Label: labels[i], SubIndustries: nested[i]}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// tables fetches an edge table with the node tables at both of its ends.
func tables(c *graph.Collection, etype graph.EdgeType) (*graph.EdgeTable, *graph.NodeTable, *graph.NodeTable, error) {
	edges, ok := c.Edges(etype)
	if !ok {
		return nil, nil, nil, graph.PreconditionError(stage, etype.String(), "no edge table")
	}
	src, ok := c.Nodes(etype.Source())
	if !ok {
		return nil, nil, nil, graph.PreconditionError(stage, etype.Source().String(), "no node table")
	}
	dst, ok := c.Nodes(etype.Target())
	if !ok {
		return nil, nil, nil, graph.PreconditionError(stage, etype.Target().String(), "no node table")
	}
	return edges, src, dst, nil
}
