// Package kg assembles a validated collection into the read-only, adjacency-queryable
// knowledge graph handed to downstream consumers.
package kg

import (
	"encoding/json"

	"github.com/dd0wney/cluso-kg/pkg/constraints"
	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/grouper"
	"github.com/dd0wney/cluso-kg/pkg/sortjoin"
)

// Direction selects which edges a traversal follows.
type Direction int

const (
	Outgoing Direction = iota // child -> parent, e.g. Theme -> SubIndustry
	Incoming                  // parent -> child
	Both                      // undirected view
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

type link struct {
	node  graph.NodeID
	etype graph.EdgeType
}

// adjacency holds grouped links keyed by node id. Lookups go through a sort-join index over
// the group sources.
type adjacency struct {
	groups grouper.Groups[graph.NodeID, link]
	index  *sortjoin.Index[graph.NodeID]
}

func newAdjacency(src, dst []graph.NodeID, types []graph.EdgeType) (adjacency, error) {
	links := make([]link, len(dst))
	for i := range dst {
		links[i] = link{node: dst[i], etype: types[i]}
	}
	groups, err := grouper.BySource(src, links)
	if err != nil {
		return adjacency{}, err
	}
	index, err := sortjoin.New(groups.Sources)
	if err != nil {
		return adjacency{}, err
	}
	return adjacency{groups: groups, index: index}, nil
}

func (a adjacency) links(id graph.NodeID) []link {
	p, ok := a.index.Lookup(id)
	if !ok {
		return nil
	}
	return a.groups.Targets[p]
}

// Graph is an assembled knowledge graph. It never changes after Assemble returns.
type Graph struct {
	coll    *graph.Collection
	records []graph.NodeRecord
	edges   []graph.EdgeRecord
	byID    *sortjoin.Index[graph.NodeID]
	out     adjacency
	in      adjacency
}

// Assemble validates c and builds its adjacency views. A validation failure is returned
// unchanged.
func Assemble(c *graph.Collection) (*Graph, error) {
	if err := constraints.Validate("assemble", c); err != nil {
		return nil, err
	}

	doc := graph.NewDocument(c)
	ids := make([]graph.NodeID, len(doc.Nodes))
	for i, r := range doc.Nodes {
		ids[i] = r.NID
	}
	byID, err := sortjoin.New(ids)
	if err != nil {
		return nil, graph.JoinError("assemble", "", err)
	}

	src := make([]graph.NodeID, len(doc.Edges))
	dst := make([]graph.NodeID, len(doc.Edges))
	types := make([]graph.EdgeType, len(doc.Edges))
	for i, e := range doc.Edges {
		src[i], dst[i], types[i] = e.Src, e.Dst, e.Type
	}
	out, err := newAdjacency(src, dst, types)
	if err != nil {
		return nil, graph.JoinError("assemble", "", err)
	}
	rsrc, rdst := grouper.Reverse(src, dst)
	in, err := newAdjacency(rsrc, rdst, types)
	if err != nil {
		return nil, graph.JoinError("assemble", "", err)
	}

	return &Graph{
		coll:    c,
		records: doc.Nodes,
		edges:   doc.Edges,
		byID:    byID,
		out:     out,
		in:      in,
	}, nil
}

// Collection returns the collection the graph was assembled from.
func (g *Graph) Collection() *graph.Collection {
	return g.coll
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return len(g.records)
}

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// Node returns the record of id.
func (g *Graph) Node(id graph.NodeID) (graph.NodeRecord, bool) {
	p, ok := g.byID.Lookup(id)
	if !ok {
		return graph.NodeRecord{}, false
	}
	return g.records[p], true
}

// Nodes returns every node record in table order.
func (g *Graph) Nodes() []graph.NodeRecord {
	out := make([]graph.NodeRecord, len(g.records))
	copy(out, g.records)
	return out
}

// NodesOfType returns the records of one node type in table order.
func (g *Graph) NodesOfType(t graph.NodeType) []graph.NodeRecord {
	var out []graph.NodeRecord
	for _, r := range g.records {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// Edges returns every edge record in table order.
func (g *Graph) Edges() []graph.EdgeRecord {
	out := make([]graph.EdgeRecord, len(g.edges))
	copy(out, g.edges)
	return out
}

// Successors returns the targets of id's outgoing edges, in edge order.
func (g *Graph) Successors(id graph.NodeID) []graph.NodeID {
	return nodesOf(g.out.links(id), nil)
}

// Predecessors returns the sources of id's incoming edges, in edge order.
func (g *Graph) Predecessors(id graph.NodeID) []graph.NodeID {
	return nodesOf(g.in.links(id), nil)
}

// Neighbors returns the distinct nodes adjacent to id in either direction, successors
// first.
func (g *Graph) Neighbors(id graph.NodeID) []graph.NodeID {
	return g.step(id, Both, nil)
}

// Reachable returns every node reachable from `from` along edges of the given types (all
// types when none are given), in breadth-first order. from itself is not included; an
// unknown from yields nil.
func (g *Graph) Reachable(from graph.NodeID, dir Direction, edgeTypes ...graph.EdgeType) []graph.NodeID {
	if !g.byID.Contains(from) {
		return nil
	}

	var allowed map[graph.EdgeType]bool
	if len(edgeTypes) > 0 {
		allowed = make(map[graph.EdgeType]bool, len(edgeTypes))
		for _, et := range edgeTypes {
			allowed[et] = true
		}
	}

	visited := map[graph.NodeID]bool{from: true}
	var order []graph.NodeID
	queue := []graph.NodeID{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.step(current, dir, allowed) {
			if visited[next] {
				continue
			}
			visited[next] = true
			order = append(order, next)
			queue = append(queue, next)
		}
	}
	return order
}

// step returns the distinct one-hop neighbours of id in direction dir.
func (g *Graph) step(id graph.NodeID, dir Direction, allowed map[graph.EdgeType]bool) []graph.NodeID {
	var out []graph.NodeID
	if dir == Outgoing || dir == Both {
		out = nodesOf(g.out.links(id), allowed)
	}
	if dir == Incoming || dir == Both {
		out = append(out, nodesOf(g.in.links(id), allowed)...)
	}
	if dir != Both {
		return out
	}

	seen := make(map[graph.NodeID]bool, len(out))
	uniq := out[:0]
	for _, n := range out {
		if !seen[n] {
			seen[n] = true
			uniq = append(uniq, n)
		}
	}
	return uniq
}

func nodesOf(links []link, allowed map[graph.EdgeType]bool) []graph.NodeID {
	var out []graph.NodeID
	for _, l := range links {
		if allowed != nil && !allowed[l.etype] {
			continue
		}
		out = append(out, l.node)
	}
	return out
}

// MarshalJSON writes the graph in record form: {"nodes": [...], "edges": [...]}.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graph.Document{Nodes: g.records, Edges: g.edges})
}
