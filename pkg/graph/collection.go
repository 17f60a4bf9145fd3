package graph

import "fmt"

// Collection is a graph snapshot: the node tables and edge tables built so far, in append
// order. A Collection is never modified after construction; the Append and Replace methods
// return a new Collection sharing the (immutable) tables of the receiver.
type Collection struct {
	nodes []*NodeTable
	edges []*EdgeTable
}

// NewCollection builds a collection from the given tables.
func NewCollection(nodes []*NodeTable, edges []*EdgeTable) *Collection {
	return &Collection{nodes: cloneSlice(nodes), edges: cloneSlice(edges)}
}

// AppendNodes returns a new collection with t appended to the node tables.
func (c *Collection) AppendNodes(t *NodeTable) *Collection {
	out := c.shallow()
	out.nodes = append(out.nodes, t)
	return out
}

// AppendEdges returns a new collection with t appended to the edge tables.
func (c *Collection) AppendEdges(t *EdgeTable) *Collection {
	out := c.shallow()
	out.edges = append(out.edges, t)
	return out
}

// ReplaceNodes returns a new collection in which the node table of t's type is replaced by
// t. The replacement must carry exactly the same ids in the same order: attribute columns
// may change wholesale, row identity may not.
func (c *Collection) ReplaceNodes(t *NodeTable) (*Collection, error) {
	for i, cur := range c.nodes {
		if cur.Type() != t.Type() {
			continue
		}
		if cur.Len() != t.Len() {
			return nil, IntegrityError("replace", t.Type().String(), nil,
				fmt.Sprintf("replacement has %d rows, table has %d", t.Len(), cur.Len()))
		}
		var changed []NodeID
		for r := 0; r < cur.Len(); r++ {
			if cur.ID(r) != t.ID(r) {
				changed = append(changed, cur.ID(r))
			}
		}
		if len(changed) > 0 {
			return nil, IntegrityError("replace", t.Type().String(), changed, "replacement changes node ids")
		}
		out := c.shallow()
		out.nodes[i] = t
		return out, nil
	}
	return nil, PreconditionError("replace", t.Type().String(), "no node table of this type")
}

func (c *Collection) shallow() *Collection {
	if c == nil {
		return &Collection{}
	}
	return &Collection{nodes: cloneSlice(c.nodes), edges: cloneSlice(c.edges)}
}

// NodeTables returns the node tables in append order.
func (c *Collection) NodeTables() []*NodeTable {
	if c == nil {
		return nil
	}
	return cloneSlice(c.nodes)
}

// EdgeTables returns the edge tables in append order.
func (c *Collection) EdgeTables() []*EdgeTable {
	if c == nil {
		return nil
	}
	return cloneSlice(c.edges)
}

// Nodes returns the first node table of the given type.
func (c *Collection) Nodes(ntype NodeType) (*NodeTable, bool) {
	if c == nil {
		return nil, false
	}
	for _, t := range c.nodes {
		if t.Type() == ntype {
			return t, true
		}
	}
	return nil, false
}

// Edges returns the first edge table of the given type.
func (c *Collection) Edges(etype EdgeType) (*EdgeTable, bool) {
	if c == nil {
		return nil, false
	}
	for _, t := range c.edges {
		if t.Type() == etype {
			return t, true
		}
	}
	return nil, false
}

// NodeIDs returns every node id across all node tables, in table order.
func (c *Collection) NodeIDs() []NodeID {
	out := make([]NodeID, 0, c.NumNodes())
	for _, t := range c.NodeTables() {
		out = append(out, t.ids...)
	}
	return out
}

// MaxNodeID returns the largest node id in the collection, or false if it holds no nodes.
func (c *Collection) MaxNodeID() (NodeID, bool) {
	var max NodeID
	found := false
	for _, t := range c.NodeTables() {
		for _, id := range t.ids {
			if !found || id > max {
				max, found = id, true
			}
		}
	}
	return max, found
}

// NumNodes returns the total number of node rows.
func (c *Collection) NumNodes() int {
	n := 0
	for _, t := range c.NodeTables() {
		n += t.Len()
	}
	return n
}

// NumEdges returns the total number of edge rows.
func (c *Collection) NumEdges() int {
	n := 0
	for _, t := range c.EdgeTables() {
		n += t.Len()
	}
	return n
}
