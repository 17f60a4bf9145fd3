package graph

import (
	"encoding/json"
	"fmt"
)

// Document is the record form of a collection: node records grouped by table in append
// order, then edge records grouped the same way. It is what snapshots are written as.
type Document struct {
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
}

// NewDocument flattens c into records.
func NewDocument(c *Collection) Document {
	doc := Document{
		Nodes: make([]NodeRecord, 0, c.NumNodes()),
		Edges: make([]EdgeRecord, 0, c.NumEdges()),
	}
	for _, t := range c.NodeTables() {
		doc.Nodes = append(doc.Nodes, t.Records()...)
	}
	for _, t := range c.EdgeTables() {
		doc.Edges = append(doc.Edges, t.Records()...)
	}
	return doc
}

// Collection rebuilds the tables of d. Records of one type become one table, tables are
// ordered by first appearance. Records must carry the attribute shape of their type.
func (d Document) Collection() (*Collection, error) {
	var nodeOrder []NodeType
	nodeRows := make(map[NodeType][]NodeRecord)
	for _, r := range d.Nodes {
		if _, ok := nodeRows[r.Type]; !ok {
			nodeOrder = append(nodeOrder, r.Type)
		}
		nodeRows[r.Type] = append(nodeRows[r.Type], r)
	}

	var edgeOrder []EdgeType
	edgeRows := make(map[EdgeType][]EdgeRecord)
	for _, r := range d.Edges {
		if _, ok := edgeRows[r.Type]; !ok {
			edgeOrder = append(edgeOrder, r.Type)
		}
		edgeRows[r.Type] = append(edgeRows[r.Type], r)
	}

	nodes := make([]*NodeTable, 0, len(nodeOrder))
	for _, nt := range nodeOrder {
		t, err := tableFromRecords(nt, nodeRows[nt])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, t)
	}

	edges := make([]*EdgeTable, 0, len(edgeOrder))
	for _, et := range edgeOrder {
		rows := edgeRows[et]
		src := make([]NodeID, len(rows))
		dst := make([]NodeID, len(rows))
		for i, r := range rows {
			src[i], dst[i] = r.Src, r.Dst
		}
		t, err := NewEdgeTable(et, src, dst)
		if err != nil {
			return nil, err
		}
		edges = append(edges, t)
	}

	return &Collection{nodes: nodes, edges: edges}, nil
}

func tableFromRecords(nt NodeType, rows []NodeRecord) (*NodeTable, error) {
	ids := make([]NodeID, len(rows))
	for i, r := range rows {
		ids[i] = r.NID
	}
	badAttrs := func(r NodeRecord) error {
		return PreconditionError("document", nt.String(), fmt.Sprintf("node %d has attributes %T", r.NID, r.Attrs))
	}

	switch nt {
	case NodeTheme:
		themes := make([]string, len(rows))
		descs := make([]string, len(rows))
		for i, r := range rows {
			a, ok := r.Attrs.(ThemeAttrs)
			if !ok {
				return nil, badAttrs(r)
			}
			themes[i], descs[i] = a.Theme, a.Description
		}
		return NewThemeTable(ids, themes, descs)
	case NodeSector:
		sectors := make([]string, len(rows))
		for i, r := range rows {
			a, ok := r.Attrs.(SectorAttrs)
			if !ok {
				return nil, badAttrs(r)
			}
			sectors[i] = a.Sector
		}
		return NewSectorTable(ids, sectors)
	case NodeSubIndustry, NodeIndustry:
		labels := make([]ClusterLabel, len(rows))
		texts := make([]string, len(rows))
		notes := make([]string, len(rows))
		for i, r := range rows {
			a, ok := r.Attrs.(ClusterAttrs)
			if !ok {
				return nil, badAttrs(r)
			}
			labels[i], texts[i], notes[i] = a.Label, a.Text, a.Note
		}
		t, err := NewClusterTable(nt, ids, labels)
		if err != nil {
			return nil, err
		}
		return t.WithClusterText(texts, notes)
	default:
		return nil, PreconditionError("document", nt.String(), "unknown node type")
	}
}

// UnmarshalJSON reads the flat form written by MarshalJSON, selecting the attribute shape
// from ntype.
func (r *NodeRecord) UnmarshalJSON(b []byte) error {
	var head struct {
		NID   NodeID    `json:"nid"`
		NType *NodeType `json:"ntype"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	if head.NType == nil {
		return fmt.Errorf("node %d: missing ntype", head.NID)
	}

	var attrs NodeAttrs
	switch *head.NType {
	case NodeTheme:
		var a ThemeAttrs
		if err := json.Unmarshal(b, &a); err != nil {
			return err
		}
		attrs = a
	case NodeSector:
		var a SectorAttrs
		if err := json.Unmarshal(b, &a); err != nil {
			return err
		}
		attrs = a
	case NodeSubIndustry, NodeIndustry:
		var a ClusterAttrs
		if err := json.Unmarshal(b, &a); err != nil {
			return err
		}
		attrs = a
	}

	r.NID, r.Type, r.Attrs = head.NID, *head.NType, attrs
	return nil
}
