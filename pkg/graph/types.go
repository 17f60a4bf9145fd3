package graph

import (
	"encoding/json"
	"fmt"
)

// NodeID is a node identifier, unique across every node table of a collection once ids have
// been reassigned.
type NodeID int64

// ClusterLabel is an opaque group identifier produced by an external clustering step. It is
// only comparable within the layer transition that produced it and is never a NodeID.
type ClusterLabel int64

// NodeType tags a node table and selects the attribute shape of its rows.
type NodeType int

const (
	NodeTheme NodeType = iota
	NodeSector
	NodeSubIndustry
	NodeIndustry
)

var nodeTypeNames = [...]string{
	NodeTheme:       "Theme",
	NodeSector:      "Sector",
	NodeSubIndustry: "SubIndustry",
	NodeIndustry:    "Industry",
}

// NodeTypes lists every node type in hierarchy order, leaves first.
func NodeTypes() []NodeType {
	return []NodeType{NodeTheme, NodeSubIndustry, NodeIndustry, NodeSector}
}

func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nodeTypeNames) {
		return "Unknown"
	}
	return nodeTypeNames[t]
}

// IsCluster reports whether nodes of this type are synthesized from cluster labels.
func (t NodeType) IsCluster() bool {
	return t == NodeSubIndustry || t == NodeIndustry
}

// ParseNodeType converts a wire name back to a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	for i, name := range nodeTypeNames {
		if name == s {
			return NodeType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}

func (t NodeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *NodeType) UnmarshalText(b []byte) error {
	v, err := ParseNodeType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// EdgeType tags an edge table. Every edge type links exactly one source node type to one
// destination node type.
type EdgeType int

const (
	EdgeThemeToSector EdgeType = iota
	EdgeThemeToSubIndustry
	EdgeSubIndustryToIndustry
	EdgeIndustryToSector
)

type edgeTypeInfo struct {
	name string
	src  NodeType
	dst  NodeType
}

var edgeTypeInfos = [...]edgeTypeInfo{
	EdgeThemeToSector:         {"ThemeToSector", NodeTheme, NodeSector},
	EdgeThemeToSubIndustry:    {"ThemeToSubIndustry", NodeTheme, NodeSubIndustry},
	EdgeSubIndustryToIndustry: {"SubIndustryToIndustry", NodeSubIndustry, NodeIndustry},
	EdgeIndustryToSector:      {"IndustryToSector", NodeIndustry, NodeSector},
}

// EdgeTypes lists every edge type.
func EdgeTypes() []EdgeType {
	return []EdgeType{EdgeThemeToSector, EdgeThemeToSubIndustry, EdgeSubIndustryToIndustry, EdgeIndustryToSector}
}

func (t EdgeType) valid() bool {
	return t >= 0 && int(t) < len(edgeTypeInfos)
}

func (t EdgeType) String() string {
	if !t.valid() {
		return "Unknown"
	}
	return edgeTypeInfos[t].name
}

// Source returns the node type at the tail of edges of this type.
func (t EdgeType) Source() NodeType {
	return edgeTypeInfos[t].src
}

// Target returns the node type at the head of edges of this type.
func (t EdgeType) Target() NodeType {
	return edgeTypeInfos[t].dst
}

// ParseEdgeType converts a wire name back to an EdgeType.
func ParseEdgeType(s string) (EdgeType, error) {
	for i, info := range edgeTypeInfos {
		if info.name == s {
			return EdgeType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown edge type %q", s)
}

func (t EdgeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EdgeType) UnmarshalText(b []byte) error {
	v, err := ParseEdgeType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// NodeAttrs is the per-type attribute shape of a node row. The concrete type is selected by
// the owning table's NodeType: ThemeAttrs, SectorAttrs or ClusterAttrs.
type NodeAttrs interface {
	nodeAttrs()
}

// ThemeAttrs are the attributes of a Theme node.
type ThemeAttrs struct {
	Theme       string `json:"theme"`
	Description string `json:"description"`
}

// SectorAttrs are the attributes of a Sector node.
type SectorAttrs struct {
	Sector string `json:"sector"`
}

// ClusterAttrs are the attributes of a SubIndustry or Industry node. Text and Note are filled
// by LLM augmentation and are empty before it.
type ClusterAttrs struct {
	Label ClusterLabel `json:"label"`
	Text  string       `json:"cluster_label,omitempty"`
	Note  string       `json:"evaluation_note,omitempty"`
}

func (ThemeAttrs) nodeAttrs()   {}
func (SectorAttrs) nodeAttrs()  {}
func (ClusterAttrs) nodeAttrs() {}

// NodeRecord is one row of a node table.
type NodeRecord struct {
	NID   NodeID
	Type  NodeType
	Attrs NodeAttrs
}

type nodeHead struct {
	NID   NodeID `json:"nid"`
	NType string `json:"ntype"`
}

// MarshalJSON flattens the attributes next to nid and ntype:
// {"nid": 3, "ntype": "Theme", "theme": "...", "description": "..."}.
// Embedding keeps int64 labels exact.
func (r NodeRecord) MarshalJSON() ([]byte, error) {
	head := nodeHead{NID: r.NID, NType: r.Type.String()}
	switch a := r.Attrs.(type) {
	case nil:
		return json.Marshal(head)
	case ThemeAttrs:
		return json.Marshal(struct {
			nodeHead
			ThemeAttrs
		}{head, a})
	case SectorAttrs:
		return json.Marshal(struct {
			nodeHead
			SectorAttrs
		}{head, a})
	case ClusterAttrs:
		return json.Marshal(struct {
			nodeHead
			ClusterAttrs
		}{head, a})
	}
	return nil, fmt.Errorf("node %d: unsupported attributes %T", r.NID, r.Attrs)
}

// EdgeRecord is one row of an edge table.
type EdgeRecord struct {
	Src  NodeID
	Dst  NodeID
	Type EdgeType
}

type edgeRecordJSON struct {
	EID   [2]NodeID `json:"eid"`
	EType EdgeType  `json:"etype"`
}

// MarshalJSON renders {"eid": [src, dst], "etype": "ThemeToSector"}.
func (r EdgeRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(edgeRecordJSON{EID: [2]NodeID{r.Src, r.Dst}, EType: r.Type})
}

func (r *EdgeRecord) UnmarshalJSON(b []byte) error {
	var raw edgeRecordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Src, r.Dst, r.Type = raw.EID[0], raw.EID[1], raw.EType
	return nil
}
