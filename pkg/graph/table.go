package graph

import "fmt"

// NodeTable is an ordered, columnar collection of nodes sharing one NodeType. Only the
// attribute columns of its type are populated. Tables are immutable: every With* method
// returns a new table and column accessors return copies.
type NodeTable struct {
	ntype NodeType
	ids   []NodeID

	// Theme
	themes       []string
	descriptions []string

	// Sector
	sectors []string

	// SubIndustry and Industry
	labels []ClusterLabel
	texts  []string
	notes  []string
}

// NewThemeTable builds a Theme table. All columns must have the same length.
func NewThemeTable(ids []NodeID, themes, descriptions []string) (*NodeTable, error) {
	if len(themes) != len(ids) || len(descriptions) != len(ids) {
		return nil, columnMismatch(NodeTheme, len(ids), len(themes), len(descriptions))
	}
	return &NodeTable{
		ntype:        NodeTheme,
		ids:          cloneSlice(ids),
		themes:       cloneSlice(themes),
		descriptions: cloneSlice(descriptions),
	}, nil
}

// NewSectorTable builds a Sector table.
func NewSectorTable(ids []NodeID, sectors []string) (*NodeTable, error) {
	if len(sectors) != len(ids) {
		return nil, columnMismatch(NodeSector, len(ids), len(sectors))
	}
	return &NodeTable{
		ntype:   NodeSector,
		ids:     cloneSlice(ids),
		sectors: cloneSlice(sectors),
	}, nil
}

// NewClusterTable builds a SubIndustry or Industry table with one row per label and empty
// augmentation columns.
func NewClusterTable(ntype NodeType, ids []NodeID, labels []ClusterLabel) (*NodeTable, error) {
	if !ntype.IsCluster() {
		return nil, PreconditionError("table", ntype.String(), "not a cluster node type")
	}
	if len(labels) != len(ids) {
		return nil, columnMismatch(ntype, len(ids), len(labels))
	}
	return &NodeTable{
		ntype:  ntype,
		ids:    cloneSlice(ids),
		labels: cloneSlice(labels),
		texts:  make([]string, len(ids)),
		notes:  make([]string, len(ids)),
	}, nil
}

func columnMismatch(ntype NodeType, rows int, cols ...int) error {
	return PreconditionError("table", ntype.String(),
		fmt.Sprintf("column lengths %v do not match %d ids", cols, rows))
}

// Type returns the node type shared by all rows.
func (t *NodeTable) Type() NodeType { return t.ntype }

// Len returns the number of rows.
func (t *NodeTable) Len() int { return len(t.ids) }

// IDs returns a copy of the id column.
func (t *NodeTable) IDs() []NodeID { return cloneSlice(t.ids) }

// ID returns the id of row i.
func (t *NodeTable) ID(i int) NodeID { return t.ids[i] }

// Themes returns a copy of the theme column; nil for non-Theme tables.
func (t *NodeTable) Themes() []string { return cloneSlice(t.themes) }

// Descriptions returns a copy of the description column; nil for non-Theme tables.
func (t *NodeTable) Descriptions() []string { return cloneSlice(t.descriptions) }

// Sectors returns a copy of the sector name column; nil for non-Sector tables.
func (t *NodeTable) Sectors() []string { return cloneSlice(t.sectors) }

// Labels returns a copy of the cluster label column; nil for non-cluster tables.
func (t *NodeTable) Labels() []ClusterLabel { return cloneSlice(t.labels) }

// Texts returns a copy of the LLM text label column; nil for non-cluster tables.
func (t *NodeTable) Texts() []string { return cloneSlice(t.texts) }

// Notes returns a copy of the LLM evaluation note column; nil for non-cluster tables.
func (t *NodeTable) Notes() []string { return cloneSlice(t.notes) }

// Record returns row i in record form.
func (t *NodeTable) Record(i int) NodeRecord {
	rec := NodeRecord{NID: t.ids[i], Type: t.ntype}
	switch t.ntype {
	case NodeTheme:
		rec.Attrs = ThemeAttrs{Theme: t.themes[i], Description: t.descriptions[i]}
	case NodeSector:
		rec.Attrs = SectorAttrs{Sector: t.sectors[i]}
	case NodeSubIndustry, NodeIndustry:
		rec.Attrs = ClusterAttrs{Label: t.labels[i], Text: t.texts[i], Note: t.notes[i]}
	}
	return rec
}

// Records returns every row in record form.
func (t *NodeTable) Records() []NodeRecord {
	out := make([]NodeRecord, t.Len())
	for i := range out {
		out[i] = t.Record(i)
	}
	return out
}

// WithIDs returns a copy of the table carrying the given ids. Attribute columns are shared
// by value, row order is unchanged.
func (t *NodeTable) WithIDs(ids []NodeID) (*NodeTable, error) {
	if len(ids) != len(t.ids) {
		return nil, columnMismatch(t.ntype, len(t.ids), len(ids))
	}
	out := t.clone()
	out.ids = cloneSlice(ids)
	return out, nil
}

// WithClusterText returns a copy of a cluster table with its text and note columns replaced
// wholesale. Ids and labels are unchanged.
func (t *NodeTable) WithClusterText(texts, notes []string) (*NodeTable, error) {
	if !t.ntype.IsCluster() {
		return nil, PreconditionError("table", t.ntype.String(), "cluster text on a non-cluster table")
	}
	if len(texts) != len(t.ids) || len(notes) != len(t.ids) {
		return nil, columnMismatch(t.ntype, len(t.ids), len(texts), len(notes))
	}
	out := t.clone()
	out.texts = cloneSlice(texts)
	out.notes = cloneSlice(notes)
	return out, nil
}

func (t *NodeTable) clone() *NodeTable {
	return &NodeTable{
		ntype:        t.ntype,
		ids:          cloneSlice(t.ids),
		themes:       cloneSlice(t.themes),
		descriptions: cloneSlice(t.descriptions),
		sectors:      cloneSlice(t.sectors),
		labels:       cloneSlice(t.labels),
		texts:        cloneSlice(t.texts),
		notes:        cloneSlice(t.notes),
	}
}

// EdgeTable is a collection of edges sharing one EdgeType, stored as parallel endpoint
// columns. Tables are immutable.
type EdgeTable struct {
	etype EdgeType
	src   []NodeID
	dst   []NodeID
}

// NewEdgeTable builds an edge table from parallel source and destination columns.
func NewEdgeTable(etype EdgeType, src, dst []NodeID) (*EdgeTable, error) {
	if !etype.valid() {
		return nil, PreconditionError("table", etype.String(), "unknown edge type")
	}
	if len(src) != len(dst) {
		return nil, PreconditionError("table", etype.String(),
			fmt.Sprintf("%d sources but %d destinations", len(src), len(dst)))
	}
	return &EdgeTable{etype: etype, src: cloneSlice(src), dst: cloneSlice(dst)}, nil
}

// Type returns the edge type shared by all rows.
func (t *EdgeTable) Type() EdgeType { return t.etype }

// Len returns the number of edges.
func (t *EdgeTable) Len() int { return len(t.src) }

// Src returns a copy of the source column.
func (t *EdgeTable) Src() []NodeID { return cloneSlice(t.src) }

// Dst returns a copy of the destination column.
func (t *EdgeTable) Dst() []NodeID { return cloneSlice(t.dst) }

// Record returns edge i in record form.
func (t *EdgeTable) Record(i int) EdgeRecord {
	return EdgeRecord{Src: t.src[i], Dst: t.dst[i], Type: t.etype}
}

// Records returns every edge in record form.
func (t *EdgeTable) Records() []EdgeRecord {
	out := make([]EdgeRecord, t.Len())
	for i := range out {
		out[i] = t.Record(i)
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
