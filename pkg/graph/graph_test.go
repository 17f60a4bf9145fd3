package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-kg/pkg/sortjoin"
)

func TestNodeType_RoundTrip(t *testing.T) {
	for _, nt := range NodeTypes() {
		got, err := ParseNodeType(nt.String())
		if err != nil {
			t.Fatalf("ParseNodeType(%q) error = %v", nt, err)
		}
		if got != nt {
			t.Errorf("ParseNodeType(%q) = %v", nt, got)
		}
	}
	if _, err := ParseNodeType("Galaxy"); err == nil {
		t.Error("expected error for unknown node type")
	}
	if NodeType(99).String() != "Unknown" {
		t.Error("out of range node type should render Unknown")
	}
}

func TestEdgeType_Endpoints(t *testing.T) {
	tests := []struct {
		etype EdgeType
		name  string
		src   NodeType
		dst   NodeType
	}{
		{EdgeThemeToSector, "ThemeToSector", NodeTheme, NodeSector},
		{EdgeThemeToSubIndustry, "ThemeToSubIndustry", NodeTheme, NodeSubIndustry},
		{EdgeSubIndustryToIndustry, "SubIndustryToIndustry", NodeSubIndustry, NodeIndustry},
		{EdgeIndustryToSector, "IndustryToSector", NodeIndustry, NodeSector},
	}
	for _, tt := range tests {
		if tt.etype.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.etype, tt.name)
		}
		if tt.etype.Source() != tt.src || tt.etype.Target() != tt.dst {
			t.Errorf("%s endpoints = %v->%v", tt.name, tt.etype.Source(), tt.etype.Target())
		}
		parsed, err := ParseEdgeType(tt.name)
		if err != nil || parsed != tt.etype {
			t.Errorf("ParseEdgeType(%q) = %v, %v", tt.name, parsed, err)
		}
	}
}

func TestNodeRecord_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		record   NodeRecord
		expected string
	}{
		{
			name:     "theme",
			record:   NodeRecord{NID: 0, Type: NodeTheme, Attrs: ThemeAttrs{Theme: "Cloud", Description: "Hosted compute"}},
			expected: `{"nid":0,"ntype":"Theme","theme":"Cloud","description":"Hosted compute"}`,
		},
		{
			name:     "sector",
			record:   NodeRecord{NID: 1, Type: NodeSector, Attrs: SectorAttrs{Sector: "Industrials"}},
			expected: `{"nid":1,"ntype":"Sector","sector":"Industrials"}`,
		},
		{
			name:     "cluster before augmentation",
			record:   NodeRecord{NID: 7, Type: NodeSubIndustry, Attrs: ClusterAttrs{Label: 3}},
			expected: `{"nid":7,"ntype":"SubIndustry","label":3}`,
		},
		{
			name:     "cluster after augmentation",
			record:   NodeRecord{NID: 9, Type: NodeIndustry, Attrs: ClusterAttrs{Label: 0, Text: "Automation", Note: "Tight"}},
			expected: `{"nid":9,"ntype":"Industry","label":0,"cluster_label":"Automation","evaluation_note":"Tight"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.record)
			if err != nil {
				t.Fatalf("Marshal error = %v", err)
			}
			if string(b) != tt.expected {
				t.Errorf("Marshal = %s, want %s", b, tt.expected)
			}
		})
	}
}

func TestEdgeRecord_JSON(t *testing.T) {
	rec := EdgeRecord{Src: 4, Dst: 9, Type: EdgeSubIndustryToIndustry}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	want := `{"eid":[4,9],"etype":"SubIndustryToIndustry"}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}

	var back EdgeRecord
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if back != rec {
		t.Errorf("Unmarshal = %+v, want %+v", back, rec)
	}
}

func TestNewTables_ColumnMismatch(t *testing.T) {
	if _, err := NewThemeTable([]NodeID{0, 1}, []string{"a"}, []string{"x", "y"}); !IsPrecondition(err) {
		t.Errorf("theme mismatch: expected precondition error, got %v", err)
	}
	if _, err := NewSectorTable([]NodeID{0}, nil); !IsPrecondition(err) {
		t.Errorf("sector mismatch: expected precondition error, got %v", err)
	}
	if _, err := NewClusterTable(NodeTheme, nil, nil); !IsPrecondition(err) {
		t.Errorf("non-cluster type: expected precondition error, got %v", err)
	}
	if _, err := NewEdgeTable(EdgeThemeToSector, []NodeID{1}, nil); !IsPrecondition(err) {
		t.Errorf("edge mismatch: expected precondition error, got %v", err)
	}
}

func TestNodeTable_Immutable(t *testing.T) {
	ids := []NodeID{0, 1}
	labels := []ClusterLabel{5, 6}
	tbl, err := NewClusterTable(NodeSubIndustry, ids, labels)
	if err != nil {
		t.Fatalf("NewClusterTable error = %v", err)
	}

	ids[0] = 100
	labels[0] = 100
	got := tbl.IDs()
	got[1] = 200
	if !reflect.DeepEqual(tbl.IDs(), []NodeID{0, 1}) {
		t.Errorf("table ids changed through aliases: %v", tbl.IDs())
	}
	if !reflect.DeepEqual(tbl.Labels(), []ClusterLabel{5, 6}) {
		t.Errorf("table labels changed through aliases: %v", tbl.Labels())
	}

	shifted, err := tbl.WithIDs([]NodeID{10, 11})
	if err != nil {
		t.Fatalf("WithIDs error = %v", err)
	}
	if tbl.ID(0) != 0 || shifted.ID(0) != 10 {
		t.Errorf("WithIDs mutated the receiver or failed to apply: %d, %d", tbl.ID(0), shifted.ID(0))
	}
	if !reflect.DeepEqual(shifted.Labels(), tbl.Labels()) {
		t.Error("WithIDs should keep attribute columns")
	}

	augmented, err := shifted.WithClusterText([]string{"A", "B"}, []string{"n1", "n2"})
	if err != nil {
		t.Fatalf("WithClusterText error = %v", err)
	}
	rec := augmented.Record(1)
	want := NodeRecord{NID: 11, Type: NodeSubIndustry, Attrs: ClusterAttrs{Label: 6, Text: "B", Note: "n2"}}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("Record(1) = %+v, want %+v", rec, want)
	}
	if shifted.Texts()[1] != "" {
		t.Error("WithClusterText mutated the receiver")
	}
}

func mustTheme(t *testing.T, ids []NodeID, themes ...string) *NodeTable {
	t.Helper()
	desc := make([]string, len(themes))
	tbl, err := NewThemeTable(ids, themes, desc)
	if err != nil {
		t.Fatalf("NewThemeTable error = %v", err)
	}
	return tbl
}

func TestCollection_AppendDoesNotMutate(t *testing.T) {
	base := NewCollection(nil, nil)
	themes := mustTheme(t, []NodeID{0, 2}, "a", "b")
	sectors, _ := NewSectorTable([]NodeID{1}, []string{"S"})
	edges, _ := NewEdgeTable(EdgeThemeToSector, []NodeID{0, 2}, []NodeID{1, 1})

	c1 := base.AppendNodes(themes)
	c2 := c1.AppendNodes(sectors)
	c3 := c2.AppendEdges(edges)

	if base.NumNodes() != 0 || c1.NumNodes() != 2 || c2.NumNodes() != 3 {
		t.Errorf("node counts = %d, %d, %d", base.NumNodes(), c1.NumNodes(), c2.NumNodes())
	}
	if c2.NumEdges() != 0 || c3.NumEdges() != 2 {
		t.Errorf("edge counts = %d, %d", c2.NumEdges(), c3.NumEdges())
	}
	if max, ok := c3.MaxNodeID(); !ok || max != 2 {
		t.Errorf("MaxNodeID = %d, %v", max, ok)
	}
	if _, ok := base.MaxNodeID(); ok {
		t.Error("empty collection should have no max id")
	}
	if !reflect.DeepEqual(c3.NodeIDs(), []NodeID{0, 2, 1}) {
		t.Errorf("NodeIDs = %v", c3.NodeIDs())
	}
	if tbl, ok := c3.Nodes(NodeSector); !ok || tbl != sectors {
		t.Error("Nodes(Sector) lookup failed")
	}
	if _, ok := c3.Edges(EdgeIndustryToSector); ok {
		t.Error("Edges(IndustryToSector) should be absent")
	}
}

func TestCollection_ReplaceNodes(t *testing.T) {
	orig, _ := NewClusterTable(NodeIndustry, []NodeID{5, 6}, []ClusterLabel{0, 1})
	c := NewCollection([]*NodeTable{orig}, nil)

	aug, _ := orig.WithClusterText([]string{"x", "y"}, []string{"", ""})
	replaced, err := c.ReplaceNodes(aug)
	if err != nil {
		t.Fatalf("ReplaceNodes error = %v", err)
	}
	if got, _ := replaced.Nodes(NodeIndustry); got != aug {
		t.Error("replacement not installed")
	}
	if got, _ := c.Nodes(NodeIndustry); got != orig {
		t.Error("ReplaceNodes mutated the receiver")
	}

	moved, _ := orig.WithIDs([]NodeID{5, 7})
	_, err = c.ReplaceNodes(moved)
	if !IsIntegrity(err) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	var ge *Error
	if !errors.As(err, &ge) || !reflect.DeepEqual(ge.IDs, []NodeID{6}) {
		t.Errorf("expected offending id 6, got %v", err)
	}

	sub, _ := NewClusterTable(NodeSubIndustry, nil, nil)
	if _, err := c.ReplaceNodes(sub); !IsPrecondition(err) {
		t.Errorf("expected precondition error, got %v", err)
	}
}

func TestError_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "integrity with ids",
			err:      IntegrityError("validate", "Theme", []NodeID{3, 4}, "duplicate node ids"),
			expected: "validate Theme (duplicate node ids) ids=[3 4]: integrity violation",
		},
		{
			name:     "precondition",
			err:      PreconditionError("industry", "Industry", "expected 2 labels, got 3"),
			expected: "industry Industry (expected 2 labels, got 3): precondition violated",
		},
		{
			name:     "minimal",
			err:      NewError("assemble").Cause(ErrIntegrity).Err(),
			expected: "assemble: integrity violation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.expected)
			}
		})
	}
}

func TestError_ManyIDsTruncated(t *testing.T) {
	ids := make([]NodeID, 25)
	for i := range ids {
		ids[i] = NodeID(i)
	}
	msg := IntegrityError("validate", "", ids, "islands").Error()
	want := "validate (islands) ids=[0 1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16 17 18 19 ... +5]: integrity violation"
	if msg != want {
		t.Errorf("Error() = %q\nwant      %q", msg, want)
	}
}

func TestJoinError_WrapsSortJoin(t *testing.T) {
	_, joinErr := sortjoin.Join([]int64{1}, []int64{2})
	err := JoinError("sub_industry", "SubIndustry", joinErr)
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound through the chain, got %v", err)
	}
	var nf *sortjoin.KeyNotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected *sortjoin.KeyNotFoundError in chain")
	}
	if JoinError("x", "y", nil) != nil {
		t.Error("JoinError(nil) should be nil")
	}
	if errors.Is(err, ErrIntegrity) {
		t.Error("join error must not match ErrIntegrity")
	}
	if (&Error{Cause: fmt.Errorf("x")}).Is(nil) {
		t.Error("Is(nil) should be false")
	}
}

func TestDocument_RoundTrip(t *testing.T) {
	themes, _ := NewThemeTable([]NodeID{0, 2}, []string{"Cloud", "Chips"}, []string{"d0", "d2"})
	sectors, _ := NewSectorTable([]NodeID{1}, []string{"Tech"})
	subs, _ := NewClusterTable(NodeSubIndustry, []NodeID{3}, []ClusterLabel{4})
	subs, _ = subs.WithClusterText([]string{"Compute"}, []string{"coherent"})
	ts, _ := NewEdgeTable(EdgeThemeToSector, []NodeID{0, 2}, []NodeID{1, 1})
	tsub, _ := NewEdgeTable(EdgeThemeToSubIndustry, []NodeID{0, 2}, []NodeID{3, 3})
	c := NewCollection([]*NodeTable{themes, sectors, subs}, []*EdgeTable{ts, tsub})

	raw, err := json.Marshal(NewDocument(c))
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	back, err := doc.Collection()
	if err != nil {
		t.Fatalf("Collection error = %v", err)
	}

	if !reflect.DeepEqual(NewDocument(back), NewDocument(c)) {
		t.Errorf("round trip changed the collection:\n%+v\n%+v", NewDocument(back), NewDocument(c))
	}
	if got, _ := back.Nodes(NodeSubIndustry); got.Texts()[0] != "Compute" {
		t.Errorf("cluster text lost: %v", got.Texts())
	}
}

func TestDocument_RoundTripLargeLabels(t *testing.T) {
	// 2^53+1 and 2^53 are distinct int64 values with the same float64
	labels := []ClusterLabel{9007199254740993, 9007199254740992}
	subs, _ := NewClusterTable(NodeSubIndustry, []NodeID{7, 8}, labels)
	c := NewCollection([]*NodeTable{subs}, nil)

	raw, err := json.Marshal(NewDocument(c))
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if !strings.Contains(string(raw), `"label":9007199254740993`) {
		t.Errorf("label not written exactly: %s", raw)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	back, err := doc.Collection()
	if err != nil {
		t.Fatalf("Collection error = %v", err)
	}
	got, _ := back.Nodes(NodeSubIndustry)
	for i, want := range labels {
		if got.Labels()[i] != want {
			t.Errorf("label %d came back as %d", want, got.Labels()[i])
		}
	}
}

func TestNodeRecord_UnmarshalMissingType(t *testing.T) {
	var r NodeRecord
	if err := json.Unmarshal([]byte(`{"nid":1,"theme":"x"}`), &r); err == nil {
		t.Error("expected error for record without ntype")
	}
	if err := json.Unmarshal([]byte(`{"nid":1,"ntype":"Galaxy"}`), &r); err == nil {
		t.Error("expected error for unknown ntype")
	}
}
