package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-kg/pkg/clustereval"
	"github.com/dd0wney/cluso-kg/pkg/config"
	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/kg"
	"github.com/dd0wney/cluso-kg/pkg/layer"
	"github.com/dd0wney/cluso-kg/pkg/logging"
	"github.com/dd0wney/cluso-kg/pkg/source"
	"github.com/dd0wney/cluso-kg/pkg/store"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, g.Write(&metric))
	return metric.Gauge.GetValue()
}

func threeThemes() Inputs {
	return Inputs{
		Themes: []source.Theme{
			{Theme: "A", Sector: "S"},
			{Theme: "B", Sector: "S"},
			{Theme: "C", Sector: "S"},
		},
		SubIndustryLabels: []graph.ClusterLabel{0, 0, 1},
		IndustryLabels:    []graph.ClusterLabel{0, 0},
	}
}

func TestRunEndToEnd(t *testing.T) {
	var buf bytes.Buffer
	rc := NewRunContext(logging.NewJSONLogger(&buf, logging.DebugLevel), layer.SingleSector)

	res, err := Run(context.Background(), rc, threeThemes())
	require.NoError(t, err)
	assert.Equal(t, rc.RunID, res.RunID)

	g := res.Graph
	// 3 themes, 1 sector, 2 sub-industries, 1 industry
	assert.Equal(t, 7, g.NumNodes())
	// 3 theme->sector, 3 theme->sub, 2 sub->industry, 1 industry->sector
	assert.Equal(t, 9, g.NumEdges())

	sector := g.NodesOfType(graph.NodeSector)
	require.Len(t, sector, 1)
	reach := g.Reachable(sector[0].NID, kg.Incoming,
		graph.EdgeIndustryToSector, graph.EdgeSubIndustryToIndustry, graph.EdgeThemeToSubIndustry)
	for _, th := range g.NodesOfType(graph.NodeTheme) {
		assert.Contains(t, reach, th.NID)
	}

	assert.Contains(t, res.Prompts.SubIndustry, "\"0\": [\"A\",\"B\"]")
	assert.Contains(t, res.Prompts.Industry, "\"0\": [[\"A\",\"B\"],[\"C\"]]")
	assert.NotEmpty(t, res.Prompts.System)
	assert.Empty(t, res.Augment)

	m := rc.Metrics
	assert.Equal(t, 1.0, counterValue(t, m.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, 3.0, gaugeValue(t, m.GraphNodes.WithLabelValues("Theme")))
	assert.Equal(t, 1.0, gaugeValue(t, m.GraphEdges.WithLabelValues("IndustryToSector")))
	assert.Equal(t, 1.0, counterValue(t, m.LayerTransitionsTotal.WithLabelValues("sector_linked", "success")))

	logs := buf.String()
	assert.Contains(t, logs, rc.RunID.String())
	assert.Contains(t, logs, `"component":"pipeline"`)
}

func TestRunAugments(t *testing.T) {
	in := threeThemes()
	in.Evals = []clustereval.ClustersEval{
		{Level: clustereval.LevelSubIndustry, Members: []clustereval.Member{
			{Label: 0, Text: "Renewables", Note: "ok"},
			{Label: 1, Text: "Other"},
		}},
		{Level: clustereval.LevelIndustry, Members: []clustereval.Member{
			{Label: 0, Text: "Energy"},
			{Label: 9, Text: "Unused"},
		}},
	}
	rc := NewRunContext(nil, layer.SingleSector)

	res, err := Run(context.Background(), rc, in)
	require.NoError(t, err)
	require.Len(t, res.Augment, 2)
	assert.Equal(t, 2, res.Augment[0].Matched)
	assert.Equal(t, 1, res.Augment[1].Unused)

	subs := res.Graph.NodesOfType(graph.NodeSubIndustry)
	require.Len(t, subs, 2)
	assert.Equal(t, "Renewables", subs[0].Attrs.(graph.ClusterAttrs).Text)
	inds := res.Graph.NodesOfType(graph.NodeIndustry)
	assert.Equal(t, "Energy", inds[0].Attrs.(graph.ClusterAttrs).Text)

	// prompts describe the clusters, not the augmentation
	assert.NotContains(t, res.Prompts.SubIndustry, "Renewables")

	assert.Equal(t, 2.0, counterValue(t, rc.Metrics.AugmentedRowsTotal.WithLabelValues("sub_industry", "matched")))
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Inputs)
		check  func(error) bool
	}{
		{
			name:   "no themes",
			mutate: func(in *Inputs) { in.Themes = nil },
			check:  graph.IsPrecondition,
		},
		{
			name:   "short sub labels",
			mutate: func(in *Inputs) { in.SubIndustryLabels = in.SubIndustryLabels[:2] },
			check:  graph.IsPrecondition,
		},
		{
			name:   "industry labels for the wrong layer",
			mutate: func(in *Inputs) { in.IndustryLabels = []graph.ClusterLabel{0, 0, 0} },
			check:  graph.IsPrecondition,
		},
		{
			name: "two sectors",
			mutate: func(in *Inputs) {
				in.Themes[2].Sector = "T"
			},
			check: graph.IsPrecondition,
		},
		{
			name: "evaluation of an unknown level",
			mutate: func(in *Inputs) {
				in.Evals = []clustereval.ClustersEval{{Level: "sector"}}
			},
			check: graph.IsPrecondition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := threeThemes()
			tt.mutate(&in)
			rc := NewRunContext(nil, layer.SingleSector)

			res, err := Run(context.Background(), rc, in)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, tt.check(err), "unexpected error %v", err)
			assert.Equal(t, 1.0, counterValue(t, rc.Metrics.RunsTotal.WithLabelValues("error")))
		})
	}
}

func TestRunAllPairsSectors(t *testing.T) {
	in := threeThemes()
	in.Themes[2].Sector = "T"
	var buf bytes.Buffer
	rc := NewRunContext(logging.NewJSONLogger(&buf, logging.InfoLevel), layer.AllPairs)

	res, err := Run(context.Background(), rc, in)
	require.NoError(t, err)
	assert.Len(t, res.Graph.NodesOfType(graph.NodeSector), 2)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, NewRunContext(nil, layer.SingleSector), threeThemes())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunContextWithoutLogger(t *testing.T) {
	rc := &RunContext{RunID: uuid.New()}
	res, err := Run(context.Background(), rc, threeThemes())
	require.NoError(t, err)
	assert.Equal(t, 7, res.Graph.NumNodes())
}

type recordingSink struct {
	name string
	err  error
	got  []uuid.UUID
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Put(_ context.Context, id uuid.UUID, c *graph.Collection) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, id)
	return nil
}

func TestExport(t *testing.T) {
	rc := NewRunContext(nil, layer.SingleSector)
	res, err := Run(context.Background(), rc, threeThemes())
	require.NoError(t, err)

	files, err := store.NewFileStore(t.TempDir(), store.Options{Metrics: rc.Metrics})
	require.NoError(t, err)
	first := &recordingSink{name: "first"}
	require.NoError(t, Export(context.Background(), rc, res, first, files))
	assert.Equal(t, []uuid.UUID{rc.RunID}, first.got)

	c, _, err := files.Open(rc.RunID)
	require.NoError(t, err)
	_, err = kg.Assemble(c)
	assert.NoError(t, err)

	broken := &recordingSink{name: "broken", err: errors.New("disk full")}
	after := &recordingSink{name: "after"}
	err = Export(context.Background(), rc, res, broken, after)
	require.Error(t, err)
	assert.Equal(t, "export to broken: disk full", err.Error())
	assert.Empty(t, after.got)
}

func TestPromptsWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	p := Prompts{System: "sys", SubIndustry: "sub", Industry: "ind"}
	require.NoError(t, p.WriteDir(dir))

	data, err := os.ReadFile(filepath.Join(dir, "industry.txt"))
	require.NoError(t, err)
	assert.Equal(t, "ind\n", string(data))
}

func TestLoadInputs(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	cfg := config.InputsConfig{
		Themes: write("themes.jsonl", strings.Join([]string{
			`{"theme": "A", "sector": "S"}`,
			`{"theme": "B", "sector": "S"}`,
		}, "\n")),
		SubIndustryLabels: write("sub.json", "[3, 3]"),
		IndustryLabels:    write("ind.json", "[0]"),
		IndustryEval:      write("ind_eval.json", `{"0": {"cluster_label": "Energy"}}`),
	}

	in, err := LoadInputs(cfg)
	require.NoError(t, err)
	assert.Len(t, in.Themes, 2)
	assert.Equal(t, []graph.ClusterLabel{3, 3}, in.SubIndustryLabels)
	require.Len(t, in.Evals, 1)
	assert.Equal(t, clustereval.LevelIndustry, in.Evals[0].Level)

	res, err := Run(context.Background(), NewRunContext(nil, layer.SingleSector), in)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Graph.NumNodes())

	cfg.IndustryLabels = write("bad.json", `["x"]`)
	_, err = LoadInputs(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON array of integers")
}
