package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.GraphNodes == nil || r.GraphEdges == nil {
		t.Error("graph gauges not initialized")
	}
	if r.ValidationsTotal == nil || r.LayerTransitionsTotal == nil {
		t.Error("pipeline counters not initialized")
	}
	if r.StoreWritesTotal == nil {
		t.Error("store counters not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()

	r1.RecordTransition("industry", nil, time.Millisecond)

	c1, _ := r1.LayerTransitionsTotal.GetMetricWithLabelValues("industry", "success")
	c2, _ := r2.LayerTransitionsTotal.GetMetricWithLabelValues("industry", "success")
	if counterValue(t, c1) != 1 || counterValue(t, c2) != 0 {
		t.Error("registries must not share counters")
	}
}

func TestRecordValidation(t *testing.T) {
	r := NewRegistry()

	r.RecordValidation("base", nil, time.Millisecond)
	r.RecordValidation("base", nil, time.Millisecond)
	r.RecordValidation("base", errors.New("island"), time.Millisecond)

	ok, err := r.ValidationsTotal.GetMetricWithLabelValues("base", "success")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, ok); v != 2 {
		t.Errorf("success count = %v, want 2", v)
	}

	failed, _ := r.ValidationsTotal.GetMetricWithLabelValues("base", "error")
	if v := counterValue(t, failed); v != 1 {
		t.Errorf("error count = %v, want 1", v)
	}
}

func TestRecordAllocationAndJoin(t *testing.T) {
	r := NewRegistry()

	r.RecordAllocation("SubIndustry", 4)
	r.RecordAllocation("SubIndustry", 2)
	r.RecordJoin("layer", 10)

	alloc, _ := r.IDAllocationsTotal.GetMetricWithLabelValues("SubIndustry")
	if v := counterValue(t, alloc); v != 6 {
		t.Errorf("allocations = %v, want 6", v)
	}
	join, _ := r.JoinLookupsTotal.GetMetricWithLabelValues("layer")
	if v := counterValue(t, join); v != 10 {
		t.Errorf("join lookups = %v, want 10", v)
	}
}

func TestRecordAugment(t *testing.T) {
	r := NewRegistry()
	r.RecordAugment("industry", 3, 1)

	matched, _ := r.AugmentedRowsTotal.GetMetricWithLabelValues("industry", "matched")
	unmatched, _ := r.AugmentedRowsTotal.GetMetricWithLabelValues("industry", "unmatched")
	if counterValue(t, matched) != 3 || counterValue(t, unmatched) != 1 {
		t.Error("augment counters wrong")
	}
}

func TestRecordStoreWrite(t *testing.T) {
	r := NewRegistry()

	r.RecordStoreWrite("file", 1024, nil)
	r.RecordStoreWrite("file", 4096, errors.New("disk full"))

	written, _ := r.StoreBytesWritten.GetMetricWithLabelValues("file")
	if v := counterValue(t, written); v != 1024 {
		t.Errorf("bytes written = %v, want 1024 (failed writes excluded)", v)
	}
	failed, _ := r.StoreWritesTotal.GetMetricWithLabelValues("file", "error")
	if v := counterValue(t, failed); v != 1 {
		t.Errorf("failed writes = %v, want 1", v)
	}
}

func TestSetGraphSize(t *testing.T) {
	r := NewRegistry()
	r.SetGraphSize(
		map[string]int{"Theme": 3, "Sector": 1},
		map[string]int{"ThemeToSector": 3},
	)
	r.SetGraphSize(map[string]int{"Theme": 5}, nil)

	theme, _ := r.GraphNodes.GetMetricWithLabelValues("Theme")
	if v := gaugeValue(t, theme); v != 5 {
		t.Errorf("Theme nodes = %v, want 5", v)
	}
	edges, _ := r.GraphEdges.GetMetricWithLabelValues("ThemeToSector")
	if v := gaugeValue(t, edges); v != 3 {
		t.Errorf("ThemeToSector edges = %v, want 3", v)
	}
}

func TestRunHistogram(t *testing.T) {
	r := NewRegistry()
	r.RecordRun(nil, 150*time.Millisecond)
	r.RecordRun(errors.New("integrity"), 20*time.Millisecond)

	var metric dto.Metric
	if err := r.RunDuration.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("sample count = %v, want 2", metric.Histogram.GetSampleCount())
	}
}

func TestGetPrometheusRegistry(t *testing.T) {
	r := NewRegistry()
	r.RecordTransition("sub_industry", nil, time.Millisecond)

	metrics, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	metricNames := make(map[string]bool)
	for _, m := range metrics {
		metricNames[m.GetName()] = true
	}
	for _, expected := range []string{
		"kg_run_duration_seconds",
		"kg_layer_transitions_total",
		"kg_layer_transition_duration_seconds",
	} {
		if !metricNames[expected] {
			t.Errorf("Expected metric %s not found", expected)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.RecordRun(nil, time.Second)

	path := filepath.Join(t.TempDir(), "kg.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `kg_runs_total{status="success"} 1`) {
		t.Errorf("textfile missing run counter:\n%s", data)
	}
}
