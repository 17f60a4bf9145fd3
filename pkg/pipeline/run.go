package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-kg/pkg/clustereval"
	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/kg"
	"github.com/dd0wney/cluso-kg/pkg/layer"
	"github.com/dd0wney/cluso-kg/pkg/logging"
	"github.com/dd0wney/cluso-kg/pkg/prompts"
	"github.com/dd0wney/cluso-kg/pkg/source"
)

// Prompts are the LLM messages for the run's clusters, built before augmentation.
type Prompts struct {
	System      string
	SubIndustry string
	Industry    string
}

// WriteDir writes the prompts as text files under dir.
func (p Prompts) WriteDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, text := range map[string]string{
		"system.txt":       p.System,
		"sub_industry.txt": p.SubIndustry,
		"industry.txt":     p.Industry,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text+"\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Result is a finished run.
type Result struct {
	RunID    uuid.UUID
	Graph    *kg.Graph
	Prompts  Prompts
	Augment  []clustereval.Stats
	Duration time.Duration
}

// Run executes every stage in order and stops at the first error. Errors are returned as
// produced by the failing stage.
func Run(ctx context.Context, rc *RunContext, in Inputs) (res *Result, err error) {
	log := rc.logger().With(logging.Component("pipeline"))
	timer := logging.StartTimer(log, "pipeline run", logging.Count(len(in.Themes)))
	defer func() {
		if rc.Metrics != nil {
			rc.Metrics.RecordRun(err, timer.Elapsed())
		}
		if err != nil {
			timer.EndError(err)
		}
	}()

	builder := layer.New(layer.Options{
		Logger:       rc.Logger,
		Metrics:      rc.Metrics,
		SectorPolicy: rc.SectorPolicy,
	})

	base, err := source.ToBase(in.Themes)
	if err != nil {
		return nil, err
	}
	log.Info("base tables built",
		logging.Count(len(in.Themes)), logging.Int("sectors", len(source.Sectors(in.Themes))))

	s, err := builder.Base(base)
	if err != nil {
		return nil, err
	}
	for _, step := range []func(layer.Snapshot) (layer.Snapshot, error){
		func(s layer.Snapshot) (layer.Snapshot, error) { return builder.SubIndustries(s, in.SubIndustryLabels) },
		func(s layer.Snapshot) (layer.Snapshot, error) { return builder.Industries(s, in.IndustryLabels) },
		builder.LinkSectors,
	} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s, err = step(s); err != nil {
			return nil, err
		}
	}

	p, err := buildPrompts(s.Collection)
	if err != nil {
		return nil, err
	}

	c := s.Collection
	var stats []clustereval.Stats
	if len(in.Evals) > 0 {
		if c, stats, err = clustereval.AugmentCollection(c, in.Evals...); err != nil {
			return nil, err
		}
		for _, st := range stats {
			if rc.Metrics != nil {
				rc.Metrics.RecordAugment(st.Level.String(), st.Matched, st.Unmatched)
			}
			if st.Unmatched > 0 || st.Unused > 0 {
				log.Warn("evaluation does not cover every cluster",
					logging.String("level", st.Level.String()),
					logging.Int("unmatched", st.Unmatched), logging.Int("unused", st.Unused))
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, err := kg.Assemble(c)
	if err != nil {
		return nil, err
	}
	if rc.Metrics != nil {
		rc.Metrics.SetGraphSize(sizes(c))
	}

	timer.End(logging.Nodes(g.NumNodes()), logging.Edges(g.NumEdges()))
	return &Result{
		RunID:    rc.RunID,
		Graph:    g,
		Prompts:  p,
		Augment:  stats,
		Duration: timer.Elapsed(),
	}, nil
}

func buildPrompts(c *graph.Collection) (Prompts, error) {
	subs, err := prompts.CollectSubIndustryInput(c)
	if err != nil {
		return Prompts{}, err
	}
	industries, err := prompts.CollectIndustryInput(c, subs)
	if err != nil {
		return Prompts{}, err
	}
	subMsg, err := prompts.SubIndustryMessage(subs)
	if err != nil {
		return Prompts{}, err
	}
	indMsg, err := prompts.IndustryMessage(industries)
	if err != nil {
		return Prompts{}, err
	}
	return Prompts{System: prompts.SystemPrompt(), SubIndustry: subMsg, Industry: indMsg}, nil
}

func sizes(c *graph.Collection) (nodes, edges map[string]int) {
	nodes = make(map[string]int)
	edges = make(map[string]int)
	for _, t := range c.NodeTables() {
		nodes[t.Type().String()] += t.Len()
	}
	for _, t := range c.EdgeTables() {
		edges[t.Type().String()] += t.Len()
	}
	return nodes, edges
}

// Sink receives the assembled collection of a run.
type Sink interface {
	Name() string
	Put(ctx context.Context, runID uuid.UUID, c *graph.Collection) error
}

// Export hands the result to each sink in turn and stops at the first failure.
func Export(ctx context.Context, rc *RunContext, res *Result, sinks ...Sink) error {
	log := rc.logger().With(logging.Component("pipeline"))
	for _, sink := range sinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := sink.Put(ctx, res.RunID, res.Graph.Collection()); err != nil {
			return fmt.Errorf("export to %s: %w", sink.Name(), err)
		}
		log.Debug("exported", logging.String("sink", sink.Name()), logging.Latency(time.Since(start)))
	}
	return nil
}
