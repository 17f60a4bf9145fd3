// Command kgbuild runs the knowledge-graph pipeline described by a YAML file and writes the
// assembled graph to the configured stores.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-kg/pkg/config"
	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/logging"
	"github.com/dd0wney/cluso-kg/pkg/pipeline"
	"github.com/dd0wney/cluso-kg/pkg/store"
	"github.com/dd0wney/cluso-kg/pkg/store/pgsink"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

func main() {
	configPath := flag.String("config", "pipeline.yaml", "Pipeline configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *configPath, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// LOG_LEVEL overrides the file
	logger := logging.FromEnv(stderr, cfg.Level())
	rc := pipeline.NewRunContext(logger, cfg.Policy())

	in, err := pipeline.LoadInputs(cfg.Inputs)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(ctx, rc, in)
	if err != nil {
		return err
	}

	opts := store.Options{Compression: cfg.Output.Compression, Logger: rc.Logger, Metrics: rc.Metrics}
	files, err := store.NewFileStore(cfg.Output.Dir, opts)
	if err != nil {
		return err
	}
	sinks := []pipeline.Sink{files}

	if s3cfg := cfg.Output.S3; s3cfg.Enabled() {
		client, err := store.NewS3Client(ctx, store.S3Options{
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			UsePathStyle:    s3cfg.UsePathStyle,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
		})
		if err != nil {
			return err
		}
		sinks = append(sinks, store.NewS3Blobs(client, s3cfg.Bucket, s3cfg.Prefix, opts))
	}

	if pg := cfg.Output.Postgres; pg.Enabled() {
		sink, err := pgsink.Open(ctx, pgsink.Config{
			URL:            pg.URL,
			Schema:         pg.Schema,
			ConnectTimeout: pg.ConnectTimeout,
		}, rc.Logger, rc.Metrics)
		if err != nil {
			return err
		}
		defer sink.Close()
		sinks = append(sinks, sink)
	}

	if err := pipeline.Export(ctx, rc, res, sinks...); err != nil {
		return err
	}

	runDir := filepath.Join(files.Root(), res.RunID.String())
	if cfg.Output.Prompts {
		if err := res.Prompts.WriteDir(filepath.Join(runDir, "prompts")); err != nil {
			return err
		}
	}
	if cfg.Metrics.Textfile != "" {
		if err := rc.Metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return err
		}
	}

	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name()
	}
	fmt.Fprintln(stdout, summary(res, runDir, names))
	return nil
}

// summary renders the per-type counts of a finished run.
func summary(res *pipeline.Result, runDir string, sinks []string) string {
	c := res.Graph.Collection()

	var b strings.Builder
	row := func(label string, value any) {
		fmt.Fprintf(&b, "%s %v\n", labelStyle.Render(fmt.Sprintf("%-22s", label)), value)
	}
	row("run", res.RunID)
	row("duration", res.Duration.Round(time.Millisecond))
	for _, nt := range graph.NodeTypes() {
		if t, ok := c.Nodes(nt); ok {
			row(nt.String()+" nodes", t.Len())
		}
	}
	for _, et := range graph.EdgeTypes() {
		if t, ok := c.Edges(et); ok {
			row(et.String()+" edges", t.Len())
		}
	}
	for _, st := range res.Augment {
		row(st.Level.String()+" labelled", fmt.Sprintf("%d of %d", st.Matched, st.Matched+st.Unmatched))
	}
	sort.Strings(sinks)
	row("written to", strings.Join(sinks, ", "))
	row("snapshot", runDir)

	return titleStyle.Render("✓ knowledge graph assembled") + "\n" +
		boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
