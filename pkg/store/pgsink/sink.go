// Package pgsink writes assembled graphs into PostgreSQL: one row per run, per node and per
// edge, bulk loaded with COPY.
package pgsink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/logging"
	"github.com/dd0wney/cluso-kg/pkg/metrics"
)

// Config locates the database.
type Config struct {
	URL            string
	Schema         string
	ConnectTimeout time.Duration
}

// Sink writes snapshots to PostgreSQL.
type Sink struct {
	pool    *pgxpool.Pool
	schema  string
	logger  logging.Logger
	metrics *metrics.Registry
}

// Open connects, verifies the connection and creates the tables if they don't exist.
func Open(ctx context.Context, cfg Config, logger logging.Logger, m *metrics.Registry) (*Sink, error) {
	poolConfig, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Sink{
		pool:    pool,
		schema:  schemaOrDefault(cfg.Schema),
		logger:  logger.With(logging.Component("store.postgres")),
		metrics: m,
	}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func poolConfig(cfg Config) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// One writer per run
	config.MaxConns = 4
	config.MinConns = 0
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute
	if cfg.ConnectTimeout > 0 {
		config.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	return config, nil
}

func schemaOrDefault(s string) string {
	if s == "" {
		return "public"
	}
	return s
}

// Name identifies the backend in logs and metrics.
func (s *Sink) Name() string { return "postgres" }

// Close closes the database connection pool
func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}

// Put writes the run row, then copies every node and edge, in one transaction. Writing a
// run id twice fails on the primary key.
func (s *Sink) Put(ctx context.Context, runID uuid.UUID, c *graph.Collection) (err error) {
	var written int64
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordStoreWrite(s.Name(), written, err)
		}
	}()

	nodes, err := nodeRows(runID, c)
	if err != nil {
		return err
	}
	edges := edgeRows(runID, c)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertRun := fmt.Sprintf(`INSERT INTO %s (run_id, created_at, nodes, edges) VALUES ($1, $2, $3, $4)`,
		s.table(runsTable))
	if _, err := tx.Exec(ctx, insertRun, runID, time.Now().UTC(), len(nodes), len(edges)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{s.schema, nodesTable}, nodeColumns, pgx.CopyFromRows(nodes))
	if err != nil {
		return fmt.Errorf("failed to copy nodes: %w", err)
	}
	written += n
	n, err = tx.CopyFrom(ctx, pgx.Identifier{s.schema, edgesTable}, edgeColumns, pgx.CopyFromRows(edges))
	if err != nil {
		return fmt.Errorf("failed to copy edges: %w", err)
	}
	written += n

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Info("snapshot written",
		logging.RunID(runID), logging.String("schema", s.schema),
		logging.Nodes(len(nodes)), logging.Edges(len(edges)))
	return nil
}

// Counts returns the stored node and edge counts of runID.
func (s *Sink) Counts(ctx context.Context, runID uuid.UUID) (nodes, edges int, err error) {
	query := fmt.Sprintf(`SELECT nodes, edges FROM %s WHERE run_id = $1`, s.table(runsTable))
	if err := s.pool.QueryRow(ctx, query, runID).Scan(&nodes, &edges); err != nil {
		return 0, 0, fmt.Errorf("failed to read run %s: %w", runID, err)
	}
	return nodes, edges, nil
}

func (s *Sink) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

var (
	nodeColumns = []string{"run_id", "nid", "ntype", "attrs"}
	edgeColumns = []string{"run_id", "src", "dst", "etype"}
)

// nodeRows flattens every node table; attrs holds the type specific attributes as JSON.
func nodeRows(runID uuid.UUID, c *graph.Collection) ([][]any, error) {
	rows := make([][]any, 0, c.NumNodes())
	for _, t := range c.NodeTables() {
		for _, r := range t.Records() {
			attrs, err := json.Marshal(r.Attrs)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal attrs of node %d: %w", r.NID, err)
			}
			rows = append(rows, []any{runID, int64(r.NID), r.Type.String(), attrs})
		}
	}
	return rows, nil
}

func edgeRows(runID uuid.UUID, c *graph.Collection) [][]any {
	rows := make([][]any, 0, c.NumEdges())
	for _, t := range c.EdgeTables() {
		for _, r := range t.Records() {
			rows = append(rows, []any{runID, int64(r.Src), int64(r.Dst), r.Type.String()})
		}
	}
	return rows
}
