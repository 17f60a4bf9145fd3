package pgsink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	runsTable  = "kg_runs"
	nodesTable = "kg_nodes"
	edgesTable = "kg_edges"
)

// schemaSQL returns the DDL for schema.
func schemaSQL(schema string) string {
	q := func(name string) string { return pgx.Identifier{schema, name}.Sanitize() }
	return fmt.Sprintf(`
	CREATE SCHEMA IF NOT EXISTS %[1]s;

	CREATE TABLE IF NOT EXISTS %[2]s (
		run_id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		nodes INTEGER NOT NULL,
		edges INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS %[3]s (
		run_id UUID NOT NULL REFERENCES %[2]s(run_id) ON DELETE CASCADE,
		nid BIGINT NOT NULL,
		ntype TEXT NOT NULL,
		attrs JSONB NOT NULL,
		PRIMARY KEY (run_id, nid)
	);

	CREATE TABLE IF NOT EXISTS %[4]s (
		run_id UUID NOT NULL REFERENCES %[2]s(run_id) ON DELETE CASCADE,
		src BIGINT NOT NULL,
		dst BIGINT NOT NULL,
		etype TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS kg_nodes_ntype ON %[3]s(run_id, ntype);
	CREATE INDEX IF NOT EXISTS kg_edges_src ON %[4]s(run_id, src);
	CREATE INDEX IF NOT EXISTS kg_edges_dst ON %[4]s(run_id, dst);
	`, pgx.Identifier{schema}.Sanitize(), q(runsTable), q(nodesTable), q(edgesTable))
}

// migrate creates the necessary database tables
func (s *Sink) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL(s.schema))
	return err
}
