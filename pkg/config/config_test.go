package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-kg/pkg/layer"
	"github.com/dd0wney/cluso-kg/pkg/logging"
)

// writeRun lays out input files in a temp dir and returns the path of a config with body.
func writeRun(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"themes.jsonl":  `{"theme": "a", "sector": "s"}` + "\n",
		"sub.json":      "[0]",
		"industry.json": "[0]",
		"sub_eval.json": `{"0": {"cluster_label": "x"}}`,
		"ind_eval.json": `{"0": {"cluster_label": "y"}}`,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimal = `
inputs:
  themes: themes.jsonl
  sub_industry_labels: sub.json
  industry_labels: industry.json
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeRun(t, minimal)
	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "themes.jsonl"), cfg.Inputs.Themes)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Output.Dir)
	assert.Equal(t, CompressionSnappy, cfg.Output.Compression)
	assert.Equal(t, "public", cfg.Output.Postgres.Schema)
	assert.Equal(t, 10*time.Second, cfg.Output.Postgres.ConnectTimeout)
	assert.Equal(t, logging.InfoLevel, cfg.Level())
	assert.Equal(t, layer.SingleSector, cfg.Policy())
	assert.False(t, cfg.Output.S3.Enabled())
	assert.False(t, cfg.Output.Postgres.Enabled())
	assert.Empty(t, cfg.Inputs.SubIndustryEval)
}

func TestLoadFull(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "metrics.prom")
	path := writeRun(t, `
log_level: debug
sector_policy: all_pairs
inputs:
  themes: themes.jsonl
  sub_industry_labels: sub.json
  industry_labels: industry.json
  sub_industry_eval: sub_eval.json
  industry_eval: ind_eval.json
output:
  dir: build
  compression: none
  prompts: true
  s3:
    bucket: graphs
    prefix: runs/
    region: eu-west-1
    endpoint: http://localhost:9000
    use_path_style: true
  postgres:
    url: postgres://kg@localhost/kg
    schema: kg_runs
    connect_timeout: 30s
metrics:
  textfile: `+abs+`
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, logging.DebugLevel, cfg.Level())
	assert.Equal(t, layer.AllPairs, cfg.Policy())
	assert.Equal(t, CompressionNone, cfg.Output.Compression)
	assert.True(t, cfg.Output.Prompts)
	assert.True(t, cfg.Output.S3.Enabled())
	assert.True(t, cfg.Output.S3.UsePathStyle)
	assert.Equal(t, "runs/", cfg.Output.S3.Prefix)
	assert.True(t, cfg.Output.Postgres.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Output.Postgres.ConnectTimeout)
	assert.Equal(t, abs, cfg.Metrics.Textfile)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "ind_eval.json"), cfg.Inputs.IndustryEval)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		body    string
		wantErr string
	}{
		{name: "log level", extra: "log_level: loud\n", wantErr: "Config.log_level"},
		{name: "sector policy", extra: "sector_policy: first\n", wantErr: "Config.sector_policy"},
		{name: "compression", extra: "output:\n  compression: zstd\n", wantErr: "Config.output.compression"},
		{name: "s3 half credentials", extra: "output:\n  s3:\n    bucket: b\n    region: r\n    access_key_id: k\n", wantErr: "Config.output.s3.secret_access_key"},
		{name: "s3 without region", extra: "output:\n  s3:\n    bucket: b\n", wantErr: "Config.output.s3.region"},
		{name: "postgres schema", extra: "output:\n  postgres:\n    url: postgres://x\n    schema: \"a;drop\"\n", wantErr: "Config.output.postgres.schema"},
		{name: "postgres timeout", extra: "output:\n  postgres:\n    url: postgres://x\n    connect_timeout: 100ms\n", wantErr: "Config.output.postgres.connect_timeout"},
		{name: "missing eval file", body: minimal + "  industry_eval: nope.json\n", wantErr: "Config.inputs.industry_eval"},
		{name: "missing labels", body: "inputs:\n  themes: themes.jsonl\n  industry_labels: industry.json\n", wantErr: "Config.inputs.sub_industry_labels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == "" {
				body = tt.extra + minimal
			}
			_, err := Load(writeRun(t, body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeRun(t, "inputs: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeRun(t, minimal+"outputs:\n  dir: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outputs")

	// an empty file decodes to defaults and then fails on the required inputs
	_, err = Load(writeRun(t, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inputs.themes")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config validation failed with 4 errors")
}
