// Package config loads the YAML file that describes one pipeline run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-kg/pkg/layer"
	"github.com/dd0wney/cluso-kg/pkg/logging"
	"github.com/dd0wney/cluso-kg/pkg/validation"
)

// Compression values for snapshot files.
const (
	CompressionSnappy = "snappy"
	CompressionNone   = "none"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config is a pipeline run.
type Config struct {
	LogLevel     string        `yaml:"log_level"`
	SectorPolicy string        `yaml:"sector_policy"`
	Inputs       InputsConfig  `yaml:"inputs"`
	Output       OutputConfig  `yaml:"output"`
	Metrics      MetricsConfig `yaml:"metrics"`
}

// InputsConfig names the input files. Label files hold a JSON array of integers aligned with
// the rows of the previous layer; evaluation files are optional.
type InputsConfig struct {
	Themes            string `yaml:"themes"`
	SubIndustryLabels string `yaml:"sub_industry_labels"`
	IndustryLabels    string `yaml:"industry_labels"`
	SubIndustryEval   string `yaml:"sub_industry_eval"`
	IndustryEval      string `yaml:"industry_eval"`
}

// OutputConfig says where the assembled graph goes. The local snapshot is always written;
// S3 and Postgres are used when configured.
type OutputConfig struct {
	Dir         string         `yaml:"dir"`
	Compression string         `yaml:"compression"`
	Prompts     bool           `yaml:"prompts"`
	S3          S3Config       `yaml:"s3"`
	Postgres    PostgresConfig `yaml:"postgres"`
}

// S3Config configures the snapshot upload. Without keys the default AWS credential chain
// is used.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Enabled reports whether an upload is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// PostgresConfig configures the node and edge sink.
type PostgresConfig struct {
	URL            string        `yaml:"url"`
	Schema         string        `yaml:"schema"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Enabled reports whether the sink is configured.
func (c PostgresConfig) Enabled() bool { return c.URL != "" }

// MetricsConfig configures metric export.
type MetricsConfig struct {
	// Textfile receives the run's metrics in Prometheus text format.
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns the defaults applied to unset fields.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		SectorPolicy: layer.SingleSector.String(),
		Output: OutputConfig{
			Dir:         "out",
			Compression: CompressionSnappy,
			Postgres: PostgresConfig{
				Schema:         "public",
				ConnectTimeout: 10 * time.Second,
			},
		},
	}
}

// Load reads the file at path, applies defaults, resolves relative paths against the file's
// directory and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.ApplyDefaults()
	cfg.resolve(filepath.Dir(path))

	if err := validation.ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults applies default values to zero-valued fields
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	c.LogLevel = validation.DefaultOr(c.LogLevel, defaults.LogLevel)
	c.SectorPolicy = validation.DefaultOr(c.SectorPolicy, defaults.SectorPolicy)
	c.Output.Dir = validation.DefaultOr(c.Output.Dir, defaults.Output.Dir)
	c.Output.Compression = validation.DefaultOr(c.Output.Compression, defaults.Output.Compression)
	c.Output.Postgres.Schema = validation.DefaultOr(c.Output.Postgres.Schema, defaults.Output.Postgres.Schema)
	c.Output.Postgres.ConnectTimeout = validation.DefaultOrDuration(c.Output.Postgres.ConnectTimeout, defaults.Output.Postgres.ConnectTimeout)
}

func (c *Config) resolve(base string) {
	for _, p := range []*string{
		&c.Inputs.Themes,
		&c.Inputs.SubIndustryLabels,
		&c.Inputs.IndustryLabels,
		&c.Inputs.SubIndustryEval,
		&c.Inputs.IndustryEval,
		&c.Output.Dir,
		&c.Metrics.Textfile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	v := validation.NewConfigValidator("Config")

	v.Custom("log_level", func() error {
		_, err := logging.ParseLevel(c.LogLevel)
		return err
	})
	v.Custom("sector_policy", func() error {
		_, err := layer.ParseSectorPolicy(c.SectorPolicy)
		return err
	})

	v.Required("inputs.themes", c.Inputs.Themes).
		Required("inputs.sub_industry_labels", c.Inputs.SubIndustryLabels).
		Required("inputs.industry_labels", c.Inputs.IndustryLabels).
		FileExists("inputs.themes", c.Inputs.Themes).
		FileExists("inputs.sub_industry_labels", c.Inputs.SubIndustryLabels).
		FileExists("inputs.industry_labels", c.Inputs.IndustryLabels).
		FileExists("inputs.sub_industry_eval", c.Inputs.SubIndustryEval).
		FileExists("inputs.industry_eval", c.Inputs.IndustryEval)

	v.Required("output.dir", c.Output.Dir).
		OneOf("output.compression", c.Output.Compression, []string{CompressionSnappy, CompressionNone})

	v.When(c.Output.S3.Enabled(), func(cv *validation.ConfigValidator) {
		cv.Required("output.s3.region", c.Output.S3.Region).
			Custom("output.s3.secret_access_key", func() error {
				if (c.Output.S3.AccessKeyID == "") != (c.Output.S3.SecretAccessKey == "") {
					return errors.New("access_key_id and secret_access_key must be set together")
				}
				return nil
			})
	})

	v.When(c.Output.Postgres.Enabled(), func(cv *validation.ConfigValidator) {
		cv.MinDuration("output.postgres.connect_timeout", c.Output.Postgres.ConnectTimeout, time.Second).
			MaxDuration("output.postgres.connect_timeout", c.Output.Postgres.ConnectTimeout, 5*time.Minute).
			Custom("output.postgres.schema", func() error {
				if !identifierPattern.MatchString(c.Output.Postgres.Schema) {
					return fmt.Errorf("%q is not a plain SQL identifier", c.Output.Postgres.Schema)
				}
				return nil
			})
	})

	return v.Validate()
}

// Level returns the parsed log level. Call after Validate.
func (c *Config) Level() logging.Level {
	l, _ := logging.ParseLevel(c.LogLevel)
	return l
}

// Policy returns the parsed sector policy. Call after Validate.
func (c *Config) Policy() layer.SectorPolicy {
	p, _ := layer.ParseSectorPolicy(c.SectorPolicy)
	return p
}
