// Package config loads node configuration.
//
// The file is YAML. It is unified with the CUE definition #Config from the
// embedded schema.cue, which fills defaults and rejects unknown or invalid
// fields, and then decoded into Config.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config is a bridge node configuration.
type Config struct {
	Chain         string            `json:"chain"`
	Database      string            `json:"database"`
	Listen        string            `json:"listen"`
	Custodians    []string          `json:"custodians"`
	Contracts     map[string]string `json:"contracts"`
	InvokeTimeout string            `json:"invoke_timeout"`
	Relayer       *Relayer          `json:"relayer,omitempty"`
}

// Relayer configures the relay loop of a validator.
type Relayer struct {
	Identity string  `json:"identity"`
	Interval string  `json:"interval"`
	Routes   []Route `json:"routes"`
}

// Route moves messages sent on From (served at FromURL) to To (served at
// ToURL).
type Route struct {
	From    string `json:"from"`
	To      string `json:"to"`
	FromURL string `json:"from_url"`
	ToURL   string `json:"to_url"`
}

// InvokeTimeoutDuration returns the parsed outbound call timeout.
func (c *Config) InvokeTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.InvokeTimeout)
	return d
}

// IntervalDuration returns the parsed tick interval.
func (r *Relayer) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(r.Interval)
	return d
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates YAML configuration data against the schema.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	value := def.Unify(ctx.Encode(raw))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Contracts == nil {
		cfg.Contracts = map[string]string{}
	}
	return &cfg, nil
}
