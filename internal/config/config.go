// Package config loads the ddl2ts.yaml project file used by the build
// command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/koba/ddl2ts/internal/dialect"
)

// DefaultFile is the project file name looked up when none is given.
const DefaultFile = "ddl2ts.yaml"

// Config is a parsed project file. After Load every job carries its
// effective settings and paths relative to the project file's directory.
type Config struct {
	Defaults Defaults `yaml:"defaults"`
	Jobs     []Job    `yaml:"jobs"`
}

// Defaults apply to every job that leaves the setting empty.
type Defaults struct {
	Dialect   string            `yaml:"dialect"`
	Namespace string            `yaml:"namespace"`
	Singular  bool              `yaml:"singular"`
	Types     map[string]string `yaml:"types"`
	OutDir    string            `yaml:"outDir"`
}

// Job turns one DDL file into one declaration file.
type Job struct {
	Input     string            `yaml:"input"`
	Dialect   string            `yaml:"dialect"`
	Output    string            `yaml:"output"`
	Namespace string            `yaml:"namespace"`
	Singular  *bool             `yaml:"singular"`
	Types     map[string]string `yaml:"types"`
}

// Options returns the generation options for the job.
func (j *Job) Options() []dialect.Option {
	opts := []dialect.Option{
		dialect.WithNamespace(j.Namespace),
		dialect.WithTypeOverrides(j.Types),
	}
	if j.Singular != nil {
		opts = append(opts, dialect.WithSingular(*j.Singular))
	}
	return opts
}

// Load reads, resolves and validates the project file at path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a project file. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// resolve fills every job from the defaults and anchors relative paths
// at dir.
func (c *Config) resolve(dir string) {
	if c.Defaults.Dialect == "" {
		c.Defaults.Dialect = "mysql"
	}
	for i := range c.Jobs {
		j := &c.Jobs[i]
		if j.Dialect == "" {
			j.Dialect = c.Defaults.Dialect
		}
		if j.Namespace == "" {
			j.Namespace = c.Defaults.Namespace
		}
		if j.Singular == nil {
			singular := c.Defaults.Singular
			j.Singular = &singular
		}
		j.Types = mergeTypes(c.Defaults.Types, j.Types)
		if j.Output == "" && j.Input != "" {
			j.Output = filepath.Join(c.Defaults.OutDir, stem(j.Input)+".d.ts")
		}
		j.Input = anchor(dir, j.Input)
		j.Output = anchor(dir, j.Output)
	}
}

func (c *Config) validate() error {
	if len(c.Jobs) == 0 {
		return errors.New("at least one job is required")
	}

	var errs []error
	outputs := make(map[string]int, len(c.Jobs))
	for i := range c.Jobs {
		j := &c.Jobs[i]
		if j.Input == "" {
			errs = append(errs, fmt.Errorf("jobs[%d]: input is required", i))
			continue
		}
		if _, err := dialect.Lookup(j.Dialect); err != nil {
			errs = append(errs, fmt.Errorf("jobs[%d]: %w", i, err))
		}
		for _, opt := range j.Options() {
			if err := opt(&dialect.Options{}); err != nil {
				errs = append(errs, fmt.Errorf("jobs[%d]: %w", i, err))
			}
		}
		if prev, dup := outputs[j.Output]; dup {
			errs = append(errs, fmt.Errorf("jobs[%d]: output %s is already written by jobs[%d]", i, j.Output, prev))
			continue
		}
		outputs[j.Output] = i
	}
	return errors.Join(errs...)
}

func mergeTypes(defaults, job map[string]string) map[string]string {
	if len(defaults) == 0 && len(job) == 0 {
		return nil
	}
	merged := make(map[string]string, len(defaults)+len(job))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range job {
		merged[k] = v
	}
	return merged
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func anchor(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
