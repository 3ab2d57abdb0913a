// Package config provides configuration management for the policy assurance
// pipeline. Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (PAP_*)
// 3. Project config (.pap/config.yaml in cwd)
// 4. Home config (~/.pap/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all pipeline configuration.
type Config struct {
	// Output controls the default output format (table, json, yaml).
	Output string `yaml:"output" json:"output"`

	// StateDir is where reports and metric snapshots live (default: .pap/state).
	StateDir string `yaml:"state_dir" json:"state_dir"`

	// PolicyRoot is the directory holding per-jurisdiction policy bundles.
	PolicyRoot string `yaml:"policy_root" json:"policy_root"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Collaborators names the external commands the pipeline invokes.
	Collaborators CollaboratorsConfig `yaml:"collaborators" json:"collaborators"`

	// Mutation holds mutation-fuzzer defaults.
	Mutation MutationConfig `yaml:"mutation" json:"mutation"`
}

// CollaboratorsConfig names the external collaborator commands. Each entry is
// an executable plus fixed leading arguments; the pipeline appends
// --policy-root and --jurisdiction.
type CollaboratorsConfig struct {
	// Lint is the policy-syntax lint checker. Default: policy-lint.
	Lint []string `yaml:"lint" json:"lint"`

	// Vectors is the named-test-vector gate. Default: policy-vectors.
	Vectors []string `yaml:"vectors" json:"vectors"`

	// Mutator is the mutation-case generator. Default: policy-mutate.
	Mutator []string `yaml:"mutator" json:"mutator"`
}

// MutationConfig holds mutation-fuzzer defaults, overridable per run.
type MutationConfig struct {
	// Count is the default adversarial batch size.
	Count int `yaml:"count" json:"count"`

	// MaxAllowed is the default tolerance for incorrectly-approved trials.
	MaxAllowed int `yaml:"max_allowed" json:"max_allowed"`

	// Parallel fans trials out across a worker pool instead of one batch
	// invocation.
	Parallel bool `yaml:"parallel" json:"parallel"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput     = "table"
	defaultStateDir   = ".pap/state"
	defaultPolicyRoot = "policies"
	defaultCount      = 25
	defaultMaxAllowed = 2
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:     defaultOutput,
		StateDir:   defaultStateDir,
		PolicyRoot: defaultPolicyRoot,
		Verbose:    false,
		Collaborators: CollaboratorsConfig{
			Lint:    []string{"policy-lint"},
			Vectors: []string{"policy-vectors"},
			Mutator: []string{"policy-mutate"},
		},
		Mutation: MutationConfig{
			Count:      defaultCount,
			MaxAllowed: defaultMaxAllowed,
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	// Load home config
	homeConfig, _ := loadFromPath(homeConfigPath())
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	// Load project config
	projectConfig, _ := loadFromPath(projectConfigPath())
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	// Apply environment variables
	cfg = applyEnv(cfg)

	// Apply flag overrides
	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pap", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("PAP_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".pap", "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("PAP_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("PAP_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("PAP_POLICY_ROOT"); v != "" {
		cfg.PolicyRoot = v
	}
	if v := os.Getenv("PAP_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("PAP_LINT_COMMAND"); v != "" {
		cfg.Collaborators.Lint = strings.Fields(v)
	}
	if v := os.Getenv("PAP_VECTORS_COMMAND"); v != "" {
		cfg.Collaborators.Vectors = strings.Fields(v)
	}
	if v := os.Getenv("PAP_MUTATOR_COMMAND"); v != "" {
		cfg.Collaborators.Mutator = strings.Fields(v)
	}
	return cfg
}

// merge overlays non-zero values from overlay onto base.
func merge(base, overlay *Config) *Config {
	result := *base

	if overlay.Output != "" {
		result.Output = overlay.Output
	}
	if overlay.StateDir != "" {
		result.StateDir = overlay.StateDir
	}
	if overlay.PolicyRoot != "" {
		result.PolicyRoot = overlay.PolicyRoot
	}
	if overlay.Verbose {
		result.Verbose = true
	}
	if len(overlay.Collaborators.Lint) > 0 {
		result.Collaborators.Lint = overlay.Collaborators.Lint
	}
	if len(overlay.Collaborators.Vectors) > 0 {
		result.Collaborators.Vectors = overlay.Collaborators.Vectors
	}
	if len(overlay.Collaborators.Mutator) > 0 {
		result.Collaborators.Mutator = overlay.Collaborators.Mutator
	}
	if overlay.Mutation.Count > 0 {
		result.Mutation.Count = overlay.Mutation.Count
	}
	if overlay.Mutation.MaxAllowed > 0 {
		result.Mutation.MaxAllowed = overlay.Mutation.MaxAllowed
	}
	if overlay.Mutation.Parallel {
		result.Mutation.Parallel = true
	}

	return &result
}

// ReportPath returns the default persisted-report path under the state dir.
func (c *Config) ReportPath(jurisdiction string) string {
	return filepath.Join(c.StateDir, jurisdiction, "report.json")
}

// MetricsPath returns the current-metrics snapshot path under the state dir.
func (c *Config) MetricsPath(jurisdiction string) string {
	return filepath.Join(c.StateDir, jurisdiction, "metrics.json")
}

// BaselinePath returns the baseline snapshot path under the state dir.
func (c *Config) BaselinePath(jurisdiction string) string {
	return filepath.Join(c.StateDir, jurisdiction, "baseline.json")
}
