package main

import (
	"os"
	"path/filepath"
	"strconv"

	nlcoerrors "github.com/nlco-run/nlco/internal/errors"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk .nlco/project.yaml shape. Every field has a
// sane default applied by DefaultConfig; environment variables named
// in the external-interfaces list override whatever the file says.
type Config struct {
	Version int `yaml:"version"`

	ConstraintsPath      string `yaml:"constraints_path"`
	ArtifactPath         string `yaml:"artifact_path"`
	MemoryPath           string `yaml:"memory_path"`
	ShortTermMemoryPath  string `yaml:"short_term_memory_path"`
	ModelLogPath         string `yaml:"model_log_path"`
	StatusPath           string `yaml:"status_path"`
	BackupDir            string `yaml:"backup_dir"`
	TimeTrackingSidePath string `yaml:"time_tracking_side_path"`

	MaxIters            int  `yaml:"max_iters"`
	TickIntervalMinutes int  `yaml:"tick_interval_minutes"`
	MemoryStepBudget    int  `yaml:"memory_step_budget"`
	MemoryEnabled       bool `yaml:"memory_enabled"`
	AcceptanceGate      bool `yaml:"acceptance_gate_enabled"`
	TimeTrackingEnabled bool `yaml:"time_tracking_enabled"`

	Primary LLMEndpointConfig `yaml:"primary"`
	Support LLMEndpointConfig `yaml:"support"`
}

// LLMEndpointConfig configures one named LM role against an
// OpenAI-compatible API.
type LLMEndpointConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_seconds"`
}

const configVersion = 1

// DefaultConfig returns the configuration scaffolded by `nlco init`,
// with every file path relative to projectDir.
func DefaultConfig(projectDir string) *Config {
	return &Config{
		Version:              configVersion,
		ConstraintsPath:      filepath.Join(projectDir, "constraints.md"),
		ArtifactPath:         filepath.Join(projectDir, "artifact.md"),
		MemoryPath:           filepath.Join(projectDir, "memory.md"),
		ShortTermMemoryPath:  filepath.Join(projectDir, "short_term_memory.md"),
		ModelLogPath:         filepath.Join(projectDir, ".state", "model_log.jsonl"),
		StatusPath:           filepath.Join(projectDir, ".state", "status.json"),
		BackupDir:            filepath.Join(projectDir, ".state", "backups"),
		TimeTrackingSidePath: "",
		MaxIters:             3,
		TickIntervalMinutes:  60,
		MemoryStepBudget:     4,
		MemoryEnabled:        true,
		AcceptanceGate:       false,
		TimeTrackingEnabled:  false,
		Primary: LLMEndpointConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "qwen2.5:32b",
			MaxTokens:   40000,
			Temperature: 0.7,
			TimeoutSec:  300,
		},
		Support: LLMEndpointConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "qwen2.5:7b",
			MaxTokens:   4000,
			Temperature: 0,
			TimeoutSec:  60,
		},
	}
}

// ConfigDir returns the .nlco directory under projectDir.
func ConfigDir(projectDir string) string {
	return filepath.Join(projectDir, ".nlco")
}

// ConfigPath returns the project.yaml path under projectDir.
func ConfigPath(projectDir string) string {
	return filepath.Join(ConfigDir(projectDir), "project.yaml")
}

// LoadConfig reads and validates the config at configPath (or
// discovered by walking up from the working directory if configPath
// is empty), applying environment-variable overrides afterward.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		found, err := findConfigFile()
		if err != nil {
			return nil, err
		}
		configPath = found
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, nlcoerrors.NewConfigError(
			"cannot read project config",
			configPath,
			"run `nlco init` to scaffold a project first",
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nlcoerrors.NewConfigError(
			"invalid project config",
			configPath,
			"check the YAML syntax of .nlco/project.yaml",
			err,
		)
	}

	if cfg.Version != configVersion {
		return nil, nlcoerrors.NewConfigError(
			"unsupported config version",
			configPath,
			"delete .nlco/project.yaml and re-run `nlco init`",
			nil,
		)
	}

	cfg.applyEnvOverrides()
	return &cfg, nil
}

// SaveConfig writes cfg to configPath, creating parent directories as
// needed.
func SaveConfig(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nlcoerrors.NewInternalError("cannot marshal config", configPath, "", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return nlcoerrors.NewPermissionError("cannot create config directory", filepath.Dir(configPath), "check directory permissions", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return nlcoerrors.NewPermissionError("cannot write config", configPath, "check file permissions", err)
	}
	return nil
}

// findConfigFile walks up from the working directory looking for
// .nlco/project.yaml, the same parent-directory discovery the
// teacher's CLI uses for its own project config.
func findConfigFile() (string, error) {
	if p := os.Getenv("NLCO_CONFIG_PATH"); p != "" {
		return p, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", nlcoerrors.NewInternalError("cannot determine working directory", "", "", err)
	}

	for {
		candidate := ConfigPath(dir)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nlcoerrors.NewConfigError(
		"no project config found",
		"no .nlco/project.yaml in this directory or any parent",
		"run `nlco init` to create one, or pass --config explicitly",
		nil,
	)
}

// applyEnvOverrides maps the environment variables named in the
// external-interfaces list onto cfg, taking precedence over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NLCO_MAX_ITERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxIters = n
		}
	}
	if v := os.Getenv("NLCO_MODEL_LOG"); v != "" {
		c.ModelLogPath = v
	}
	if v := os.Getenv("NLCO_BACKUP_DIR"); v != "" {
		c.BackupDir = v
	}
	if v := os.Getenv("NLCO_TIMEW"); v != "" {
		c.TimeTrackingEnabled = v == "1"
	}
	if v := os.Getenv("NLCO_PRIMARY_API_KEY"); v != "" {
		c.Primary.APIKey = v
	}
	if v := os.Getenv("NLCO_SUPPORT_API_KEY"); v != "" {
		c.Support.APIKey = v
	}
}
