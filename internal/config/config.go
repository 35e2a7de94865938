// Package config loads and validates the primeseek configuration file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Difficulty names accepted by the session and teacher layers.
const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)

// VMIndices are the prime-index constants shared between host and program.
type VMIndices struct {
	Success int `yaml:"prime_idx_success"`
	Failure int `yaml:"prime_idx_failure"`
}

// VMConfig bounds a single machine.
type VMConfig struct {
	MaxInstructions int       `yaml:"max_instructions"`
	LogFile         string    `yaml:"log_file"`
	Indices         VMIndices `yaml:"indices"`
}

// DifficultyLevel parameterizes one tier of the adaptive teacher.
type DifficultyLevel struct {
	RangeMax                  int `yaml:"range_max"`
	MaxAttemptsBeforeStruggle int `yaml:"max_attempts_before_struggle"`
	QuickSuccessThreshold     int `yaml:"quick_success_threshold"`
}

// StreakThresholds control difficulty movement.
type StreakThresholds struct {
	QuickSuccessToUpgrade int `yaml:"quick_success_to_upgrade"`
	StruggleToDowngrade   int `yaml:"struggle_to_downgrade"`
}

// TeacherConfig selects the starting difficulty and streak behavior.
type TeacherConfig struct {
	Difficulty       string           `yaml:"difficulty"`
	StreakThresholds StreakThresholds `yaml:"streak_thresholds"`
	StuckSignalValue int              `yaml:"stuck_signal_print_value"`
}

// SeekerConfig controls program generation.
type SeekerConfig struct {
	AttemptModulus         int `yaml:"attempt_modulus"`
	AttemptIncrement       int `yaml:"attempt_increment"`
	RandomOffsetMax        int `yaml:"random_offset_max"`
	MaxFailuresBeforeStuck int `yaml:"max_failures_before_stuck"`
}

// StorageConfig locates the session database.
type StorageConfig struct {
	Root string `yaml:"root"`
	Path string `yaml:"path"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
}

// PathsConfig names the on-disk program artifacts.
type PathsConfig struct {
	ProgramFile string `yaml:"program_file"`
}

// Config is the root of the configuration file.
type Config struct {
	VM               VMConfig                   `yaml:"vm"`
	DifficultyLevels map[string]DifficultyLevel `yaml:"difficulty_levels"`
	Teacher          TeacherConfig              `yaml:"teacher"`
	Seeker           SeekerConfig               `yaml:"seeker"`
	Storage          StorageConfig              `yaml:"storage"`
	Server           ServerConfig               `yaml:"server"`
	Paths            PathsConfig                `yaml:"paths"`
	Debug            bool                       `yaml:"debug"`
}

// Default returns the shipped configuration.
func Default() *Config {
	return &Config{
		VM: VMConfig{
			MaxInstructions: 10000,
			Indices: VMIndices{
				Success: 1,
				Failure: 0,
			},
		},
		DifficultyLevels: map[string]DifficultyLevel{
			DifficultyEasy:   {RangeMax: 4, MaxAttemptsBeforeStruggle: 5, QuickSuccessThreshold: 1},
			DifficultyMedium: {RangeMax: 9, MaxAttemptsBeforeStruggle: 4, QuickSuccessThreshold: 1},
			DifficultyHard:   {RangeMax: 14, MaxAttemptsBeforeStruggle: 3, QuickSuccessThreshold: 2},
		},
		Teacher: TeacherConfig{
			Difficulty: DifficultyMedium,
			StreakThresholds: StreakThresholds{
				QuickSuccessToUpgrade: 3,
				StruggleToDowngrade:   2,
			},
			StuckSignalValue: 99,
		},
		Seeker: SeekerConfig{
			AttemptModulus:         10,
			AttemptIncrement:       1,
			RandomOffsetMax:        3,
			MaxFailuresBeforeStuck: 3,
		},
		Storage: StorageConfig{
			Root: "data",
			Path: "data/primeseek.db",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1",
			Port: 8080,
		},
		Paths: PathsConfig{
			ProgramFile: "goal_seeker.uor",
		},
	}
}

// Load reads a YAML file over the defaults. A missing path returns the
// defaults unchanged. APP_DEBUG=1 in the environment forces debug logging.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config: %s: %w", path, err)
			}
			return nil, err
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if v, ok := os.LookupEnv("APP_DEBUG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.VM.MaxInstructions < 0 {
		return fmt.Errorf("config: vm.max_instructions must be >= 0")
	}
	if c.VM.Indices.Success == c.VM.Indices.Failure {
		return fmt.Errorf("config: success and failure indices must differ")
	}
	if _, ok := c.DifficultyLevels[c.Teacher.Difficulty]; !ok {
		return fmt.Errorf("config: unknown teacher.difficulty %q", c.Teacher.Difficulty)
	}
	for name, lvl := range c.DifficultyLevels {
		if lvl.RangeMax < 1 {
			return fmt.Errorf("config: difficulty_levels.%s.range_max must be >= 1", name)
		}
		if lvl.MaxAttemptsBeforeStruggle < 1 {
			return fmt.Errorf("config: difficulty_levels.%s.max_attempts_before_struggle must be >= 1", name)
		}
		if lvl.QuickSuccessThreshold < 1 {
			return fmt.Errorf("config: difficulty_levels.%s.quick_success_threshold must be >= 1", name)
		}
	}
	if c.Teacher.StreakThresholds.QuickSuccessToUpgrade < 1 ||
		c.Teacher.StreakThresholds.StruggleToDowngrade < 1 {
		return fmt.Errorf("config: streak thresholds must be >= 1")
	}
	if c.Seeker.AttemptModulus <= c.Seeker.RandomOffsetMax-1+c.Seeker.AttemptIncrement {
		return fmt.Errorf("config: seeker.attempt_modulus too small for the offset range")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port out of range")
	}
	return nil
}

// ListenAddr joins the server address and port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Addr, c.Server.Port)
}

// Level returns the parameters for a difficulty name.
func (c *Config) Level(name string) (DifficultyLevel, bool) {
	lvl, ok := c.DifficultyLevels[name]
	return lvl, ok
}
