package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefaultTiers(t *testing.T) {
	cfg := Default()
	medium, ok := cfg.Level(DifficultyMedium)
	if !ok {
		t.Fatal("missing MEDIUM tier")
	}
	if medium.RangeMax != 9 || medium.MaxAttemptsBeforeStruggle != 4 {
		t.Errorf("MEDIUM = %+v", medium)
	}
	hard, _ := cfg.Level(DifficultyHard)
	if hard.RangeMax != 14 || hard.QuickSuccessThreshold != 2 {
		t.Errorf("HARD = %+v", hard)
	}
	if cfg.Teacher.Difficulty != DifficultyMedium {
		t.Errorf("starting difficulty = %s", cfg.Teacher.Difficulty)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
vm:
  max_instructions: 500
  log_file: /tmp/vm-trace.log
teacher:
  difficulty: EASY
difficulty_levels:
  EASY:
    range_max: 6
    max_attempts_before_struggle: 5
    quick_success_threshold: 1
server:
  port: 9999
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VM.MaxInstructions != 500 {
		t.Errorf("max_instructions = %d", cfg.VM.MaxInstructions)
	}
	if cfg.VM.LogFile != "/tmp/vm-trace.log" {
		t.Errorf("log_file = %q", cfg.VM.LogFile)
	}
	if cfg.Teacher.Difficulty != DifficultyEasy {
		t.Errorf("difficulty = %s", cfg.Teacher.Difficulty)
	}
	if lvl, _ := cfg.Level(DifficultyEasy); lvl.RangeMax != 6 {
		t.Errorf("EASY range_max = %d", lvl.RangeMax)
	}
	// Untouched keys keep their defaults.
	if cfg.Seeker.AttemptModulus != 10 {
		t.Errorf("attempt_modulus = %d", cfg.Seeker.AttemptModulus)
	}
	if cfg.ListenAddr() != "127.0.0.1:9999" {
		t.Errorf("listen addr = %s", cfg.ListenAddr())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	// Empty path means defaults.
	cfg, err := Load("")
	if err != nil || cfg.VM.MaxInstructions != 10000 {
		t.Errorf("defaults: cfg=%+v err=%v", cfg, err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Teacher.Difficulty = "BRUTAL"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown difficulty error")
	}

	cfg = Default()
	cfg.Seeker.AttemptModulus = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected modulus error")
	}

	cfg = Default()
	cfg.VM.Indices.Failure = cfg.VM.Indices.Success
	if err := cfg.Validate(); err == nil {
		t.Error("expected index collision error")
	}
}

func TestDebugEnvOverride(t *testing.T) {
	t.Setenv("APP_DEBUG", "1")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("APP_DEBUG=1 should enable debug")
	}
}
