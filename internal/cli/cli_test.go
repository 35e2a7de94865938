package cli

import "testing"

func TestParseArgsDefaults(t *testing.T) {
	got, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if got.Mode != ModeServe || got.Goals != 1 || got.Episodes != 1 {
		t.Errorf("defaults = %+v", got)
	}
}

func TestParseArgsBatch(t *testing.T) {
	got, err := ParseArgs([]string{
		"-mode", "batch", "-strategy", "binary",
		"-goals", "3", "-episodes", "8", "-concurrency", "4", "-seed", "42",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if got.Mode != ModeBatch || got.Strategy != "binary" || got.Goals != 3 ||
		got.Episodes != 8 || got.Concurrency != 4 || got.Seed != 42 {
		t.Errorf("parsed = %+v", got)
	}
}

func TestParseArgsRejectsBadMode(t *testing.T) {
	if _, err := ParseArgs([]string{"-mode", "dance"}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestParseArgsRejectsBadCounts(t *testing.T) {
	if _, err := ParseArgs([]string{"-goals", "0"}); err == nil {
		t.Error("expected error for zero goals")
	}
	if _, err := ParseArgs([]string{"-mode", "batch", "-episodes", "0"}); err == nil {
		t.Error("expected error for zero episodes")
	}
}
