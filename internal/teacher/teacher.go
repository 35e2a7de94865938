// Package teacher implements the adaptive goal-setting side of a seeking
// session: difficulty tiers, streak-driven tier movement, a weakness-aware
// curriculum, and aggregate performance monitoring.
package teacher

import (
	"github.com/uorlab/primeseek/internal/config"
	"github.com/uorlab/primeseek/internal/interfaces"
)

// difficultyOrder fixes the upgrade/downgrade ladder.
var difficultyOrder = []string{
	config.DifficultyEasy,
	config.DifficultyMedium,
	config.DifficultyHard,
}

// Outcome summarizes how the teacher reacted to a finished goal.
type Outcome struct {
	QuickSuccess      bool   `json:"quick_success"`
	Struggled         bool   `json:"struggled"`
	DifficultyChanged bool   `json:"difficulty_changed"`
	Difficulty        string `json:"difficulty"`
}

// Stats is a snapshot of the teacher's state for API responses.
type Stats struct {
	Difficulty         string  `json:"difficulty"`
	QuickSuccessStreak int     `json:"quick_success_streak"`
	StruggleStreak     int     `json:"struggle_streak"`
	GoalsCompleted     int     `json:"goals_completed"`
	SuccessRate        float64 `json:"success_rate"`
	AverageAttempts    float64 `json:"average_attempts"`
	Trend              string  `json:"trend"`
}

// Teacher assigns goals and moves the difficulty tier in response to the
// seeker's performance.
type Teacher struct {
	cfg        *config.Config
	logger     interfaces.Logger
	monitor    *Monitor
	curriculum *Curriculum

	difficulty         string
	quickSuccessStreak int
	struggleStreak     int
}

// New builds a teacher starting at the configured difficulty.
func New(cfg *config.Config, seed int64, logger interfaces.Logger) *Teacher {
	return &Teacher{
		cfg:        cfg,
		logger:     logger.With(interfaces.Field{Key: "component", Value: "teacher"}),
		monitor:    &Monitor{},
		curriculum: NewCurriculum(seed),
		difficulty: cfg.Teacher.Difficulty,
	}
}

// Difficulty returns the current tier name.
func (t *Teacher) Difficulty() string { return t.difficulty }

// Level returns the parameters of the current tier.
func (t *Teacher) Level() config.DifficultyLevel {
	lvl, _ := t.cfg.Level(t.difficulty)
	return lvl
}

// NextGoal draws the next target from the curriculum within the current
// tier's range.
func (t *Teacher) NextGoal() Goal {
	goal := t.curriculum.NextGoal(t.Level().RangeMax)
	t.logger.Debug("assigned goal",
		interfaces.Field{Key: "target", Value: goal.Target},
		interfaces.Field{Key: "kind", Value: goal.Kind},
		interfaces.Field{Key: "difficulty", Value: t.difficulty})
	return goal
}

// RecordOutcome folds a finished goal into the streaks and, when a streak
// threshold is crossed, moves the difficulty tier.
func (t *Teacher) RecordOutcome(goal Goal, attempts int, success bool) Outcome {
	lvl := t.Level()
	t.monitor.Record(GoalResult{Target: goal.Target, Attempts: attempts, Success: success})
	t.curriculum.RecordOutcome(goal.Target, success)

	out := Outcome{Difficulty: t.difficulty}
	if success && attempts <= lvl.QuickSuccessThreshold {
		out.QuickSuccess = true
		t.quickSuccessStreak++
		t.struggleStreak = 0
	} else if !success || attempts >= lvl.MaxAttemptsBeforeStruggle {
		out.Struggled = true
		t.struggleStreak++
		t.quickSuccessStreak = 0
	} else {
		t.quickSuccessStreak = 0
		t.struggleStreak = 0
	}

	th := t.cfg.Teacher.StreakThresholds
	if t.quickSuccessStreak >= th.QuickSuccessToUpgrade {
		if t.shift(1) {
			out.DifficultyChanged = true
		}
		t.quickSuccessStreak = 0
	}
	if t.struggleStreak >= th.StruggleToDowngrade {
		if t.shift(-1) {
			out.DifficultyChanged = true
		}
		t.struggleStreak = 0
	}
	out.Difficulty = t.difficulty
	return out
}

// AutoAdjust applies the rate-based model on top of the streak rules: with
// enough history, a success rate above 0.8 pushes the tier up and below 0.5
// pulls it down. It reports whether the tier moved.
func (t *Teacher) AutoAdjust() bool {
	if t.monitor.Count() < 5 {
		return false
	}
	rate := t.monitor.SuccessRate()
	switch {
	case rate > 0.8:
		return t.shift(1)
	case rate < 0.5:
		return t.shift(-1)
	}
	return false
}

func (t *Teacher) shift(dir int) bool {
	for i, name := range difficultyOrder {
		if name != t.difficulty {
			continue
		}
		j := i + dir
		if j < 0 || j >= len(difficultyOrder) {
			return false
		}
		if _, ok := t.cfg.Level(difficultyOrder[j]); !ok {
			return false
		}
		t.logger.Info("difficulty change",
			interfaces.Field{Key: "from", Value: t.difficulty},
			interfaces.Field{Key: "to", Value: difficultyOrder[j]})
		t.difficulty = difficultyOrder[j]
		return true
	}
	return false
}

// Stats snapshots the teacher for state reporting.
func (t *Teacher) Stats() Stats {
	return Stats{
		Difficulty:         t.difficulty,
		QuickSuccessStreak: t.quickSuccessStreak,
		StruggleStreak:     t.struggleStreak,
		GoalsCompleted:     t.monitor.Count(),
		SuccessRate:        t.monitor.SuccessRate(),
		AverageAttempts:    t.monitor.AverageAttempts(),
		Trend:              t.monitor.Trend(),
	}
}
