package teacher

// GoalResult is one completed goal as seen by the monitor.
type GoalResult struct {
	Target   int
	Attempts int
	Success  bool
}

// historyCap bounds the monitor's goal history.
const historyCap = 50

// Trend labels returned by Monitor.Trend.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Monitor tracks goal outcomes and derives aggregate performance signals.
type Monitor struct {
	history []GoalResult
}

// Record appends a finished goal, evicting the oldest beyond the cap.
func (m *Monitor) Record(r GoalResult) {
	m.history = append(m.history, r)
	if len(m.history) > historyCap {
		m.history = m.history[len(m.history)-historyCap:]
	}
}

// Count returns the number of recorded goals.
func (m *Monitor) Count() int { return len(m.history) }

// SuccessRate is the fraction of recorded goals that succeeded.
func (m *Monitor) SuccessRate() float64 {
	if len(m.history) == 0 {
		return 0
	}
	ok := 0
	for _, r := range m.history {
		if r.Success {
			ok++
		}
	}
	return float64(ok) / float64(len(m.history))
}

// AverageAttempts is the mean attempt count across recorded goals.
func (m *Monitor) AverageAttempts() float64 {
	if len(m.history) == 0 {
		return 0
	}
	total := 0
	for _, r := range m.history {
		total += r.Attempts
	}
	return float64(total) / float64(len(m.history))
}

// Trend compares the last three goals against the three before them: fewer
// attempts per goal counts as improvement.
func (m *Monitor) Trend() string {
	if len(m.history) < 6 {
		return TrendStable
	}
	recent := m.history[len(m.history)-3:]
	prior := m.history[len(m.history)-6 : len(m.history)-3]
	ra, pa := 0, 0
	for i := 0; i < 3; i++ {
		ra += recent[i].Attempts
		pa += prior[i].Attempts
	}
	switch {
	case ra < pa:
		return TrendImproving
	case ra > pa:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// History returns the recorded goals, oldest first.
func (m *Monitor) History() []GoalResult {
	out := make([]GoalResult, len(m.history))
	copy(out, m.history)
	return out
}
