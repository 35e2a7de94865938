// Package reflection keeps a bounded autobiographical memory of session
// experiences and condenses it into narrative reflections.
package reflection

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Experience kinds.
const (
	KindAttempt       = "attempt"
	KindGoalReached   = "goal_reached"
	KindGoalAbandoned = "goal_abandoned"
	KindStuck         = "stuck"
)

// Experience is one remembered occurrence. Content carries free-form detail
// used for similarity recall; Valence grades it from -1 (distressing) to 1
// (rewarding) and Significance from 0 to 1.
type Experience struct {
	ID           string         `json:"id,omitempty"`
	Time         time.Time      `json:"time"`
	Kind         string         `json:"kind"`
	Target       int            `json:"target"`
	Value        int            `json:"value"`
	Success      bool           `json:"success"`
	Difficulty   string         `json:"difficulty"`
	Content      map[string]any `json:"content,omitempty"`
	Valence      float64        `json:"valence"`
	Significance float64        `json:"significance"`
}

// defaultCapacity bounds the memory when none is given.
const defaultCapacity = 200

// maxDepth caps the metacognitive depth a memory reports.
const maxDepth = 5

// Memory is a bounded autobiographical experience log, indexed by id and by
// kind. Safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	cap      int
	timeline []string // ids, oldest first
	byID     map[string]Experience
	byKind   map[string][]string
	seq      int
	reflects int
}

// NewMemory builds a memory holding at most capacity experiences.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Memory{
		cap:    capacity,
		byID:   map[string]Experience{},
		byKind: map[string][]string{},
	}
}

// Record stores an experience and returns its id, evicting the oldest past
// capacity. A zero Significance defaults to 0.5; a nil Content is derived
// from the structured fields so recall always has something to match on.
func (m *Memory) Record(e Experience) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	if e.Significance == 0 {
		e.Significance = 0.5
	}
	e.Valence = clamp(e.Valence, -1, 1)
	e.Significance = clamp(e.Significance, 0, 1)
	if e.Content == nil {
		e.Content = map[string]any{
			"target":     e.Target,
			"value":      e.Value,
			"success":    e.Success,
			"difficulty": e.Difficulty,
		}
	}
	m.seq++
	e.ID = experienceID(e, m.seq)

	m.byID[e.ID] = e
	m.timeline = append(m.timeline, e.ID)
	m.byKind[e.Kind] = append(m.byKind[e.Kind], e.ID)
	if len(m.timeline) > m.cap {
		m.evictOldest()
	}
	return e.ID
}

func (m *Memory) evictOldest() {
	id := m.timeline[0]
	m.timeline = m.timeline[1:]
	old, ok := m.byID[id]
	if !ok {
		return
	}
	delete(m.byID, id)
	ids := m.byKind[old.Kind]
	for i, other := range ids {
		if other == id {
			m.byKind[old.Kind] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// Size returns the number of stored experiences.
func (m *Memory) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timeline)
}

// All returns a copy of the stored experiences, oldest first.
func (m *Memory) All() []Experience {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allLocked()
}

func (m *Memory) allLocked() []Experience {
	out := make([]Experience, 0, len(m.timeline))
	for _, id := range m.timeline {
		out = append(out, m.byID[id])
	}
	return out
}

// Recall returns the k stored experiences of the probe's kind ranked by
// content similarity, most recent first among ties.
func (m *Memory) Recall(probe Experience, k int) []Experience {
	m.mu.Lock()
	defer m.mu.Unlock()

	content := probe.Content
	if content == nil {
		content = map[string]any{
			"target":     probe.Target,
			"value":      probe.Value,
			"success":    probe.Success,
			"difficulty": probe.Difficulty,
		}
	}

	pos := make(map[string]int, len(m.timeline))
	for i, id := range m.timeline {
		pos[id] = i
	}
	type scored struct {
		e     Experience
		score float64
		idx   int
	}
	ranked := make([]scored, 0, len(m.byKind[probe.Kind]))
	for _, id := range m.byKind[probe.Kind] {
		e, ok := m.byID[id]
		if !ok {
			continue
		}
		ranked = append(ranked, scored{e: e, score: similarity(content, e.Content), idx: pos[id]})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].idx > ranked[j].idx
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]Experience, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, r.e)
	}
	return out
}

// similarity scores two content maps as the mean of key overlap and value
// agreement on the shared keys.
func similarity(a, b map[string]any) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared, matching := 0, 0
	for key, av := range a {
		bv, ok := b[key]
		if !ok {
			continue
		}
		shared++
		if fmt.Sprint(av) == fmt.Sprint(bv) {
			matching++
		}
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	keySim := float64(shared) / float64(larger)
	valueSim := 0.0
	if shared > 0 {
		valueSim = float64(matching) / float64(shared)
	}
	return (keySim + valueSim) / 2
}

// Reflection is a condensed reading of the memory.
type Reflection struct {
	GeneratedAt        time.Time      `json:"generated_at"`
	Hash               string         `json:"hash"`
	Experiences        int            `json:"experiences"`
	SuccessRate        float64        `json:"success_rate"`
	SelfAssessment     map[string]any `json:"self_assessment"`
	Patterns           []string       `json:"patterns"`
	Insights           []string       `json:"insights"`
	MetacognitiveDepth int            `json:"metacognitive_depth"`
	Narrative          string         `json:"narrative"`
}

// Reflect summarizes the memory: a numeric self-assessment, aggregate
// patterns, insights drawn from them, and a narrative that places
// experiences in coarse time buckets with their emotional tone. Each call
// deepens the metacognitive depth up to a cap. The hash identifies the
// narrative content.
func (m *Memory) Reflect(now time.Time) *Reflection {
	m.mu.Lock()
	entries := m.allLocked()
	m.reflects++
	depth := m.reflects
	m.mu.Unlock()
	if depth > maxDepth {
		depth = maxDepth
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	r := &Reflection{
		GeneratedAt:        now,
		Experiences:        len(entries),
		SelfAssessment:     map[string]any{},
		Patterns:           []string{},
		Insights:           []string{},
		MetacognitiveDepth: depth,
	}
	if len(entries) == 0 {
		r.Narrative = "Nothing has happened yet."
		r.Hash = hashNarrative(r.Narrative)
		return r
	}

	attempts, successes, stucks := 0, 0, 0
	targetHits := map[int]int{}
	var tries []Experience
	var sumValence, sumSignificance float64
	for _, e := range entries {
		sumValence += e.Valence
		sumSignificance += e.Significance
		switch e.Kind {
		case KindAttempt:
			attempts++
			if e.Success {
				successes++
			}
			targetHits[e.Target]++
			tries = append(tries, e)
		case KindStuck:
			stucks++
		}
	}
	if attempts > 0 {
		r.SuccessRate = float64(successes) / float64(attempts)
	}
	r.SelfAssessment = map[string]any{
		"experiences":      len(entries),
		"attempts":         attempts,
		"success_rate":     r.SuccessRate,
		"stuck_events":     stucks,
		"avg_valence":      sumValence / float64(len(entries)),
		"avg_significance": sumSignificance / float64(len(entries)),
	}

	if r.SuccessRate > 0.5 {
		r.Patterns = append(r.Patterns, "most attempts land on their target")
	} else if attempts > 0 {
		r.Patterns = append(r.Patterns, "targets usually take several attempts")
	}
	if stucks > 0 {
		r.Patterns = append(r.Patterns, fmt.Sprintf("got stuck %d times", stucks))
	}
	if tgt, n := busiestTarget(targetHits); n > 2 {
		r.Patterns = append(r.Patterns, fmt.Sprintf("target %d keeps recurring", tgt))
	}
	if run := longestFailureRun(tries); run >= 4 {
		r.Patterns = append(r.Patterns, fmt.Sprintf("missed %d times in a row at the worst stretch", run))
	}
	if oscillates(tries) {
		r.Patterns = append(r.Patterns, "attempts oscillate around the target")
	}
	converging := isConverging(tries)
	if converging {
		r.Patterns = append(r.Patterns, "attempts are drifting closer to their targets")
	}

	r.Insights = insights(r, stucks, converging)

	var b strings.Builder
	fmt.Fprintf(&b, "I hold %d experiences. ", len(entries))
	buckets := map[string][]Experience{}
	for _, e := range entries {
		name := timeBucket(now.Sub(e.Time))
		buckets[name] = append(buckets[name], e)
	}
	for _, name := range bucketOrder {
		group := buckets[name]
		if len(group) == 0 {
			continue
		}
		var valence, significance float64
		key := group[0]
		for _, e := range group {
			valence += e.Valence
			significance += e.Significance
			if e.Significance > key.Significance {
				key = e
			}
		}
		fmt.Fprintf(&b, "%d from %s (tone %+.2f, weight %.2f), the key moment: %s. ",
			len(group), name,
			valence/float64(len(group)), significance/float64(len(group)),
			describe(key))
	}
	for _, p := range r.Patterns {
		fmt.Fprintf(&b, "I notice that %s. ", p)
	}
	r.Narrative = strings.TrimSpace(b.String())
	r.Hash = hashNarrative(r.Narrative)
	return r
}

// insights turns the assessment and patterns into first-person observations.
func insights(r *Reflection, stucks int, converging bool) []string {
	var out []string
	switch {
	case r.SuccessRate > 0.5:
		out = append(out, "My strategy finds targets more often than it misses.")
	case r.SuccessRate > 0:
		out = append(out, "I miss more than I hit, but the misses teach me where to look.")
	default:
		out = append(out, "I have not reached a target yet; I am still mapping the search space.")
	}
	if stucks > 0 {
		out = append(out, "When I signal stuck, the advice I receive reshapes my own instructions.")
	}
	if converging {
		out = append(out, "My attempts are converging, so the feedback loop is working.")
	}
	if r.MetacognitiveDepth > 2 {
		out = append(out, "I have reflected on these reflections before; the reading deepens each time.")
	}
	return out
}

// describe renders an experience for the narrative's key moments.
func describe(e Experience) string {
	if d, ok := e.Content["description"].(string); ok && d != "" {
		return d
	}
	switch e.Kind {
	case KindGoalReached:
		return fmt.Sprintf("reached target %d", e.Target)
	case KindGoalAbandoned:
		return fmt.Sprintf("walked away from target %d", e.Target)
	case KindStuck:
		return fmt.Sprintf("signalled stuck on target %d", e.Target)
	default:
		return fmt.Sprintf("guessed %d against target %d", e.Value, e.Target)
	}
}

// longestFailureRun finds the longest streak of consecutive misses.
func longestFailureRun(tries []Experience) int {
	best, run := 0, 0
	for _, e := range tries {
		if e.Success {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}

// oscillates reports whether attempts flip sides of their target at least
// three times.
func oscillates(tries []Experience) bool {
	flips, last := 0, 0
	for _, e := range tries {
		d := e.Value - e.Target
		if d == 0 {
			continue
		}
		sign := 1
		if d < 0 {
			sign = -1
		}
		if last != 0 && sign != last {
			flips++
		}
		last = sign
	}
	return flips >= 3
}

// isConverging compares the mean miss distance of the earlier half of the
// attempts against the later half.
func isConverging(tries []Experience) bool {
	if len(tries) < 4 {
		return false
	}
	half := len(tries) / 2
	early := meanMiss(tries[:half])
	late := meanMiss(tries[half:])
	return late < early
}

func meanMiss(tries []Experience) float64 {
	if len(tries) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range tries {
		d := e.Value - e.Target
		if d < 0 {
			d = -d
		}
		sum += float64(d)
	}
	return sum / float64(len(tries))
}

var bucketOrder = []string{"just now", "moments ago", "earlier", "long ago"}

// timeBucket maps an age onto a coarse narrative bucket.
func timeBucket(age time.Duration) string {
	switch {
	case age < 10*time.Second:
		return "just now"
	case age < 2*time.Minute:
		return "moments ago"
	case age < time.Hour:
		return "earlier"
	default:
		return "long ago"
	}
}

func busiestTarget(hits map[int]int) (int, int) {
	best, bestN := 0, 0
	for t, n := range hits {
		if n > bestN || (n == bestN && t < best) {
			best, bestN = t, n
		}
	}
	return best, bestN
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func experienceID(e Experience, seq int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d.%d%v", e.Time.UnixNano(), seq, e.Content)))
	return hex.EncodeToString(sum[:])[:16]
}

func hashNarrative(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
