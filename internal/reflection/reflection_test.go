package reflection

import (
	"strings"
	"testing"
	"time"
)

func TestMemoryBounded(t *testing.T) {
	m := NewMemory(5)
	for i := 0; i < 12; i++ {
		m.Record(Experience{Kind: KindAttempt, Target: i})
	}
	if m.Size() != 5 {
		t.Errorf("size = %d, want 5", m.Size())
	}
	all := m.All()
	if all[0].Target != 7 || all[4].Target != 11 {
		t.Errorf("kept wrong window: %+v", all)
	}
	// Eviction must also drop the kind index entries.
	if got := m.Recall(Experience{Kind: KindAttempt}, 100); len(got) != 5 {
		t.Errorf("kind index holds %d, want 5", len(got))
	}
}

func TestRecordAssignsIDAndDefaults(t *testing.T) {
	m := NewMemory(0)
	id := m.Record(Experience{Kind: KindAttempt, Target: 3, Value: 2})
	if len(id) != 16 {
		t.Errorf("id = %q, want 16 hex chars", id)
	}
	e := m.All()[0]
	if e.ID != id {
		t.Errorf("stored id %q != returned %q", e.ID, id)
	}
	if e.Significance != 0.5 {
		t.Errorf("default significance = %v, want 0.5", e.Significance)
	}
	if e.Content == nil || e.Content["target"] != 3 {
		t.Errorf("derived content = %v", e.Content)
	}
}

func TestRecallMatchesOnContent(t *testing.T) {
	m := NewMemory(0)
	m.Record(Experience{Kind: KindAttempt, Content: map[string]any{
		"target": 4, "value": 1, "difficulty": "MEDIUM",
	}})
	m.Record(Experience{Kind: KindAttempt, Content: map[string]any{
		"target": 4, "value": 4, "difficulty": "MEDIUM",
	}})
	m.Record(Experience{Kind: KindAttempt, Content: map[string]any{
		"target": 9, "value": 2, "difficulty": "HARD",
	}})
	// A different kind never surfaces, however close its content.
	m.Record(Experience{Kind: KindGoalReached, Content: map[string]any{
		"target": 4, "value": 4, "difficulty": "MEDIUM",
	}})

	got := m.Recall(Experience{Kind: KindAttempt, Content: map[string]any{
		"target": 4, "value": 4, "difficulty": "MEDIUM",
	}}, 3)
	if len(got) != 3 {
		t.Fatalf("recalled %d", len(got))
	}
	if got[0].Content["value"] != 4 {
		t.Errorf("best match = %v", got[0].Content)
	}
	if got[2].Content["target"] != 9 {
		t.Errorf("worst match = %v", got[2].Content)
	}
	for _, e := range got {
		if e.Kind != KindAttempt {
			t.Errorf("recalled foreign kind %s", e.Kind)
		}
	}
}

func TestRecallCapsAtSize(t *testing.T) {
	m := NewMemory(0)
	m.Record(Experience{Kind: KindAttempt})
	if got := m.Recall(Experience{Kind: KindAttempt}, 10); len(got) != 1 {
		t.Errorf("recalled %d, want 1", len(got))
	}
}

func TestSimilaritySharedKeysAndValues(t *testing.T) {
	a := map[string]any{"target": 4, "value": 2, "difficulty": "EASY"}
	b := map[string]any{"target": 4, "value": 7, "difficulty": "EASY"}
	// 3 shared keys of 3, 2 matching values: (1 + 2/3) / 2.
	if got, want := similarity(a, b), (1+2.0/3)/2; got != want {
		t.Errorf("similarity = %v, want %v", got, want)
	}
	if got := similarity(a, map[string]any{}); got != 0 {
		t.Errorf("empty map similarity = %v", got)
	}
	if got := similarity(a, map[string]any{"other": 1}); got != 0 {
		t.Errorf("disjoint similarity = %v", got)
	}
}

func TestReflectEmptyMemory(t *testing.T) {
	m := NewMemory(0)
	r := m.Reflect(time.Now())
	if r.Experiences != 0 || r.Narrative == "" || len(r.Hash) != 16 {
		t.Errorf("reflection = %+v", r)
	}
	if r.MetacognitiveDepth != 1 {
		t.Errorf("first depth = %d", r.MetacognitiveDepth)
	}
}

func TestReflectPatternsAndBuckets(t *testing.T) {
	m := NewMemory(0)
	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		m.Record(Experience{
			Time:    now.Add(-time.Duration(i) * 30 * time.Minute),
			Kind:    KindAttempt,
			Target:  5,
			Success: i == 0,
		})
	}
	m.Record(Experience{Time: now, Kind: KindStuck, Valence: -0.8, Significance: 0.7})

	r := m.Reflect(now)
	if r.SuccessRate != 0.25 {
		t.Errorf("success rate = %v", r.SuccessRate)
	}
	var sawStuck, sawRecurring bool
	for _, p := range r.Patterns {
		if p == "got stuck 1 times" {
			sawStuck = true
		}
		if p == "target 5 keeps recurring" {
			sawRecurring = true
		}
	}
	if !sawStuck || !sawRecurring {
		t.Errorf("patterns = %v", r.Patterns)
	}
	if r.Narrative == "" || len(r.Narrative) < 20 {
		t.Errorf("narrative = %q", r.Narrative)
	}
}

func TestReflectAssessmentAndInsights(t *testing.T) {
	m := NewMemory(0)
	now := time.Now().UTC()
	// Early wild misses, late near-misses, then a hit: converging.
	values := []int{20, 15, 6, 5}
	for i, v := range values {
		m.Record(Experience{
			Time: now, Kind: KindAttempt, Target: 5, Value: v,
			Success: i == 3, Valence: -0.2, Significance: 0.3,
		})
	}

	r := m.Reflect(now)
	if r.SelfAssessment["attempts"] != 4 {
		t.Errorf("assessment attempts = %v", r.SelfAssessment["attempts"])
	}
	if r.SelfAssessment["success_rate"] != 0.25 {
		t.Errorf("assessment success_rate = %v", r.SelfAssessment["success_rate"])
	}
	if _, ok := r.SelfAssessment["avg_valence"].(float64); !ok {
		t.Errorf("assessment missing avg_valence: %v", r.SelfAssessment)
	}
	if len(r.Insights) == 0 {
		t.Fatal("no insights")
	}
	var sawConverging bool
	for _, p := range r.Patterns {
		if p == "attempts are drifting closer to their targets" {
			sawConverging = true
		}
	}
	if !sawConverging {
		t.Errorf("convergence not detected: %v", r.Patterns)
	}
}

func TestReflectDepthGrowsAndCaps(t *testing.T) {
	m := NewMemory(0)
	now := time.Now().UTC()
	var last int
	for i := 0; i < 8; i++ {
		last = m.Reflect(now).MetacognitiveDepth
		if want := i + 1; want <= maxDepth && last != want {
			t.Errorf("reflect %d: depth = %d, want %d", i, last, want)
		}
	}
	if last != maxDepth {
		t.Errorf("depth = %d, want cap %d", last, maxDepth)
	}
}

func TestReflectNarrativeCarriesKeyMoment(t *testing.T) {
	m := NewMemory(0)
	now := time.Now().UTC()
	m.Record(Experience{Time: now, Kind: KindAttempt, Target: 5, Value: 2, Significance: 0.3})
	m.Record(Experience{
		Time: now, Kind: KindGoalReached, Target: 5, Valence: 0.8, Significance: 0.9,
		Content: map[string]any{"description": "reached target 5 after 3 attempts"},
	})

	r := m.Reflect(now)
	if want := "reached target 5 after 3 attempts"; !strings.Contains(r.Narrative, want) {
		t.Errorf("narrative %q missing key moment %q", r.Narrative, want)
	}
}

func TestReflectHashTracksNarrative(t *testing.T) {
	m := NewMemory(0)
	now := time.Now().UTC()
	m.Record(Experience{Time: now, Kind: KindAttempt, Target: 1, Success: true})
	r1 := m.Reflect(now)
	r2 := m.Reflect(now)
	if r1.Hash != r2.Hash {
		t.Error("same memory, different hash")
	}
	m.Record(Experience{Time: now, Kind: KindAttempt, Target: 2})
	if r3 := m.Reflect(now); r3.Hash == r1.Hash {
		t.Error("memory changed, hash did not")
	}
}
