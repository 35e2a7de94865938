package teacher

import (
	"math/rand"
)

// Goal kinds chosen by the curriculum.
const (
	GoalStandard      = "standard"
	GoalReinforcement = "reinforcement"
	GoalSequence      = "sequence"
	GoalChallenge     = "challenge"
)

// bucketWidth groups targets into ranges of five for weakness tracking.
const bucketWidth = 5

// Goal is one target handed to a session.
type Goal struct {
	Target int    `json:"target"`
	Kind   string `json:"kind"`
	Seq    string `json:"sequence,omitempty"`
}

type bucketStats struct {
	goals     int
	successes int
}

// Curriculum picks goal targets, biasing toward ranges the seeker has been
// weakest in and occasionally interleaving sequence and challenge goals.
type Curriculum struct {
	rng     *rand.Rand
	seq     *SequenceGenerator
	buckets map[int]*bucketStats
}

// NewCurriculum seeds the curriculum.
func NewCurriculum(seed int64) *Curriculum {
	return &Curriculum{
		rng:     rand.New(rand.NewSource(seed)),
		seq:     NewSequenceGenerator(seed + 1),
		buckets: map[int]*bucketStats{},
	}
}

// RecordOutcome updates the weakness statistics for a finished goal.
func (c *Curriculum) RecordOutcome(target int, success bool) {
	b := c.buckets[target/bucketWidth]
	if b == nil {
		b = &bucketStats{}
		c.buckets[target/bucketWidth] = b
	}
	b.goals++
	if success {
		b.successes++
	}
}

// WeakestBucket returns the bucket index with the lowest success rate among
// attempted buckets, and whether one exists.
func (c *Curriculum) WeakestBucket() (int, bool) {
	best := -1
	bestRate := 2.0
	for idx, b := range c.buckets {
		if b.goals == 0 {
			continue
		}
		rate := float64(b.successes) / float64(b.goals)
		if rate < bestRate || (rate == bestRate && idx < best) {
			best = idx
			bestRate = rate
		}
	}
	return best, best >= 0
}

// NextGoal draws a goal for the given difficulty range: 40% reinforcement
// in the weakest bucket (when one exists and is imperfect), 20% sequence,
// 10% challenge near the top of the range, the rest uniform.
func (c *Curriculum) NextGoal(rangeMax int) Goal {
	if rangeMax < 1 {
		return Goal{Target: 0, Kind: GoalStandard}
	}
	r := c.rng.Float64()
	if r < 0.4 {
		if idx, ok := c.WeakestBucket(); ok {
			b := c.buckets[idx]
			if b.successes < b.goals {
				lo := idx * bucketWidth
				hi := lo + bucketWidth - 1
				if hi > rangeMax {
					hi = rangeMax
				}
				if lo <= hi {
					return Goal{Target: lo + c.rng.Intn(hi-lo+1), Kind: GoalReinforcement}
				}
			}
		}
		// No weakness data yet; fall through to a standard draw.
	} else if r < 0.6 {
		return Goal{Target: c.seq.Next(rangeMax), Kind: GoalSequence, Seq: c.seq.Kind()}
	} else if r < 0.7 {
		top := rangeMax - c.rng.Intn(2)
		if top < 0 {
			top = 0
		}
		return Goal{Target: top, Kind: GoalChallenge}
	}
	return Goal{Target: c.rng.Intn(rangeMax + 1), Kind: GoalStandard}
}
