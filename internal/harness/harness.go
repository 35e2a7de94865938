// Package harness runs batches of goal-seeking episodes concurrently and
// aggregates their outcomes, for strategy comparison and soak runs.
package harness

import (
	"context"
	"sync"

	"github.com/uorlab/primeseek/internal/config"
	"github.com/uorlab/primeseek/internal/interfaces"
	"github.com/uorlab/primeseek/internal/logging"
	"github.com/uorlab/primeseek/internal/session"
	"github.com/uorlab/primeseek/internal/store"
)

// defaultCommitSize batches episode rows per store transaction.
const defaultCommitSize = 8

// Harness drives independent sessions through full episodes.
type Harness struct {
	MaxConcurrency int
	CommitSize     int

	cfg    *config.Config
	st     *store.Store
	logger interfaces.Logger
}

// Options configures one batch run.
type Options struct {
	// Episodes is the number of independent sessions to run.
	Episodes int
	// GoalsPerEpisode is how many goals each session must complete.
	GoalsPerEpisode int
	// Strategies are cycled across episodes; empty means the default
	// advisor for every episode.
	Strategies []string
	// Seed derives per-episode seeds deterministically; zero picks
	// time-based seeds.
	Seed int64
}

// EpisodeResult is the outcome of one session's episode.
type EpisodeResult struct {
	SessionID      string `json:"session_id"`
	Strategy       string `json:"strategy"`
	GoalsCompleted int    `json:"goals_completed"`
	TotalAttempts  int    `json:"total_attempts"`
	Difficulty     string `json:"difficulty"`
	Error          string `json:"error,omitempty"`
}

// DifficultyStats aggregates episodes that ended at the same difficulty.
type DifficultyStats struct {
	Episodes           int     `json:"episodes"`
	Goals              int     `json:"goals"`
	Attempts           int     `json:"attempts"`
	AvgAttemptsPerGoal float64 `json:"avg_attempts_per_goal"`
}

// Report aggregates a batch run.
type Report struct {
	Episodes      int             `json:"episodes"`
	Succeeded     int             `json:"succeeded"`
	Failed        int             `json:"failed"`
	TotalAttempts int             `json:"total_attempts"`
	TotalGoals    int             `json:"total_goals"`
	Results       []EpisodeResult `json:"results"`

	// AttemptsPerStrategy sums attempts per advisor name.
	AttemptsPerStrategy map[string]int `json:"attempts_per_strategy"`
	GoalsPerStrategy    map[string]int `json:"goals_per_strategy"`

	// PerDifficulty groups episodes by the difficulty they ended at.
	PerDifficulty map[string]DifficultyStats `json:"per_difficulty"`
}

// New creates a harness. The store may be nil when persistence is not
// wanted for batch runs.
func New(maxConcurrency int, cfg *config.Config, st *store.Store, logger interfaces.Logger) *Harness {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("Harness")
	}
	return &Harness{
		MaxConcurrency: maxConcurrency,
		CommitSize:     defaultCommitSize,
		cfg:            cfg,
		st:             st,
		logger:         logger,
	}
}

// Run executes the batch and blocks until every episode has finished or the
// context is canceled. Episode outcomes are committed to the store in
// batches as they arrive.
func (h *Harness) Run(ctx context.Context, opts Options) *Report {
	if opts.Episodes < 1 {
		opts.Episodes = 1
	}
	if opts.GoalsPerEpisode < 1 {
		opts.GoalsPerEpisode = 1
	}
	commitSize := h.CommitSize
	if commitSize < 1 {
		commitSize = defaultCommitSize
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, h.MaxConcurrency)
	resCh := make(chan EpisodeResult)
	collectorDone := make(chan struct{})
	commitCh := make(chan store.EpisodeRecord)
	batcherDone := make(chan struct{})

	report := &Report{
		Episodes:            opts.Episodes,
		AttemptsPerStrategy: map[string]int{},
		GoalsPerStrategy:    map[string]int{},
		PerDifficulty:       map[string]DifficultyStats{},
	}

	// Commit episode rows goroutine. Flushing detaches from ctx so a
	// canceled run still persists the episodes that finished.
	go func() {
		defer close(batcherDone)
		batch := make([]store.EpisodeRecord, 0, commitSize)
		flush := func() {
			if len(batch) > 0 {
				if h.st != nil {
					if err := h.st.RecordEpisodes(context.Background(), batch); err != nil {
						h.logger.Error("error while committing episode batch",
							interfaces.Field{Key: "error", Value: err})
					}
				}
				batch = batch[:0]
			}
		}

		for {
			select {
			case <-ctx.Done():
				flush()
				return
			case rec, ok := <-commitCh:
				if !ok {
					flush()
					return
				}
				batch = append(batch, rec)
				if len(batch) == commitSize {
					flush()
				}
			}
		}
	}()

	// Collect results as episodes finish.
	go func() {
		defer close(collectorDone)
		for res := range resCh {
			report.Results = append(report.Results, res)
			report.TotalAttempts += res.TotalAttempts
			report.TotalGoals += res.GoalsCompleted
			report.AttemptsPerStrategy[res.Strategy] += res.TotalAttempts
			report.GoalsPerStrategy[res.Strategy] += res.GoalsCompleted
			stats := report.PerDifficulty[res.Difficulty]
			stats.Episodes++
			stats.Goals += res.GoalsCompleted
			stats.Attempts += res.TotalAttempts
			report.PerDifficulty[res.Difficulty] = stats
			if res.Error == "" && res.GoalsCompleted >= opts.GoalsPerEpisode {
				report.Succeeded++
			} else {
				report.Failed++
			}

			select {
			case <-ctx.Done():
			case commitCh <- store.EpisodeRecord{
				SessionID:      res.SessionID,
				Strategy:       res.Strategy,
				Difficulty:     res.Difficulty,
				GoalsCompleted: res.GoalsCompleted,
				TotalAttempts:  res.TotalAttempts,
				Error:          res.Error,
			}:
			}
		}
	}()

	for i := 0; i < opts.Episodes; i++ {
		if ctx.Err() != nil {
			break
		}

		strategy := ""
		if len(opts.Strategies) > 0 {
			strategy = opts.Strategies[i%len(opts.Strategies)]
		}
		seed := int64(0)
		if opts.Seed != 0 {
			seed = opts.Seed + int64(i)
		}

		wg.Add(1)
		go func(strategy string, seed int64) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			res := h.runEpisode(ctx, strategy, seed, opts.GoalsPerEpisode)
			select {
			case <-ctx.Done():
			case resCh <- res:
			}
		}(strategy, seed)
	}

	wg.Wait()
	close(resCh)
	<-collectorDone
	close(commitCh)
	<-batcherDone

	for name, stats := range report.PerDifficulty {
		if stats.Goals > 0 {
			stats.AvgAttemptsPerGoal = float64(stats.Attempts) / float64(stats.Goals)
			report.PerDifficulty[name] = stats
		}
	}
	return report
}

func (h *Harness) runEpisode(ctx context.Context, strategy string, seed int64, goals int) EpisodeResult {
	sess, err := session.New(h.cfg, h.st, h.logger, session.Options{
		Strategy: strategy,
		Seed:     seed,
	})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("episode session failed to start",
				interfaces.Field{Key: "strategy", Value: strategy},
				interfaces.Field{Key: "error", Value: err})
		}
		return EpisodeResult{Strategy: strategy, Error: err.Error()}
	}
	defer sess.Close()

	st, err := sess.RunGoals(ctx, goals)
	if st == nil {
		st = sess.State()
	}
	res := EpisodeResult{
		SessionID:      st.ID,
		Strategy:       st.Strategy,
		GoalsCompleted: st.GoalsCompleted,
		TotalAttempts:  st.TotalAttempts,
		Difficulty:     st.Teacher.Difficulty,
	}
	if err != nil {
		if h.logger != nil {
			h.logger.Error("episode ended with error",
				interfaces.Field{Key: "session", Value: st.ID},
				interfaces.Field{Key: "error", Value: err})
		}
		res.Error = err.Error()
	}
	return res
}
