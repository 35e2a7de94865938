// Command harness runs batches of goal-seeking episodes and prints an
// aggregate report as JSON.
// Usage: go run ./cmd/harness [-episodes n] [-goals n] [-strategies a,b]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/uorlab/primeseek/internal/config"
	"github.com/uorlab/primeseek/internal/harness"
	"github.com/uorlab/primeseek/internal/logging"
	"github.com/uorlab/primeseek/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (empty=built-in defaults)")
	episodes := flag.Int("episodes", 8, "Number of independent episodes")
	goals := flag.Int("goals", 3, "Goals each episode must complete")
	concurrency := flag.Int("concurrency", 4, "Concurrent episodes")
	strategies := flag.String("strategies", "", "Comma-separated advisor names to cycle (empty=default)")
	seed := flag.Int64("seed", 0, "Random seed (0=time-based)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var names []string
	if *strategies != "" {
		for _, n := range strings.Split(*strategies, ",") {
			names = append(names, strings.TrimSpace(n))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewStdoutLogger("Harness")
	st, err := store.Open(cfg.Storage.Path, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	h := harness.New(*concurrency, cfg, st, logger)
	report := h.Run(ctx, harness.Options{
		Episodes:        *episodes,
		GoalsPerEpisode: *goals,
		Strategies:      names,
		Seed:            *seed,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("encode report: %v", err)
	}
}
