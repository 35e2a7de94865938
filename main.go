package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uorlab/primeseek/internal/app"
	"github.com/uorlab/primeseek/internal/cli"
	"github.com/uorlab/primeseek/internal/config"
	"github.com/uorlab/primeseek/internal/harness"
	"github.com/uorlab/primeseek/internal/logging"
	"github.com/uorlab/primeseek/internal/seeker"
	"github.com/uorlab/primeseek/internal/server"
	"github.com/uorlab/primeseek/internal/session"
	"github.com/uorlab/primeseek/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "primeseek: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	parsed, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(parsed.ConfigPath)
	if err != nil {
		return err
	}

	logger := logging.NewFileLogger("primeseek", cfg.VM.LogFile, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch parsed.Mode {
	case cli.ModeServe:
		return serve(ctx, cfg, logger)
	case cli.ModeRun:
		return runSession(ctx, cfg, logger, parsed)
	case cli.ModeBatch:
		return runBatch(ctx, cfg, logger, parsed)
	case cli.ModeGenerate:
		return generate(cfg, parsed)
	}
	return fmt.Errorf("unknown mode %q", parsed.Mode)
}

func serve(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	s, err := server.NewServer(server.Config{
		ListenAddr: cfg.ListenAddr(),
		AppConfig:  &app.Config{App: cfg},
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	httpSrv := s.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: httpSrv.Addr})
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func runSession(ctx context.Context, cfg *config.Config, logger logging.Logger, parsed *cli.CLIArgs) error {
	st, err := store.Open(cfg.Storage.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := session.New(cfg, st, logger, session.Options{
		Strategy: parsed.Strategy,
		Seed:     parsed.Seed,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	state, err := sess.RunGoals(ctx, parsed.Goals)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"session":         state.ID,
		"goals_completed": state.GoalsCompleted,
		"total_attempts":  state.TotalAttempts,
		"teacher":         state.Teacher,
		"reflection":      sess.Reflect(),
	})
}

func runBatch(ctx context.Context, cfg *config.Config, logger logging.Logger, parsed *cli.CLIArgs) error {
	concurrency := parsed.Concurrency
	if concurrency < 1 {
		concurrency = 4
	}

	var strategies []string
	if parsed.Strategy != "" {
		strategies = []string{parsed.Strategy}
	}

	st, err := store.Open(cfg.Storage.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	h := harness.New(concurrency, cfg, st, logger)
	report := h.Run(ctx, harness.Options{
		Episodes:        parsed.Episodes,
		GoalsPerEpisode: parsed.Goals,
		Strategies:      strategies,
		Seed:            parsed.Seed,
	})
	return printJSON(report)
}

func generate(cfg *config.Config, parsed *cli.CLIArgs) error {
	prog, err := seeker.Generate(seeker.Config{
		InitialAttempt:         1,
		AttemptModulus:         cfg.Seeker.AttemptModulus,
		AttemptIncrement:       cfg.Seeker.AttemptIncrement,
		RandomOffsetMax:        cfg.Seeker.RandomOffsetMax,
		MaxFailuresBeforeStuck: cfg.Seeker.MaxFailuresBeforeStuck,
		StuckSignalValue:       cfg.Teacher.StuckSignalValue,
	})
	if err != nil {
		return err
	}

	out := parsed.ProgramOut
	if out == "" {
		out = cfg.Paths.ProgramFile
	}
	if err := seeker.SaveProgram(out, prog.Chunks); err != nil {
		return err
	}
	fmt.Printf("wrote %d chunks to %s\n", len(prog.Chunks), out)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
