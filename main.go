// main.go
//
// Process bootstrap for the word connections backend.
// Responsibilities:
//   - Flags (-port, -version, -check-data), .env loading, zerolog setup.
//   - Load and validate the category dataset; an invalid dataset is fatal.
//   - Wire generator, session store, results DB, metrics and HTTP server.
//   - Own the session sweeper goroutine and shut everything down on SIGINT/SIGTERM.

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wordconnections/backend/internal/categories"
	"github.com/wordconnections/backend/internal/config"
	"github.com/wordconnections/backend/internal/httpserver"
	"github.com/wordconnections/backend/internal/metrics"
	"github.com/wordconnections/backend/internal/puzzle"
	"github.com/wordconnections/backend/internal/results"
	"github.com/wordconnections/backend/internal/store"
)

const version = "v1.0.0"

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
		checkData   = flag.Bool("check-data", false, "Validate the category dataset and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("wordconnections %s\n", version)
		return
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()
	if *portFlag != "" {
		cfg.Port = *portFlag
	}
	setupLogger(cfg)

	limits := categories.Limits{
		RequiredGroups: cfg.RequiredGroups,
		WordsPerGroup:  cfg.WordsPerGroup,
		MaxThemeLength: cfg.MaxThemeLength,
		MaxWordLength:  cfg.MaxWordLength,
	}
	groups, err := categories.LoadValidated(cfg.PuzzleDataFile, limits)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.PuzzleDataFile).Msg("failed to load category dataset")
	}
	if *checkData {
		fmt.Printf("dataset ok: %d groups\n", len(groups))
		return
	}

	gen, err := puzzle.New(groups, puzzle.Config{RequiredGroups: cfg.RequiredGroups, Limits: limits})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build puzzle generator")
	}

	mem := store.NewMemory(store.Options{
		MaxAttempts: cfg.MaxAttempts,
		TTL:         cfg.SessionExpire,
		OnExpire:    func(n int) { metrics.SessionsExpired.Add(float64(n)) },
	})
	metrics.RegisterActiveSessions(func() float64 { return float64(mem.Count(context.Background())) })

	deps := httpserver.Deps{Generator: gen, Sessions: mem, Config: cfg, Version: version}
	db, err := openResults(cfg.DBPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.DBPath).Msg("results store unavailable; stats disabled")
	} else {
		defer db.Close()
		deps.Results = results.NewStore(db)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeperDone := mem.RunSweeper(ctx, cfg.SessionSweep)

	srv := httpserver.New(deps)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Int("groups", gen.TotalGroups()).
			Dur("sessionTTL", cfg.SessionExpire).
			Bool("admin", cfg.AdminEnabled()).
			Msg("starting wordconnections server")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server exited")
		}
		stop()
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	<-sweeperDone
	log.Info().Int("sessions", mem.Count(context.Background())).Msg("stopped")
}

func setupLogger(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown LOG_LEVEL, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func openResults(path string) (*sql.DB, error) {
	db, err := results.Open(path)
	if err != nil {
		return nil, err
	}
	if err := results.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
