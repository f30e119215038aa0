package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/bdsalocin/comhodl-api/internal/catalog"
	"github.com/bdsalocin/comhodl-api/internal/config"
	"github.com/bdsalocin/comhodl-api/internal/database"
	"github.com/bdsalocin/comhodl-api/internal/gamification"
	"github.com/bdsalocin/comhodl-api/internal/handler/health"
	"github.com/bdsalocin/comhodl-api/internal/handler/nearby"
	"github.com/bdsalocin/comhodl-api/internal/leaderboard"
	"github.com/bdsalocin/comhodl-api/internal/migrations"
	"github.com/bdsalocin/comhodl-api/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	applied, err := migrations.Run(ctx, db)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "migrations_applied", applied)

	if cfg.SeedDemo {
		if err := server.SeedDemo(ctx, logger, db, time.Now()); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}

	rules := gamification.DefaultRules()
	rules.Location = cfg.Location()
	store := server.NewSQLiteStore(db, rules)
	checks := map[string]health.Checker{"sqlite": dbChecker{db}}

	// --- Leaderboard ---
	var board leaderboard.Board = leaderboard.NewMemory()
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		board = leaderboard.NewRedis(rdb)
		checks["redis"] = redisChecker{rdb}
		logger.Info("connected to redis")
	}
	if err := warmLeaderboard(ctx, store, board); err != nil {
		return fmt.Errorf("warming leaderboard: %w", err)
	}

	// --- HTTP Server ---
	places := catalog.Default()
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Store:      store,
		Places:     places,
		Tokens:     server.NewTokens(cfg.JWTSecret, cfg.JWTTTL, nil),
		Board:      board,
		Broker:     server.NewBroker(),
		CORSOrigin: cfg.CORSOrigin,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
		r.Mount("/ws", nearby.NewHandler(logger, places).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// warmLeaderboard loads every user's total so the board is complete after a
// restart or a Redis flush.
func warmLeaderboard(ctx context.Context, store server.Store, board leaderboard.Board) error {
	standings, err := store.Standings(ctx)
	if err != nil {
		return err
	}
	for _, s := range standings {
		if err := board.Record(ctx, s.UserID, s.Nickname, s.Points); err != nil {
			return err
		}
	}
	return nil
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return database.Ping(ctx, d.db) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
