package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ahamednazeer/eVoting-sub000/cliparse"
	"github.com/ahamednazeer/eVoting-sub000/db"
	"github.com/ahamednazeer/eVoting-sub000/logger"
	"github.com/ahamednazeer/eVoting-sub000/middleware"
	"github.com/ahamednazeer/eVoting-sub000/ratelimit"
	"github.com/ahamednazeer/eVoting-sub000/router"
	"github.com/ahamednazeer/eVoting-sub000/store"
	"github.com/ahamednazeer/eVoting-sub000/tally"
	"github.com/ahamednazeer/eVoting-sub000/voting"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		slog.Error("logger setup failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(log)

	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		slog.Error("invalid database type", "error", err)
		os.Exit(1)
	}

	// Connect and verify
	dbConn, err := db.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables and guard triggers)
	if err := db.CreateSchema(dbConn, dialect); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "dialect", string(dialect))

	limiter, closeLimiter, err := newLimiter(cfg.RateLimit)
	if err != nil {
		slog.Error("rate limiter setup failed", "error", err)
		os.Exit(1)
	}
	defer closeLimiter()

	s := store.New(dialect)
	mux := router.NewRouter(router.Deps{
		DB:    dbConn,
		Store: s,
		Coordinator: voting.NewCoordinator(dbConn, s,
			voting.WithTimeout(cfg.TxTimeout),
			voting.WithLogger(log),
		),
		Aggregator: tally.NewAggregator(dbConn, s),
		Limiter:    limiter,
	}, cfg)

	server := &http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		limiter.RunSweeper(ctx)
		return nil
	})
	g.Go(func() error {
		// Wait for Ctrl-C signal or a server failure
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server closed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server closed")
}

func newLimiter(cfg cliparse.RateLimitConfig) (*ratelimit.Limiter, func(), error) {
	if cfg.Backend != "tarantool" {
		l, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), cfg.Attempts, cfg.Window)
		return l, func() {}, err
	}

	conn, err := ratelimit.Connect(cfg.Tarantool)
	if err != nil {
		return nil, nil, err
	}
	l, err := ratelimit.NewLimiter(ratelimit.NewTarantoolStore(conn), cfg.Attempts, cfg.Window)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	slog.Info("Rate limiter connected to Tarantool", "host", cfg.Tarantool.Host)
	return l, func() { conn.Close() }, nil
}
