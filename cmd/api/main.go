// Package main is the entry point for the VivesBike rental API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/EgonMoreau/VivesBike/internal/clock"
	"github.com/EgonMoreau/VivesBike/internal/config"
	"github.com/EgonMoreau/VivesBike/internal/handler"
	"github.com/EgonMoreau/VivesBike/internal/middleware"
	"github.com/EgonMoreau/VivesBike/internal/repo"
	"github.com/EgonMoreau/VivesBike/internal/repo/memory"
	"github.com/EgonMoreau/VivesBike/internal/service"
	"github.com/EgonMoreau/VivesBike/migrations"
)

// stores is the storage backend picked from DATABASE_URL.
type stores struct {
	members repo.MemberRepo
	bikes   repo.BikeRepo
	rides   repo.RideRepo
	close   func()
}

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Storage ----------------------------------------------------------
	st, err := openStores(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer st.close()

	// --- Services ---------------------------------------------------------
	rental := service.NewRental(st.members, st.bikes, st.rides, clock.System{}, cfg.DailyRate)
	exporter := service.NewExportService(st.rides, st.members, st.bikes)
	srv := handler.NewServer(rental.Bikes, rental.Members, rental.Rides, exporter, logger)

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID, RealIP, Logger, Recoverer, CORS, body limit.
	// Recoverer sits inside the logger so a panic is still logged as a 500.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	srv.Routes(r)

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr, "memory", cfg.UsesMemory())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStores returns the in-memory stores for DATABASE_URL=memory:// and
// Postgres stores otherwise. Postgres is migrated to the latest schema first.
func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.UsesMemory() {
		slog.Warn("using in-memory storage; data is lost on restart")
		s := memory.NewStore()
		return stores{members: s.Members(), bikes: s.Bikes(), rides: s.Rides(), close: func() {}}, nil
	}

	// New() does not open connections immediately; the ping does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("ping: %w", err)
	}
	slog.Info("database connection established")

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return stores{}, err
	}

	return stores{
		members: repo.NewMemberRepo(pool),
		bikes:   repo.NewBikeRepo(pool),
		rides:   repo.NewRideRepo(pool),
		close:   pool.Close,
	}, nil
}

// migrate applies every pending goose migration. goose drives database/sql,
// so the pool is wrapped rather than opening a second set of connections.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("migrations applied", "count", len(results))
	return nil
}
