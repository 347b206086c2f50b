// Package server wires configuration, storage, the user service and the
// network front ends together and runs them until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
	hs "github.com/dmitrijs2005/authkeeper/internal/server/http"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *hs.Server
	health     *gs.HealthServer
}

// NewApp opens the database, applies migrations and builds the servers.
// It fails when the signing secret or work factor is unusable.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(os.Stdout, level)

	tokens, err := auth.NewTokenService([]byte(c.SecretKey), c.TokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token service init error: %w", err)
	}

	hasher := auth.NewPasswordHasher(auth.HashParams{
		MemoryKiB:   c.HashMemoryKiB,
		Iterations:  c.HashIterations,
		Parallelism: c.HashParallelism,
	}, c.HashConcurrency)

	rm, err := repomanager.NewRepositoryManager(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	us := services.NewUserService(db, rm, hasher, tokens, logger)

	app := &App{
		config: c,
		logger: logger,
		db:     db,
		httpServer: hs.NewServer(c.EndpointAddrHTTP, logger, us, auth.NewGate(tokens), db,
			hs.WithAllowedOrigins(c.CORSAllowedOrigins),
			hs.WithShutdownTimeout(c.ShutdownTimeout),
		),
	}

	if c.EndpointAddrGRPC != "" {
		app.health = gs.NewHealthServer(c.EndpointAddrGRPC, logger)
	}

	return app, nil
}

// Run serves until ctx is cancelled, SIGINT/SIGTERM/SIGQUIT arrives or a
// server fails, then stops everything and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	run("http", app.httpServer.Run)

	if app.health != nil {
		app.health.SetServing(true)
		run("grpc", app.health.Run)
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}

	app.logger.Info(context.Background(), "App stopped")

	return errors.Join(errs...)
}
