package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"github.com/scribehub/go-session-server/auth"
	"github.com/scribehub/go-session-server/internal/config"
	"github.com/scribehub/go-session-server/migrations"
	"github.com/scribehub/go-session-server/server"
	"github.com/scribehub/go-session-server/token"
	"github.com/scribehub/go-session-server/users"
	fakeuserrepo "github.com/scribehub/go-session-server/users/repofake"
)

const registryCleanupInterval = time.Hour

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, cleanup, err := buildRepos(ctx, c)
	if err != nil {
		return fmt.Errorf("buildRepos: %w", err)
	}
	defer cleanup()

	srv, err := server.New(c, repos)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	cancel()
	returnError = shutdown(httpServer)
	return returnError
}

func setupLogging(c config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// buildRepos wires the credential store and revocation registry. With a
// DATABASE_URL the server runs on Postgres with goose migrations applied at
// startup; without one it falls back to in-memory stores for local
// development, with a background sweep pruning expired revocations.
func buildRepos(ctx context.Context, c config.Config) (auth.Repos, func(), error) {
	dsn := c.GetDatabaseURL()
	if dsn == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory stores")
		registry := token.NewInMemoryRegistry()
		go cleanupLoop(ctx, registry)
		return auth.Repos{
			Users:       fakeuserrepo.NewFakeUserRepo(),
			Revocations: registry,
		}, func() {}, nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return auth.Repos{}, nil, fmt.Errorf("db open error: %w", err)
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(db.PingContext(ctx))
	}); err != nil {
		_ = db.Close()
		return auth.Repos{}, nil, fmt.Errorf("db ping error: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return auth.Repos{}, nil, fmt.Errorf("goose dialect error: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return auth.Repos{}, nil, fmt.Errorf("migration error: %w", err)
	}

	return auth.Repos{
		Users:       users.NewPostgresRepository(db),
		Revocations: token.NewPostgresRegistry(db),
	}, func() { _ = db.Close() }, nil
}

func cleanupLoop(ctx context.Context, registry *token.InMemoryRegistry) {
	ticker := time.NewTicker(registryCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			registry.Cleanup(now)
		}
	}
}

func listenAndServe(httpServer *http.Server) error {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
