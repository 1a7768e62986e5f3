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

	"github.com/joho/godotenv"
	"github.com/pixelforge/coinledger/internal/api"
	"github.com/pixelforge/coinledger/internal/events"
	"github.com/pixelforge/coinledger/internal/infra/logging"
	"github.com/pixelforge/coinledger/internal/infra/pgutils"
	"github.com/pixelforge/coinledger/internal/leaderboard"
	pgledgerlog "github.com/pixelforge/coinledger/internal/repos/ledgerlog/postgres"
	pgplayers "github.com/pixelforge/coinledger/internal/repos/players/postgres"
	"github.com/pixelforge/coinledger/internal/services/ledger"
	"github.com/pixelforge/coinledger/pkg/envconf"
	"github.com/pixelforge/coinledger/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON("coinledger", cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		return db.Close()
	})

	playersRepo := pgplayers.New(db)
	logRepo := pgledgerlog.New(db)

	var pub events.Publisher = events.LogPublisher{}

	if brokers := cfg.kafkaBrokers(); len(brokers) > 0 {
		kafkaPub := events.NewKafkaPublisher(brokers)
		pub = kafkaPub

		shutdownqueue.Add(func(context.Context) error {
			return kafkaPub.Close()
		})
	}

	ledgerCfg := cfg.ledgerConfig()
	store := ledger.NewStore(db, playersRepo, logRepo, ledgerCfg.LogTransactions)
	boards := leaderboard.New(playersRepo, ledgerCfg.LeaderboardRefresh)
	svc := ledger.New(ledgerCfg, store, boards, pub)

	// Final flush before the DB connection goes away.
	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("flushing cached players")

		return svc.FlushAll(c)
	})

	if ledgerCfg.AutoFlushInterval > 0 {
		go autoFlush(ctx, svc, ledgerCfg.AutoFlushInterval)
	}

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, svc)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("shutting down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("ledger API started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}

// autoFlush periodically persists cached session metadata so a crash loses at
// most one interval of playtime bookkeeping.
func autoFlush(ctx context.Context, svc *ledger.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := svc.FlushAll(ctx)
			if err != nil {
				slog.Error("auto flush failed", "error", err)
			}
		}
	}
}
