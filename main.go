// Package main is the entry point of the savings tracker API and Telegram bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/amqp"
	"gitlab.com/yelinaung/savings-tracker/internal/api"
	"gitlab.com/yelinaung/savings-tracker/internal/auth"
	"gitlab.com/yelinaung/savings-tracker/internal/bot"
	"gitlab.com/yelinaung/savings-tracker/internal/config"
	"gitlab.com/yelinaung/savings-tracker/internal/database"
	"gitlab.com/yelinaung/savings-tracker/internal/gemini"
	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/repository"
	"gitlab.com/yelinaung/savings-tracker/internal/telemetry"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
	"gitlab.com/yelinaung/savings-tracker/internal/worker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("savings-tracker %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := run(ctx, cfg); err != nil {
		stop()
		logger.Log.Fatal().Err(err).Msg("Stopped with error")
	}
	logger.Log.Info().Msg("Stopped")
}

// run wires every component and blocks until ctx is cancelled or one of
// them fails.
func run(ctx context.Context, cfg *config.Config) error {
	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OTelServiceName, version, cfg.OTelExporter)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Log.Info().Msg("Database initialized successfully")

	users := repository.NewUserRepository(pool)
	sessions := repository.NewSessionRepository(pool)
	records := repository.NewRecordRepository(pool)
	links := repository.NewTelegramLinkRepository(pool)

	persister := tracker.NewPersister(records)
	loc := cfg.Location()
	registry := tracker.NewRegistry(records, persister, goals.NewEngine(cfg.ShareBaseURL), nil)
	registry.SetClock(func() time.Time { return time.Now().In(loc) })

	authService := auth.NewService(users, sessions, records, cfg.SessionTTL())

	var notifiers tracker.MultiNotifier

	if cfg.EventsEnabled() {
		publisher, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("failed to connect to AMQP broker: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Log.Warn().Err(err).Msg("Failed to close AMQP publisher")
			}
		}()
		notifiers = append(notifiers, publisher)
	}

	var telegramBot *bot.Bot
	if cfg.BotEnabled() {
		deps := bot.Deps{
			Trackers: registry,
			Links:    links,
			Accounts: users,
		}
		if cfg.GeminiAPIKey != "" {
			client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, gemini.WithModel(cfg.GeminiModel))
			if err != nil {
				logger.Log.Warn().Err(err).Msg("Category suggestions disabled")
			} else {
				deps.Suggester = client
			}
		}

		telegramBot, err = bot.New(cfg, deps)
		if err != nil {
			return fmt.Errorf("failed to create bot: %w", err)
		}
		notifiers = append(notifiers, telegramBot)
	}

	if len(notifiers) > 0 {
		registry.SetNotifier(notifiers)
	}

	router := api.NewRouter(api.NewServer(authService, registry, version), api.Options{
		CORSOrigins: api.ParseOrigins(cfg.CORSOrigin),
		Debug:       cfg.Debug,
	})
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, "http.server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return persister.Run(gctx)
	})

	g.Go(func() error {
		logger.Log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return worker.NewAutomation(records, registry).Run(gctx, cfg.AutomationInterval)
	})

	g.Go(func() error {
		return worker.NewSessionCleanup(sessions).Run(gctx, worker.SessionCleanupInterval)
	})

	if telegramBot != nil {
		g.Go(func() error {
			telegramBot.Start(gctx)
			return nil
		})
	}

	err = g.Wait()
	// Writes made while the other goroutines were stopping.
	persister.Flush(context.Background())
	return err
}
