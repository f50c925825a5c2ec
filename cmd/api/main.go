package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-pulse/internal/analytics"
	httptransport "github.com/spec-kit/civic-pulse/internal/api/http"
	"github.com/spec-kit/civic-pulse/internal/api/http/handlers"
	"github.com/spec-kit/civic-pulse/internal/auth"
	"github.com/spec-kit/civic-pulse/internal/broadcast"
	"github.com/spec-kit/civic-pulse/internal/classify"
	"github.com/spec-kit/civic-pulse/internal/config"
	"github.com/spec-kit/civic-pulse/internal/dedup"
	"github.com/spec-kit/civic-pulse/internal/events"
	"github.com/spec-kit/civic-pulse/internal/observability"
	"github.com/spec-kit/civic-pulse/internal/registry"
	"github.com/spec-kit/civic-pulse/internal/service"
	"github.com/spec-kit/civic-pulse/internal/simulation"
	"github.com/spec-kit/civic-pulse/internal/votes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	reg := registry.New(logger, func(ev events.Event) {
		_ = dispatcher.Publish(context.Background(), ev)
	})
	tracker := analytics.NewTracker(15)

	if cfg.Simulation.Seed {
		if err := simulation.SeedIssues(reg); err != nil {
			logger.Fatal("failed to seed issues", zap.Error(err))
		}
	}

	var ledger votes.Ledger
	var redisLedger *votes.RedisLedger
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisLedger = votes.NewRedisLedger(client, cfg.Redis.VoteTTL, logger)
		ledger = redisLedger
	} else {
		ledger = votes.NewMemoryLedger()
	}

	svc := service.NewIssueService(service.Dependencies{
		Registry:        reg,
		Classifier:      buildClassifier(cfg.Classifier, logger),
		Matcher:         dedup.ForStrategy(cfg.Dedup.Strategy, cfg.Dedup.GeoThresholdKM),
		Ledger:          ledger,
		Dispatcher:      dispatcher,
		Logger:          logger,
		ClassifyTimeout: cfg.Classifier.ClassifyTimeout(),
	})
	svc.Start(ctx)

	hub := broadcast.New(func() events.Event {
		return events.Event{
			Type: events.EventSnapshot,
			Payload: events.SnapshotPayload{
				Issues:   reg.List(),
				AgentLog: svc.AgentLogHistory(),
				Stats:    tracker.Snapshot(reg.List()),
			},
		}
	}, cfg.Hub.SubscriberBuffer, logger)
	go hub.Run(ctx)

	dispatcher.SubscribeAll(func(_ context.Context, ev events.Event) error {
		metrics.RecordEvent(string(ev.Type))
		hub.Publish(ev)
		return nil
	})

	if cfg.Simulation.Live {
		driver := simulation.New(simulation.Config{
			EngagementInterval: cfg.Simulation.EngagementInterval,
			IncidentInterval:   cfg.Simulation.IncidentInterval,
			SocialInterval:     cfg.Simulation.SocialInterval,
			StatsInterval:      cfg.Simulation.StatsInterval,
			ProgressInterval:   cfg.Simulation.ProgressInterval,
			EngagementChance:   cfg.Simulation.EngagementChance,
			IncidentChance:     cfg.Simulation.IncidentChance,
			SocialChance:       cfg.Simulation.SocialChance,
			ProgressChance:     cfg.Simulation.ProgressChance,
		}, reg, svc, tracker, dispatcher, logger)
		if err := driver.Start(ctx); err != nil {
			logger.Fatal("failed to start simulation", zap.Error(err))
		}
	}

	tokens := auth.NewTokenManager(cfg.Session.Secret, cfg.Session.TTLMinutes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pinger(redisLedger)),
		Session: handlers.NewSessionHandler(tokens),
		Issues:  handlers.NewIssuesHandler(svc, reg, tracker, metrics, tokens),
		WS:      handlers.NewWSHandler(hub, svc, tokens, metrics, logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func buildClassifier(cfg config.ClassifierConfig, logger *zap.Logger) classify.Classifier {
	if cfg.Provider == "openai" && cfg.OpenAIKey != "" {
		return classify.NewOpenAIClassifier(cfg.OpenAIKey, cfg.OpenAIModel, logger)
	}
	minLatency := time.Duration(cfg.MinLatencyMs) * time.Millisecond
	maxLatency := time.Duration(cfg.MaxLatencyMs) * time.Millisecond
	return classify.NewKeywordClassifier(minLatency, maxLatency, logger)
}

// pinger avoids handing the health probe a typed nil.
func pinger(ledger *votes.RedisLedger) handlers.Pinger {
	if ledger == nil {
		return nil
	}
	return ledger
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
