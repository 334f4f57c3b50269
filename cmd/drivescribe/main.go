// Command drivescribe receives drive change notifications, walks the change
// feed for each subscription, and transcribes new audio files back into the
// item's metadata.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/drivescribe/auth"
	"github.com/skillsenselab/drivescribe/config"
	"github.com/skillsenselab/drivescribe/feed"
	"github.com/skillsenselab/drivescribe/graph"
	"github.com/skillsenselab/drivescribe/logger"
	"github.com/skillsenselab/drivescribe/observability"
	"github.com/skillsenselab/drivescribe/pipeline"
	"github.com/skillsenselab/drivescribe/redis"
	"github.com/skillsenselab/drivescribe/server"
	"github.com/skillsenselab/drivescribe/server/endpoint"
	"github.com/skillsenselab/drivescribe/subscription"
	"github.com/skillsenselab/drivescribe/transcription/cognitive"
	"github.com/skillsenselab/drivescribe/version"
	"github.com/skillsenselab/drivescribe/webhook"
)

const serviceName = "drivescribe"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "drivescribe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	var cfg config.Config
	if err := config.Load(serviceName, &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	if cfg.Version == "" {
		cfg.Version = version.Version
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger.Init(cfg.Logging, cfg.Name)
	log := logger.GetGlobalLogger()
	log.Info("Starting service", map[string]interface{}{
		"version":     cfg.Version,
		"environment": cfg.Environment,
	})

	// Metrics.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		provider, err := observability.InitMeter(ctx, cfg.Metrics)
		if err != nil {
			return fmt.Errorf("init meter: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				log.Warn("Meter shutdown failed", map[string]interface{}{logger.FieldError: err.Error()})
			}
		}()
		metrics, err = observability.NewMetrics(observability.Meter(serviceName))
		if err != nil {
			return fmt.Errorf("create metrics: %w", err)
		}
	}

	// State store.
	redisClient, err := redis.New(cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()
	subs := subscription.NewRedisStore(redisClient)

	// Bearer tokens for the two collaborators, cached in the state store.
	graphTokens, err := auth.NewCache(ctx,
		auth.NewRedisTokenStore(redisClient, "graph"),
		auth.NewClientCredentialsAcquirer(cfg.GraphAuth))
	if err != nil {
		return fmt.Errorf("graph token cache: %w", err)
	}
	speechTokens, err := auth.NewCache(ctx,
		auth.NewRedisTokenStore(redisClient, "speech"),
		auth.NewClientCredentialsAcquirer(cfg.SpeechAuth))
	if err != nil {
		return fmt.Errorf("speech token cache: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := graphTokens.Close(flushCtx); err != nil {
			log.Warn("Graph token flush failed", map[string]interface{}{logger.FieldError: err.Error()})
		}
		if err := speechTokens.Close(flushCtx); err != nil {
			log.Warn("Speech token flush failed", map[string]interface{}{logger.FieldError: err.Error()})
		}
	}()

	// Collaborators and the processing chain.
	graphClient := graph.NewClient(cfg.Graph, graphTokens, log)
	speech := cognitive.NewProvider(cfg.Speech, speechTokens)
	walker := feed.NewWalker(graphClient, cfg.Walker, log)
	processor := pipeline.NewProcessor(graphClient, speech, cfg.Pipeline, log)
	dispatcher := webhook.NewDispatcher(subs, walker, processor, cfg.Webhook, metrics, log)

	// HTTP surface.
	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	srv.RegisterHealthEndpoints(cfg.Name, endpoint.Combine(
		endpoint.CheckFunc("redis", redisClient.Ping),
		endpoint.CheckFunc("graph", graphClient.Ping),
		endpoint.CheckFunc("speech", func(ctx context.Context) error {
			if !speech.IsAvailable(ctx) {
				return fmt.Errorf("speech provider unavailable")
			}
			return nil
		}),
	))
	api := srv.GinEngine().Group("/api")
	webhook.NewHandler(dispatcher).RegisterRoutes(api)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	// Block until shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("Shutdown signal received", map[string]interface{}{"signal": sig.String()})

	return srv.Stop(ctx)
}
