package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/impulse-eee/impulse-api/internal/config"
	"github.com/impulse-eee/impulse-api/internal/notify"
	"github.com/impulse-eee/impulse-api/internal/obs"
	"github.com/impulse-eee/impulse-api/internal/queue"
	"github.com/impulse-eee/impulse-api/internal/registration"
	"github.com/impulse-eee/impulse-api/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "impulse")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	sender := &notify.BrevoSender{
		BaseURL:     cfg.BrevoBaseURL,
		APIKey:      cfg.BrevoAPIKey,
		SenderName:  cfg.EmailSenderName,
		SenderEmail: cfg.EmailSenderEmail,
		HTTP: resilience.HTTPClient{
			Client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker: resilience.NewBreaker(
				cfg.CircuitEmailMinReq,
				cfg.CircuitEmailFailureRate,
				cfg.CircuitEmailOpenFor,
			).WithTarget("brevo").WithLogger(logger),
			BaseBackoff: cfg.EmailRetryBase,
			MaxAttempts: cfg.EmailRetryMaxAttempts,
			Jitter:      cfg.EmailRetryJitterPercent,
			Timeout:     cfg.EmailRequestTimeout,
		},
	}

	deliveryWorker := &notify.DeliveryWorker{
		Store:     registration.NewStore(pool),
		Sender:    sender,
		EventDate: cfg.EventDate,
		Log:       logger,
	}

	runKind := func(kind string) func(context.Context) error {
		worker := queue.Worker{
			R:                 redisClient,
			Prefix:            cfg.QueueRedisPrefix,
			Kind:              kind,
			Concurrency:       cfg.QueueConcurrencyEmail,
			VisibilityTimeout: cfg.QueueVisibilityTimeout,
			RetryBase:         cfg.QueueBackoffBase,
			RetryJitter:       cfg.QueueBackoffJitter,
			Handler:           deliveryWorker.Handle,
		}
		return worker.Run
	}

	errCh := make(chan error, 2)
	for _, kind := range []string{notify.KindConfirmationEmail, notify.KindODLetter} {
		go func(kind string) {
			errCh <- runKind(kind)(ctx)
		}(kind)
	}

	logger.Info().Msg("worker starting")
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("worker stopped with error")
			stop()
		}
	}
	logger.Info().Msg("worker shutdown complete")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
