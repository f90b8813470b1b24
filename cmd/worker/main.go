package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oskarm-dev/backend-parts/internal/config"
	"github.com/oskarm-dev/backend-parts/internal/fx"
	"github.com/oskarm-dev/backend-parts/internal/lock"
	"github.com/oskarm-dev/backend-parts/internal/obs"
	"github.com/oskarm-dev/backend-parts/internal/repo"
	"github.com/oskarm-dev/backend-parts/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterQuoteMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "parts"), nil)

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

	providerClient := resilience.HTTPClient{
		Client:      &http.Client{Timeout: 15 * time.Second},
		Breaker:     resilience.NewBreaker("fx_provider", 3, 0.5, 30*time.Second, logger),
		MaxAttempts: 3,
		BaseBackoff: 500 * time.Millisecond,
		Jitter:      0.2,
	}
	refresher := &fx.Refresher{
		Provider: fx.HTTPProvider{URL: cfg.FxProviderURL, HTTP: providerClient},
		Store:    repo.FxRatesRepo{Pool: pool},
		Base:     cfg.BaseCurrency,
		Logger:   logger,
	}

	redisConn, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for asynq")
	}

	srv := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 2,
		Logger:      asynqLogger{logger},
	})
	locker := lock.Locker{R: redisClient}
	mux := asynq.NewServeMux()
	mux.HandleFunc(fx.TaskRefreshRates, func(ctx context.Context, task *asynq.Task) error {
		err := locker.TryWithLock(ctx, "lock:fx:refresh", 2*time.Minute, func(ctx context.Context) error {
			return refresher.HandleRefresh(ctx, task)
		})
		if errors.Is(err, lock.ErrNotAcquired) {
			logger.Debug().Msg("fx refresh already running elsewhere")
			return nil
		}
		return err
	})

	scheduler := asynq.NewScheduler(redisConn, &asynq.SchedulerOpts{
		Logger: asynqLogger{logger},
	})
	schedule := fmt.Sprintf("@every %s", cfg.FxRefreshInterval)
	if _, err := scheduler.Register(schedule, fx.NewRefreshTask()); err != nil {
		logger.Fatal().Err(err).Msg("register fx refresh schedule")
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error().Err(err).Msg("scheduler stopped with error")
		}
	}()

	go func() {
		<-ctx.Done()
		scheduler.Shutdown()
		srv.Shutdown()
	}()

	logger.Info().Str("schedule", schedule).Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "parts-worker"
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

// asynqLogger adapts zerolog to asynq's logging interface.
type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...any) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...any)  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...any)  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...any) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...any) { a.l.Fatal().Msg(fmt.Sprint(args...)) }

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
