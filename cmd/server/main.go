// Package main is the entry point for the smshub HTTP API and job workers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/config"
	"github.com/popeskul/smshub/internal/handler"
	"github.com/popeskul/smshub/internal/middleware"
	"github.com/popeskul/smshub/internal/provider"
	"github.com/popeskul/smshub/internal/provider/eskiz"
	"github.com/popeskul/smshub/internal/provider/playmobile"
	"github.com/popeskul/smshub/internal/queue"
	"github.com/popeskul/smshub/internal/repository"
	"github.com/popeskul/smshub/internal/service"
)

const (
	roleAPI    = "api"
	roleWorker = "worker"
	roleAll    = "all"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	role := flag.String("role", roleAll, "process role: api, worker or all")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(*configPath, *role, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server exited")
}

func run(configPath, role string, logger *zap.Logger) error {
	switch role {
	case roleAPI, roleWorker, roleAll:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	broker, err := queue.NewBroker(cfg.Queue, redisClient, clock.New(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := broker.Close(); err != nil {
			logger.Error("Failed to close job broker", zap.Error(err))
		}
	}()

	registry := provider.NewRegistry(eskiz.NewFactory(), playmobile.NewFactory())
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, registry, redisClient, queue.NewPublisher(broker), clock.New(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if role != roleWorker {
		srv := newHTTPServer(cfg, svc, logger)

		g.Go(func() error {
			logger.Info("Starting server", zap.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			logger.Info("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if role != roleAPI {
		pool := queue.NewPool(broker, cfg.Queue.Workers, logger)
		registerJobs(pool, svc, cfg, logger)

		g.Go(func() error {
			return pool.Run(gctx)
		})

		if err := svc.Scheduler.Start(); err != nil {
			logger.Error("Failed to start scheduler on startup", zap.Error(err))
		} else {
			logger.Info("Scheduler started automatically on application startup")
		}
	}

	err = g.Wait()

	if svc.Scheduler.IsRunning() {
		if stopErr := svc.Scheduler.Stop(); stopErr != nil {
			logger.Error("Failed to stop scheduler", zap.Error(stopErr))
		}
	}

	return err
}

func newHTTPServer(cfg *config.Config, svc *service.Service, logger *zap.Logger) *http.Server {
	mwConfig := &middleware.Config{
		Logger:          logger,
		RateLimit:       rate.Limit(cfg.Middleware.RateLimit),
		RateLimitBurst:  cfg.Middleware.RateLimitBurst,
		RateLimitExempt: []string{"/health", "/v1/webhooks/"},
		RequestTimeout:  30 * time.Second,
	}

	if cfg.Middleware.EnableCORS {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Middleware.AllowedOrigins
		mwConfig.CORS = cors
	}

	if cfg.Auth.JWTSecret != "" {
		mwConfig.Auth = &middleware.AuthConfig{
			Secret: []byte(cfg.Auth.JWTSecret),
			Issuer: cfg.Auth.Issuer,
		}
	} else {
		logger.Warn("auth.jwt_secret is empty; API operations are not authenticated")
	}

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      setupRouter(handler.NewHandler(svc, logger), mwConfig),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
