// Command smsctl runs operational tasks against the smshub database and vendors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/config"
	"github.com/popeskul/smshub/internal/provider"
	"github.com/popeskul/smshub/internal/provider/eskiz"
	"github.com/popeskul/smshub/internal/provider/playmobile"
	"github.com/popeskul/smshub/internal/queue"
	"github.com/popeskul/smshub/internal/repository"
	"github.com/popeskul/smshub/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(*configPath, flag.Args(), logger); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		logger.Fatal("Command failed", zap.Error(err))
	}
}

func run(configPath string, args []string, logger *zap.Logger) error {
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

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
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

	c := &cli{
		svc:       svc,
		providers: repo.Provider(),
		out:       os.Stdout,
	}
	return c.run(ctx, args)
}
