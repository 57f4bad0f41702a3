package main

import (
	"context"
	"github.com/ariefcatur/go-inventory-ledger/internal/config"
	kafkax "github.com/ariefcatur/go-inventory-ledger/internal/kafka"
	"github.com/ariefcatur/go-inventory-ledger/internal/logx"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/ariefcatur/go-inventory-ledger/internal/projector"
	"github.com/ariefcatur/go-inventory-ledger/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logx.New(cfg.LogLevel, cfg.ServiceName+"-projector")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.RedisAddr == "" {
		logger.Fatal("projector needs REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		logger.Fatal("redis ping", zap.Error(err))
	}

	svc := &projector.Service{
		Redis:             rdb,
		Log:               logger,
		LowStockThreshold: cfg.LowStockThreshold,
		Name:              cfg.ProjectorGroup,
	}

	// Consumer
	topics := orders.AllTopics()
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ProjectorGroup, topics, cfg.ProjectorWorkers, logger)
	logger.Info("projector consumer started",
		zap.String("group", cfg.ProjectorGroup),
		zap.Strings("topics", topics),
		zap.Int("workers", cfg.ProjectorWorkers))

	if err := cons.Start(ctx, svc.HandleMessage); err != nil {
		logger.Error("consumer exit", zap.Error(err))
		stop()
		os.Exit(1)
	}
	logger.Info("projector stopped")
}
