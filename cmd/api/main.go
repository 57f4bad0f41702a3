package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-inventory-ledger/internal/config"
	"github.com/ariefcatur/go-inventory-ledger/internal/httpx"
	kafkax "github.com/ariefcatur/go-inventory-ledger/internal/kafka"
	"github.com/ariefcatur/go-inventory-ledger/internal/ledger"
	"github.com/ariefcatur/go-inventory-ledger/internal/logx"
	"github.com/ariefcatur/go-inventory-ledger/internal/memstore"
	"github.com/ariefcatur/go-inventory-ledger/internal/mysql"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/ariefcatur/go-inventory-ledger/internal/postgres"
	"github.com/ariefcatur/go-inventory-ledger/internal/rabbitmq"
	"github.com/ariefcatur/go-inventory-ledger/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logx.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api exit", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	// Store
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Redis (opsional)
	rdb := redisx.New(cfg.RedisAddr)
	if rdb != nil {
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			logger.Warn("redis unreachable, continuing", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
	}

	// Event bus
	pub, closePub, err := openPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closePub()

	status, err := orders.ParseStatus(cfg.DefaultOrderStatus)
	if err != nil {
		return err
	}
	l := ledger.New(store,
		ledger.WithPublisher(pub),
		ledger.WithLogger(logger),
		ledger.WithDefaultStatus(status),
		ledger.WithRepriceOnRevise(cfg.RepriceOnRevise),
		ledger.WithProducer(cfg.ServiceName),
	)

	router := httpx.NewRouter(logger)
	(&httpx.ProductsHandler{Ledger: l, Log: logger}).Register(router)
	(&httpx.OrdersHandler{
		Ledger: l,
		Cache:  redisx.NewOrderCache(rdb),
		Idem:   redisx.NewIdempotency(rdb),
		Log:    logger,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreDriver), zap.String("events", cfg.EventsDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (ledger.Store, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, int32(cfg.PostgresMaxConns))
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", zap.Strings("versions", applied))
		}
		return &postgres.Store{DB: db}, db.Close, nil
	case "mysql":
		db, err := mysql.Open(cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("mysql open: %w", err)
		}
		return &mysql.Store{DB: db}, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	default:
		logger.Warn("memory store: data is lost on restart")
		return memstore.New(), func() {}, nil
	}
}

func openPublisher(cfg config.Config, logger *zap.Logger) (ledger.Publisher, func(), error) {
	switch cfg.EventsDriver {
	case "kafka":
		prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger)
		prod.Start()
		return &kafkax.EventPublisher{P: prod}, func() {
			prod.Close()      // tutup inbox -> flush & close writer
			prod.WaitClosed() // drain
		}, nil
	case "amqp":
		p, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return nil, func() {}, nil
	}
}
