package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/broadcast"
	httpapi "github.com/radieske/wrestlebet-pool-engine/internal/pool-service/http"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/odds"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/placement"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/producer"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/repo"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/seed"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/ws"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/cache"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/config"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/db"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/kafka"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/logger"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/metrics"
)

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service",
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.Env),
		zap.String("store", cfg.StoreDriver),
	)

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Store: Postgres em produção, memória para dev/testes manuais
	var store repo.Store
	switch cfg.StoreDriver {
	case "memory":
		store = repo.NewMemory()
	case "postgres":
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		if err := repo.EnsureSchema(ctx, pg); err != nil {
			log.Fatal("schema migration failed", zap.Error(err))
		}
		store = repo.NewPostgres(pg)
		log.Info("postgres connected")
	default:
		log.Fatal("unknown STORE_DRIVER", zap.String("driver", cfg.StoreDriver))
	}

	// Canal local de snapshots. Com Redis, as instâncias publicam no Pub/Sub
	// e cada uma repassa o que recebe para os seus assinantes WebSocket.
	channel := broadcast.NewChannel()
	var snapshots placement.SnapshotPublisher = channel
	if cfg.RedisAddr != "" {
		redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()
		snapshots = broadcast.NewRedisPublisher(redisClient, cfg.RedisSnapshotChannel)
		broadcast.StartRedisSubscriber(ctx, redisClient, cfg.RedisSnapshotChannel, channel, log)
		log.Info("redis connected", zap.String("channel", cfg.RedisSnapshotChannel))
	}

	m := placement.NewMetrics(prometheus.DefaultRegisterer)
	opts := []placement.Option{
		placement.WithSnapshotPublisher(snapshots),
		placement.WithMetrics(m),
	}

	if cfg.KafkaBrokers != "" {
		writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerPlaced)
		defer writer.Close()
		opts = append(opts, placement.WithEventPublisher(producer.NewKafkaPublisher(writer, cfg.TopicWagerPlaced)))
		log.Info("kafka writer ready", zap.String("topic", cfg.TopicWagerPlaced))
	}

	calc := odds.NewCalculator(cfg.DefaultOdds, cfg.MinimumOdds)
	svc := placement.New(store, calc, placement.Config{
		MinStakeCents: cfg.MinStakeCents,
		MaxStakeCents: cfg.MaxStakeCents,
		StoreTimeout:  cfg.StoreTimeout,
		RetryAttempts: cfg.StoreRetryAttempts,
		RetryBackoff:  cfg.StoreRetryBackoff,
		VerifyPools:   cfg.VerifyPools,
	}, log, opts...)

	if cfg.SeedDemo {
		if err := seed.Run(ctx, svc, log); err != nil {
			log.Fatal("seed failed", zap.Error(err))
		}
	}

	// métricas e health em porta separada
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, svc.Ping)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	hub := ws.NewHub(channel, svc, log, ws.AllowOrigins(cfg.WSAllowedOrigins))
	api := &httpapi.API{
		Service:        svc,
		WS:             hub.HandleWS,
		Log:            log,
		AllowedOrigins: cfg.WSAllowedOrigins,
	}
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
	}
	log.Info("pool-service stopped")
}
