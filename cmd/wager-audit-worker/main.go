package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/audit"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/repo"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/config"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/db"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/kafka"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/logger"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// O worker confere contra o mesmo Postgres do pool-service
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	store := repo.NewPostgres(pg)

	// Consumer group próprio: cada worker recebe uma partição (= conjunto de confrontos)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicWagerPlaced, cfg.KafkaGroupID)
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerPlacedDLQ)
	defer dlq.Close()

	// Métricas Prometheus para monitoramento da auditoria
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "wager_audit_messages_consumed_total", Help: "mensagens consumidas"})
	checked := prometheus.NewCounter(prometheus.CounterOpts{Name: "wager_audit_checked_total", Help: "eventos conferidos sem divergência"})
	inconsistent := prometheus.NewCounter(prometheus.CounterOpts{Name: "wager_audit_inconsistencies_total", Help: "divergências entre pools e apostas"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "wager_audit_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, checked, inconsistent, errorsBy)

	proc := &audit.Processor{
		Log:            log,
		Reader:         reader,
		DLQ:            dlq,
		Store:          store,
		StoreTimeout:   cfg.StoreTimeout,
		OnConsumed:     func() { consumed.Inc() },
		OnChecked:      func() { checked.Inc() },
		OnInconsistent: func() { inconsistent.Inc() },
		OnError:        func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, store.Ping)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	log.Info("wager-audit-worker started", zap.String("topic", cfg.TopicWagerPlaced), zap.String("group", cfg.KafkaGroupID))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("wager-audit-worker stopped")
}
