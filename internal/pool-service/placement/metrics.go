package placement

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
)

// Metrics agrupa os coletores do serviço de apostas
type Metrics struct {
	Wagers             *prometheus.CounterVec
	PlacementSeconds   prometheus.Histogram
	StoreRetries       prometheus.Counter
	Inconsistencies    prometheus.Counter
	SnapshotsPublished prometheus.Counter
	PublishErrors      *prometheus.CounterVec
}

// NewMetrics cria e registra os coletores em reg (nil = não registra)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Wagers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_wagers_total",
			Help: "tentativas de aposta por resultado",
		}, []string{"result"}),
		PlacementSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pool_placement_seconds",
			Help:    "duração de placeWager",
			Buckets: prometheus.DefBuckets,
		}),
		StoreRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_store_retries_total",
			Help: "novas tentativas após falha recuperável do store",
		}),
		Inconsistencies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_inconsistencies_total",
			Help: "violações detectadas de pools x soma das apostas",
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_snapshots_published_total",
			Help: "snapshots publicados no canal de broadcast",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_publish_errors_total",
			Help: "falhas de publicação por destino",
		}, []string{"sink"}),
	}
	if reg != nil {
		reg.MustRegister(m.Wagers, m.PlacementSeconds, m.StoreRetries, m.Inconsistencies, m.SnapshotsPublished, m.PublishErrors)
	}
	return m
}

// resultLabel é o rótulo de pool_wagers_total para err
func resultLabel(err error) string {
	if err == nil {
		return "accepted"
	}
	return string(domain.KindOf(err))
}
