package broadcast

import (
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/odds"
	"github.com/radieske/wrestlebet-pool-engine/pkg/contracts/events"
)

// ToEvent converte o snapshot de domínio no formato publicado
func ToEvent(s domain.Snapshot) events.ContestSnapshot {
	return events.ContestSnapshot{
		ContestID:   s.ContestID,
		ContestantA: s.ContestantA,
		ContestantB: s.ContestantB,
		Status:      string(s.Status),
		PoolA:       s.PoolA,
		PoolB:       s.PoolB,
		OddsA:       s.OddsA.StringFixed(odds.Precision),
		OddsB:       s.OddsB.StringFixed(odds.Precision),
		SentimentA:  s.SentimentA,
		SentimentB:  s.SentimentB,
		UpdatedAt:   s.UpdatedAt,
		Version:     s.Version,
	}
}
