package placement

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
)

// withRetry executa fn até RetryAttempts vezes enquanto o erro for Recoverable.
// Cada tentativa tem seu próprio prazo (StoreTimeout) e o intervalo cresce
// linearmente (RetryBackoff * tentativa).
func (s *Service) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := s.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
		err = fn(attemptCtx)
		cancel()

		if domain.Classify(err) != domain.Recoverable {
			return err
		}
		if attempt == attempts {
			break
		}

		s.metrics.StoreRetries.Inc()
		s.log.Warn("store call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		wait := s.cfg.RetryBackoff * time.Duration(attempt)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return domain.Wrap(domain.KindStoreUnavailable, op, ctx.Err())
		case <-t.C:
		}
	}

	// conflito de versão persistente é contenção, não erro do chamador
	if errors.Is(err, domain.ErrVersionConflict) {
		return domain.Wrap(domain.KindStoreUnavailable, op+": contest under contention", err)
	}
	return err
}
