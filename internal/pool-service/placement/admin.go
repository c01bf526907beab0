package placement

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/repo"
)

// CreateContestRequest define um novo confronto. ID vazio gera um uuid.
type CreateContestRequest struct {
	ID          string
	ContestantA string
	ContestantB string
	Status      domain.ContestStatus // scheduled (padrão) ou open
	Metadata    map[string]string
}

// CreateContest registra um confronto com pools zerados e versão 0
func (s *Service) CreateContest(ctx context.Context, req CreateContestRequest) (*domain.Contest, error) {
	a, b := strings.TrimSpace(req.ContestantA), strings.TrimSpace(req.ContestantB)
	if a == "" || b == "" || strings.EqualFold(a, b) {
		return nil, domain.Newf(domain.KindInvalidContest, "contestants must be two distinct names")
	}
	status := req.Status
	if status == "" {
		status = domain.ContestScheduled
	}
	if status != domain.ContestScheduled && status != domain.ContestOpen {
		return nil, domain.Newf(domain.KindInvalidTransition, "contest cannot be created as %s", status)
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = s.newID()
	}

	now := s.now().UTC()
	c := &domain.Contest{
		ID:          id,
		ContestantA: a,
		ContestantB: b,
		Status:      status,
		Metadata:    req.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.withRetry(ctx, "create contest", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repo.Tx) error {
			existing, err := tx.GetContest(ctx, id)
			switch {
			case err == nil:
				// mesmo id e mesmos nomes: criação repetida, não é erro
				if existing.ContestantA == a && existing.ContestantB == b {
					*c = *existing
					return nil
				}
				return domain.Newf(domain.KindInvalidContest, "contest %s already exists", id)
			case domain.KindOf(err) != domain.KindContestNotFound:
				return err
			}
			return tx.UpsertContest(ctx, c)
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("contest created", zap.String("contestId", id), zap.String("status", string(status)))
	s.publishSnapshot(context.WithoutCancel(ctx), s.snapshotOf(c))
	return c, nil
}

// SetContestStatus aplica uma transição de ciclo de vida (ex.: open -> closed).
// Pedir o status atual não altera nada e devolve o snapshot corrente.
func (s *Service) SetContestStatus(ctx context.Context, contestID string, to domain.ContestStatus) (domain.Snapshot, error) {
	if !to.Valid() {
		return domain.Snapshot{}, domain.Newf(domain.KindInvalidTransition, "unknown status %q", to)
	}

	unlock, err := s.locks.acquire(ctx, contestID)
	if err != nil {
		return domain.Snapshot{}, domain.Wrap(domain.KindStoreUnavailable, "wait contest lock", err)
	}
	defer unlock()

	var (
		snap    domain.Snapshot
		changed bool
	)
	err = s.withRetry(ctx, "set contest status", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repo.Tx) error {
			c, err := tx.LockContest(ctx, contestID)
			if err != nil {
				return err
			}
			if c.Status == to {
				snap, changed = s.snapshotOf(c), false
				return nil
			}
			if !domain.CanTransition(c.Status, to) {
				return domain.Newf(domain.KindInvalidTransition, "contest %s cannot go from %s to %s", c.ID, c.Status, to)
			}
			version, err := tx.CompareAndSwapStatus(ctx, c.ID, c.Status, to)
			if err != nil {
				return err
			}
			c.Status, c.Version, c.UpdatedAt = to, version, s.now().UTC()
			snap, changed = s.snapshotOf(c), true
			return nil
		})
	})
	if err != nil {
		return domain.Snapshot{}, err
	}

	if changed {
		s.log.Info("contest status changed", zap.String("contestId", contestID), zap.String("status", string(to)))
		s.publishSnapshot(context.WithoutCancel(ctx), snap)
	}
	return snap, nil
}

// VoidResult é o retorno de VoidWager
type VoidResult struct {
	Wager    domain.Wager
	Snapshot domain.Snapshot
	Balance  int64 // saldo após o estorno
}

// VoidWager anula uma aposta pendente: estorna o valor e o retira do pool.
// É o único caminho de reversão de uma aposta já gravada.
func (s *Service) VoidWager(ctx context.Context, wagerID string) (*VoidResult, error) {
	// descobre o confronto para pegar o lock certo
	var contestID string
	err := s.withRetry(ctx, "get wager", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repo.Tx) error {
			w, err := tx.GetWager(ctx, wagerID)
			if err != nil {
				return err
			}
			contestID = w.ContestID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	unlock, err := s.locks.acquire(ctx, contestID)
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, "wait contest lock", err)
	}
	defer unlock()

	var res *VoidResult
	err = s.withRetry(ctx, "void wager", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repo.Tx) error {
			c, err := tx.LockContest(ctx, contestID)
			if err != nil {
				return err
			}
			if c.Status == domain.ContestSettled {
				return domain.Newf(domain.KindInvalidTransition, "contest %s is already settled", c.ID)
			}
			w, err := tx.GetWager(ctx, wagerID)
			if err != nil {
				return err
			}
			if w.Status != domain.WagerPending {
				return domain.Newf(domain.KindInvalidTransition, "wager %s is %s", w.ID, w.Status)
			}
			if err := tx.UpdateWagerStatus(ctx, w.ID, domain.WagerPending, domain.WagerVoid); err != nil {
				return err
			}
			balance, err := tx.Credit(ctx, w.UserID, w.AmountCents, domain.LedgerRefund, "void:"+w.ID)
			if err != nil {
				return err
			}

			poolA, poolB := c.WithStake(w.Choice, -w.AmountCents)
			if poolA < 0 || poolB < 0 {
				return domain.Newf(domain.KindInternalInconsistency, "void of %s would make contest %s pools negative", w.ID, c.ID)
			}
			version, err := tx.CompareAndSwapPools(ctx, c.ID, c.Version, poolA, poolB)
			if err != nil {
				return err
			}
			c.PoolA, c.PoolB, c.Version, c.UpdatedAt = poolA, poolB, version, s.now().UTC()

			if s.cfg.VerifyPools {
				if err := s.verifyPools(ctx, tx, c); err != nil {
					return err
				}
			}

			w.Status = domain.WagerVoid
			res = &VoidResult{Wager: *w, Snapshot: s.snapshotOf(c), Balance: balance}
			return nil
		})
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindInternalInconsistency {
			s.metrics.Inconsistencies.Inc()
			s.log.Error("void failed", zap.String("wagerId", wagerID), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("wager voided", zap.String("wagerId", wagerID), zap.String("contestId", contestID))
	s.publishSnapshot(context.WithoutCancel(ctx), res.Snapshot)
	return res, nil
}

// Deposit credita amount na carteira do usuário. Não há retry: repetir um
// crédito cujo commit falhou de forma ambígua poderia creditar duas vezes.
func (s *Service) Deposit(ctx context.Context, userID string, amount int64) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domain.ErrInvalidUser
	}
	if amount <= 0 || (s.cfg.MaxStakeCents > 0 && amount > s.cfg.MaxStakeCents) {
		return 0, domain.Newf(domain.KindInvalidAmount, "deposit %d outside (0, %d]", amount, s.cfg.MaxStakeCents)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	var balance int64
	err := s.store.InTx(ctx, func(tx repo.Tx) error {
		var err error
		balance, err = tx.Credit(ctx, userID, amount, domain.LedgerCredit, "deposit")
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("deposit", zap.String("userId", userID), zap.Int64("amountCents", amount), zap.Int64("balance", balance))
	return balance, nil
}

// GetBalance devolve o saldo (0 para usuários sem carteira)
func (s *Service) GetBalance(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.ErrInvalidUser
	}
	var balance int64
	err := s.withRetry(ctx, "get balance", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repo.Tx) error {
			var err error
			balance, err = tx.GetBalance(ctx, userID)
			return err
		})
	})
	return balance, err
}

// LedgerEntries lista as movimentações da carteira do usuário
func (s *Service) LedgerEntries(ctx context.Context, userID string) ([]domain.LedgerEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidUser
	}
	var out []domain.LedgerEntry
	err := s.withRetry(ctx, "ledger entries", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repo.Tx) error {
			var err error
			out, err = tx.LedgerEntries(ctx, userID)
			return err
		})
	})
	return out, err
}

// ContestWagers lista todas as apostas do confronto, inclusive anuladas
func (s *Service) ContestWagers(ctx context.Context, contestID string) ([]domain.Wager, error) {
	var out []domain.Wager
	err := s.withRetry(ctx, "contest wagers", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repo.Tx) error {
			if _, err := tx.GetContest(ctx, contestID); err != nil {
				return err
			}
			var err error
			out, err = tx.ListContestWagers(ctx, contestID)
			return err
		})
	})
	return out, err
}

// Ping verifica se o store responde (healthz)
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
