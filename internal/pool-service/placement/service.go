package placement

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/odds"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/repo"
	"github.com/radieske/wrestlebet-pool-engine/pkg/contracts/events"
)

// Config são os limites e a política de acesso ao store do serviço
type Config struct {
	MinStakeCents int64
	MaxStakeCents int64
	StoreTimeout  time.Duration // prazo de cada transação
	RetryAttempts int
	RetryBackoff  time.Duration
	VerifyPools   bool // confere soma das apostas x pools dentro da transação
}

// DefaultConfig: apostas de 1,00 a 1.000.000,00
func DefaultConfig() Config {
	return Config{
		MinStakeCents: 100,
		MaxStakeCents: 100_000_000,
		StoreTimeout:  2 * time.Second,
		RetryAttempts: 3,
		RetryBackoff:  50 * time.Millisecond,
		VerifyPools:   true,
	}
}

// SnapshotPublisher entrega snapshots ao canal de broadcast
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// WagerEventPublisher emite o evento wager_placed
type WagerEventPublisher interface {
	PublishWagerPlaced(ctx context.Context, ev events.WagerPlaced) error
}

// Service coordena Contest Store, Wager Store e Balance Ledger.
// Não guarda estado de negócio: tudo vive no store.
type Service struct {
	store     repo.Store
	calc      odds.Calculator
	cfg       Config
	log       *zap.Logger
	metrics   *Metrics
	locks     *contestLocks
	snapshots SnapshotPublisher
	events    WagerEventPublisher

	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithSnapshotPublisher(p SnapshotPublisher) Option {
	return func(s *Service) { s.snapshots = p }
}

func WithEventPublisher(p WagerEventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock troca o relógio (testes)
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store repo.Store, calc odds.Calculator, cfg Config, log *zap.Logger, opts ...Option) *Service {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultConfig().StoreTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store: store,
		calc:  calc,
		cfg:   cfg,
		log:   log,
		locks: newContestLocks(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

// PlaceWagerRequest são os dados de entrada de uma aposta
type PlaceWagerRequest struct {
	UserID      string
	ContestID   string
	Choice      string // "A" ou "B"
	AmountCents int64
}

// PlaceWager valida e registra uma aposta. Débito, inserção da aposta e
// atualização do pool acontecem numa única transação: ou tudo é gravado, ou nada.
func (s *Service) PlaceWager(ctx context.Context, req PlaceWagerRequest) (*domain.WagerConfirmation, error) {
	start := time.Now()
	conf, err := s.placeWager(ctx, req)
	s.metrics.PlacementSeconds.Observe(time.Since(start).Seconds())
	s.metrics.Wagers.WithLabelValues(resultLabel(err)).Inc()

	switch {
	case err == nil:
		s.log.Info("wager placed",
			zap.String("wagerId", conf.Wager.ID),
			zap.String("userId", req.UserID),
			zap.String("contestId", req.ContestID),
			zap.String("choice", string(conf.Wager.Choice)),
			zap.Int64("amountCents", req.AmountCents),
			zap.Int64("version", conf.Snapshot.Version),
		)
	case domain.IsValidation(err):
		s.log.Debug("wager rejected",
			zap.String("userId", req.UserID),
			zap.String("contestId", req.ContestID),
			zap.String("kind", string(domain.KindOf(err))),
		)
	case domain.KindOf(err) == domain.KindStoreUnavailable:
		s.log.Warn("wager failed: store unavailable", zap.String("contestId", req.ContestID), zap.Error(err))
	default:
		s.log.Error("wager failed", zap.String("contestId", req.ContestID), zap.Error(err))
	}
	return conf, err
}

func (s *Service) placeWager(ctx context.Context, req PlaceWagerRequest) (*domain.WagerConfirmation, error) {
	// 1) valor
	if req.AmountCents <= 0 || req.AmountCents < s.cfg.MinStakeCents ||
		(s.cfg.MaxStakeCents > 0 && req.AmountCents > s.cfg.MaxStakeCents) {
		return nil, domain.Newf(domain.KindInvalidAmount, "amount %d outside [%d, %d]", req.AmountCents, s.cfg.MinStakeCents, s.cfg.MaxStakeCents)
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	if strings.TrimSpace(req.ContestID) == "" {
		return nil, domain.ErrContestNotFound
	}

	unlock, err := s.locks.acquire(ctx, req.ContestID)
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, "wait contest lock", err)
	}
	defer unlock()

	// o id é gerado uma vez: se um commit ambíguo for repetido, a aposta já
	// gravada é reconhecida em vez de virar DuplicateWager
	wagerID := s.newID()

	var conf *domain.WagerConfirmation
	err = s.withRetry(ctx, "place wager", func(ctx context.Context) error {
		var err error
		conf, err = s.placeOnce(ctx, userID, req, wagerID)
		return err
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindInternalInconsistency {
			s.metrics.Inconsistencies.Inc()
		}
		return nil, err
	}

	// a aposta já está gravada: publicação não pode ser cancelada pelo chamador
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.StoreTimeout)
	defer cancel()
	s.publishSnapshot(pubCtx, conf.Snapshot)
	s.publishWagerPlaced(pubCtx, conf)

	return conf, nil
}

// placeOnce é uma tentativa completa dentro de uma transação
func (s *Service) placeOnce(ctx context.Context, userID string, req PlaceWagerRequest, wagerID string) (*domain.WagerConfirmation, error) {
	var conf *domain.WagerConfirmation

	err := s.store.InTx(ctx, func(tx repo.Tx) error {
		// 2) confronto existe e está aberto
		c, err := tx.LockContest(ctx, req.ContestID)
		if err != nil {
			return err
		}
		if c.Status != domain.ContestOpen {
			return domain.Newf(domain.KindContestNotOpen, "contest %s is %s", c.ID, c.Status)
		}

		// 3) lado válido
		side, ok := domain.ParseSide(req.Choice)
		if !ok {
			return domain.Newf(domain.KindInvalidChoice, "choice %q is not A or B", req.Choice)
		}

		// 4) no máximo uma aposta ativa por usuário e confronto
		existing, err := tx.FindWagers(ctx, userID, c.ID)
		if err != nil {
			return err
		}
		for _, w := range existing {
			if !w.Status.Active() {
				continue
			}
			if w.ID == wagerID {
				conf, err = s.replayed(ctx, tx, c, w)
				return err
			}
			return domain.ErrDuplicateWager
		}

		// odds vistas antes desta aposta entrar no pool
		oddsAtPlacement := s.calc.Compute(c.PoolA, c.PoolB).For(side)

		// 5) saldo
		balance, err := tx.Debit(ctx, userID, req.AmountCents, "wager:"+wagerID)
		if err != nil {
			return err
		}

		w := domain.Wager{
			ID:              wagerID,
			UserID:          userID,
			ContestID:       c.ID,
			Choice:          side,
			AmountCents:     req.AmountCents,
			OddsAtPlacement: oddsAtPlacement,
			Status:          domain.WagerPending,
			PlacedAt:        s.now().UTC(),
		}
		if err := tx.InsertWager(ctx, &w); err != nil {
			return err
		}

		poolA, poolB := c.WithStake(side, req.AmountCents)
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

		conf = &domain.WagerConfirmation{Wager: w, Snapshot: s.snapshotOf(c), Balance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conf, nil
}

// replayed monta a confirmação de uma aposta que já havia sido gravada por
// uma tentativa anterior cujo commit retornou erro
func (s *Service) replayed(ctx context.Context, tx repo.Tx, c *domain.Contest, w domain.Wager) (*domain.WagerConfirmation, error) {
	balance, err := tx.GetBalance(ctx, w.UserID)
	if err != nil {
		return nil, err
	}
	s.log.Info("wager already committed by previous attempt", zap.String("wagerId", w.ID))
	return &domain.WagerConfirmation{Wager: w, Snapshot: s.snapshotOf(c), Balance: balance}, nil
}

// verifyPools confere que poolA+poolB é a soma das apostas ativas
func (s *Service) verifyPools(ctx context.Context, tx repo.Tx, c *domain.Contest) error {
	sum, err := tx.SumActiveWagers(ctx, c.ID)
	if err != nil {
		return err
	}
	if sum != c.PoolA+c.PoolB {
		s.log.Error("pool total diverges from active wagers",
			zap.String("contestId", c.ID),
			zap.Int64("poolA", c.PoolA),
			zap.Int64("poolB", c.PoolB),
			zap.Int64("activeWagers", sum),
		)
		return domain.Newf(domain.KindInternalInconsistency,
			"contest %s pools %d+%d != active wagers %d", c.ID, c.PoolA, c.PoolB, sum)
	}
	return nil
}

// GetContestSnapshot lê o estado atual direto do store (fallback do broadcast)
func (s *Service) GetContestSnapshot(ctx context.Context, contestID string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.withRetry(ctx, "get snapshot", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repo.Tx) error {
			c, err := tx.GetContest(ctx, contestID)
			if err != nil {
				return err
			}
			snap = s.snapshotOf(c)
			return nil
		})
	})
	return snap, err
}

func (s *Service) snapshotOf(c *domain.Contest) domain.Snapshot {
	return domain.Snapshot{
		ContestID:   c.ID,
		ContestantA: c.ContestantA,
		ContestantB: c.ContestantB,
		Status:      c.Status,
		PoolA:       c.PoolA,
		PoolB:       c.PoolB,
		Odds:        s.calc.Compute(c.PoolA, c.PoolB),
		Version:     c.Version,
		UpdatedAt:   c.UpdatedAt,
	}
}

// publishSnapshot é best-effort: o store continua sendo a fonte da verdade
func (s *Service) publishSnapshot(ctx context.Context, snap domain.Snapshot) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.PublishSnapshot(ctx, snap); err != nil {
		s.metrics.PublishErrors.WithLabelValues("snapshot").Inc()
		s.log.Warn("publish snapshot failed",
			zap.String("contestId", snap.ContestID),
			zap.Int64("version", snap.Version),
			zap.Error(err),
		)
		return
	}
	s.metrics.SnapshotsPublished.Inc()
}

func (s *Service) publishWagerPlaced(ctx context.Context, conf *domain.WagerConfirmation) {
	if s.events == nil {
		return
	}
	w := conf.Wager
	ev := events.WagerPlaced{
		WagerID:         w.ID,
		UserID:          w.UserID,
		ContestID:       w.ContestID,
		Choice:          string(w.Choice),
		AmountCents:     w.AmountCents,
		OddsAtPlacement: w.OddsAtPlacement.StringFixed(odds.Precision),
		PoolA:           conf.Snapshot.PoolA,
		PoolB:           conf.Snapshot.PoolB,
		ContestVersion:  conf.Snapshot.Version,
		TsUnixMs:        w.PlacedAt.UnixMilli(),
	}
	if err := s.events.PublishWagerPlaced(ctx, ev); err != nil {
		s.metrics.PublishErrors.WithLabelValues("wager_placed").Inc()
		s.log.Warn("publish wager_placed failed", zap.String("wagerId", w.ID), zap.Error(err))
	}
}
