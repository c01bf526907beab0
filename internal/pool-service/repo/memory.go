package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
)

// Memory implementa Store em memória. Uma transação segura o mutex do store
// inteiro e registra desfazimentos; se fn falhar, os desfazimentos são
// aplicados em ordem reversa.
type Memory struct {
	mu        sync.Mutex
	contests  map[string]*domain.Contest
	wagers    map[string]*domain.Wager
	byUser    map[string][]string // userID|contestID -> wager ids
	byContest map[string][]string
	balances  map[string]int64
	ledger    map[string][]domain.LedgerEntry
	now       func() time.Time
}

// NewMemory cria um store vazio
func NewMemory() *Memory {
	return &Memory{
		contests:  make(map[string]*domain.Contest),
		wagers:    make(map[string]*domain.Wager),
		byUser:    make(map[string][]string),
		byContest: make(map[string][]string),
		balances:  make(map[string]int64),
		ledger:    make(map[string][]domain.LedgerEntry),
		now:       time.Now,
	}
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

// InTx executa fn com o store bloqueado
func (m *Memory) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, "begin", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{m: m}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	// a transação pode ter estourado o prazo durante fn
	if err := ctx.Err(); err != nil {
		tx.rollback()
		return domain.Wrap(domain.KindStoreUnavailable, "commit", err)
	}
	return nil
}

type memTx struct {
	m    *Memory
	undo []func()
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func userKey(userID, contestID string) string { return userID + "|" + contestID }

func copyContest(c *domain.Contest) *domain.Contest {
	cp := *c
	if c.Metadata != nil {
		cp.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func (t *memTx) GetContest(ctx context.Context, id string) (*domain.Contest, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, "get contest", err)
	}
	c, ok := t.m.contests[id]
	if !ok {
		return nil, domain.ErrContestNotFound
	}
	return copyContest(c), nil
}

// LockContest equivale a GetContest: o mutex do store já serializa a transação
func (t *memTx) LockContest(ctx context.Context, id string) (*domain.Contest, error) {
	return t.GetContest(ctx, id)
}

func (t *memTx) UpsertContest(ctx context.Context, c *domain.Contest) error {
	if err := ctx.Err(); err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, "upsert contest", err)
	}
	prev, existed := t.m.contests[c.ID]
	t.m.contests[c.ID] = copyContest(c)
	t.undo = append(t.undo, func() {
		if existed {
			t.m.contests[c.ID] = prev
		} else {
			delete(t.m.contests, c.ID)
		}
	})
	return nil
}

func (t *memTx) CompareAndSwapPools(ctx context.Context, id string, expectedVersion, poolA, poolB int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.Wrap(domain.KindStoreUnavailable, "update pools", err)
	}
	c, ok := t.m.contests[id]
	if !ok {
		return 0, domain.ErrContestNotFound
	}
	if c.Version != expectedVersion {
		return 0, domain.ErrVersionConflict
	}
	prev := *c
	c.PoolA, c.PoolB = poolA, poolB
	c.Version++
	c.UpdatedAt = t.m.now()
	t.undo = append(t.undo, func() { *c = prev })
	return c.Version, nil
}

func (t *memTx) CompareAndSwapStatus(ctx context.Context, id string, from, to domain.ContestStatus) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.Wrap(domain.KindStoreUnavailable, "update status", err)
	}
	c, ok := t.m.contests[id]
	if !ok {
		return 0, domain.ErrContestNotFound
	}
	if c.Status != from {
		return 0, domain.ErrVersionConflict
	}
	prev := *c
	c.Status = to
	c.Version++
	c.UpdatedAt = t.m.now()
	t.undo = append(t.undo, func() { *c = prev })
	return c.Version, nil
}

func (t *memTx) InsertWager(ctx context.Context, w *domain.Wager) error {
	if err := ctx.Err(); err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, "insert wager", err)
	}
	key := userKey(w.UserID, w.ContestID)
	// mesmo papel do índice único parcial do Postgres
	for _, id := range t.m.byUser[key] {
		if t.m.wagers[id].Status.Active() {
			return domain.ErrDuplicateWager
		}
	}
	cp := *w
	t.m.wagers[w.ID] = &cp
	t.m.byUser[key] = append(t.m.byUser[key], w.ID)
	t.m.byContest[w.ContestID] = append(t.m.byContest[w.ContestID], w.ID)
	t.undo = append(t.undo, func() {
		delete(t.m.wagers, w.ID)
		t.m.byUser[key] = t.m.byUser[key][:len(t.m.byUser[key])-1]
		t.m.byContest[w.ContestID] = t.m.byContest[w.ContestID][:len(t.m.byContest[w.ContestID])-1]
	})
	return nil
}

func (t *memTx) GetWager(ctx context.Context, id string) (*domain.Wager, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, "get wager", err)
	}
	w, ok := t.m.wagers[id]
	if !ok {
		return nil, domain.ErrWagerNotFound
	}
	cp := *w
	return &cp, nil
}

func (t *memTx) collect(ids []string) []domain.Wager {
	out := make([]domain.Wager, 0, len(ids))
	for _, id := range ids {
		out = append(out, *t.m.wagers[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlacedAt.Before(out[j].PlacedAt) })
	return out
}

func (t *memTx) FindWagers(ctx context.Context, userID, contestID string) ([]domain.Wager, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, "find wagers", err)
	}
	return t.collect(t.m.byUser[userKey(userID, contestID)]), nil
}

func (t *memTx) ListContestWagers(ctx context.Context, contestID string) ([]domain.Wager, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, "list wagers", err)
	}
	return t.collect(t.m.byContest[contestID]), nil
}

func (t *memTx) SumActiveWagers(ctx context.Context, contestID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.Wrap(domain.KindStoreUnavailable, "sum wagers", err)
	}
	var sum int64
	for _, id := range t.m.byContest[contestID] {
		if w := t.m.wagers[id]; w.Status.Active() {
			sum += w.AmountCents
		}
	}
	return sum, nil
}

func (t *memTx) UpdateWagerStatus(ctx context.Context, id string, from, to domain.WagerStatus) error {
	if err := ctx.Err(); err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, "update wager", err)
	}
	w, ok := t.m.wagers[id]
	if !ok {
		return domain.ErrWagerNotFound
	}
	if w.Status != from {
		return domain.Newf(domain.KindInvalidTransition, "wager %s is %s, not %s", id, w.Status, from)
	}
	w.Status = to
	t.undo = append(t.undo, func() { w.Status = from })
	return nil
}

func (t *memTx) GetBalance(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.Wrap(domain.KindStoreUnavailable, "get balance", err)
	}
	return t.m.balances[userID], nil
}

func (t *memTx) Debit(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.Wrap(domain.KindStoreUnavailable, "debit", err)
	}
	bal := t.m.balances[userID]
	if bal < amount {
		return 0, domain.ErrInsufficientFunds
	}
	return t.move(userID, -amount, domain.LedgerDebit, ref), nil
}

func (t *memTx) Credit(ctx context.Context, userID string, amount int64, entry domain.LedgerEntryType, ref string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.Wrap(domain.KindStoreUnavailable, "credit", err)
	}
	return t.move(userID, amount, entry, ref), nil
}

// move aplica delta ao saldo e registra a linha no ledger
func (t *memTx) move(userID string, delta int64, entry domain.LedgerEntryType, ref string) int64 {
	prev, existed := t.m.balances[userID]
	next := prev + delta
	t.m.balances[userID] = next

	amount := delta
	if amount < 0 {
		amount = -amount
	}
	t.m.ledger[userID] = append(t.m.ledger[userID], domain.LedgerEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         entry,
		AmountCents:  amount,
		BalanceAfter: next,
		Reference:    ref,
		CreatedAt:    t.m.now(),
	})

	t.undo = append(t.undo, func() {
		if existed {
			t.m.balances[userID] = prev
		} else {
			delete(t.m.balances, userID)
		}
		t.m.ledger[userID] = t.m.ledger[userID][:len(t.m.ledger[userID])-1]
	})
	return next
}

func (t *memTx) LedgerEntries(ctx context.Context, userID string) ([]domain.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, "ledger", err)
	}
	out := make([]domain.LedgerEntry, len(t.m.ledger[userID]))
	copy(out, t.m.ledger[userID])
	return out, nil
}
