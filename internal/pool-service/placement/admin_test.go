package placement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/repo"
)

func TestCreateContest(t *testing.T) {
	pub := &recorder{}
	s := newTestService(t, repo.NewMemory(), WithSnapshotPublisher(pub))
	ctx := context.Background()

	c, err := s.CreateContest(ctx, CreateContestRequest{ContestantA: " Red ", ContestantB: "Blue", Metadata: map[string]string{"card": "main"}})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Red", c.ContestantA)
	assert.Equal(t, domain.ContestScheduled, c.Status)
	assert.Equal(t, int64(0), c.Version)

	require.Len(t, pub.snapshots, 1)
	assert.Equal(t, c.ID, pub.snapshots[0].ContestID)
	assert.Equal(t, 50, pub.snapshots[0].SentimentA)

	_, err = s.CreateContest(ctx, CreateContestRequest{ContestantA: "Same", ContestantB: "same"})
	assert.ErrorIs(t, err, domain.ErrInvalidContest)

	_, err = s.CreateContest(ctx, CreateContestRequest{ContestantA: "A", ContestantB: "B", Status: domain.ContestSettled})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCreateContest_ExplicitIDIsIdempotent(t *testing.T) {
	s := newTestService(t, repo.NewMemory())
	ctx := context.Background()

	first, err := s.CreateContest(ctx, CreateContestRequest{ID: "main-event", ContestantA: "A", ContestantB: "B"})
	require.NoError(t, err)

	again, err := s.CreateContest(ctx, CreateContestRequest{ID: "main-event", ContestantA: "A", ContestantB: "B"})
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, again.CreatedAt)

	_, err = s.CreateContest(ctx, CreateContestRequest{ID: "main-event", ContestantA: "C", ContestantB: "D"})
	assert.ErrorIs(t, err, domain.ErrInvalidContest)
}

func TestSetContestStatus(t *testing.T) {
	pub := &recorder{}
	s := newTestService(t, repo.NewMemory(), WithSnapshotPublisher(pub))
	ctx := context.Background()
	_, err := s.CreateContest(ctx, CreateContestRequest{ID: "c1", ContestantA: "A", ContestantB: "B"})
	require.NoError(t, err)

	snap, err := s.SetContestStatus(ctx, "c1", domain.ContestOpen)
	require.NoError(t, err)
	assert.Equal(t, domain.ContestOpen, snap.Status)
	assert.Equal(t, int64(1), snap.Version)

	// mesmo status: nada muda, nada é publicado
	snap, err = s.SetContestStatus(ctx, "c1", domain.ContestOpen)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
	assert.Len(t, pub.snapshots, 2)

	_, err = s.SetContestStatus(ctx, "c1", domain.ContestSettled)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = s.SetContestStatus(ctx, "c1", "paused")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = s.SetContestStatus(ctx, "nope", domain.ContestClosed)
	assert.ErrorIs(t, err, domain.ErrContestNotFound)

	for _, st := range []domain.ContestStatus{domain.ContestClosed, domain.ContestSettled} {
		_, err = s.SetContestStatus(ctx, "c1", st)
		require.NoError(t, err)
	}
	_, err = s.SetContestStatus(ctx, "c1", domain.ContestOpen)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestVoidWager(t *testing.T) {
	pub := &recorder{}
	s := newTestService(t, repo.NewMemory(), WithSnapshotPublisher(pub))
	ctx := context.Background()
	openContest(t, s, "c1")
	fund(t, s, "u1", 100)
	fund(t, s, "u2", 100)

	conf, err := place(s, "u1", "c1", "A", 30)
	require.NoError(t, err)
	_, err = place(s, "u2", "c1", "B", 20)
	require.NoError(t, err)

	res, err := s.VoidWager(ctx, conf.Wager.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WagerVoid, res.Wager.Status)
	assert.Equal(t, int64(100), res.Balance)
	assert.Equal(t, int64(0), res.Snapshot.PoolA)
	assert.Equal(t, int64(20), res.Snapshot.PoolB)
	assert.Equal(t, int64(3), res.Snapshot.Version)
	assert.Equal(t, res.Snapshot, pub.snapshots[len(pub.snapshots)-1])

	entries, err := s.LedgerEntries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.LedgerRefund, entries[2].Type)

	// anular de novo não devolve duas vezes
	_, err = s.VoidWager(ctx, conf.Wager.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// com a aposta anulada o usuário pode apostar de novo
	_, err = place(s, "u1", "c1", "B", 10)
	require.NoError(t, err)

	_, err = s.VoidWager(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrWagerNotFound)
}

func TestVoidWager_SettledContest(t *testing.T) {
	s := newTestService(t, repo.NewMemory())
	ctx := context.Background()
	openContest(t, s, "c1")
	fund(t, s, "u1", 100)

	conf, err := place(s, "u1", "c1", "A", 30)
	require.NoError(t, err)
	for _, st := range []domain.ContestStatus{domain.ContestClosed, domain.ContestSettled} {
		_, err = s.SetContestStatus(ctx, "c1", st)
		require.NoError(t, err)
	}

	_, err = s.VoidWager(ctx, conf.Wager.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDepositAndBalance(t *testing.T) {
	s := newTestService(t, repo.NewMemory())
	ctx := context.Background()

	bal, err := s.GetBalance(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)

	bal, err = s.Deposit(ctx, "fresh", 250)
	require.NoError(t, err)
	assert.Equal(t, int64(250), bal)

	_, err = s.Deposit(ctx, "fresh", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = s.Deposit(ctx, "", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
	_, err = s.GetBalance(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestContestWagers_UnknownContest(t *testing.T) {
	s := newTestService(t, repo.NewMemory())
	_, err := s.ContestWagers(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrContestNotFound)
}
