package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

var contestCols = []string{"id", "contestant_a", "contestant_b", "status", "pool_a", "pool_b", "version", "metadata", "created_at", "updated_at"}

func TestPostgres_LockContest(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM contests WHERE id=$1 FOR UPDATE")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(contestCols).
			AddRow("c1", "Red", "Blue", "open", int64(300), int64(100), int64(7), []byte(`{"venue":"arena"}`), now, now))
	mock.ExpectCommit()

	var got *domain.Contest
	err := store.InTx(context.Background(), func(tx Tx) error {
		var err error
		got, err = tx.LockContest(context.Background(), "c1")
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ContestOpen, got.Status)
	assert.Equal(t, int64(300), got.PoolA)
	assert.Equal(t, int64(7), got.Version)
	assert.Equal(t, "arena", got.Metadata["venue"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LockContestNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM contests WHERE id=$1 FOR UPDATE")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(contestCols))
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx Tx) error {
		_, err := tx.LockContest(context.Background(), "missing")
		return err
	})

	assert.ErrorIs(t, err, domain.ErrContestNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DebitInsufficientFunds(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents"}).AddRow("wal-1", int64(500)))
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx Tx) error {
		_, err := tx.Debit(context.Background(), "u1", 1000, "w1")
		return err
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DebitWritesLedger(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents"}).AddRow("wal-1", int64(1000)))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE wallets SET balance_cents = balance_cents + $1")).
		WithArgs(int64(-400), "wal-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(int64(600)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_ledger")).
		WithArgs(sqlmock.AnyArg(), "wal-1", "DEBIT", int64(400), int64(600), "w1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	var balance int64
	err := store.InTx(context.Background(), func(tx Tx) error {
		var err error
		balance, err = tx.Debit(context.Background(), "u1", 400, "w1")
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, int64(600), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertWagerUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wagers")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_wagers_active"})
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx Tx) error {
		return tx.InsertWager(context.Background(), &domain.Wager{
			ID: "w2", UserID: "u1", ContestID: "c1", Choice: domain.SideB, AmountCents: 2000,
			OddsAtPlacement: decimal.RequireFromString("2.00"), Status: domain.WagerPending, PlacedAt: time.Now(),
		})
	})

	assert.ErrorIs(t, err, domain.ErrDuplicateWager)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CompareAndSwapPoolsConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE contests SET pool_a=$1, pool_b=$2")).
		WithArgs(int64(50), int64(0), "c1", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx Tx) error {
		_, err := tx.CompareAndSwapPools(context.Background(), "c1", 3, 50, 0)
		return err
	})

	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, domain.Recoverable, domain.Classify(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_BeginConnectionFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin().WillReturnError(&pq.Error{Code: "08006"})

	err := store.InTx(context.Background(), func(tx Tx) error { return nil })

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"deadline", context.DeadlineExceeded, domain.KindStoreUnavailable},
		{"serialization failure", &pq.Error{Code: "40001"}, domain.KindStoreUnavailable},
		{"deadlock", &pq.Error{Code: "40P01"}, domain.KindStoreUnavailable},
		{"connection class", &pq.Error{Code: "08003"}, domain.KindStoreUnavailable},
		{"domain error kept", domain.ErrDuplicateWager, domain.KindDuplicateWager},
		{"foreign key is not retryable", &pq.Error{Code: "23503"}, domain.KindInternal},
		{"plain error", errors.New("syntax"), domain.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErr("op", tt.err)
			require.Error(t, got)
			assert.Equal(t, tt.want, domain.KindOf(got))
		})
	}

	assert.NoError(t, mapErr("op", nil))
}
