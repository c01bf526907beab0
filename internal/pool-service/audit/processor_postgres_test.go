package audit

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/repo"
	"github.com/radieske/wrestlebet-pool-engine/pkg/contracts/events"
)

var (
	contestCols = []string{"id", "contestant_a", "contestant_b", "status", "pool_a", "pool_b", "version", "metadata", "created_at", "updated_at"}
	wagerCols   = []string{"id", "user_id", "contest_id", "choice", "amount_cents", "odds_at_placement", "status", "placed_at"}
)

// O confronto é travado antes da leitura da aposta e da soma, na mesma transação
func TestProcessor_PostgresLocksContestBeforeSumming(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM contests WHERE id=$1 FOR UPDATE")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(contestCols).
			AddRow("c1", "Red", "Blue", "open", int64(60), int64(0), int64(2), nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM wagers WHERE id=$1")).
		WithArgs("w1").
		WillReturnRows(sqlmock.NewRows(wagerCols).
			AddRow("w1", "u1", "c1", "A", int64(10), "1.10", "pending", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount_cents),0) FROM wagers")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(60)))
	mock.ExpectCommit()

	p, _, cnt := newProcessor(t, repo.NewPostgres(db), nil)
	err = p.Handle(context.Background(), message(t, events.WagerPlaced{
		WagerID: "w1", UserID: "u1", ContestID: "c1", Choice: "A",
		AmountCents: 10, OddsAtPlacement: "1.10", PoolA: 60, ContestVersion: 2,
	}))

	require.NoError(t, err)
	assert.Equal(t, 1, cnt.checkedCount())
	assert.Zero(t, cnt.inconsistent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
