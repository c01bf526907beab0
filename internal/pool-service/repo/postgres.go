package repo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
)

// Postgres implementa Store sobre database/sql + lib/pq.
// Cada InTx é uma transação READ COMMITTED; a serialização por confronto vem do
// SELECT ... FOR UPDATE em LockContest e, por usuário, do FOR UPDATE na carteira.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do store Postgres
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Ping(ctx context.Context) error {
	return mapErr("ping", p.db.PingContext(ctx))
}

// InTx abre a transação, executa fn e faz commit; qualquer erro desfaz tudo
func (p *Postgres) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr("begin", err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr("commit", err)
	}
	return nil
}

type pgTx struct{ tx *sql.Tx }

const contestColumns = `id, contestant_a, contestant_b, status, pool_a, pool_b, version, metadata, created_at, updated_at`

func scanContest(row *sql.Row) (*domain.Contest, error) {
	var (
		c    domain.Contest
		meta []byte
	)
	err := row.Scan(&c.ID, &c.ContestantA, &c.ContestantB, &c.Status, &c.PoolA, &c.PoolB, &c.Version, &meta, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrContestNotFound
	}
	if err != nil {
		return nil, mapErr("scan contest", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return nil, domain.Wrap(domain.KindInternal, "decode contest metadata", err)
		}
	}
	return &c, nil
}

func (t *pgTx) GetContest(ctx context.Context, id string) (*domain.Contest, error) {
	return scanContest(t.tx.QueryRowContext(ctx, `SELECT `+contestColumns+` FROM contests WHERE id=$1`, id))
}

// LockContest bloqueia a linha do confronto até o fim da transação
func (t *pgTx) LockContest(ctx context.Context, id string) (*domain.Contest, error) {
	return scanContest(t.tx.QueryRowContext(ctx, `SELECT `+contestColumns+` FROM contests WHERE id=$1 FOR UPDATE`, id))
}

// UpsertContest insere ou atualiza metadados; pools e versão nunca são sobrescritos aqui
func (t *pgTx) UpsertContest(ctx context.Context, c *domain.Contest) error {
	// JSONB vai como texto: pq codificaria []byte como bytea
	var meta sql.NullString
	if c.Metadata != nil {
		b, err := json.Marshal(c.Metadata)
		if err != nil {
			return domain.Wrap(domain.KindInternal, "encode contest metadata", err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO contests (id, contestant_a, contestant_b, status, pool_a, pool_b, version, metadata, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
		  contestant_a = EXCLUDED.contestant_a,
		  contestant_b = EXCLUDED.contestant_b,
		  metadata     = EXCLUDED.metadata,
		  updated_at   = EXCLUDED.updated_at`,
		c.ID, c.ContestantA, c.ContestantB, string(c.Status), c.PoolA, c.PoolB, c.Version, meta, c.CreatedAt, c.UpdatedAt,
	)
	return mapErr("upsert contest", err)
}

// CompareAndSwapPools só grava se a versão não mudou desde a leitura
func (t *pgTx) CompareAndSwapPools(ctx context.Context, id string, expectedVersion, poolA, poolB int64) (int64, error) {
	var v int64
	err := t.tx.QueryRowContext(ctx, `
		UPDATE contests SET pool_a=$1, pool_b=$2, version=version+1, updated_at=NOW()
		WHERE id=$3 AND version=$4
		RETURNING version`, poolA, poolB, id, expectedVersion).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, domain.ErrVersionConflict
	}
	if err != nil {
		return 0, mapErr("update pools", err)
	}
	return v, nil
}

func (t *pgTx) CompareAndSwapStatus(ctx context.Context, id string, from, to domain.ContestStatus) (int64, error) {
	var v int64
	err := t.tx.QueryRowContext(ctx, `
		UPDATE contests SET status=$1, version=version+1, updated_at=NOW()
		WHERE id=$2 AND status=$3
		RETURNING version`, string(to), id, string(from)).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, domain.ErrVersionConflict
	}
	if err != nil {
		return 0, mapErr("update status", err)
	}
	return v, nil
}

// InsertWager grava a aposta; violação do índice uq_wagers_active vira ErrDuplicateWager
func (t *pgTx) InsertWager(ctx context.Context, w *domain.Wager) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO wagers (id, user_id, contest_id, choice, amount_cents, odds_at_placement, status, placed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		w.ID, w.UserID, w.ContestID, string(w.Choice), w.AmountCents, w.OddsAtPlacement, string(w.Status), w.PlacedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrDuplicateWager
	}
	return mapErr("insert wager", err)
}

const wagerColumns = `id, user_id, contest_id, choice, amount_cents, odds_at_placement, status, placed_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanWager(r rowScanner) (domain.Wager, error) {
	var w domain.Wager
	err := r.Scan(&w.ID, &w.UserID, &w.ContestID, &w.Choice, &w.AmountCents, &w.OddsAtPlacement, &w.Status, &w.PlacedAt)
	return w, err
}

func (t *pgTx) GetWager(ctx context.Context, id string) (*domain.Wager, error) {
	w, err := scanWager(t.tx.QueryRowContext(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrWagerNotFound
	}
	if err != nil {
		return nil, mapErr("get wager", err)
	}
	return &w, nil
}

func (t *pgTx) queryWagers(ctx context.Context, q string, args ...any) ([]domain.Wager, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr("query wagers", err)
	}
	defer rows.Close()

	var out []domain.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, mapErr("scan wager", err)
		}
		out = append(out, w)
	}
	return out, mapErr("iterate wagers", rows.Err())
}

func (t *pgTx) FindWagers(ctx context.Context, userID, contestID string) ([]domain.Wager, error) {
	return t.queryWagers(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE user_id=$1 AND contest_id=$2 ORDER BY placed_at`, userID, contestID)
}

func (t *pgTx) ListContestWagers(ctx context.Context, contestID string) ([]domain.Wager, error) {
	return t.queryWagers(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE contest_id=$1 ORDER BY placed_at`, contestID)
}

func (t *pgTx) SumActiveWagers(ctx context.Context, contestID string) (int64, error) {
	var sum int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents),0) FROM wagers WHERE contest_id=$1 AND status <> 'void'`, contestID).Scan(&sum)
	return sum, mapErr("sum wagers", err)
}

func (t *pgTx) UpdateWagerStatus(ctx context.Context, id string, from, to domain.WagerStatus) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE wagers SET status=$1 WHERE id=$2 AND status=$3`, string(to), id, string(from))
	if err != nil {
		return mapErr("update wager", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr("update wager", err)
	}
	if n == 0 {
		if _, err := t.GetWager(ctx, id); err != nil {
			return err
		}
		return domain.Newf(domain.KindInvalidTransition, "wager %s is not %s", id, from)
	}
	return nil
}

// GetBalance retorna 0 para usuários sem carteira
func (t *pgTx) GetBalance(ctx context.Context, userID string) (int64, error) {
	var bal int64
	err := t.tx.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE user_id=$1`, userID).Scan(&bal)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return bal, mapErr("get balance", err)
}

// Debit bloqueia a carteira, confere saldo, debita e registra no ledger
func (t *pgTx) Debit(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	var walletID string
	var balance int64
	err := t.tx.QueryRowContext(ctx, `SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		return 0, domain.ErrInsufficientFunds
	}
	if err != nil {
		return 0, mapErr("lock wallet", err)
	}
	if balance < amount {
		return 0, domain.ErrInsufficientFunds
	}
	return t.apply(ctx, walletID, -amount, domain.LedgerDebit, ref)
}

// Credit cria a carteira se necessário e soma amount ao saldo
func (t *pgTx) Credit(ctx context.Context, userID string, amount int64, entry domain.LedgerEntryType, ref string) (int64, error) {
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1) ON CONFLICT (user_id) DO NOTHING`,
		uuid.NewString(), userID); err != nil {
		return 0, mapErr("create wallet", err)
	}
	var walletID string
	if err := t.tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID); err != nil {
		return 0, mapErr("lock wallet", err)
	}
	return t.apply(ctx, walletID, amount, entry, ref)
}

// apply move o saldo e grava a linha correspondente em wallet_ledger
func (t *pgTx) apply(ctx context.Context, walletID string, delta int64, entry domain.LedgerEntryType, ref string) (int64, error) {
	var newBalance int64
	if err := t.tx.QueryRowContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2 RETURNING balance_cents`,
		delta, walletID).Scan(&newBalance); err != nil {
		return 0, mapErr("update wallet", err)
	}

	amount := delta
	if amount < 0 {
		amount = -amount
	}
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger(id, wallet_id, operation_type, amount_cents, balance_after, description)
		VALUES($1,$2,$3,$4,$5,$6)`,
		uuid.NewString(), walletID, string(entry), amount, newBalance, ref); err != nil {
		return 0, mapErr("insert ledger", err)
	}
	return newBalance, nil
}

func (t *pgTx) LedgerEntries(ctx context.Context, userID string) ([]domain.LedgerEntry, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT l.id, l.operation_type, l.amount_cents, l.balance_after, COALESCE(l.description,''), l.created_at
		FROM wallet_ledger l
		JOIN wallets w ON w.id = l.wallet_id
		WHERE w.user_id=$1
		ORDER BY l.created_at`, userID)
	if err != nil {
		return nil, mapErr("query ledger", err)
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		e := domain.LedgerEntry{UserID: userID}
		if err := rows.Scan(&e.ID, &e.Type, &e.AmountCents, &e.BalanceAfter, &e.Reference, &e.CreatedAt); err != nil {
			return nil, mapErr("scan ledger", err)
		}
		out = append(out, e)
	}
	return out, mapErr("iterate ledger", rows.Err())
}

// mapErr converte falhas de infraestrutura em ErrStoreUnavailable (retentáveis)
// e preserva erros de domínio já tipados.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if retryable(err) {
		return domain.Wrap(domain.KindStoreUnavailable, op, err)
	}
	return domain.Wrap(domain.KindInternal, op, err)
}

func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "08": // connection exception
			return true
		case pqErr.Code == "40001", pqErr.Code == "40P01": // serialization failure, deadlock
			return true
		case pqErr.Code == "57P01", pqErr.Code == "53300": // admin shutdown, too many connections
			return true
		}
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
