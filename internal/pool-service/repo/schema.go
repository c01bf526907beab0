package repo

import (
	"context"
	"database/sql"
	"fmt"
)

// schema cria as três coleções lógicas: contests, wagers e wallets (+ ledger).
// O índice parcial uq_wagers_active garante no banco uma aposta não-void por
// (user_id, contest_id), mesmo que a checagem do serviço seja contornada.
const schema = `
CREATE TABLE IF NOT EXISTS contests (
    id           TEXT PRIMARY KEY,
    contestant_a TEXT        NOT NULL,
    contestant_b TEXT        NOT NULL,
    status       TEXT        NOT NULL,
    pool_a       BIGINT      NOT NULL DEFAULT 0 CHECK (pool_a >= 0),
    pool_b       BIGINT      NOT NULL DEFAULT 0 CHECK (pool_b >= 0),
    version      BIGINT      NOT NULL DEFAULT 0,
    metadata     JSONB,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS wagers (
    id                TEXT PRIMARY KEY,
    user_id           TEXT          NOT NULL,
    contest_id        TEXT          NOT NULL REFERENCES contests(id),
    choice            CHAR(1)       NOT NULL CHECK (choice IN ('A','B')),
    amount_cents      BIGINT        NOT NULL CHECK (amount_cents > 0),
    odds_at_placement NUMERIC(12,2) NOT NULL,
    status            TEXT          NOT NULL,
    placed_at         TIMESTAMPTZ   NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_wagers_active ON wagers(user_id, contest_id) WHERE status <> 'void';
CREATE INDEX IF NOT EXISTS idx_wagers_contest ON wagers(contest_id);

CREATE TABLE IF NOT EXISTS wallets (
    id            TEXT PRIMARY KEY,
    user_id       TEXT   NOT NULL UNIQUE,
    balance_cents BIGINT NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
    version       BIGINT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS wallet_ledger (
    id             TEXT PRIMARY KEY,
    wallet_id      TEXT        NOT NULL REFERENCES wallets(id),
    operation_type TEXT        NOT NULL,
    amount_cents   BIGINT      NOT NULL,
    balance_after  BIGINT      NOT NULL,
    description    TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_wallet_ledger_wallet ON wallet_ledger(wallet_id, created_at);
`

// EnsureSchema aplica o schema (idempotente)
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
