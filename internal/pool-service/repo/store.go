package repo

import (
	"context"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
)

// ContestStore é dono exclusivo dos pools de cada confronto
type ContestStore interface {
	// GetContest lê o confronto sem bloqueio
	GetContest(ctx context.Context, id string) (*domain.Contest, error)
	// LockContest lê o confronto e serializa escritores concorrentes até o fim da transação
	LockContest(ctx context.Context, id string) (*domain.Contest, error)
	// UpsertContest cria ou substitui os metadados de um confronto (uso administrativo)
	UpsertContest(ctx context.Context, c *domain.Contest) error
	// CompareAndSwapPools grava os pools apenas se a versão ainda for expectedVersion.
	// Retorna a nova versão ou ErrVersionConflict.
	CompareAndSwapPools(ctx context.Context, id string, expectedVersion, poolA, poolB int64) (int64, error)
	// CompareAndSwapStatus troca o status apenas se o atual for from
	CompareAndSwapStatus(ctx context.Context, id string, from, to domain.ContestStatus) (int64, error)
}

// WagerStore guarda o histórico de apostas (append-only)
type WagerStore interface {
	InsertWager(ctx context.Context, w *domain.Wager) error
	GetWager(ctx context.Context, id string) (*domain.Wager, error)
	// FindWagers é a consulta por (userID, contestID), incluindo apostas void
	FindWagers(ctx context.Context, userID, contestID string) ([]domain.Wager, error)
	ListContestWagers(ctx context.Context, contestID string) ([]domain.Wager, error)
	// SumActiveWagers soma o valor de todas as apostas não-void do confronto
	SumActiveWagers(ctx context.Context, contestID string) (int64, error)
	UpdateWagerStatus(ctx context.Context, id string, from, to domain.WagerStatus) error
}

// BalanceLedger é dono exclusivo do saldo gastável de cada usuário
type BalanceLedger interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	// Debit retira amount se houver saldo, senão ErrInsufficientFunds
	Debit(ctx context.Context, userID string, amount int64, ref string) (int64, error)
	// Credit adiciona amount, criando a carteira se necessário
	Credit(ctx context.Context, userID string, amount int64, entry domain.LedgerEntryType, ref string) (int64, error)
	LedgerEntries(ctx context.Context, userID string) ([]domain.LedgerEntry, error)
}

// Tx agrupa os três stores numa unidade atômica
type Tx interface {
	ContestStore
	WagerStore
	BalanceLedger
}

// Store executa fn numa transação: tudo é gravado se fn retornar nil,
// nada é gravado caso contrário.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}
