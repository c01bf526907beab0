package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ContestStatus representa o ciclo de vida de um confronto
type ContestStatus string

const (
	ContestScheduled ContestStatus = "scheduled"
	ContestOpen      ContestStatus = "open"
	ContestClosed    ContestStatus = "closed"
	ContestSettled   ContestStatus = "settled"
)

// Valid indica se o status é um dos quatro conhecidos
func (s ContestStatus) Valid() bool {
	switch s {
	case ContestScheduled, ContestOpen, ContestClosed, ContestSettled:
		return true
	}
	return false
}

// transitions lista as mudanças de status permitidas
var transitions = map[ContestStatus][]ContestStatus{
	ContestScheduled: {ContestOpen, ContestClosed},
	ContestOpen:      {ContestClosed},
	ContestClosed:    {ContestOpen, ContestSettled},
}

// CanTransition informa se from -> to é uma transição válida
func CanTransition(from, to ContestStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Side identifica um dos dois competidores
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// ParseSide aceita "A"/"B" sem diferenciar maiúsculas
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideA:
		return SideA, true
	case SideB:
		return SideB, true
	}
	return "", false
}

// Contest é o registro de um confronto e dos pools acumulados por lado.
// As odds não são persistidas: são sempre derivadas de PoolA/PoolB.
type Contest struct {
	ID          string
	ContestantA string
	ContestantB string
	Status      ContestStatus
	PoolA       int64 // centavos
	PoolB       int64 // centavos
	Version     int64 // incrementado a cada alteração de pool ou status
	Metadata    map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Pool retorna o pool do lado informado
func (c *Contest) Pool(side Side) int64 {
	if side == SideA {
		return c.PoolA
	}
	return c.PoolB
}

// WithStake retorna os pools resultantes de somar delta ao lado informado
func (c *Contest) WithStake(side Side, delta int64) (poolA, poolB int64) {
	if side == SideA {
		return c.PoolA + delta, c.PoolB
	}
	return c.PoolA, c.PoolB + delta
}

// WagerStatus representa o estado de uma aposta
type WagerStatus string

const (
	WagerPending WagerStatus = "pending"
	WagerVoid    WagerStatus = "void"
	WagerWon     WagerStatus = "won"
	WagerLost    WagerStatus = "lost"
)

// Active indica se a aposta conta para o pool (tudo exceto void)
func (s WagerStatus) Active() bool { return s != WagerVoid }

// Wager é uma aposta individual. Criada apenas pela colocação de apostas,
// alterada apenas por liquidação ou anulação, nunca removida.
type Wager struct {
	ID              string
	UserID          string
	ContestID       string
	Choice          Side
	AmountCents     int64
	OddsAtPlacement decimal.Decimal
	Status          WagerStatus
	PlacedAt        time.Time
}

// Odds é o resultado do cálculo de odds e sentimento para um par de pools
type Odds struct {
	OddsA      decimal.Decimal
	OddsB      decimal.Decimal
	SentimentA int
	SentimentB int
}

// For retorna a odd do lado informado
func (o Odds) For(side Side) decimal.Decimal {
	if side == SideA {
		return o.OddsA
	}
	return o.OddsB
}

// Snapshot é uma leitura versionada e imutável do estado de um confronto
type Snapshot struct {
	ContestID   string
	ContestantA string
	ContestantB string
	Status      ContestStatus
	PoolA       int64
	PoolB       int64
	Odds
	Version   int64
	UpdatedAt time.Time
}

// WagerConfirmation é devolvido ao chamador após uma aposta aceita
type WagerConfirmation struct {
	Wager    Wager
	Snapshot Snapshot
	Balance  int64 // saldo após o débito
}

// LedgerEntryType classifica movimentações de saldo
type LedgerEntryType string

const (
	LedgerCredit LedgerEntryType = "CREDIT"
	LedgerDebit  LedgerEntryType = "DEBIT"
	LedgerRefund LedgerEntryType = "REFUND"
)

// LedgerEntry é uma linha do livro de movimentações da carteira
type LedgerEntry struct {
	ID           string
	UserID       string
	Type         LedgerEntryType
	AmountCents  int64
	BalanceAfter int64
	Reference    string
	CreatedAt    time.Time
}
