package dto

import (
	"time"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/odds"
)

type SnapshotResponse struct {
	ContestID   string    `json:"contestId"`
	ContestantA string    `json:"contestantA"`
	ContestantB string    `json:"contestantB"`
	Status      string    `json:"status"`
	PoolA       int64     `json:"poolACents"`
	PoolB       int64     `json:"poolBCents"`
	OddsA       string    `json:"oddsA"`
	OddsB       string    `json:"oddsB"`
	SentimentA  int       `json:"sentimentA"`
	SentimentB  int       `json:"sentimentB"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type WagerResponse struct {
	WagerID         string    `json:"wagerId"`
	UserID          string    `json:"userId"`
	ContestID       string    `json:"contestId"`
	Choice          string    `json:"choice"`
	AmountCents     int64     `json:"amountCents"`
	OddsAtPlacement string    `json:"oddsAtPlacement"`
	Status          string    `json:"status"`
	PlacedAt        time.Time `json:"placedAt"`
}

type PlaceWagerResponse struct {
	Wager        WagerResponse    `json:"wager"`
	Snapshot     SnapshotResponse `json:"snapshot"`
	BalanceCents int64            `json:"balanceCents"`
}

type ContestResponse struct {
	ContestID   string            `json:"contestId"`
	ContestantA string            `json:"contestantA"`
	ContestantB string            `json:"contestantB"`
	Status      string            `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type LedgerEntryResponse struct {
	Type         string    `json:"type"`
	AmountCents  int64     `json:"amountCents"`
	BalanceAfter int64     `json:"balanceAfterCents"`
	Reference    string    `json:"reference,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type BalanceResponse struct {
	UserID       string                `json:"userId"`
	BalanceCents int64                 `json:"balanceCents"`
	Entries      []LedgerEntryResponse `json:"entries,omitempty"`
}

// ErrorResponse é o corpo de toda resposta de erro
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

func FromSnapshot(s domain.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ContestID:   s.ContestID,
		ContestantA: s.ContestantA,
		ContestantB: s.ContestantB,
		Status:      string(s.Status),
		PoolA:       s.PoolA,
		PoolB:       s.PoolB,
		OddsA:       s.OddsA.StringFixed(odds.Precision),
		OddsB:       s.OddsB.StringFixed(odds.Precision),
		SentimentA:  s.SentimentA,
		SentimentB:  s.SentimentB,
		Version:     s.Version,
		UpdatedAt:   s.UpdatedAt,
	}
}

func FromWager(w domain.Wager) WagerResponse {
	return WagerResponse{
		WagerID:         w.ID,
		UserID:          w.UserID,
		ContestID:       w.ContestID,
		Choice:          string(w.Choice),
		AmountCents:     w.AmountCents,
		OddsAtPlacement: w.OddsAtPlacement.StringFixed(odds.Precision),
		Status:          string(w.Status),
		PlacedAt:        w.PlacedAt,
	}
}

func FromWagers(ws []domain.Wager) []WagerResponse {
	out := make([]WagerResponse, 0, len(ws))
	for _, w := range ws {
		out = append(out, FromWager(w))
	}
	return out
}

func FromContest(c *domain.Contest) ContestResponse {
	return ContestResponse{
		ContestID:   c.ID,
		ContestantA: c.ContestantA,
		ContestantB: c.ContestantB,
		Status:      string(c.Status),
		Metadata:    c.Metadata,
		CreatedAt:   c.CreatedAt,
	}
}

func FromLedger(entries []domain.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntryResponse{
			Type:         string(e.Type),
			AmountCents:  e.AmountCents,
			BalanceAfter: e.BalanceAfter,
			Reference:    e.Reference,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}
