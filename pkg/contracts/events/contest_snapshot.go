package events

import "time"

// Evento publicado no canal Redis "contest_snapshots" após cada alteração de confronto
type ContestSnapshot struct {
	ContestID   string    `json:"contest_id"`
	ContestantA string    `json:"contestant_a"`
	ContestantB string    `json:"contestant_b"`
	Status      string    `json:"status"`
	PoolA       int64     `json:"pool_a_cents"`
	PoolB       int64     `json:"pool_b_cents"`
	OddsA       string    `json:"odds_a"` // decimal com 2 casas, ex: "2.50"
	OddsB       string    `json:"odds_b"`
	SentimentA  int       `json:"sentiment_a"`
	SentimentB  int       `json:"sentiment_b"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"version"` // versão do confronto; assinantes descartam versões <= à última aplicada
}
