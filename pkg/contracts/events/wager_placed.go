package events

// Evento publicado no tópico "wager_placed" depois do commit da aposta
type WagerPlaced struct {
	WagerID         string `json:"wager_id"`
	UserID          string `json:"user_id"`
	ContestID       string `json:"contest_id"`
	Choice          string `json:"choice"` // "A" | "B"
	AmountCents     int64  `json:"amount_cents"`
	OddsAtPlacement string `json:"odds_at_placement"`
	PoolA           int64  `json:"pool_a_cents"` // pools logo após a aposta
	PoolB           int64  `json:"pool_b_cents"`
	ContestVersion  int64  `json:"contest_version"`
	TsUnixMs        int64  `json:"ts_unix_ms"`
}
