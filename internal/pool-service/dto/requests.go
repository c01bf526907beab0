package dto

// PlaceWagerRequest é o corpo de POST /v1/contests/{id}/wagers.
// A validação fica no serviço, que segue a ordem valor > confronto > lado > duplicidade > saldo.
type PlaceWagerRequest struct {
	UserID      string `json:"userId"`
	Choice      string `json:"choice"` // "A" | "B"
	AmountCents int64  `json:"amountCents"`
}

type CreateContestRequest struct {
	ID          string            `json:"id" validate:"omitempty,max=64"`
	ContestantA string            `json:"contestantA" validate:"required,max=128"`
	ContestantB string            `json:"contestantB" validate:"required,max=128,nefield=ContestantA"`
	Status      string            `json:"status" validate:"omitempty,oneof=scheduled open"`
	Metadata    map[string]string `json:"metadata" validate:"omitempty,max=32,dive,keys,max=64,endkeys,max=512"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled open closed settled"`
}

type DepositRequest struct {
	AmountCents int64 `json:"amountCents" validate:"required,gt=0"`
}
