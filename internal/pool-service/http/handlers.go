package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/dto"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/placement"
)

func (a *API) createContest(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateContestRequest
	if !a.decode(w, r, &req, true) {
		return
	}
	c, err := a.Service.CreateContest(r.Context(), placement.CreateContestRequest{
		ID:          req.ID,
		ContestantA: req.ContestantA,
		ContestantB: req.ContestantB,
		Status:      domain.ContestStatus(req.Status),
		Metadata:    req.Metadata,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.FromContest(c))
}

// getSnapshot é também o fallback de quem perdeu atualizações do WebSocket
func (a *API) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Service.GetContestSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSnapshot(snap))
}

func (a *API) setStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.SetStatusRequest
	if !a.decode(w, r, &req, true) {
		return
	}
	snap, err := a.Service.SetContestStatus(r.Context(), chi.URLParam(r, "id"), domain.ContestStatus(req.Status))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSnapshot(snap))
}

func (a *API) listWagers(w http.ResponseWriter, r *http.Request) {
	ws, err := a.Service.ContestWagers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromWagers(ws))
}

func (a *API) placeWager(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceWagerRequest
	if !a.decode(w, r, &req, false) {
		return
	}
	conf, err := a.Service.PlaceWager(r.Context(), placement.PlaceWagerRequest{
		UserID:      req.UserID,
		ContestID:   chi.URLParam(r, "id"),
		Choice:      req.Choice,
		AmountCents: req.AmountCents,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.PlaceWagerResponse{
		Wager:        dto.FromWager(conf.Wager),
		Snapshot:     dto.FromSnapshot(conf.Snapshot),
		BalanceCents: conf.Balance,
	})
}

func (a *API) voidWager(w http.ResponseWriter, r *http.Request) {
	res, err := a.Service.VoidWager(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PlaceWagerResponse{
		Wager:        dto.FromWager(res.Wager),
		Snapshot:     dto.FromSnapshot(res.Snapshot),
		BalanceCents: res.Balance,
	})
}

func (a *API) getBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	bal, err := a.Service.GetBalance(r.Context(), userID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	entries, err := a.Service.LedgerEntries(r.Context(), userID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: userID, BalanceCents: bal, Entries: dto.FromLedger(entries)})
}

func (a *API) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if !a.decode(w, r, &req, true) {
		return
	}
	userID := chi.URLParam(r, "userId")
	bal, err := a.Service.Deposit(r.Context(), userID, req.AmountCents)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: userID, BalanceCents: bal})
}
