package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/dto"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/placement"
)

// API expõe os endpoints REST do motor de apostas e o WebSocket de snapshots
type API struct {
	Service        *placement.Service
	WS             http.HandlerFunc // nil = sem /ws
	Log            *zap.Logger
	AllowedOrigins []string
	RequestTimeout time.Duration

	validate *validator.Validate
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	a.validate = validator.New()
	if a.Log == nil {
		a.Log = zap.NewNop()
	}
	if a.RequestTimeout <= 0 {
		a.RequestTimeout = 10 * time.Second
	}
	origins := a.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// WebSocket fica fora do timeout das rotas REST
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(a.RequestTimeout))

		r.Post("/v1/contests", a.createContest)            // Cria confronto
		r.Get("/v1/contests/{id}/snapshot", a.getSnapshot) // Pools, odds e sentimento atuais
		r.Put("/v1/contests/{id}/status", a.setStatus)     // Abre/fecha/liquida
		r.Get("/v1/contests/{id}/wagers", a.listWagers)    // Apostas do confronto
		r.Post("/v1/contests/{id}/wagers", a.placeWager)   // Aposta
		r.Post("/v1/wagers/{id}/void", a.voidWager)        // Anula aposta pendente
		r.Get("/v1/balances/{userId}", a.getBalance)       // Saldo + extrato
		r.Post("/v1/balances/{userId}/deposit", a.deposit) // Crédito
	})
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor mapeia o tipo de erro de domínio para o status HTTP
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidAmount, domain.KindInvalidUser, domain.KindInvalidChoice, domain.KindInvalidContest:
		return http.StatusBadRequest
	case domain.KindContestNotFound, domain.KindWagerNotFound:
		return http.StatusNotFound
	case domain.KindContestNotOpen, domain.KindDuplicateWager, domain.KindInvalidTransition:
		return http.StatusConflict
	case domain.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case domain.KindStoreUnavailable, domain.KindVersionConflict:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	msg := err.Error()
	var de *domain.Error
	if errors.As(err, &de) {
		msg = de.Message
	}
	if status == http.StatusInternalServerError {
		// detalhes internos ficam no log
		a.Log.Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, dto.ErrorResponse{Error: msg, Code: string(kind)})
}

// decode lê o JSON do corpo e, se a struct tiver tags, valida com validator
func (a *API) decode(w http.ResponseWriter, r *http.Request, v any, validate bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json", Code: "BAD_REQUEST"})
		return false
	}
	if !validate {
		return true
	}
	if err := a.validate.Struct(v); err != nil {
		resp := dto.ErrorResponse{Error: "validation failed", Code: "VALIDATION_FAILED"}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			resp.Details = make(map[string]string, len(verrs))
			for _, fe := range verrs {
				resp.Details[fe.Field()] = fmt.Sprintf("failed on '%s'", fe.Tag())
			}
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

// requestLogger registra método, rota, status e duração com zap
func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.Log.Debug("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("requestId", middleware.GetReqID(r.Context())),
		)
	})
}
