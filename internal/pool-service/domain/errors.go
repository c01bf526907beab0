package domain

import (
	"errors"
	"fmt"
)

// ErrorKind identifica a categoria de uma falha do motor de apostas
type ErrorKind string

const (
	KindInvalidAmount         ErrorKind = "INVALID_AMOUNT"
	KindInvalidUser           ErrorKind = "INVALID_USER"
	KindContestNotFound       ErrorKind = "CONTEST_NOT_FOUND"
	KindContestNotOpen        ErrorKind = "CONTEST_NOT_OPEN"
	KindInvalidChoice         ErrorKind = "INVALID_CHOICE"
	KindDuplicateWager        ErrorKind = "DUPLICATE_WAGER"
	KindInsufficientFunds     ErrorKind = "INSUFFICIENT_FUNDS"
	KindWagerNotFound         ErrorKind = "WAGER_NOT_FOUND"
	KindInvalidTransition     ErrorKind = "INVALID_TRANSITION"
	KindInvalidContest        ErrorKind = "INVALID_CONTEST"
	KindVersionConflict       ErrorKind = "VERSION_CONFLICT"
	KindStoreUnavailable      ErrorKind = "STORE_UNAVAILABLE"
	KindInternalInconsistency ErrorKind = "INTERNAL_INCONSISTENCY"
	KindInternal              ErrorKind = "INTERNAL"
)

// Error carrega o tipo da falha, uma mensagem legível e, opcionalmente, a causa
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is compara apenas o Kind, permitindo errors.Is(err, domain.ErrDuplicateWager)
// para erros criados com mensagens diferentes.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidAmount         = &Error{Kind: KindInvalidAmount, Message: "amount out of bounds"}
	ErrInvalidUser           = &Error{Kind: KindInvalidUser, Message: "user id required"}
	ErrContestNotFound       = &Error{Kind: KindContestNotFound, Message: "contest not found"}
	ErrContestNotOpen        = &Error{Kind: KindContestNotOpen, Message: "contest is not open for wagers"}
	ErrInvalidChoice         = &Error{Kind: KindInvalidChoice, Message: "choice must be A or B"}
	ErrDuplicateWager        = &Error{Kind: KindDuplicateWager, Message: "user already has a wager on this contest"}
	ErrInsufficientFunds     = &Error{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrWagerNotFound         = &Error{Kind: KindWagerNotFound, Message: "wager not found"}
	ErrInvalidTransition     = &Error{Kind: KindInvalidTransition, Message: "invalid status transition"}
	ErrInvalidContest        = &Error{Kind: KindInvalidContest, Message: "invalid contest definition"}
	ErrVersionConflict       = &Error{Kind: KindVersionConflict, Message: "contest version changed"}
	ErrStoreUnavailable      = &Error{Kind: KindStoreUnavailable, Message: "store unavailable"}
	ErrInternalInconsistency = &Error{Kind: KindInternalInconsistency, Message: "engine invariant violated"}
	ErrInternal              = &Error{Kind: KindInternal, Message: "internal error"}
)

// Newf cria um erro do tipo informado com mensagem própria
func Newf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap associa uma causa a um erro do tipo informado
func Wrap(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extrai o Kind de err; erros sem tipo viram INTERNAL.
// INTERNAL_INCONSISTENCY só sai das checagens de invariante dos pools.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Outcome é o resultado de uma operação do ponto de vista da política de retry
type Outcome int

const (
	// Success: operação concluída
	Success Outcome = iota
	// Recoverable: repetir a mesma chamada pode ter sucesso
	Recoverable
	// Fatal: repetir não muda o resultado
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Recoverable:
		return "recoverable"
	default:
		return "fatal"
	}
}

// Classify mapeia um erro para Success | Recoverable | Fatal
func Classify(err error) Outcome {
	if err == nil {
		return Success
	}
	switch KindOf(err) {
	case KindStoreUnavailable, KindVersionConflict:
		return Recoverable
	}
	return Fatal
}

// IsValidation indica falhas esperadas, que o chamador resolve mostrando
// uma mensagem ao usuário
func IsValidation(err error) bool {
	switch KindOf(err) {
	case KindInvalidAmount, KindInvalidUser, KindContestNotFound, KindContestNotOpen,
		KindInvalidChoice, KindDuplicateWager, KindInsufficientFunds,
		KindWagerNotFound, KindInvalidTransition, KindInvalidContest:
		return true
	}
	return false
}
