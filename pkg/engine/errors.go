package engine

import (
	"github.com/vango-dev/retain/internal/errors"
)

// Errors returned or reported by the engine. Compare with errors.Is; the
// match is by code, so detailed copies match too.
var (
	ErrUnknownType       = errors.New("E101")
	ErrHydrationMismatch = errors.New("E102")
	ErrNeverPainted      = errors.New("E103")
	ErrMissingHook       = errors.New("E104")
	ErrInvalidRoot       = errors.New("E105")
	ErrInvalidHandle     = errors.New("E106")
	ErrRootVanished      = errors.New("E201")
	ErrEmptyRoot         = errors.New("E202")
	ErrHost              = errors.New("E301")
)

// structural logs a recoverable structural error and reports it.
func (e *Engine) structural(err *errors.Error) {
	e.logger.Error(err.Message, "code", err.Code, "detail", err.Detail)
	e.metrics.structural(err.Code)
	if e.onDiag != nil {
		e.onDiag(err)
	}
}

// invariant logs an invariant violation the engine repaired.
func (e *Engine) invariant(err *errors.Error) {
	e.logger.Warn(err.Message, "code", err.Code, "detail", err.Detail)
	e.metrics.structural(err.Code)
	if e.onDiag != nil {
		e.onDiag(err)
	}
}

func hostError(op string, err error) error {
	return errors.New("E301").WithDetail(op).Wrap(err)
}
