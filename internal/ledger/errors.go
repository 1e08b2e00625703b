package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation_error")
	ErrNoActiveSession = errors.New("no_active_session")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrStorage         = errors.New("storage_error")

	// ErrTotalsUnavailable means a cash-out was stored but the totals that
	// follow it could not be read back.
	ErrTotalsUnavailable = errors.New("totals_unavailable")

	// Stores wrap these from Append.
	ErrSessionNotOpened = errors.New("session_not_opened")
	ErrSessionExists    = errors.New("session_exists")
)

// MaxAmount bounds a single transaction so per-player sums stay far from
// int64 overflow.
const MaxAmount int64 = 1_000_000_000_000_000

// ValidationError carries a message that is safe to show to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// CheckStructure is the structural validation stores apply before appending.
// Business rules such as positive buy-ins are the service's job.
func CheckStructure(tx Transaction) error {
	switch {
	case tx.ID == "":
		return errors.New("transaction id is empty")
	case tx.SessionID == "":
		return errors.New("session id is empty")
	case !tx.Kind.Valid():
		return fmt.Errorf("unknown transaction kind %q", tx.Kind)
	case tx.Amount < 0:
		return fmt.Errorf("negative amount %d", tx.Amount)
	case tx.Amount > MaxAmount:
		return fmt.Errorf("amount %d exceeds %d", tx.Amount, MaxAmount)
	case tx.Kind == KindSessionOpened && tx.Amount != 0:
		return fmt.Errorf("session_opened carries amount %d", tx.Amount)
	case tx.RecordedAt.IsZero():
		return errors.New("recorded_at is zero")
	}
	return nil
}
