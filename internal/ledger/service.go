package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const maxOpenAttempts = 5

type Service struct {
	store    Store
	policy   StatusPolicy
	observer Observer
	now      func() time.Time
}

type Option func(*Service)

func WithStatusPolicy(p StatusPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st Store, opts ...Option) *Service {
	s := &Service{store: st, policy: StatusByCashOutAmount, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSession starts a new session and makes it current. Callers decide
// whether requesterID may do this.
func (s *Service) OpenSession(ctx context.Context, requesterID int64, displayName string) (string, error) {
	if requesterID == 0 {
		return "", invalid("requester_id", "requester is required")
	}
	now := s.now()
	tx := Transaction{
		ID:          NewTransactionID(now),
		PlayerID:    requesterID,
		DisplayName: strings.TrimSpace(displayName),
		Kind:        KindSessionOpened,
		RecordedAt:  now.UTC(),
	}
	var (
		stored Transaction
		err    error
	)
	// Session ids have millisecond resolution; a clash moves the id forward.
	for attempt := 0; attempt < maxOpenAttempts; attempt++ {
		tx.SessionID = NewSessionID(now.Add(time.Duration(attempt) * time.Millisecond))
		stored, err = s.store.Append(ctx, tx)
		if !errors.Is(err, ErrSessionExists) {
			break
		}
		log.Debug().Str("session_id", tx.SessionID).Msg("session id taken, retrying")
	}
	if err != nil {
		return "", storageErr("append session_opened", err)
	}
	log.Info().Str("session_id", stored.SessionID).Int64("requester_id", requesterID).Msg("session opened")
	s.notify(ctx, stored, nil)
	return stored.SessionID, nil
}

func (s *Service) CurrentSession(ctx context.Context) (string, error) {
	id, ok, err := s.store.CurrentSessionID(ctx)
	if err != nil {
		return "", storageErr("current session", err)
	}
	if !ok {
		return "", ErrNoActiveSession
	}
	return id, nil
}

func (s *Service) RecordBuyIn(ctx context.Context, sessionID string, playerID int64, displayName string, amount int64) error {
	if err := checkAmount(amount, false); err != nil {
		return err
	}
	_, err := s.record(ctx, KindBuyIn, sessionID, playerID, displayName, amount)
	return err
}

func (s *Service) RecordAddChip(ctx context.Context, sessionID string, playerID int64, displayName string, amount int64) error {
	if err := checkAmount(amount, false); err != nil {
		return err
	}
	_, err := s.record(ctx, KindAddChip, sessionID, playerID, displayName, amount)
	return err
}

// RecordCashOut accepts zero and returns the player's totals after the
// cash-out. A concurrent writer may land between the append and the read.
// ErrTotalsUnavailable means the cash-out is stored but the totals are not.
func (s *Service) RecordCashOut(ctx context.Context, sessionID string, playerID int64, displayName string, amount int64) (Totals, error) {
	if err := checkAmount(amount, true); err != nil {
		return Totals{}, err
	}
	txs, err := s.record(ctx, KindCashOut, sessionID, playerID, displayName, amount)
	if err != nil {
		return Totals{}, err
	}
	return PlayerTotals(txs, playerID), nil
}

// PlayerStatus reports false when the player has no transactions in the session.
func (s *Service) PlayerStatus(ctx context.Context, sessionID string, playerID int64) (Totals, bool, error) {
	txs, err := s.load(ctx, sessionID)
	if err != nil {
		return Totals{}, false, err
	}
	if !HasPlayer(txs, playerID) {
		return Totals{}, false, nil
	}
	return PlayerTotals(txs, playerID), true, nil
}

func (s *Service) SessionSummary(ctx context.Context, sessionID string) ([]PlayerSummary, error) {
	txs, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return Summarize(txs, s.policy), nil
}

// ExportSession returns every transaction of the session except the opening one.
func (s *Service) ExportSession(ctx context.Context, sessionID string) ([]Transaction, error) {
	txs, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Kind == KindSessionOpened {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *Service) record(ctx context.Context, kind Kind, sessionID string, playerID int64, displayName string, amount int64) ([]Transaction, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNoActiveSession
	}
	if playerID == 0 {
		return nil, invalid("player_id", "player is required")
	}
	now := s.now()
	stored, err := s.store.Append(ctx, Transaction{
		ID:          NewTransactionID(now),
		SessionID:   sessionID,
		PlayerID:    playerID,
		DisplayName: strings.TrimSpace(displayName),
		Kind:        kind,
		Amount:      amount,
		RecordedAt:  now.UTC(),
	})
	if errors.Is(err, ErrSessionNotOpened) {
		return nil, fmt.Errorf("%w: session %s was never opened", ErrNoActiveSession, sessionID)
	}
	if err != nil {
		return nil, storageErr("append "+string(kind), err)
	}
	log.Debug().
		Str("session_id", sessionID).
		Int64("player_id", playerID).
		Str("kind", string(kind)).
		Int64("amount", amount).
		Int64("seq", stored.Seq).
		Msg("transaction recorded")

	if kind != KindCashOut && s.observer == nil {
		return nil, nil
	}
	// The row is committed; a failed read must not be reported as a failed write.
	txs, err := s.load(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Int64("seq", stored.Seq).Msg("reload after append failed")
		if kind == KindCashOut {
			return nil, fmt.Errorf("%w: %v", ErrTotalsUnavailable, err)
		}
		return nil, nil
	}
	s.notify(ctx, stored, txs)
	return txs, nil
}

func checkAmount(amount int64, allowZero bool) error {
	switch {
	case amount < 0 && allowZero:
		return invalid("amount", "amount must not be negative")
	case amount <= 0 && !allowZero:
		return invalid("amount", "amount must be greater than 0")
	case amount > MaxAmount:
		return invalid("amount", "amount is too large")
	}
	return nil
}

func (s *Service) load(ctx context.Context, sessionID string) ([]Transaction, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNoActiveSession
	}
	txs, err := s.store.TransactionsForSession(ctx, sessionID)
	if err != nil {
		return nil, storageErr("load session", err)
	}
	return txs, nil
}

func (s *Service) notify(ctx context.Context, tx Transaction, txs []Transaction) {
	if s.observer == nil {
		return
	}
	s.observer.OnRecorded(ctx, Recorded{Transaction: tx, Summary: Summarize(txs, s.policy)})
}
