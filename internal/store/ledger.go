package store

import (
	"context"
	"errors"
	"fmt"

	"poker-ledger/internal/ledger"

	"github.com/jackc/pgx/v5"
)

func (s *Store) Append(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	if err := ledger.CheckStructure(t); err != nil {
		return ledger.Transaction{}, err
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return ledger.Transaction{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Appends to one session serialize on this lock until commit, so the
	// existence check below cannot race a concurrent open.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, t.SessionID); err != nil {
		return ledger.Transaction{}, fmt.Errorf("lock session: %w", err)
	}
	var opened, hasRows bool
	err = tx.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM ledger_transactions WHERE session_id = $1 AND kind = 'session_opened'),
			EXISTS (SELECT 1 FROM ledger_transactions WHERE session_id = $1)`,
		t.SessionID,
	).Scan(&opened, &hasRows)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("check session: %w", err)
	}
	switch {
	case t.Kind == ledger.KindSessionOpened && hasRows:
		return ledger.Transaction{}, fmt.Errorf("%w: session %s already has transactions", ledger.ErrSessionExists, t.SessionID)
	case t.Kind != ledger.KindSessionOpened && !opened:
		return ledger.Transaction{}, fmt.Errorf("%w: %s", ledger.ErrSessionNotOpened, t.SessionID)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ledger_transactions (id, session_id, player_id, display_name, kind, amount, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq`,
		t.ID, t.SessionID, t.PlayerID, t.DisplayName, string(t.Kind), t.Amount, t.RecordedAt,
	).Scan(&t.Seq)
	if err != nil {
		err = mapConflict(err)
		if t.Kind == ledger.KindSessionOpened && errors.Is(err, ErrConflict) {
			return ledger.Transaction{}, fmt.Errorf("%w: %w", ledger.ErrSessionExists, err)
		}
		return ledger.Transaction{}, err
	}

	if t.Kind == ledger.KindSessionOpened {
		// Two concurrent opens both commit; the pointer keeps the later seq.
		_, err = tx.Exec(ctx, `
			INSERT INTO active_session (singleton, session_id, opened_seq)
			VALUES (TRUE, $1, $2)
			ON CONFLICT (singleton) DO UPDATE
			SET session_id = EXCLUDED.session_id,
			    opened_seq = EXCLUDED.opened_seq,
			    updated_at = now()
			WHERE active_session.opened_seq < EXCLUDED.opened_seq`,
			t.SessionID, t.Seq,
		)
		if err != nil {
			return ledger.Transaction{}, fmt.Errorf("move active session: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ledger.Transaction{}, err
	}
	return t, nil
}

func (s *Store) CurrentSessionID(ctx context.Context) (string, bool, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `SELECT session_id FROM active_session WHERE singleton`).Scan(&id)
	if err != nil {
		if mapNotFound(err) == ErrNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) TransactionsForSession(ctx context.Context, sessionID string) ([]ledger.Transaction, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT seq, id, session_id, player_id, display_name, kind, amount, recorded_at
		FROM ledger_transactions
		WHERE session_id = $1
		ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]ledger.Transaction, error) {
	out := []ledger.Transaction{}
	for rows.Next() {
		var (
			t    ledger.Transaction
			kind string
		)
		if err := rows.Scan(&t.Seq, &t.ID, &t.SessionID, &t.PlayerID, &t.DisplayName, &kind, &t.Amount, &t.RecordedAt); err != nil {
			return nil, err
		}
		k, ok := ledger.ParseKind(kind)
		if !ok {
			return nil, fmt.Errorf("row %d has unknown kind %q", t.Seq, kind)
		}
		t.Kind = k
		t.RecordedAt = t.RecordedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}
