package ledger

import (
	"context"
	"time"
)

// Kind is the action a transaction records.
type Kind string

const (
	KindSessionOpened Kind = "session_opened"
	KindBuyIn         Kind = "buy_in"
	KindAddChip       Kind = "add_chip"
	KindCashOut       Kind = "cash_out"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSessionOpened, KindBuyIn, KindAddChip, KindCashOut:
		return true
	default:
		return false
	}
}

// ParseKind accepts the persisted names plus the upper-case action names the
// chat bot has always exported (BUY_IN, ADD_CHIP, CASH_OUT, NEW_GAME).
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "session_opened", "NEW_GAME":
		return KindSessionOpened, true
	case "buy_in", "BUY_IN":
		return KindBuyIn, true
	case "add_chip", "ADD_CHIP":
		return KindAddChip, true
	case "cash_out", "CASH_OUT":
		return KindCashOut, true
	default:
		return "", false
	}
}

// Transaction is one immutable ledger entry.
type Transaction struct {
	// Seq is assigned by the store and is the only ordering queries honor.
	Seq         int64     `json:"seq"`
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	PlayerID    int64     `json:"player_id"`
	DisplayName string    `json:"display_name"`
	Kind        Kind      `json:"kind"`
	Amount      int64     `json:"amount"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type Totals struct {
	TotalIn  int64 `json:"total_in"`
	TotalOut int64 `json:"total_out"`
	Net      int64 `json:"net"`
}

type PlayerStatus string

const (
	StatusActive PlayerStatus = "active"
	StatusLeft   PlayerStatus = "left"
)

type PlayerSummary struct {
	PlayerID    int64        `json:"player_id"`
	DisplayName string       `json:"display_name"`
	Totals                   // flattened: total_in, total_out, net
	Status      PlayerStatus `json:"status"`

	cashOuts int
}

// Store is the durable append-only transaction log.
type Store interface {
	Append(ctx context.Context, tx Transaction) (Transaction, error)
	CurrentSessionID(ctx context.Context) (string, bool, error)
	TransactionsForSession(ctx context.Context, sessionID string) ([]Transaction, error)
}

// Recorded is delivered to an Observer after a successful append. Summary is
// computed from the same read that produced any totals returned to the caller.
type Recorded struct {
	Transaction Transaction
	Summary     []PlayerSummary
}

type Observer interface {
	OnRecorded(ctx context.Context, ev Recorded)
}
