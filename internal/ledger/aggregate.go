package ledger

import (
	"math"
	"strings"
)

// StatusPolicy decides whether a player still sits at the table.
type StatusPolicy string

const (
	// StatusByCashOutAmount treats a player as left once their cash-out total is
	// non-zero. A zero cash-out therefore still reads as active.
	StatusByCashOutAmount StatusPolicy = "amount"
	// StatusByCashOut treats any recorded cash-out as leaving, whatever the amount.
	StatusByCashOut StatusPolicy = "cashout"
)

func ParseStatusPolicy(s string) (StatusPolicy, bool) {
	switch StatusPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusByCashOutAmount:
		return StatusByCashOutAmount, true
	case StatusByCashOut:
		return StatusByCashOut, true
	default:
		return "", false
	}
}

func (p StatusPolicy) status(s PlayerSummary) PlayerStatus {
	if p == StatusByCashOut {
		if s.cashOuts > 0 {
			return StatusLeft
		}
		return StatusActive
	}
	if s.TotalOut == 0 {
		return StatusActive
	}
	return StatusLeft
}

// Summarize folds a session's transactions into one summary per player,
// ordered by each player's first transaction.
func Summarize(txs []Transaction, policy StatusPolicy) []PlayerSummary {
	out := make([]PlayerSummary, 0)
	index := make(map[int64]int)
	for _, tx := range txs {
		if tx.Kind == KindSessionOpened {
			continue
		}
		i, ok := index[tx.PlayerID]
		if !ok {
			i = len(out)
			index[tx.PlayerID] = i
			out = append(out, PlayerSummary{PlayerID: tx.PlayerID, DisplayName: tx.DisplayName})
		}
		p := &out[i]
		switch tx.Kind {
		case KindBuyIn, KindAddChip:
			p.TotalIn = addAmount(p.TotalIn, tx.Amount)
		case KindCashOut:
			p.TotalOut = addAmount(p.TotalOut, tx.Amount)
			p.cashOuts++
		}
	}
	for i := range out {
		out[i].Net = out[i].TotalOut - out[i].TotalIn
		out[i].Status = policy.status(out[i])
	}
	return out
}

func PerPlayerTotals(txs []Transaction, policy StatusPolicy) map[int64]PlayerSummary {
	summaries := Summarize(txs, policy)
	out := make(map[int64]PlayerSummary, len(summaries))
	for _, s := range summaries {
		out[s.PlayerID] = s
	}
	return out
}

// PlayerTotals returns zero totals for a player absent from txs; use HasPlayer
// to tell "never joined" from "joined with nothing in or out".
func PlayerTotals(txs []Transaction, playerID int64) Totals {
	var t Totals
	for _, tx := range txs {
		if tx.PlayerID != playerID {
			continue
		}
		switch tx.Kind {
		case KindBuyIn, KindAddChip:
			t.TotalIn = addAmount(t.TotalIn, tx.Amount)
		case KindCashOut:
			t.TotalOut = addAmount(t.TotalOut, tx.Amount)
		}
	}
	t.Net = t.TotalOut - t.TotalIn
	return t
}

func HasPlayer(txs []Transaction, playerID int64) bool {
	for _, tx := range txs {
		if tx.Kind != KindSessionOpened && tx.PlayerID == playerID {
			return true
		}
	}
	return false
}

// SessionTotals sums every player's figures.
func SessionTotals(summaries []PlayerSummary) Totals {
	var t Totals
	for _, s := range summaries {
		t.TotalIn = addAmount(t.TotalIn, s.TotalIn)
		t.TotalOut = addAmount(t.TotalOut, s.TotalOut)
	}
	t.Net = t.TotalOut - t.TotalIn
	return t
}

// addAmount saturates at math.MaxInt64. Amounts are never negative, so the
// difference of two saturated sums cannot overflow either.
func addAmount(sum, amount int64) int64 {
	if amount > 0 && sum > math.MaxInt64-amount {
		return math.MaxInt64
	}
	return sum + amount
}
