package push

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"poker-ledger/internal/ledger"
)

const (
	colorOpened  = 0x5865F2
	colorBuyIn   = 0x3BA55D
	colorAddChip = 0xFEE75C
	colorCashOut = 0xED4245
	colorClosed  = 0x4F545C

	nameLimit     = 32
	defaultFooter = "poker-ledger"
)

// FormatMessage renders the feed message for one transaction.
func FormatMessage(ev Event) (FormattedMessage, bool) {
	name := trimText(fallback(ev.DisplayName, "player "+strconv.FormatInt(ev.PlayerID, 10)), nameLimit)
	base := FormattedMessage{
		Timestamp: eventTimestamp(ev.RecordedAt),
		Footer:    defaultFooter + " | session:" + ev.SessionID,
	}

	switch ev.Kind {
	case ledger.KindSessionOpened:
		base.Title = "Session opened · " + ev.SessionID
		base.Description = fmt.Sprintf("%s opened a new session.", name)
		base.Color = colorOpened
		return base, true
	case ledger.KindBuyIn:
		base.Title = "Buy-in · " + name
		base.Description = fmt.Sprintf("%s bought in %d", name, ev.Amount)
		base.Color = colorBuyIn
	case ledger.KindAddChip:
		base.Title = "Add-on · " + name
		base.Description = fmt.Sprintf("%s added %d", name, ev.Amount)
		base.Color = colorAddChip
	case ledger.KindCashOut:
		base.Title = "Cash-out · " + name
		base.Description = fmt.Sprintf("%s cashed out %d", name, ev.Amount)
		base.Color = colorCashOut
	default:
		return FormattedMessage{}, false
	}

	totals := playerTotals(ev.Summary, ev.PlayerID)
	base.Fields = []MessageField{
		{Name: "Amount", Value: strconv.FormatInt(ev.Amount, 10), Inline: true},
		{Name: "In", Value: strconv.FormatInt(totals.TotalIn, 10), Inline: true},
		{Name: "Out", Value: strconv.FormatInt(totals.TotalOut, 10), Inline: true},
		{Name: "Net", Value: signed(totals.Net), Inline: true},
	}
	return base, true
}

func playerTotals(summary []ledger.PlayerSummary, playerID int64) ledger.Totals {
	for _, s := range summary {
		if s.PlayerID == playerID {
			return s.Totals
		}
	}
	return ledger.Totals{}
}

// actionLine is the one-line form used in a panel's recent list.
func actionLine(ev Event) string {
	name := trimText(fallback(ev.DisplayName, strconv.FormatInt(ev.PlayerID, 10)), nameLimit)
	switch ev.Kind {
	case ledger.KindBuyIn:
		return fmt.Sprintf("%s buy-in %d", name, ev.Amount)
	case ledger.KindAddChip:
		return fmt.Sprintf("%s add-on %d", name, ev.Amount)
	case ledger.KindCashOut:
		return fmt.Sprintf("%s cash-out %d", name, ev.Amount)
	default:
		return fmt.Sprintf("%s opened the session", name)
	}
}

func signed(v int64) string {
	if v > 0 {
		return "+" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}

func trimText(v string, max int) string {
	r := []rune(v)
	if max <= 0 || len(r) <= max {
		return v
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func eventTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func fallback(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}
