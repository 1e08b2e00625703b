package bot

import (
	"fmt"
	"strings"

	"poker-ledger/internal/ledger"
)

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// escape makes user-supplied text safe inside legacy Telegram Markdown.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func signed(n int64) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

const helpText = "*Poker ledger*\n" +
	"/join <amount> buy in\n" +
	"/add <amount> add chips\n" +
	"/leave <amount> cash out (0 allowed)\n" +
	"/me your totals\n" +
	"/summary table overview\n" +
	"/current current game id\n" +
	"Host only: /newgame, /export"

func msgSessionOpened(sessionID string) string {
	return fmt.Sprintf("✅ New game opened\nGame: `%s`", sessionID)
}

func msgCurrent(sessionID string) string {
	return fmt.Sprintf("🎲 Current game: `%s`", sessionID)
}

func msgBuyIn(name string, amount int64) string {
	return fmt.Sprintf("✅ %s bought in *%d*", escape(name), amount)
}

func msgAddChip(name string, amount int64) string {
	return fmt.Sprintf("➕ %s added *%d*", escape(name), amount)
}

func msgCashOut(amount int64, t ledger.Totals) string {
	return fmt.Sprintf("✅ Cashed out *%d*\n💰 Net: *%s*", amount, signed(t.Net))
}

func msgCashOutNoTotals(amount int64) string {
	return fmt.Sprintf("✅ Cashed out *%d*\nTotals are unavailable right now, check /me later", amount)
}

func msgPlayerStatus(name string, t ledger.Totals) string {
	return fmt.Sprintf("👤 *%s*\nIn: %d\nOut: %d\nNet: *%s*", escape(name), t.TotalIn, t.TotalOut, signed(t.Net))
}

const (
	msgNotJoined     = "You have not joined this game yet"
	msgNoRecords     = "No records yet"
	msgNoExportData  = "Nothing to export yet"
	msgNoSession     = "❌ No game is open. The host starts one with /newgame"
	msgHostOnly      = "❌ Only the host can do that"
	msgStorageFailed = "⚠️ Could not reach the ledger, please try again"
)

func msgSummary(rows []ledger.PlayerSummary) string {
	var b strings.Builder
	b.WriteString("🎲 *Summary*")
	for _, p := range rows {
		status := "playing"
		if p.Status == ledger.StatusLeft {
			status = "left"
		}
		fmt.Fprintf(&b, "\n%s: %d→%d (%s) [%s]", escape(p.DisplayName), p.TotalIn, p.TotalOut, signed(p.Net), status)
	}
	return b.String()
}

func msgUsage(cmd string, example string) string {
	return fmt.Sprintf("usage: /%s %s", cmd, example)
}
