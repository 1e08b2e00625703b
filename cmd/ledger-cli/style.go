package main

import (
	"strconv"

	"poker-ledger/internal/ledger"

	"github.com/pterm/pterm"
)

func summaryTable(rows []ledger.PlayerSummary) pterm.TableData {
	data := pterm.TableData{{"Player", "ID", "In", "Out", "Net", "Status"}}
	for _, r := range rows {
		data = append(data, []string{
			r.DisplayName,
			strconv.FormatInt(r.PlayerID, 10),
			strconv.FormatInt(r.TotalIn, 10),
			strconv.FormatInt(r.TotalOut, 10),
			colorNet(r.Net),
			string(r.Status),
		})
	}
	return data
}

func renderSummary(sessionID string, rows []ledger.PlayerSummary) error {
	pterm.DefaultSection.Printfln("Session %s", sessionID)
	if len(rows) == 0 {
		pterm.Info.Println("no records yet")
		return nil
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(summaryTable(rows)).Render(); err != nil {
		return err
	}
	t := ledger.SessionTotals(rows)
	pterm.Info.Printfln("total in %d | total out %d | net %s", t.TotalIn, t.TotalOut, colorNet(t.Net))
	return nil
}

func renderPlayer(playerID int64, t ledger.Totals) {
	box := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	box.WithTitle(pterm.LightCyan("player " + strconv.FormatInt(playerID, 10))).WithTitleTopLeft().
		Printfln("In:  %d\nOut: %d\nNet: %s", t.TotalIn, t.TotalOut, colorNet(t.Net))
}

func colorNet(n int64) string {
	s := strconv.FormatInt(n, 10)
	switch {
	case n > 0:
		return pterm.LightGreen("+" + s)
	case n < 0:
		return pterm.LightRed(s)
	default:
		return s
	}
}
