package ledger

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var exportHeader = []string{"seq", "id", "session_id", "player_id", "display_name", "kind", "amount", "recorded_at"}

// utf8BOM keeps spreadsheet apps from guessing a legacy encoding for names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func ExportFilename(sessionID string) string {
	return "game_" + sessionID + ".csv"
}

func WriteCSV(w io.Writer, txs []Transaction) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, tx := range txs {
		row := []string{
			strconv.FormatInt(tx.Seq, 10),
			tx.ID,
			tx.SessionID,
			strconv.FormatInt(tx.PlayerID, 10),
			tx.DisplayName,
			string(tx.Kind),
			strconv.FormatInt(tx.Amount, 10),
			tx.RecordedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
