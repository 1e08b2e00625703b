package ledger

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"
)

func TestWriteCSV(t *testing.T) {
	txs := []Transaction{
		{Seq: 2, ID: "01A", SessionID: "s1", PlayerID: 7, DisplayName: "Zoë, the \"shark\"", Kind: KindBuyIn, Amount: 1000,
			RecordedAt: time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)},
		{Seq: 3, ID: "01B", SessionID: "s1", PlayerID: 7, DisplayName: "Zoë, the \"shark\"", Kind: KindCashOut, Amount: 0,
			RecordedAt: time.Date(2026, 5, 1, 23, 30, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, txs); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	raw := buf.Bytes()
	if !bytes.HasPrefix(raw, utf8BOM) {
		t.Fatal("export should start with a UTF-8 BOM")
	}

	rows, err := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "seq" || rows[0][7] != "recorded_at" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][4] != "Zoë, the \"shark\"" {
		t.Fatalf("display name = %q", rows[1][4])
	}
	if rows[2][5] != "cash_out" || rows[2][6] != "0" {
		t.Fatalf("row = %v", rows[2])
	}
	if rows[2][7] != "2026-05-01T23:30:00Z" {
		t.Fatalf("recorded_at = %q", rows[2][7])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want header only", len(rows))
	}
}

func TestExportFilename(t *testing.T) {
	if got := ExportFilename("20260501_200000.000"); got != "game_20260501_200000.000.csv" {
		t.Fatalf("ExportFilename = %q", got)
	}
}
