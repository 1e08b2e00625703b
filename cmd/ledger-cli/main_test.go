package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"poker-ledger/internal/kvstore"
	"poker-ledger/internal/ledger"

	"github.com/pterm/pterm"
)

func newTestCLI(t *testing.T) *cli {
	t.Helper()
	pterm.DisableOutput()
	t.Cleanup(pterm.EnableOutput)
	st, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return &cli{svc: ledger.NewService(st)}
}

func TestDispatchOpenAndExport(t *testing.T) {
	c := newTestCLI(t)
	ctx := context.Background()

	if err := c.dispatch(ctx, []string{"current"}); !errors.Is(err, ledger.ErrNoActiveSession) {
		t.Fatalf("current before open = %v, want ErrNoActiveSession", err)
	}
	if err := c.dispatch(ctx, []string{"open", "1", "Host"}); err != nil {
		t.Fatalf("open: %v", err)
	}
	sid, err := c.svc.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if err := c.svc.RecordBuyIn(ctx, sid, 7, "Dana, the \"shark\"", 300); err != nil {
		t.Fatalf("buy in: %v", err)
	}

	for _, args := range [][]string{{"summary"}, {"summary", sid}, {"player", "7"}, {"player", "8", sid}} {
		if err := c.dispatch(ctx, args); err != nil {
			t.Fatalf("dispatch %v: %v", args, err)
		}
	}

	out := filepath.Join(t.TempDir(), "out.csv")
	if err := c.dispatch(ctx, []string{"export", "-o", out}); err != nil {
		t.Fatalf("export: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("export should start with a UTF-8 BOM")
	}
	if !strings.Contains(string(raw), `"Dana, the ""shark"""`) {
		t.Fatalf("display name not quoted: %s", raw)
	}
}

func TestDispatchBadArguments(t *testing.T) {
	c := newTestCLI(t)
	ctx := context.Background()
	tests := [][]string{
		{"open", "1"},
		{"open", "x", "Host"},
		{"player"},
		{"player", "abc"},
		{"rebuy"},
	}
	for _, args := range tests {
		if err := c.dispatch(ctx, args); err == nil {
			t.Fatalf("dispatch %v: expected error", args)
		}
	}
}

func TestSummaryTable(t *testing.T) {
	data := summaryTable([]ledger.PlayerSummary{
		{PlayerID: 1, DisplayName: "Alice", Totals: ledger.Totals{TotalIn: 500, TotalOut: 800, Net: 300}, Status: ledger.StatusLeft},
	})
	if len(data) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(data))
	}
	want := []string{"Alice", "1", "500", "800", "+300", "left"}
	for i, v := range want {
		if got := pterm.RemoveColorFromString(data[1][i]); got != v {
			t.Fatalf("cell %d = %q, want %q", i, got, v)
		}
	}
}

func TestExportOutputFlagPlacement(t *testing.T) {
	c := newTestCLI(t)
	ctx := context.Background()
	sid, err := c.svc.OpenSession(ctx, 1, "Host")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.svc.RecordBuyIn(ctx, sid, 7, "Dana", 300); err != nil {
		t.Fatalf("buy in: %v", err)
	}

	dir := t.TempDir()
	a, b, cfile := filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv"), filepath.Join(dir, "c.csv")
	cases := []struct {
		args []string
		file string
	}{
		{args: []string{"export", "-o", a}, file: a},
		{args: []string{"export", "-o", b, sid}, file: b},
		{args: []string{"export", sid, "-o", cfile}, file: cfile},
	}
	for _, tc := range cases {
		if err := c.dispatch(ctx, tc.args); err != nil {
			t.Fatalf("dispatch %v: %v", tc.args, err)
		}
		raw, err := os.ReadFile(tc.file)
		if err != nil {
			t.Fatalf("dispatch %v wrote nothing: %v", tc.args, err)
		}
		if !strings.Contains(string(raw), "Dana") {
			t.Fatalf("dispatch %v wrote %q", tc.args, raw)
		}
	}

	for _, args := range [][]string{
		{"export", "-x"},
		{"export", "-o"},
		{"export", sid, "extra"},
		{"summary", "-o"},
		{"player", "7", "-o"},
	} {
		if err := c.dispatch(ctx, args); err == nil {
			t.Fatalf("dispatch %v: expected error", args)
		}
	}
}
