package ledger

import (
	"math"
	"testing"
	"time"
)

func tx(seq int64, player int64, name string, kind Kind, amount int64) Transaction {
	return Transaction{
		Seq:         seq,
		ID:          "id",
		SessionID:   "s1",
		PlayerID:    player,
		DisplayName: name,
		Kind:        kind,
		Amount:      amount,
		RecordedAt:  time.Unix(seq, 0).UTC(),
	}
}

func TestSummarizeFoldsPerPlayerInFirstAppearanceOrder(t *testing.T) {
	txs := []Transaction{
		tx(1, 9, "Host", KindSessionOpened, 0),
		tx(2, 2, "Bob", KindBuyIn, 500),
		tx(3, 1, "Alice", KindBuyIn, 1000),
		tx(4, 1, "Alice", KindAddChip, 500),
		tx(5, 2, "Bob", KindCashOut, 200),
		tx(6, 1, "Alice", KindCashOut, 2000),
	}

	got := Summarize(txs, StatusByCashOutAmount)
	if len(got) != 2 {
		t.Fatalf("len(summary) = %d, want 2", len(got))
	}
	want := []PlayerSummary{
		{PlayerID: 2, DisplayName: "Bob", Totals: Totals{TotalIn: 500, TotalOut: 200, Net: -300}, Status: StatusLeft},
		{PlayerID: 1, DisplayName: "Alice", Totals: Totals{TotalIn: 1500, TotalOut: 2000, Net: 500}, Status: StatusLeft},
	}
	for i := range want {
		g := got[i]
		w := want[i]
		if g.PlayerID != w.PlayerID || g.DisplayName != w.DisplayName || g.Totals != w.Totals || g.Status != w.Status {
			t.Fatalf("summary[%d] = %+v, want %+v", i, g, w)
		}
	}
}

func TestSummarizeSkipsHostWithoutTransactions(t *testing.T) {
	got := Summarize([]Transaction{tx(1, 9, "Host", KindSessionOpened, 0)}, StatusByCashOutAmount)
	if got == nil || len(got) != 0 {
		t.Fatalf("summary = %#v, want empty non-nil slice", got)
	}
}

func TestSummarizeKeepsFirstDisplayName(t *testing.T) {
	txs := []Transaction{
		tx(1, 1, "Alice", KindBuyIn, 100),
		tx(2, 1, "Alice B.", KindAddChip, 100),
	}
	got := Summarize(txs, StatusByCashOutAmount)
	if got[0].DisplayName != "Alice" {
		t.Fatalf("display name = %q, want Alice", got[0].DisplayName)
	}
}

func TestStatusPolicies(t *testing.T) {
	cases := []struct {
		name   string
		policy StatusPolicy
		txs    []Transaction
		want   PlayerStatus
	}{
		{"amount: bought in only", StatusByCashOutAmount, []Transaction{tx(1, 1, "A", KindBuyIn, 100)}, StatusActive},
		{"amount: cashed out", StatusByCashOutAmount, []Transaction{tx(1, 1, "A", KindBuyIn, 100), tx(2, 1, "A", KindCashOut, 50)}, StatusLeft},
		{"amount: zero cash-out stays active", StatusByCashOutAmount, []Transaction{tx(1, 1, "A", KindBuyIn, 100), tx(2, 1, "A", KindCashOut, 0)}, StatusActive},
		{"cashout: zero cash-out leaves", StatusByCashOut, []Transaction{tx(1, 1, "A", KindBuyIn, 100), tx(2, 1, "A", KindCashOut, 0)}, StatusLeft},
		{"cashout: bought in only", StatusByCashOut, []Transaction{tx(1, 1, "A", KindBuyIn, 100)}, StatusActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Summarize(tc.txs, tc.policy)
			if got[0].Status != tc.want {
				t.Fatalf("status = %s, want %s", got[0].Status, tc.want)
			}
		})
	}
}

func TestParseStatusPolicy(t *testing.T) {
	cases := map[string]struct {
		want StatusPolicy
		ok   bool
	}{
		"":         {StatusByCashOutAmount, true},
		"amount":   {StatusByCashOutAmount, true},
		" CashOut": {StatusByCashOut, true},
		"never":    {"", false},
	}
	for in, tc := range cases {
		got, ok := ParseStatusPolicy(in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseStatusPolicy(%q) = %q, %v, want %q, %v", in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPlayerTotalsAndHasPlayer(t *testing.T) {
	txs := []Transaction{
		tx(1, 9, "Host", KindSessionOpened, 0),
		tx(2, 1, "A", KindBuyIn, 1000),
		tx(3, 1, "A", KindCashOut, 0),
	}
	if got := PlayerTotals(txs, 1); got != (Totals{TotalIn: 1000, TotalOut: 0, Net: -1000}) {
		t.Fatalf("PlayerTotals = %+v", got)
	}
	if !HasPlayer(txs, 1) {
		t.Fatal("HasPlayer(1) = false, want true")
	}
	if HasPlayer(txs, 9) {
		t.Fatal("host with only session_opened should not count as a player")
	}
	if got := PlayerTotals(txs, 42); got != (Totals{}) {
		t.Fatalf("PlayerTotals(absent) = %+v, want zero", got)
	}
}

func TestPerPlayerTotalsAndSessionTotals(t *testing.T) {
	txs := []Transaction{
		tx(1, 1, "A", KindBuyIn, 1000),
		tx(2, 2, "B", KindBuyIn, 500),
		tx(3, 1, "A", KindCashOut, 1200),
		tx(4, 2, "B", KindCashOut, 300),
	}
	per := PerPlayerTotals(txs, StatusByCashOutAmount)
	if per[2].Net != -200 {
		t.Fatalf("B net = %d, want -200", per[2].Net)
	}
	total := SessionTotals(Summarize(txs, StatusByCashOutAmount))
	if total != (Totals{TotalIn: 1500, TotalOut: 1500, Net: 0}) {
		t.Fatalf("SessionTotals = %+v", total)
	}
}

func TestKindParsing(t *testing.T) {
	for in, want := range map[string]Kind{
		"buy_in":   KindBuyIn,
		"BUY_IN":   KindBuyIn,
		"ADD_CHIP": KindAddChip,
		"cash_out": KindCashOut,
		"NEW_GAME": KindSessionOpened,
	} {
		got, ok := ParseKind(in)
		if !ok || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v, want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseKind("rebuy"); ok {
		t.Fatal("ParseKind(rebuy) should fail")
	}
}

func TestCheckStructure(t *testing.T) {
	good := tx(1, 1, "A", KindBuyIn, 1)
	if err := CheckStructure(good); err != nil {
		t.Fatalf("CheckStructure(good) = %v", err)
	}
	bad := good
	bad.RecordedAt = time.Time{}
	if err := CheckStructure(bad); err == nil {
		t.Fatal("expected zero recorded_at to fail")
	}
}

func TestCheckStructureCapsAmount(t *testing.T) {
	atCap := tx(1, 1, "A", KindBuyIn, MaxAmount)
	if err := CheckStructure(atCap); err != nil {
		t.Fatalf("CheckStructure(MaxAmount) = %v", err)
	}
	over := tx(1, 1, "A", KindCashOut, MaxAmount+1)
	if err := CheckStructure(over); err == nil {
		t.Fatal("expected amount above MaxAmount to fail")
	}
}

func TestTotalsSaturateInsteadOfWrapping(t *testing.T) {
	txs := []Transaction{
		tx(1, 1, "A", KindBuyIn, math.MaxInt64),
		tx(2, 1, "A", KindAddChip, 1),
		tx(3, 2, "B", KindCashOut, math.MaxInt64),
		tx(4, 2, "B", KindCashOut, math.MaxInt64),
	}

	got := PlayerTotals(txs, 1)
	want := Totals{TotalIn: math.MaxInt64, TotalOut: 0, Net: -math.MaxInt64}
	if got != want {
		t.Fatalf("PlayerTotals = %+v, want %+v", got, want)
	}

	summaries := Summarize(txs, StatusByCashOutAmount)
	if summaries[0].TotalIn != math.MaxInt64 || summaries[0].Net >= 0 {
		t.Fatalf("summaries[0] = %+v", summaries[0])
	}
	if summaries[1].TotalOut != math.MaxInt64 || summaries[1].Net != math.MaxInt64 {
		t.Fatalf("summaries[1] = %+v", summaries[1])
	}

	total := SessionTotals(summaries)
	if total.TotalIn != math.MaxInt64 || total.TotalOut != math.MaxInt64 || total.Net != 0 {
		t.Fatalf("SessionTotals = %+v", total)
	}
}

func TestSessionIDsSortByCreation(t *testing.T) {
	a := NewSessionID(time.Date(2026, 3, 1, 9, 59, 59, 999e6, time.UTC))
	b := NewSessionID(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	if !(a < b) {
		t.Fatalf("%q should sort before %q", a, b)
	}
	if a != "20260301_095959.999" {
		t.Fatalf("session id = %q", a)
	}
}

func TestTransactionIDsAreMonotonic(t *testing.T) {
	now := time.Now()
	prev := NewTransactionID(now)
	for i := 0; i < 100; i++ {
		next := NewTransactionID(now)
		if next <= prev {
			t.Fatalf("id %q not after %q", next, prev)
		}
		prev = next
	}
}
