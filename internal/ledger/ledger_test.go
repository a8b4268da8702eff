package ledger

import (
	"testing"

	"fintrack/internal/core"
)

func tx(id, date string, amount int64, cat string) core.Transaction {
	t := core.Transaction{ID: id, AccountID: "acc_1", Date: date, Name: id, AmountCents: amount,
		Source: core.SourceManual, Status: core.StatusPosted}
	if cat != "" {
		t.CategoryID = core.CategoryRef(cat)
	}
	return t
}

func TestNetWorth(t *testing.T) {
	tests := []struct {
		name     string
		balances []int64
		want     NetWorthSummary
	}{
		{
			name:     "seed accounts",
			balances: []int64{241458, 1000000, -15000},
			want:     NetWorthSummary{Assets: 2241458, Liabilities: 15000, NetWorth: 2226458},
		},
		{
			name: "no accounts",
			want: NetWorthSummary{},
		},
		{
			name:     "only debt",
			balances: []int64{-100, -250},
			want:     NetWorthSummary{Assets: 0, Liabilities: 350, NetWorth: -350},
		},
		{
			name:     "zero balance is an asset",
			balances: []int64{0},
			want:     NetWorthSummary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var accs []core.Account
			for _, b := range tt.balances {
				accs = append(accs, core.Account{CurrentBalanceCents: b})
			}
			got := NetWorth(accs)
			if got != tt.want {
				t.Errorf("NetWorth() = %+v, want %+v", got, tt.want)
			}
			if got.Assets < 0 || got.Liabilities < 0 || got.Assets-got.Liabilities != got.NetWorth {
				t.Errorf("NetWorth() broke additivity: %+v", got)
			}
		})
	}
}

func TestNetWorthCreditOverpayment(t *testing.T) {
	accs := []core.Account{{Type: core.Credit, CurrentBalanceCents: 2500}}
	if got := NetWorth(accs); got.Assets != 2500 || got.Liabilities != 0 {
		t.Fatalf("credit overpayment should be an asset, got %+v", got)
	}
}

func TestTransactionsInMonth(t *testing.T) {
	txs := []core.Transaction{
		tx("a", "2024-05-01", -1, ""),
		tx("b", "2024-05-31", -1, ""),
		tx("c", "2024-06-01", -1, ""),
		tx("d", "2024-12-15", -1, ""),
		tx("e", "2023-05-10", -1, ""),
	}

	got := TransactionsInMonth(txs, 2024, 5)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected May result: %+v", got)
	}
	if got := TransactionsInMonth(txs, 2024, 12); len(got) != 1 || got[0].ID != "d" {
		t.Fatalf("unexpected December result: %+v", got)
	}
	if got := TransactionsInMonth(txs, 2024, 1); len(got) != 0 {
		t.Fatalf("expected no January transactions, got %d", len(got))
	}
}

func TestCategorySpend(t *testing.T) {
	txs := []core.Transaction{
		tx("a", "2024-05-01", -8542, "cat_1"),
		tx("b", "2024-05-02", -1000, "cat_1"),
		tx("c", "2024-05-03", 5000, "cat_1"), // refund, excluded
		tx("d", "2024-05-04", -1250, "cat_3"),
		tx("e", "2024-05-05", -700, ""),
	}

	tests := []struct {
		cat  string
		want int64
	}{
		{"cat_1", -9542},
		{"cat_3", -1250},
		{"cat_9", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got := CategorySpend(txs, tt.cat)
		if got != tt.want {
			t.Errorf("CategorySpend(%q) = %d, want %d", tt.cat, got, tt.want)
		}
		if got > 0 {
			t.Errorf("CategorySpend(%q) positive: %d", tt.cat, got)
		}
	}
}

func TestTopSpending(t *testing.T) {
	cats := []core.Category{
		{ID: "cat_1", Name: "Groceries"},
		{ID: "cat_2", Name: "Rent"},
		{ID: "cat_3", Name: "Dining Out"},
	}
	entries := []core.BudgetEntry{
		{BudgetMonthID: "bm_2024_5", CategoryID: "cat_1", BudgetedCents: 60000},
		{BudgetMonthID: "bm_2024_4", CategoryID: "cat_3", BudgetedCents: 99999},
	}
	txs := []core.Transaction{
		tx("a", "2024-05-01", -8542, "cat_1"),
		tx("b", "2024-05-02", -1250, "cat_3"),
		tx("c", "2024-05-03", -200000, "cat_2"),
		tx("d", "2024-05-04", 3000, "cat_1"),
		tx("e", "2024-05-05", -10, "cat_missing"),
	}

	got := TopSpending(txs, cats, entries, "bm_2024_5", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Name != "Rent" || got[0].Spent != -200000 {
		t.Errorf("unexpected first row: %+v", got[0])
	}
	if got[1].Name != "Groceries" || got[1].Spent != -8542 || got[1].Budget != 60000 {
		t.Errorf("unexpected second row: %+v", got[1])
	}
}

func TestRecentTransactions(t *testing.T) {
	txs := []core.Transaction{
		tx("old", "2024-01-01", -1, ""),
		tx("new1", "2024-05-02", -1, ""),
		tx("mid", "2024-03-01", -1, ""),
		tx("new2", "2024-05-02", -1, ""),
	}
	got := RecentTransactions(txs, 3)
	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	want := []string{"new1", "new2", "mid"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("RecentTransactions order = %v, want %v", ids, want)
		}
	}
	if txs[0].ID != "old" {
		t.Fatal("input slice was reordered")
	}
}
