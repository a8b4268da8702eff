package budget

import (
	"testing"

	"fintrack/internal/core"
)

func expense(id, date string, amount int64, cat string) core.Transaction {
	return core.Transaction{ID: id, Date: date, AmountCents: amount, CategoryID: core.CategoryRef(cat)}
}

func TestEnsureMonthIdempotent(t *testing.T) {
	var months []core.BudgetMonth

	months, id1 := EnsureMonth(months, "u1", 2024, 5)
	months, id2 := EnsureMonth(months, "u1", 2024, 5)

	if id1 != id2 {
		t.Fatalf("ids differ: %q vs %q", id1, id2)
	}
	if id1 != "bm_2024_5" {
		t.Fatalf("unexpected id %q", id1)
	}
	if len(months) != 1 {
		t.Fatalf("expected exactly one month, got %d", len(months))
	}
}

func TestEnsureMonthKeepsExistingID(t *testing.T) {
	months := []core.BudgetMonth{{ID: "legacy-id", Year: 2024, Month: 6}}
	got, id := EnsureMonth(months, "u1", 2024, 6)
	if id != "legacy-id" || len(got) != 1 {
		t.Fatalf("expected existing month to be reused, got id=%q len=%d", id, len(got))
	}

	got, id = EnsureMonth(months, "u1", 2024, 7)
	if id != "bm_2024_7" || len(got) != 2 {
		t.Fatalf("expected new month, got id=%q len=%d", id, len(got))
	}
	if len(months) != 1 {
		t.Fatal("input slice was extended")
	}
}

func TestSetBudgetedAmount(t *testing.T) {
	entries := SetBudgetedAmount(nil, "u1", "cat_1", "bm_2024_5", 60000)
	if len(entries) != 1 || entries[0].BudgetedCents != 60000 || entries[0].ID != "be_bm_2024_5_cat_1" {
		t.Fatalf("unexpected entries after insert: %+v", entries)
	}

	updated := SetBudgetedAmount(entries, "u1", "cat_1", "bm_2024_5", 45000)
	if len(updated) != 1 || updated[0].BudgetedCents != 45000 {
		t.Fatalf("unexpected entries after update: %+v", updated)
	}
	if entries[0].BudgetedCents != 60000 {
		t.Fatal("input slice was modified")
	}

	negative := SetBudgetedAmount(updated, "u1", "cat_2", "bm_2024_5", -500)
	if len(negative) != 2 || negative[1].BudgetedCents != -500 {
		t.Fatalf("negative budget should be accepted: %+v", negative)
	}
}

func TestCategoryMetrics(t *testing.T) {
	cats := []core.Category{
		{ID: "cat_1", Name: "Groceries", Group: "Living"},
		{ID: "cat_2", Name: "Rent", Group: "Living"},
		{ID: "cat_3", Name: "Dining Out", Group: "Discretionary"},
		{ID: "cat_4", Name: "Gifts"},
	}
	entries := []core.BudgetEntry{
		{BudgetMonthID: "bm_2024_5", CategoryID: "cat_1", BudgetedCents: 60000},
		{BudgetMonthID: "bm_2024_5", CategoryID: "cat_2", BudgetedCents: 200000},
		{BudgetMonthID: "bm_2024_5", CategoryID: "cat_3", BudgetedCents: 20000},
		{BudgetMonthID: "bm_2024_4", CategoryID: "cat_4", BudgetedCents: 777},
	}
	txs := []core.Transaction{
		expense("a", "2024-05-03", -8542, "cat_1"),
		expense("b", "2024-05-04", -1250, "cat_3"),
		expense("c", "2024-05-05", -3000, "cat_4"),
	}

	metrics := CategoryMetrics(cats, entries, txs, "bm_2024_5")
	want := []Metric{
		{Budgeted: 60000, Spent: -8542, Remaining: 51458},
		{Budgeted: 200000, Spent: 0, Remaining: 200000},
		{Budgeted: 20000, Spent: -1250, Remaining: 18750},
		{Budgeted: 0, Spent: -3000, Remaining: -3000},
	}
	for i, w := range want {
		if metrics[i].Metric != w {
			t.Errorf("metric %d = %+v, want %+v", i, metrics[i].Metric, w)
		}
	}

	groups := GroupMetrics(metrics)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Group != "Living" || groups[0].Budgeted != 260000 || groups[0].Spent != -8542 || groups[0].Remaining != 251458 {
		t.Errorf("unexpected Living group: %+v", groups[0].Metric)
	}
	if groups[2].Group != UncategorizedGroup || len(groups[2].Categories) != 1 {
		t.Errorf("expected ungrouped category in %q bucket, got %+v", UncategorizedGroup, groups[2])
	}

	total := Totals(metrics)
	if total.Budgeted != 280000 || total.Spent != -12792 || total.Remaining != 267208 {
		t.Errorf("unexpected totals: %+v", total)
	}
}

func TestUtilization(t *testing.T) {
	tests := []struct {
		name            string
		budgeted, spent int64
		want            float64
	}{
		{"half used", 10000, -5000, 50},
		{"over budget capped", 10000, -25000, 100},
		{"no budget with spend", 0, -1, 100},
		{"no budget no spend", 0, 0, 0},
		{"nothing spent", 10000, 0, 0},
		{"negative budget with spend", -100, -50, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Utilization(tt.budgeted, tt.spent); got != tt.want {
				t.Errorf("Utilization(%d, %d) = %v, want %v", tt.budgeted, tt.spent, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	cats := []core.Category{{ID: "cat_1", Name: "Groceries", Group: "Living"}}
	entries := []core.BudgetEntry{{BudgetMonthID: "bm_2024_5", CategoryID: "cat_1", BudgetedCents: 60000}}
	txs := []core.Transaction{
		expense("a", "2024-05-03", -8542, "cat_1"),
		expense("b", "2024-06-03", -9999, "cat_1"),
	}

	s := Summarize(nil, cats, entries, txs, 2024, 5)
	if s.MonthID != "bm_2024_5" {
		t.Fatalf("unexpected month id %q", s.MonthID)
	}
	if s.Totals.Spent != -8542 || s.Totals.Remaining != 51458 {
		t.Fatalf("unexpected totals %+v", s.Totals)
	}
}
