// Package budget resolves monthly budgets: it keeps one budget month per
// calendar month, upserts per-category budgeted amounts and combines them
// with spend to report what remains.
package budget

import (
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// UncategorizedGroup labels categories that have no group.
const UncategorizedGroup = "Uncategorized"

// MonthID derives the stable budget month id for year and month.
func MonthID(year, month int) string {
	return fmt.Sprintf("bm_%d_%d", year, month)
}

// EntryID derives the id given to a budget entry created by SetBudgetedAmount.
func EntryID(monthID, categoryID string) string {
	return "be_" + monthID + "_" + categoryID
}

// EnsureMonth returns months extended with a BudgetMonth for (year, month)
// when none exists yet, together with that month's id. Calling it again with
// the same arguments returns the slice unchanged.
func EnsureMonth(months []core.BudgetMonth, userID string, year, month int) ([]core.BudgetMonth, string) {
	for _, m := range months {
		if m.Year == year && m.Month == month {
			return months, m.ID
		}
	}
	id := MonthID(year, month)
	out := make([]core.BudgetMonth, 0, len(months)+1)
	out = append(out, months...)
	out = append(out, core.BudgetMonth{ID: id, UserID: userID, Year: year, Month: month})
	return out, id
}

// SetBudgetedAmount updates the entry for (categoryID, monthID) in place or
// appends a new one. The amount is not sign checked.
func SetBudgetedAmount(entries []core.BudgetEntry, userID, categoryID, monthID string, cents int64) []core.BudgetEntry {
	out := make([]core.BudgetEntry, len(entries), len(entries)+1)
	copy(out, entries)
	for i := range out {
		if out[i].CategoryID == categoryID && out[i].BudgetMonthID == monthID {
			out[i].BudgetedCents = cents
			return out
		}
	}
	return append(out, core.BudgetEntry{
		ID:            EntryID(monthID, categoryID),
		UserID:        userID,
		BudgetMonthID: monthID,
		CategoryID:    categoryID,
		BudgetedCents: cents,
	})
}

// BudgetedFor returns the budgeted cents for a category in a month, 0 when
// no entry exists.
func BudgetedFor(entries []core.BudgetEntry, categoryID, monthID string) int64 {
	for _, e := range entries {
		if e.CategoryID == categoryID && e.BudgetMonthID == monthID {
			return e.BudgetedCents
		}
	}
	return 0
}

// Metric holds budgeted, spent (never positive) and remaining cents.
type Metric struct {
	Budgeted  int64 `json:"budgeted"`
	Spent     int64 `json:"spent"`
	Remaining int64 `json:"remaining"`
}

// Utilization returns the progress-bar percentage for the metric.
func (m Metric) Utilization() float64 {
	return Utilization(m.Budgeted, m.Spent)
}

// CategoryMetric is the Metric of a single category.
type CategoryMetric struct {
	Category core.Category `json:"category"`
	Metric
}

// GroupMetric sums the metrics of the categories sharing a group label.
type GroupMetric struct {
	Group      string           `json:"group"`
	Categories []CategoryMetric `json:"categories"`
	Metric
}

// CategoryMetrics computes one metric per category, in category order.
// monthTxs should already be restricted to the month of monthID.
func CategoryMetrics(categories []core.Category, entries []core.BudgetEntry, monthTxs []core.Transaction, monthID string) []CategoryMetric {
	out := make([]CategoryMetric, 0, len(categories))
	for _, cat := range categories {
		budgeted := BudgetedFor(entries, cat.ID, monthID)
		spent := ledger.CategorySpend(monthTxs, cat.ID)
		out = append(out, CategoryMetric{
			Category: cat,
			Metric: Metric{
				Budgeted:  budgeted,
				Spent:     spent,
				Remaining: budgeted + spent,
			},
		})
	}
	return out
}

// GroupMetrics buckets metrics by category group in first-seen order.
func GroupMetrics(metrics []CategoryMetric) []GroupMetric {
	var groups []GroupMetric
	index := make(map[string]int)
	for _, m := range metrics {
		name := m.Category.Group
		if name == "" {
			name = UncategorizedGroup
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, GroupMetric{Group: name})
		}
		g := &groups[i]
		g.Categories = append(g.Categories, m)
		g.Budgeted += m.Budgeted
		g.Spent += m.Spent
		g.Remaining += m.Remaining
	}
	return groups
}

// Totals sums all category metrics into the month's aggregate.
func Totals(metrics []CategoryMetric) Metric {
	var t Metric
	for _, m := range metrics {
		t.Budgeted += m.Budgeted
		t.Spent += m.Spent
		t.Remaining += m.Remaining
	}
	return t
}

// Utilization is the share of the budget consumed, in percent:
// min(100, |spent|/budgeted*100) for a positive budget, 100 when there is no
// budget but some spend, 0 otherwise.
func Utilization(budgeted, spent int64) float64 {
	if budgeted > 0 {
		abs := spent
		if abs < 0 {
			abs = -abs
		}
		pct := float64(abs) / float64(budgeted) * 100
		if pct > 100 {
			return 100
		}
		return pct
	}
	if spent < 0 {
		return 100
	}
	return 0
}

// Summary is the full budget view of one month.
type Summary struct {
	MonthID    string           `json:"monthId"`
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	Categories []CategoryMetric `json:"categories"`
	Groups     []GroupMetric    `json:"groups"`
	Totals     Metric           `json:"totals"`
}

// LookupMonthID returns the id of the stored budget month for year/month, or
// the derived MonthID when it has not been created yet.
func LookupMonthID(months []core.BudgetMonth, year, month int) string {
	for _, m := range months {
		if m.Year == year && m.Month == month {
			return m.ID
		}
	}
	return MonthID(year, month)
}

// Summarize builds the Summary of year/month from all transactions.
func Summarize(months []core.BudgetMonth, categories []core.Category, entries []core.BudgetEntry, txs []core.Transaction, year, month int) Summary {
	monthID := LookupMonthID(months, year, month)
	metrics := CategoryMetrics(categories, entries, ledger.TransactionsInMonth(txs, year, month), monthID)
	return Summary{
		MonthID:    monthID,
		Year:       year,
		Month:      month,
		Categories: metrics,
		Groups:     GroupMetrics(metrics),
		Totals:     Totals(metrics),
	}
}
