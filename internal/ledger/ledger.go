// Package ledger aggregates accounts and transactions into derived totals:
// net worth, per-month transaction sets and category spend.
package ledger

import (
	"fmt"
	"sort"
	"strings"

	"fintrack/internal/core"
)

// NetWorthSummary splits account balances into assets and liabilities.
type NetWorthSummary struct {
	Assets      int64 `json:"assets"`
	Liabilities int64 `json:"liabilities"`
	NetWorth    int64 `json:"netWorth"`
}

// NetWorth classifies each account by the sign of its balance, not its type:
// a credit account with a positive balance counts as an asset.
func NetWorth(accounts []core.Account) NetWorthSummary {
	var s NetWorthSummary
	for _, acc := range accounts {
		if acc.CurrentBalanceCents >= 0 {
			s.Assets += acc.CurrentBalanceCents
		} else {
			s.Liabilities += -acc.CurrentBalanceCents
		}
	}
	s.NetWorth = s.Assets - s.Liabilities
	return s
}

// MonthPrefix returns the "YYYY-MM" date prefix for a year and month.
func MonthPrefix(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// TransactionsInMonth returns the transactions dated within year/month,
// keeping their input order.
func TransactionsInMonth(txs []core.Transaction, year, month int) []core.Transaction {
	prefix := MonthPrefix(year, month)
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if strings.HasPrefix(tx.Date, prefix) {
			out = append(out, tx)
		}
	}
	return out
}

// CategorySpend sums the expenses (strictly negative amounts) booked to
// categoryID. The result is never positive; income is excluded.
func CategorySpend(txs []core.Transaction, categoryID string) int64 {
	var sum int64
	for _, tx := range txs {
		if tx.CategoryID == nil || *tx.CategoryID != categoryID {
			continue
		}
		if tx.AmountCents < 0 {
			sum += tx.AmountCents
		}
	}
	return sum
}

// SpendingItem is one row of the top-spending list.
type SpendingItem struct {
	Name   string `json:"name"`
	Spent  int64  `json:"spent"`
	Budget int64  `json:"budget"`
}

// TopSpending ranks the categories of monthTxs by outflow, most negative
// first, and returns at most limit rows. Budget holds the category's budgeted
// cents for monthID. Transactions without a known category are skipped.
func TopSpending(monthTxs []core.Transaction, categories []core.Category, entries []core.BudgetEntry, monthID string, limit int) []SpendingItem {
	byID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	budgets := make(map[string]int64)
	for _, e := range entries {
		if e.BudgetMonthID == monthID {
			budgets[e.CategoryID] = e.BudgetedCents
		}
	}

	var order []string
	rows := make(map[string]*SpendingItem)
	for _, tx := range monthTxs {
		if tx.AmountCents >= 0 || !tx.HasCategory() {
			continue
		}
		cat, ok := byID[*tx.CategoryID]
		if !ok {
			continue
		}
		row, seen := rows[cat.Name]
		if !seen {
			row = &SpendingItem{Name: cat.Name}
			rows[cat.Name] = row
			order = append(order, cat.Name)
		}
		row.Spent += tx.AmountCents
		row.Budget = budgets[cat.ID]
	}

	out := make([]SpendingItem, 0, len(order))
	for _, name := range order {
		out = append(out, *rows[name])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Spent < out[j].Spent })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SortByDateDesc returns a copy of txs ordered newest first. Equal dates keep
// their relative order.
func SortByDateDesc(txs []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// RecentTransactions returns the limit newest transactions.
func RecentTransactions(txs []core.Transaction, limit int) []core.Transaction {
	out := SortByDateDesc(txs)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
