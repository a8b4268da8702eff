// Package categorize assigns categories to transactions by ordered substring
// rules and merges imported transaction batches.
package categorize

import (
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Categorize returns tx with CategoryID set from the first rule, in list
// order, whose pattern occurs in the transaction name (case-insensitive).
// A transaction that already has a category is returned unchanged, as is one
// that no rule matches. Rule order wins over match specificity.
func Categorize(tx core.Transaction, rules []core.CategoryRule) core.Transaction {
	if tx.HasCategory() {
		return tx
	}
	name := strings.ToLower(tx.Name)
	for _, rule := range rules {
		if strings.Contains(name, strings.ToLower(rule.Pattern)) {
			tx.CategoryID = core.CategoryRef(rule.CategoryID)
			return tx
		}
	}
	return tx
}

// ImportResult is the outcome of merging an imported batch.
type ImportResult struct {
	Transactions []core.Transaction
	Added        int
	Skipped      int
}

// Import merges incoming into existing. Records whose non-empty external id
// or whose id is already present, in existing or earlier in incoming, are
// skipped; the rest are categorized with rules and appended. The merged slice
// is ordered newest first. Neither input slice is modified.
func Import(existing, incoming []core.Transaction, rules []core.CategoryRule) ImportResult {
	seenExt := make(map[string]struct{}, len(existing)+len(incoming))
	seenID := make(map[string]struct{}, len(existing)+len(incoming))
	for _, tx := range existing {
		if tx.ExternalTransactionID != "" {
			seenExt[tx.ExternalTransactionID] = struct{}{}
		}
		seenID[tx.ID] = struct{}{}
	}

	merged := make([]core.Transaction, 0, len(existing)+len(incoming))
	merged = append(merged, existing...)

	var res ImportResult
	for _, tx := range incoming {
		if _, dup := seenID[tx.ID]; dup {
			res.Skipped++
			continue
		}
		if ext := tx.ExternalTransactionID; ext != "" {
			if _, dup := seenExt[ext]; dup {
				res.Skipped++
				continue
			}
			seenExt[ext] = struct{}{}
		}
		seenID[tx.ID] = struct{}{}
		merged = append(merged, Categorize(tx, rules))
		res.Added++
	}

	res.Transactions = ledger.SortByDateDesc(merged)
	return res
}
