// Package state holds the per-user finance aggregate and the reducers that
// derive a new aggregate from an old one. Reducers never modify their input.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/categorize"
	"fintrack/internal/core"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrEmptyUserID = errors.New("empty user id")
	ErrDuplicateID = errors.New("duplicate id")
)

// FinanceState is everything known about one user.
type FinanceState struct {
	UserID        string              `json:"userId"`
	Accounts      []core.Account      `json:"accounts"`
	Categories    []core.Category     `json:"categories"`
	CategoryRules []core.CategoryRule `json:"categoryRules"`
	BudgetMonths  []core.BudgetMonth  `json:"budgetMonths"`
	BudgetEntries []core.BudgetEntry  `json:"budgetEntries"`
	Transactions  []core.Transaction  `json:"transactions"`
	Goals         []core.Goal         `json:"goals"`
	FireConfig    core.FireConfig     `json:"fireConfig"`
}

// Empty returns a state for userID with no records and a zero FIRE config.
func Empty(userID string) FinanceState {
	return FinanceState{
		UserID:        userID,
		Accounts:      []core.Account{},
		Categories:    []core.Category{},
		CategoryRules: []core.CategoryRule{},
		BudgetMonths:  []core.BudgetMonth{},
		BudgetEntries: []core.BudgetEntry{},
		Transactions:  []core.Transaction{},
		Goals:         []core.Goal{},
	}
}

// Default returns the demo state a new user starts with. The two demo
// transactions are dated today.
func Default(userID string, today time.Time) FinanceState {
	date := today.Format(core.DateLayout)
	monthID := budget.MonthID(2024, 5)

	return FinanceState{
		UserID: userID,
		Accounts: []core.Account{
			{ID: "acc_1", UserID: userID, Name: "Main Checking", Type: core.Checking, Provider: core.ProviderManual, CurrentBalanceCents: 241458},
			{ID: "acc_2", UserID: userID, Name: "High Yield Savings", Type: core.Savings, Provider: core.ProviderManual, CurrentBalanceCents: 1000000},
			{ID: "acc_3", UserID: userID, Name: "Chase Sapphire", Type: core.Credit, Provider: core.ProviderManual, CurrentBalanceCents: -15000},
		},
		Categories: []core.Category{
			{ID: "cat_1", UserID: userID, Name: "Groceries", Group: "Living"},
			{ID: "cat_2", UserID: userID, Name: "Rent/Mortgage", Group: "Living"},
			{ID: "cat_3", UserID: userID, Name: "Dining Out", Group: "Discretionary"},
			{ID: "cat_4", UserID: userID, Name: "Transport", Group: "Living"},
			{ID: "cat_5", UserID: userID, Name: "General Savings", Group: "Savings"},
		},
		CategoryRules: []core.CategoryRule{
			{ID: "rule_1", UserID: userID, Pattern: "Trader Joes", CategoryID: "cat_1"},
			{ID: "rule_2", UserID: userID, Pattern: "Coffee", CategoryID: "cat_3"},
		},
		BudgetMonths: []core.BudgetMonth{
			{ID: monthID, UserID: userID, Year: 2024, Month: 5},
		},
		BudgetEntries: []core.BudgetEntry{
			{ID: "be_1", UserID: userID, BudgetMonthID: monthID, CategoryID: "cat_1", BudgetedCents: 60000},
			{ID: "be_2", UserID: userID, BudgetMonthID: monthID, CategoryID: "cat_2", BudgetedCents: 200000},
			{ID: "be_3", UserID: userID, BudgetMonthID: monthID, CategoryID: "cat_3", BudgetedCents: 20000},
		},
		Transactions: []core.Transaction{
			{ID: "tx_1", UserID: userID, AccountID: "acc_1", Date: date, Name: "Trader Joes", AmountCents: -8542,
				CategoryID: core.CategoryRef("cat_1"), Source: core.SourceManual, Status: core.StatusPosted},
			{ID: "tx_2", UserID: userID, AccountID: "acc_1", Date: date, Name: "Local Coffee Shop", AmountCents: -1250,
				CategoryID: core.CategoryRef("cat_3"), Source: core.SourceManual, Status: core.StatusPosted},
		},
		Goals: []core.Goal{
			{ID: "goal_1", UserID: userID, Name: "New Laptop", TargetCents: 200000, CurrentCents: 50000},
		},
		FireConfig: core.FireConfig{
			CurrentPortfolioCents:     5000000,
			MonthlyContributionCents:  100000,
			ExpectedRealReturnPercent: 7,
			AnnualSpendCents:          4000000,
			SafeWithdrawalRatePercent: 4,
		},
	}
}

// UpsertAccount replaces the account with the same id or appends it.
func UpsertAccount(st FinanceState, acc core.Account) (FinanceState, error) {
	acc.UserID = st.UserID
	if err := acc.Validate(); err != nil {
		return st, fmt.Errorf("validate account: %w", err)
	}
	accounts := make([]core.Account, len(st.Accounts), len(st.Accounts)+1)
	copy(accounts, st.Accounts)
	for i := range accounts {
		if accounts[i].ID == acc.ID {
			accounts[i] = acc
			st.Accounts = accounts
			return st, nil
		}
	}
	st.Accounts = append(accounts, acc)
	return st, nil
}

// AddManualTransaction records a manually entered transaction. It is marked
// manual and posted, categorized with the state's rules, put first in the
// list, and its amount is added to the owning account's balance.
func AddManualTransaction(st FinanceState, tx core.Transaction) (FinanceState, core.Transaction, error) {
	tx.UserID = st.UserID
	tx.Source = core.SourceManual
	tx.Status = core.StatusPosted
	tx.ImportedAt = ""
	if err := tx.Validate(); err != nil {
		return st, core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}
	if hasID(st.Transactions, tx.ID, transactionID) {
		return st, core.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, ErrDuplicateID)
	}

	tx = categorize.Categorize(tx, st.CategoryRules)

	txs := make([]core.Transaction, 0, len(st.Transactions)+1)
	txs = append(txs, tx)
	st.Transactions = append(txs, st.Transactions...)
	st.Accounts = adjustBalance(st.Accounts, tx.AccountID, tx.AmountCents)
	return st, tx, nil
}

// TransactionPatch is a partial transaction update; nil fields are kept.
// A CategoryID pointing at "" clears the category.
type TransactionPatch struct {
	Date        *string                 `json:"date,omitempty"`
	Name        *string                 `json:"name,omitempty"`
	AmountCents *int64                  `json:"amountCents,omitempty"`
	CategoryID  *string                 `json:"categoryId,omitempty"`
	Notes       *string                 `json:"notes,omitempty"`
	Status      *core.TransactionStatus `json:"status,omitempty"`
}

// UpdateTransaction applies patch to the transaction with id. When the
// amount changes on a manual transaction the difference is applied to its
// account; imported transactions never touch balances.
func UpdateTransaction(st FinanceState, id string, patch TransactionPatch) (FinanceState, core.Transaction, error) {
	idx := -1
	for i := range st.Transactions {
		if st.Transactions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return st, core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}

	old := st.Transactions[idx]
	updated := old
	if patch.Date != nil {
		updated.Date = *patch.Date
	}
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.AmountCents != nil {
		updated.AmountCents = *patch.AmountCents
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID == "" {
			updated.CategoryID = nil
		} else {
			updated.CategoryID = core.CategoryRef(*patch.CategoryID)
		}
	}
	if patch.Notes != nil {
		updated.Notes = *patch.Notes
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}
	if err := updated.Validate(); err != nil {
		return st, core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	txs := make([]core.Transaction, len(st.Transactions))
	copy(txs, st.Transactions)
	txs[idx] = updated
	st.Transactions = txs

	if diff := updated.AmountCents - old.AmountCents; diff != 0 && old.Source == core.SourceManual {
		st.Accounts = adjustBalance(st.Accounts, old.AccountID, diff)
	}
	return st, updated, nil
}

// ImportTransactions merges an imported batch, skipping records whose
// external id or id is already known.
func ImportTransactions(st FinanceState, incoming []core.Transaction) (FinanceState, categorize.ImportResult, error) {
	prepared := make([]core.Transaction, 0, len(incoming))
	for _, tx := range incoming {
		tx.UserID = st.UserID
		if tx.Source == "" {
			tx.Source = core.SourceImported
		}
		if tx.Status == "" {
			tx.Status = core.StatusPosted
		}
		if err := tx.Validate(); err != nil {
			return st, categorize.ImportResult{}, fmt.Errorf("validate imported transaction %s: %w", tx.ID, err)
		}
		prepared = append(prepared, tx)
	}

	res := categorize.Import(st.Transactions, prepared, st.CategoryRules)
	st.Transactions = res.Transactions
	return st, res, nil
}

// AddCategory appends a category.
func AddCategory(st FinanceState, cat core.Category) (FinanceState, error) {
	cat.UserID = st.UserID
	if err := cat.Validate(); err != nil {
		return st, fmt.Errorf("validate category: %w", err)
	}
	if hasID(st.Categories, cat.ID, categoryID) {
		return st, fmt.Errorf("category %s: %w", cat.ID, ErrDuplicateID)
	}
	st.Categories = appendCopy(st.Categories, cat)
	return st, nil
}

// AddCategoryRule appends a rule. Rules are evaluated in insertion order.
func AddCategoryRule(st FinanceState, rule core.CategoryRule) (FinanceState, error) {
	rule.UserID = st.UserID
	if err := rule.Validate(); err != nil {
		return st, fmt.Errorf("validate category rule: %w", err)
	}
	if hasID(st.CategoryRules, rule.ID, ruleID) {
		return st, fmt.Errorf("category rule %s: %w", rule.ID, ErrDuplicateID)
	}
	if !hasCategory(st.Categories, rule.CategoryID) {
		return st, fmt.Errorf("category %s: %w", rule.CategoryID, ErrNotFound)
	}
	st.CategoryRules = appendCopy(st.CategoryRules, rule)
	return st, nil
}

// AddGoal appends a savings goal.
func AddGoal(st FinanceState, goal core.Goal) (FinanceState, error) {
	goal.UserID = st.UserID
	if err := goal.Validate(); err != nil {
		return st, fmt.Errorf("validate goal: %w", err)
	}
	if hasID(st.Goals, goal.ID, goalID) {
		return st, fmt.Errorf("goal %s: %w", goal.ID, ErrDuplicateID)
	}
	st.Goals = appendCopy(st.Goals, goal)
	return st, nil
}

// UpdateFireConfig merges patch into the FIRE configuration.
func UpdateFireConfig(st FinanceState, patch core.FireConfigPatch) FinanceState {
	st.FireConfig = st.FireConfig.Merge(patch)
	return st
}

// EnsureBudgetMonth makes sure a budget month exists for year/month and
// returns its id.
func EnsureBudgetMonth(st FinanceState, year, month int) (FinanceState, string, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return st, "", err
	}
	months, id := budget.EnsureMonth(st.BudgetMonths, st.UserID, year, month)
	st.BudgetMonths = months
	return st, id, nil
}

// SetBudgetedAmount sets the budget of a category for year/month, creating
// the budget month when needed.
func SetBudgetedAmount(st FinanceState, categoryID string, year, month int, cents int64) (FinanceState, error) {
	if categoryID == "" {
		return st, core.ErrEmptyCategory
	}
	if !hasCategory(st.Categories, categoryID) {
		return st, fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
	}
	st, monthID, err := EnsureBudgetMonth(st, year, month)
	if err != nil {
		return st, err
	}
	st.BudgetEntries = budget.SetBudgetedAmount(st.BudgetEntries, st.UserID, categoryID, monthID, cents)
	return st, nil
}

// ExportJSON renders st as an indented JSON backup.
func ExportJSON(st FinanceState) ([]byte, error) {
	data, err := json.MarshalIndent(normalize(st), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

// ImportJSON parses a backup produced by ExportJSON. A backup that repeats
// a record id, a budget month or a month's category entry is rejected.
func ImportJSON(data []byte) (FinanceState, error) {
	var st FinanceState
	if err := json.Unmarshal(data, &st); err != nil {
		return FinanceState{}, fmt.Errorf("unmarshal state: %w", err)
	}
	if st.UserID == "" {
		return FinanceState{}, ErrEmptyUserID
	}
	if err := checkUnique(st); err != nil {
		return FinanceState{}, err
	}
	return normalize(st), nil
}

// checkUnique reports the first key that appears twice in a collection.
func checkUnique(st FinanceState) error {
	checks := []struct {
		collection string
		keys       []string
	}{
		{"account", keysOf(st.Accounts, func(a core.Account) string { return a.ID })},
		{"category", keysOf(st.Categories, categoryID)},
		{"category rule", keysOf(st.CategoryRules, ruleID)},
		{"budget month", keysOf(st.BudgetMonths, func(m core.BudgetMonth) string { return m.ID })},
		{"budget month", keysOf(st.BudgetMonths, func(m core.BudgetMonth) string { return fmt.Sprintf("%d-%02d", m.Year, m.Month) })},
		{"budget entry", keysOf(st.BudgetEntries, func(e core.BudgetEntry) string { return e.ID })},
		{"budget entry", keysOf(st.BudgetEntries, func(e core.BudgetEntry) string { return e.BudgetMonthID + "/" + e.CategoryID })},
		{"transaction", keysOf(st.Transactions, transactionID)},
		{"goal", keysOf(st.Goals, goalID)},
	}
	for _, c := range checks {
		seen := make(map[string]struct{}, len(c.keys))
		for _, k := range c.keys {
			if _, dup := seen[k]; dup {
				return fmt.Errorf("%s %s: %w", c.collection, k, ErrDuplicateID)
			}
			seen[k] = struct{}{}
		}
	}
	return nil
}

func keysOf[T any](items []T, key func(T) string) []string {
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = key(item)
	}
	return keys
}

// normalize replaces nil slices with empty ones so that JSON output always
// carries arrays.
func normalize(st FinanceState) FinanceState {
	if st.Accounts == nil {
		st.Accounts = []core.Account{}
	}
	if st.Categories == nil {
		st.Categories = []core.Category{}
	}
	if st.CategoryRules == nil {
		st.CategoryRules = []core.CategoryRule{}
	}
	if st.BudgetMonths == nil {
		st.BudgetMonths = []core.BudgetMonth{}
	}
	if st.BudgetEntries == nil {
		st.BudgetEntries = []core.BudgetEntry{}
	}
	if st.Transactions == nil {
		st.Transactions = []core.Transaction{}
	}
	if st.Goals == nil {
		st.Goals = []core.Goal{}
	}
	return st
}

// adjustBalance returns a copy of accounts with delta added to accountID.
// An unknown account leaves balances unchanged.
func adjustBalance(accounts []core.Account, accountID string, delta int64) []core.Account {
	out := make([]core.Account, len(accounts))
	copy(out, accounts)
	for i := range out {
		if out[i].ID == accountID {
			out[i].CurrentBalanceCents += delta
		}
	}
	return out
}

func appendCopy[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, item)
}

func hasCategory(categories []core.Category, id string) bool {
	return hasID(categories, id, categoryID)
}

func hasID[T any](items []T, id string, key func(T) string) bool {
	for _, item := range items {
		if key(item) == id {
			return true
		}
	}
	return false
}

func categoryID(c core.Category) string { return c.ID }
func ruleID(r core.CategoryRule) string { return r.ID }
func goalID(g core.Goal) string { return g.ID }
func transactionID(t core.Transaction) string { return t.ID }
