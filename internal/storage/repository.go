package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"
	"fintrack/internal/state"

	_ "modernc.org/sqlite"
)

// ErrStateNotFound is returned by LoadState for a user that was never saved.
var ErrStateNotFound = errors.New("finance state not found")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// HasState reports whether a state was ever saved for userID.
func (r *SQLiteRepository) HasState(ctx context.Context, userID string) (bool, error) {
	n, err := r.queries.UserExists(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check user %s: %w", userID, err)
	}
	return n > 0, nil
}

// LoadState reads the whole state of userID, preserving the stored order of
// every collection.
func (r *SQLiteRepository) LoadState(ctx context.Context, userID string) (state.FinanceState, error) {
	exists, err := r.HasState(ctx, userID)
	if err != nil {
		return state.FinanceState{}, err
	}
	if !exists {
		return state.FinanceState{}, fmt.Errorf("user %s: %w", userID, ErrStateNotFound)
	}

	st := state.Empty(userID)

	accounts, err := r.queries.ListAccounts(ctx, userID)
	if err != nil {
		return st, fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		st.Accounts = append(st.Accounts, core.Account{
			ID:                  a.ID,
			UserID:              a.UserID,
			Name:                a.Name,
			Type:                core.AccountType(a.Type),
			Provider:            core.AccountProvider(a.Provider),
			ExternalAccountID:   a.ExternalAccountID,
			InstitutionName:     a.InstitutionName,
			CurrentBalanceCents: a.CurrentBalanceCents,
			IsClosed:            a.IsClosed != 0,
		})
	}

	categories, err := r.queries.ListCategories(ctx, userID)
	if err != nil {
		return st, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		st.Categories = append(st.Categories, core.Category{ID: c.ID, UserID: c.UserID, Name: c.Name, Group: c.CategoryGroup})
	}

	rules, err := r.queries.ListCategoryRules(ctx, userID)
	if err != nil {
		return st, fmt.Errorf("list category rules: %w", err)
	}
	for _, rule := range rules {
		st.CategoryRules = append(st.CategoryRules, core.CategoryRule{ID: rule.ID, UserID: rule.UserID, Pattern: rule.Pattern, CategoryID: rule.CategoryID})
	}

	months, err := r.queries.ListBudgetMonths(ctx, userID)
	if err != nil {
		return st, fmt.Errorf("list budget months: %w", err)
	}
	for _, m := range months {
		st.BudgetMonths = append(st.BudgetMonths, core.BudgetMonth{ID: m.ID, UserID: m.UserID, Year: int(m.Year), Month: int(m.Month)})
	}

	entries, err := r.queries.ListBudgetEntries(ctx, userID)
	if err != nil {
		return st, fmt.Errorf("list budget entries: %w", err)
	}
	for _, e := range entries {
		st.BudgetEntries = append(st.BudgetEntries, core.BudgetEntry{
			ID:            e.ID,
			UserID:        e.UserID,
			BudgetMonthID: e.BudgetMonthID,
			CategoryID:    e.CategoryID,
			BudgetedCents: e.BudgetedCents,
		})
	}

	txs, err := r.queries.ListTransactions(ctx, userID)
	if err != nil {
		return st, fmt.Errorf("list transactions: %w", err)
	}
	for _, t := range txs {
		tx := core.Transaction{
			ID:                    t.ID,
			UserID:                t.UserID,
			AccountID:             t.AccountID,
			Date:                  t.Date,
			Name:                  t.Name,
			AmountCents:           t.AmountCents,
			Notes:                 t.Notes,
			Source:                core.TransactionSource(t.Source),
			Status:                core.TransactionStatus(t.Status),
			ExternalTransactionID: t.ExternalTransactionID,
			ImportedAt:            t.ImportedAt,
		}
		if t.CategoryID.Valid {
			tx.CategoryID = core.CategoryRef(t.CategoryID.String)
		}
		st.Transactions = append(st.Transactions, tx)
	}

	goals, err := r.queries.ListGoals(ctx, userID)
	if err != nil {
		return st, fmt.Errorf("list goals: %w", err)
	}
	for _, g := range goals {
		st.Goals = append(st.Goals, core.Goal{
			ID:           g.ID,
			UserID:       g.UserID,
			Name:         g.Name,
			TargetCents:  g.TargetCents,
			CurrentCents: g.CurrentCents,
			TargetYear:   int(g.TargetYear),
		})
	}

	fc, err := r.queries.GetFireConfig(ctx, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return st, fmt.Errorf("get fire config: %w", err)
	default:
		st.FireConfig = core.FireConfig{
			CurrentPortfolioCents:     fc.CurrentPortfolioCents,
			MonthlyContributionCents:  fc.MonthlyContributionCents,
			ExpectedRealReturnPercent: fc.ExpectedRealReturnPercent,
			AnnualSpendCents:          fc.AnnualSpendCents,
			SafeWithdrawalRatePercent: fc.SafeWithdrawalRatePercent,
		}
	}

	return st, nil
}

// SaveState replaces everything stored for st.UserID with st in a single
// transaction.
func (r *SQLiteRepository) SaveState(ctx context.Context, st state.FinanceState) error {
	if st.UserID == "" {
		return state.ErrEmptyUserID
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := writeState(ctx, r.queries.WithTx(tx), st); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.DebugContext(ctx, "Finance state saved to SQLite",
		"user_id", st.UserID,
		"accounts", len(st.Accounts),
		"transactions", len(st.Transactions))
	return nil
}

func writeState(ctx context.Context, q *Queries, st state.FinanceState) error {
	userID := st.UserID
	if err := q.UpsertUser(ctx, userID); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	deletes := []struct {
		name string
		fn   func(context.Context, string) error
	}{
		{"accounts", q.DeleteAccountsByUser},
		{"categories", q.DeleteCategoriesByUser},
		{"category rules", q.DeleteCategoryRulesByUser},
		{"budget months", q.DeleteBudgetMonthsByUser},
		{"budget entries", q.DeleteBudgetEntriesByUser},
		{"transactions", q.DeleteTransactionsByUser},
		{"goals", q.DeleteGoalsByUser},
	}
	for _, d := range deletes {
		if err := d.fn(ctx, userID); err != nil {
			return fmt.Errorf("delete %s: %w", d.name, err)
		}
	}

	for i, a := range st.Accounts {
		closed := int64(0)
		if a.IsClosed {
			closed = 1
		}
		if err := q.CreateAccount(ctx, CreateAccountParams{
			UserID:              userID,
			ID:                  a.ID,
			Position:            int64(i),
			Name:                a.Name,
			Type:                string(a.Type),
			Provider:            string(a.Provider),
			ExternalAccountID:   a.ExternalAccountID,
			InstitutionName:     a.InstitutionName,
			CurrentBalanceCents: a.CurrentBalanceCents,
			IsClosed:            closed,
		}); err != nil {
			return fmt.Errorf("create account %s: %w", a.ID, err)
		}
	}

	for i, c := range st.Categories {
		if err := q.CreateCategory(ctx, CreateCategoryParams{
			UserID:        userID,
			ID:            c.ID,
			Position:      int64(i),
			Name:          c.Name,
			CategoryGroup: c.Group,
		}); err != nil {
			return fmt.Errorf("create category %s: %w", c.ID, err)
		}
	}

	for i, rule := range st.CategoryRules {
		if err := q.CreateCategoryRule(ctx, CreateCategoryRuleParams{
			UserID:     userID,
			ID:         rule.ID,
			Position:   int64(i),
			Pattern:    rule.Pattern,
			CategoryID: rule.CategoryID,
		}); err != nil {
			return fmt.Errorf("create category rule %s: %w", rule.ID, err)
		}
	}

	for i, m := range st.BudgetMonths {
		if err := q.CreateBudgetMonth(ctx, CreateBudgetMonthParams{
			UserID:   userID,
			ID:       m.ID,
			Position: int64(i),
			Year:     int64(m.Year),
			Month:    int64(m.Month),
		}); err != nil {
			return fmt.Errorf("create budget month %s: %w", m.ID, err)
		}
	}

	for i, e := range st.BudgetEntries {
		if err := q.CreateBudgetEntry(ctx, CreateBudgetEntryParams{
			UserID:        userID,
			ID:            e.ID,
			Position:      int64(i),
			BudgetMonthID: e.BudgetMonthID,
			CategoryID:    e.CategoryID,
			BudgetedCents: e.BudgetedCents,
		}); err != nil {
			return fmt.Errorf("create budget entry %s: %w", e.ID, err)
		}
	}

	for i, t := range st.Transactions {
		var category sql.NullString
		if t.HasCategory() {
			category = sql.NullString{String: *t.CategoryID, Valid: true}
		}
		if err := q.CreateTransaction(ctx, CreateTransactionParams{
			UserID:                userID,
			ID:                    t.ID,
			Position:              int64(i),
			AccountID:             t.AccountID,
			Date:                  t.Date,
			Name:                  t.Name,
			AmountCents:           t.AmountCents,
			CategoryID:            category,
			Notes:                 t.Notes,
			Source:                string(t.Source),
			Status:                string(t.Status),
			ExternalTransactionID: t.ExternalTransactionID,
			ImportedAt:            t.ImportedAt,
		}); err != nil {
			return fmt.Errorf("create transaction %s: %w", t.ID, err)
		}
	}

	for i, g := range st.Goals {
		if err := q.CreateGoal(ctx, CreateGoalParams{
			UserID:       userID,
			ID:           g.ID,
			Position:     int64(i),
			Name:         g.Name,
			TargetCents:  g.TargetCents,
			CurrentCents: g.CurrentCents,
			TargetYear:   int64(g.TargetYear),
		}); err != nil {
			return fmt.Errorf("create goal %s: %w", g.ID, err)
		}
	}

	fc := st.FireConfig
	if err := q.UpsertFireConfig(ctx, UpsertFireConfigParams{
		UserID:                    userID,
		CurrentPortfolioCents:     fc.CurrentPortfolioCents,
		MonthlyContributionCents:  fc.MonthlyContributionCents,
		ExpectedRealReturnPercent: fc.ExpectedRealReturnPercent,
		AnnualSpendCents:          fc.AnnualSpendCents,
		SafeWithdrawalRatePercent: fc.SafeWithdrawalRatePercent,
	}); err != nil {
		return fmt.Errorf("upsert fire config: %w", err)
	}
	return nil
}
