package storage

import (
	"context"
	"database/sql"
)

const upsertUser = `-- name: UpsertUser :exec
INSERT INTO users (id) VALUES (?)
ON CONFLICT (id) DO UPDATE SET updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
`

func (q *Queries) UpsertUser(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, upsertUser, id)
	return err
}

const userExists = `-- name: UserExists :one
SELECT COUNT(*) FROM users WHERE id = ?
`

func (q *Queries) UserExists(ctx context.Context, id string) (int64, error) {
	row := q.db.QueryRowContext(ctx, userExists, id)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteAccountsByUser = `-- name: DeleteAccountsByUser :exec
DELETE FROM accounts WHERE user_id = ?
`

func (q *Queries) DeleteAccountsByUser(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteAccountsByUser, userID)
	return err
}

const createAccount = `-- name: CreateAccount :exec
INSERT INTO accounts (
    user_id, id, position, name, type, provider, external_account_id,
    institution_name, current_balance_cents, is_closed
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateAccountParams struct {
	UserID              string
	ID                  string
	Position            int64
	Name                string
	Type                string
	Provider            string
	ExternalAccountID   string
	InstitutionName     string
	CurrentBalanceCents int64
	IsClosed            int64
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.ExecContext(ctx, createAccount,
		arg.UserID,
		arg.ID,
		arg.Position,
		arg.Name,
		arg.Type,
		arg.Provider,
		arg.ExternalAccountID,
		arg.InstitutionName,
		arg.CurrentBalanceCents,
		arg.IsClosed,
	)
	return err
}

const listAccounts = `-- name: ListAccounts :many
SELECT user_id, id, position, name, type, provider, external_account_id,
       institution_name, current_balance_cents, is_closed
FROM accounts WHERE user_id = ? ORDER BY position
`

func (q *Queries) ListAccounts(ctx context.Context, userID string) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.UserID,
			&i.ID,
			&i.Position,
			&i.Name,
			&i.Type,
			&i.Provider,
			&i.ExternalAccountID,
			&i.InstitutionName,
			&i.CurrentBalanceCents,
			&i.IsClosed,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteCategoriesByUser = `-- name: DeleteCategoriesByUser :exec
DELETE FROM categories WHERE user_id = ?
`

func (q *Queries) DeleteCategoriesByUser(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteCategoriesByUser, userID)
	return err
}

const createCategory = `-- name: CreateCategory :exec
INSERT INTO categories (user_id, id, position, name, category_group) VALUES (?, ?, ?, ?, ?)
`

type CreateCategoryParams struct {
	UserID        string
	ID            string
	Position      int64
	Name          string
	CategoryGroup string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) error {
	_, err := q.db.ExecContext(ctx, createCategory,
		arg.UserID,
		arg.ID,
		arg.Position,
		arg.Name,
		arg.CategoryGroup,
	)
	return err
}

const listCategories = `-- name: ListCategories :many
SELECT user_id, id, position, name, category_group
FROM categories WHERE user_id = ? ORDER BY position
`

func (q *Queries) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(
			&i.UserID,
			&i.ID,
			&i.Position,
			&i.Name,
			&i.CategoryGroup,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteCategoryRulesByUser = `-- name: DeleteCategoryRulesByUser :exec
DELETE FROM category_rules WHERE user_id = ?
`

func (q *Queries) DeleteCategoryRulesByUser(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteCategoryRulesByUser, userID)
	return err
}

const createCategoryRule = `-- name: CreateCategoryRule :exec
INSERT INTO category_rules (user_id, id, position, pattern, category_id) VALUES (?, ?, ?, ?, ?)
`

type CreateCategoryRuleParams struct {
	UserID     string
	ID         string
	Position   int64
	Pattern    string
	CategoryID string
}

func (q *Queries) CreateCategoryRule(ctx context.Context, arg CreateCategoryRuleParams) error {
	_, err := q.db.ExecContext(ctx, createCategoryRule,
		arg.UserID,
		arg.ID,
		arg.Position,
		arg.Pattern,
		arg.CategoryID,
	)
	return err
}

const listCategoryRules = `-- name: ListCategoryRules :many
SELECT user_id, id, position, pattern, category_id
FROM category_rules WHERE user_id = ? ORDER BY position
`

func (q *Queries) ListCategoryRules(ctx context.Context, userID string) ([]CategoryRule, error) {
	rows, err := q.db.QueryContext(ctx, listCategoryRules, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRule
	for rows.Next() {
		var i CategoryRule
		if err := rows.Scan(
			&i.UserID,
			&i.ID,
			&i.Position,
			&i.Pattern,
			&i.CategoryID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteBudgetMonthsByUser = `-- name: DeleteBudgetMonthsByUser :exec
DELETE FROM budget_months WHERE user_id = ?
`

func (q *Queries) DeleteBudgetMonthsByUser(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteBudgetMonthsByUser, userID)
	return err
}

const createBudgetMonth = `-- name: CreateBudgetMonth :exec
INSERT INTO budget_months (user_id, id, position, year, month) VALUES (?, ?, ?, ?, ?)
`

type CreateBudgetMonthParams struct {
	UserID   string
	ID       string
	Position int64
	Year     int64
	Month    int64
}

func (q *Queries) CreateBudgetMonth(ctx context.Context, arg CreateBudgetMonthParams) error {
	_, err := q.db.ExecContext(ctx, createBudgetMonth,
		arg.UserID,
		arg.ID,
		arg.Position,
		arg.Year,
		arg.Month,
	)
	return err
}

const listBudgetMonths = `-- name: ListBudgetMonths :many
SELECT user_id, id, position, year, month
FROM budget_months WHERE user_id = ? ORDER BY position
`

func (q *Queries) ListBudgetMonths(ctx context.Context, userID string) ([]BudgetMonth, error) {
	rows, err := q.db.QueryContext(ctx, listBudgetMonths, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetMonth
	for rows.Next() {
		var i BudgetMonth
		if err := rows.Scan(
			&i.UserID,
			&i.ID,
			&i.Position,
			&i.Year,
			&i.Month,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteBudgetEntriesByUser = `-- name: DeleteBudgetEntriesByUser :exec
DELETE FROM budget_entries WHERE user_id = ?
`

func (q *Queries) DeleteBudgetEntriesByUser(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteBudgetEntriesByUser, userID)
	return err
}

const createBudgetEntry = `-- name: CreateBudgetEntry :exec
INSERT INTO budget_entries (user_id, id, position, budget_month_id, category_id, budgeted_cents)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateBudgetEntryParams struct {
	UserID        string
	ID            string
	Position      int64
	BudgetMonthID string
	CategoryID    string
	BudgetedCents int64
}

func (q *Queries) CreateBudgetEntry(ctx context.Context, arg CreateBudgetEntryParams) error {
	_, err := q.db.ExecContext(ctx, createBudgetEntry,
		arg.UserID,
		arg.ID,
		arg.Position,
		arg.BudgetMonthID,
		arg.CategoryID,
		arg.BudgetedCents,
	)
	return err
}

const listBudgetEntries = `-- name: ListBudgetEntries :many
SELECT user_id, id, position, budget_month_id, category_id, budgeted_cents
FROM budget_entries WHERE user_id = ? ORDER BY position
`

func (q *Queries) ListBudgetEntries(ctx context.Context, userID string) ([]BudgetEntry, error) {
	rows, err := q.db.QueryContext(ctx, listBudgetEntries, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetEntry
	for rows.Next() {
		var i BudgetEntry
		if err := rows.Scan(
			&i.UserID,
			&i.ID,
			&i.Position,
			&i.BudgetMonthID,
			&i.CategoryID,
			&i.BudgetedCents,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTransactionsByUser = `-- name: DeleteTransactionsByUser :exec
DELETE FROM transactions WHERE user_id = ?
`

func (q *Queries) DeleteTransactionsByUser(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteTransactionsByUser, userID)
	return err
}

const createTransaction = `-- name: CreateTransaction :exec
INSERT INTO transactions (
    user_id, id, position, account_id, date, name, amount_cents, category_id,
    notes, source, status, external_transaction_id, imported_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateTransactionParams struct {
	UserID                string
	ID                    string
	Position              int64
	AccountID             string
	Date                  string
	Name                  string
	AmountCents           int64
	CategoryID            sql.NullString
	Notes                 string
	Source                string
	Status                string
	ExternalTransactionID string
	ImportedAt            string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.UserID,
		arg.ID,
		arg.Position,
		arg.AccountID,
		arg.Date,
		arg.Name,
		arg.AmountCents,
		arg.CategoryID,
		arg.Notes,
		arg.Source,
		arg.Status,
		arg.ExternalTransactionID,
		arg.ImportedAt,
	)
	return err
}

const listTransactions = `-- name: ListTransactions :many
SELECT user_id, id, position, account_id, date, name, amount_cents, category_id,
       notes, source, status, external_transaction_id, imported_at
FROM transactions WHERE user_id = ? ORDER BY position
`

func (q *Queries) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.UserID,
			&i.ID,
			&i.Position,
			&i.AccountID,
			&i.Date,
			&i.Name,
			&i.AmountCents,
			&i.CategoryID,
			&i.Notes,
			&i.Source,
			&i.Status,
			&i.ExternalTransactionID,
			&i.ImportedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteGoalsByUser = `-- name: DeleteGoalsByUser :exec
DELETE FROM goals WHERE user_id = ?
`

func (q *Queries) DeleteGoalsByUser(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteGoalsByUser, userID)
	return err
}

const createGoal = `-- name: CreateGoal :exec
INSERT INTO goals (user_id, id, position, name, target_cents, current_cents, target_year)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateGoalParams struct {
	UserID       string
	ID           string
	Position     int64
	Name         string
	TargetCents  int64
	CurrentCents int64
	TargetYear   int64
}

func (q *Queries) CreateGoal(ctx context.Context, arg CreateGoalParams) error {
	_, err := q.db.ExecContext(ctx, createGoal,
		arg.UserID,
		arg.ID,
		arg.Position,
		arg.Name,
		arg.TargetCents,
		arg.CurrentCents,
		arg.TargetYear,
	)
	return err
}

const listGoals = `-- name: ListGoals :many
SELECT user_id, id, position, name, target_cents, current_cents, target_year
FROM goals WHERE user_id = ? ORDER BY position
`

func (q *Queries) ListGoals(ctx context.Context, userID string) ([]Goal, error) {
	rows, err := q.db.QueryContext(ctx, listGoals, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Goal
	for rows.Next() {
		var i Goal
		if err := rows.Scan(
			&i.UserID,
			&i.ID,
			&i.Position,
			&i.Name,
			&i.TargetCents,
			&i.CurrentCents,
			&i.TargetYear,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertFireConfig = `-- name: UpsertFireConfig :exec
INSERT INTO fire_configs (
    user_id, current_portfolio_cents, monthly_contribution_cents,
    expected_real_return_percent, annual_spend_cents, safe_withdrawal_rate_percent
) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    current_portfolio_cents = excluded.current_portfolio_cents,
    monthly_contribution_cents = excluded.monthly_contribution_cents,
    expected_real_return_percent = excluded.expected_real_return_percent,
    annual_spend_cents = excluded.annual_spend_cents,
    safe_withdrawal_rate_percent = excluded.safe_withdrawal_rate_percent
`

type UpsertFireConfigParams struct {
	UserID                    string
	CurrentPortfolioCents     int64
	MonthlyContributionCents  int64
	ExpectedRealReturnPercent float64
	AnnualSpendCents          int64
	SafeWithdrawalRatePercent float64
}

func (q *Queries) UpsertFireConfig(ctx context.Context, arg UpsertFireConfigParams) error {
	_, err := q.db.ExecContext(ctx, upsertFireConfig,
		arg.UserID,
		arg.CurrentPortfolioCents,
		arg.MonthlyContributionCents,
		arg.ExpectedRealReturnPercent,
		arg.AnnualSpendCents,
		arg.SafeWithdrawalRatePercent,
	)
	return err
}

const getFireConfig = `-- name: GetFireConfig :one
SELECT user_id, current_portfolio_cents, monthly_contribution_cents,
       expected_real_return_percent, annual_spend_cents, safe_withdrawal_rate_percent
FROM fire_configs WHERE user_id = ?
`

func (q *Queries) GetFireConfig(ctx context.Context, userID string) (FireConfig, error) {
	row := q.db.QueryRowContext(ctx, getFireConfig, userID)
	var i FireConfig
	err := row.Scan(
		&i.UserID,
		&i.CurrentPortfolioCents,
		&i.MonthlyContributionCents,
		&i.ExpectedRealReturnPercent,
		&i.AnnualSpendCents,
		&i.SafeWithdrawalRatePercent,
	)
	return i, err
}
