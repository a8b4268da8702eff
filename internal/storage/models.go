package storage

import (
	"database/sql"
)

type Account struct {
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

type Category struct {
	UserID        string
	ID            string
	Position      int64
	Name          string
	CategoryGroup string
}

type CategoryRule struct {
	UserID     string
	ID         string
	Position   int64
	Pattern    string
	CategoryID string
}

type BudgetMonth struct {
	UserID   string
	ID       string
	Position int64
	Year     int64
	Month    int64
}

type BudgetEntry struct {
	UserID        string
	ID            string
	Position      int64
	BudgetMonthID string
	CategoryID    string
	BudgetedCents int64
}

type Transaction struct {
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

type Goal struct {
	UserID       string
	ID           string
	Position     int64
	Name         string
	TargetCents  int64
	CurrentCents int64
	TargetYear   int64
}

type FireConfig struct {
	UserID                    string
	CurrentPortfolioCents     int64
	MonthlyContributionCents  int64
	ExpectedRealReturnPercent float64
	AnnualSpendCents          int64
	SafeWithdrawalRatePercent float64
}
