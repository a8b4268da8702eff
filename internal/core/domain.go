package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date format used by transactions.
const DateLayout = "2006-01-02"

const (
	Checking   AccountType = "checking"
	Savings    AccountType = "savings"
	Credit     AccountType = "credit"
	Investment AccountType = "investment"
	OtherType  AccountType = "other"
)

const (
	ProviderManual AccountProvider = "manual"
	ProviderPlaid  AccountProvider = "plaid"
	ProviderTeller AccountProvider = "teller"
	ProviderOther  AccountProvider = "other"
)

const (
	SourceManual   TransactionSource = "manual"
	SourceImported TransactionSource = "imported"

	StatusPending TransactionStatus = "pending"
	StatusPosted  TransactionStatus = "posted"
)

type (
	AccountType       string
	AccountProvider   string
	TransactionSource string
	TransactionStatus string

	Account struct {
		ID                  string          `json:"id"`
		UserID              string          `json:"userId"`
		Name                string          `json:"name"`
		Type                AccountType     `json:"type"`
		Provider            AccountProvider `json:"provider"`
		ExternalAccountID   string          `json:"externalAccountId,omitempty"`
		InstitutionName     string          `json:"institutionName,omitempty"`
		CurrentBalanceCents int64           `json:"currentBalanceCents"`
		IsClosed            bool            `json:"isClosed,omitempty"`
	}

	Category struct {
		ID     string `json:"id"`
		UserID string `json:"userId"`
		Name   string `json:"name"`
		Group  string `json:"group,omitempty"`
	}

	// CategoryRule assigns CategoryID to transactions whose name contains Pattern.
	CategoryRule struct {
		ID         string `json:"id"`
		UserID     string `json:"userId"`
		Pattern    string `json:"pattern"`
		CategoryID string `json:"categoryId"`
	}

	BudgetMonth struct {
		ID     string `json:"id"`
		UserID string `json:"userId"`
		Year   int    `json:"year"`
		Month  int    `json:"month"` // 1-12
	}

	BudgetEntry struct {
		ID            string `json:"id"`
		UserID        string `json:"userId"`
		BudgetMonthID string `json:"budgetMonthId"`
		CategoryID    string `json:"categoryId"`
		BudgetedCents int64  `json:"budgetedCents"`
	}

	Transaction struct {
		ID                    string            `json:"id"`
		UserID                string            `json:"userId"`
		AccountID             string            `json:"accountId"`
		Date                  string            `json:"date"` // YYYY-MM-DD
		Name                  string            `json:"name"`
		AmountCents           int64             `json:"amountCents"` // negative = expense
		CategoryID            *string           `json:"categoryId"`
		Notes                 string            `json:"notes,omitempty"`
		Source                TransactionSource `json:"source"`
		Status                TransactionStatus `json:"status"`
		ExternalTransactionID string            `json:"externalTransactionId,omitempty"`
		ImportedAt            string            `json:"importedAt,omitempty"`
	}

	Goal struct {
		ID           string `json:"id"`
		UserID       string `json:"userId"`
		Name         string `json:"name"`
		TargetCents  int64  `json:"targetCents"`
		CurrentCents int64  `json:"currentCents"`
		TargetYear   int    `json:"targetYear,omitempty"`
	}

	FireConfig struct {
		CurrentPortfolioCents     int64   `json:"currentPortfolioCents"`
		MonthlyContributionCents  int64   `json:"monthlyContributionCents"`
		ExpectedRealReturnPercent float64 `json:"expectedRealReturnPercent"`
		AnnualSpendCents          int64   `json:"annualSpendCents"`
		SafeWithdrawalRatePercent float64 `json:"safeWithdrawalRatePercent"`
	}

	// FireConfigPatch carries a partial FireConfig update; nil fields are kept.
	FireConfigPatch struct {
		CurrentPortfolioCents     *int64   `json:"currentPortfolioCents,omitempty"`
		MonthlyContributionCents  *int64   `json:"monthlyContributionCents,omitempty"`
		ExpectedRealReturnPercent *float64 `json:"expectedRealReturnPercent,omitempty"`
		AnnualSpendCents          *int64   `json:"annualSpendCents,omitempty"`
		SafeWithdrawalRatePercent *float64 `json:"safeWithdrawalRatePercent,omitempty"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrEmptyID            = errors.New("empty id")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long (max 200 characters)")
	ErrEmptyPattern       = errors.New("empty pattern")
	ErrEmptyAccount       = errors.New("empty account reference")
	ErrEmptyCategory      = errors.New("empty category reference")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidProvider    = errors.New("invalid account provider")
	ErrInvalidSource      = errors.New("invalid transaction source")
	ErrInvalidStatus      = errors.New("invalid transaction status")
)

var validationErrors = []error{
	ErrInvalidAmount, ErrInvalidDate, ErrInvalidMonth, ErrEmptyID, ErrEmptyName,
	ErrNameTooLong, ErrEmptyPattern, ErrEmptyAccount, ErrEmptyCategory,
	ErrInvalidAccountType, ErrInvalidProvider, ErrInvalidSource, ErrInvalidStatus,
}

// IsValidationError reports whether err wraps one of the record validation
// errors above.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// CategoryRef returns a pointer suitable for Transaction.CategoryID.
func CategoryRef(id string) *string {
	return &id
}

func (t AccountType) IsValid() bool {
	switch t {
	case Checking, Savings, Credit, Investment, OtherType:
		return true
	default:
		return false
	}
}

func (p AccountProvider) IsValid() bool {
	switch p {
	case ProviderManual, ProviderPlaid, ProviderTeller, ProviderOther:
		return true
	default:
		return false
	}
}

// ValidateDate checks that s is a real calendar date in YYYY-MM-DD form.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// ValidateYearMonth checks a (year, month) pair used for budget months.
func ValidateYearMonth(year, month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	if year < 1 || year > 9999 {
		return ErrInvalidDate
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.IsValid() {
		return ErrInvalidAccountType
	}
	if !a.Provider.IsValid() {
		return ErrInvalidProvider
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (r CategoryRule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(r.Pattern) == "" {
		return ErrEmptyPattern
	}
	if strings.TrimSpace(r.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetCents < 0 || g.CurrentCents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Progress returns the goal completion as a whole percentage capped at 100,
// rounded half up.
func (g Goal) Progress() int {
	target := g.TargetCents
	if target == 0 {
		target = 1
	}
	pct := decimal.NewFromInt(g.CurrentCents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(target)).
		Round(0)
	switch {
	case pct.GreaterThan(decimal.NewFromInt(100)):
		return 100
	case pct.IsNegative():
		return 0
	}
	return int(pct.IntPart())
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrEmptyAccount
	}
	if err := ValidateDate(t.Date); err != nil {
		return err
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return ErrNameTooLong
	}
	switch t.Source {
	case SourceManual, SourceImported:
	default:
		return ErrInvalidSource
	}
	switch t.Status {
	case StatusPending, StatusPosted:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// HasCategory reports whether the transaction already carries a category.
func (t Transaction) HasCategory() bool {
	return t.CategoryID != nil && *t.CategoryID != ""
}

// Merge applies the non-nil fields of p on top of c.
func (c FireConfig) Merge(p FireConfigPatch) FireConfig {
	if p.CurrentPortfolioCents != nil {
		c.CurrentPortfolioCents = *p.CurrentPortfolioCents
	}
	if p.MonthlyContributionCents != nil {
		c.MonthlyContributionCents = *p.MonthlyContributionCents
	}
	if p.ExpectedRealReturnPercent != nil {
		c.ExpectedRealReturnPercent = *p.ExpectedRealReturnPercent
	}
	if p.AnnualSpendCents != nil {
		c.AnnualSpendCents = *p.AnnualSpendCents
	}
	if p.SafeWithdrawalRatePercent != nil {
		c.SafeWithdrawalRatePercent = *p.SafeWithdrawalRatePercent
	}
	return c
}
