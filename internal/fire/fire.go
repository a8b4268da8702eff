// Package fire projects a portfolio forward year by year until it reaches the
// financial-independence target implied by annual spend and a safe
// withdrawal rate.
package fire

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// MaxYears bounds the projection.
const MaxYears = 60

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ErrInvalidConfig is wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("invalid fire config")

// ConfigError reports the FireConfig field that cannot be simulated.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// YearValue is the portfolio value at the end of a simulated year.
type YearValue struct {
	YearIndex  int   `json:"yearIndex"`
	ValueCents int64 `json:"valueCents"`
	Age        int   `json:"age"`
}

// Projection is the result of Simulate. YearsToFI is nil when the target is
// not reached within MaxYears.
type Projection struct {
	TargetCents  int64       `json:"targetCents"`
	YearsToFI    *int        `json:"yearsToFi"`
	YearlyValues []YearValue `json:"yearlyValues"`
}

// Reached reports whether the target is reached within MaxYears.
func (p Projection) Reached() bool {
	return p.YearsToFI != nil
}

// Validate rejects configurations that cannot be simulated.
func Validate(cfg core.FireConfig) error {
	switch {
	case math.IsNaN(cfg.SafeWithdrawalRatePercent) || math.IsInf(cfg.SafeWithdrawalRatePercent, 0):
		return &ConfigError{Field: "safeWithdrawalRatePercent", Reason: "must be a finite number"}
	case cfg.SafeWithdrawalRatePercent <= 0:
		return &ConfigError{Field: "safeWithdrawalRatePercent", Reason: "must be greater than zero"}
	case math.IsNaN(cfg.ExpectedRealReturnPercent) || math.IsInf(cfg.ExpectedRealReturnPercent, 0):
		return &ConfigError{Field: "expectedRealReturnPercent", Reason: "must be a finite number"}
	case cfg.ExpectedRealReturnPercent <= -100:
		return &ConfigError{Field: "expectedRealReturnPercent", Reason: "must be greater than -100"}
	case cfg.AnnualSpendCents < 0:
		return &ConfigError{Field: "annualSpendCents", Reason: "must not be negative"}
	}
	if target(cfg).GreaterThan(maxCents) {
		field := "safeWithdrawalRatePercent"
		if decimal.NewFromInt(cfg.AnnualSpendCents).Mul(decimal.NewFromInt(100)).GreaterThan(maxCents) {
			field = "annualSpendCents"
		}
		return &ConfigError{Field: field, Reason: "target exceeds the largest representable amount"}
	}
	return nil
}

// Target returns the portfolio needed to sustain annual spend at the safe
// withdrawal rate, rounded to a cent.
func Target(cfg core.FireConfig) (int64, error) {
	if err := Validate(cfg); err != nil {
		return 0, err
	}
	return target(cfg).Round(0).IntPart(), nil
}

func target(cfg core.FireConfig) decimal.Decimal {
	return decimal.NewFromInt(cfg.AnnualSpendCents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromFloat(cfg.SafeWithdrawalRatePercent))
}

// Simulate compounds the current portfolio once per year: the year's
// contributions are added first, then the real return is applied and the
// value is rounded to a cent. It stops as soon as the target is reached or
// after MaxYears. A portfolio already at or above the target yields
// YearsToFI 0 and no yearly values. A year value too large for int64 is
// reported as a ConfigError.
func Simulate(cfg core.FireConfig) (Projection, error) {
	if err := Validate(cfg); err != nil {
		return Projection{}, err
	}

	goal := target(cfg)
	growth := decimal.NewFromInt(1).Add(decimal.NewFromFloat(cfg.ExpectedRealReturnPercent).Div(decimal.NewFromInt(100)))
	yearly := decimal.NewFromInt(cfg.MonthlyContributionCents).Mul(decimal.NewFromInt(12))

	proj := Projection{
		TargetCents:  goal.Round(0).IntPart(),
		YearlyValues: []YearValue{},
	}

	current := decimal.NewFromInt(cfg.CurrentPortfolioCents)
	years := 0
	for current.LessThan(goal) && years < MaxYears {
		current = current.Add(yearly).Mul(growth).Round(0)
		if current.Abs().GreaterThan(maxCents) {
			return Projection{}, &ConfigError{
				Field:  "expectedRealReturnPercent",
				Reason: fmt.Sprintf("portfolio exceeds the largest representable amount in year %d", years+1),
			}
		}
		years++
		proj.YearlyValues = append(proj.YearlyValues, YearValue{
			YearIndex:  years,
			ValueCents: current.IntPart(),
			Age:        years,
		})
	}

	if !current.LessThan(goal) {
		proj.YearsToFI = &years
	}
	return proj, nil
}
