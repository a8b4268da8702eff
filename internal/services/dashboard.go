package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/fire"
	"fintrack/internal/ledger"
)

const (
	topSpendingLimit  = 5
	recentTxLimit     = 5
	dashboardKeyStart = "dashboard:"
)

// GoalProgress is a goal with its completion percentage.
type GoalProgress struct {
	core.Goal
	Progress int `json:"progress"`
}

// Snapshot is everything the dashboard shows for one month.
type Snapshot struct {
	Year               int                    `json:"year"`
	Month              int                    `json:"month"`
	NetWorth           ledger.NetWorthSummary `json:"netWorth"`
	Budget             budget.Summary         `json:"budget"`
	TopSpending        []ledger.SpendingItem  `json:"topSpending"`
	RecentTransactions []core.Transaction     `json:"recentTransactions"`
	Fire               *fire.Projection       `json:"fire"`
	Goals              []GoalProgress         `json:"goals"`
}

func dashboardKeyPrefix(userID string) string {
	return dashboardKeyStart + userID + ":"
}

func dashboardKey(userID string, year, month int) string {
	return dashboardKeyPrefix(userID) + fmt.Sprintf("%04d-%02d", year, month)
}

// Dashboard builds the Snapshot of year/month for userID. Snapshots are
// cached until the next write for that user.
func (s *FinanceService) Dashboard(ctx context.Context, userID string, year, month int) (*Snapshot, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}

	key := dashboardKey(userID, year, month)
	gen := s.generation(userID)
	if s.cache != nil {
		if snap, ok := s.cache.Get(key); ok {
			return snap, nil
		}
	}

	st, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Year: year, Month: month}
	monthTxs := ledger.TransactionsInMonth(st.Transactions, year, month)
	monthID := budget.LookupMonthID(st.BudgetMonths, year, month)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.NetWorth = ledger.NetWorth(st.Accounts)
		return nil
	})
	g.Go(func() error {
		snap.Budget = budget.Summarize(st.BudgetMonths, st.Categories, st.BudgetEntries, st.Transactions, year, month)
		return nil
	})
	g.Go(func() error {
		snap.TopSpending = ledger.TopSpending(monthTxs, st.Categories, st.BudgetEntries, monthID, topSpendingLimit)
		return nil
	})
	g.Go(func() error {
		snap.RecentTransactions = ledger.RecentTransactions(st.Transactions, recentTxLimit)
		return nil
	})
	g.Go(func() error {
		proj, err := fire.Simulate(st.FireConfig)
		if errors.Is(err, fire.ErrInvalidConfig) {
			// a bad config hides the projection but not the dashboard
			slog.WarnContext(gctx, "Skipping FIRE projection", "user_id", userID, "error", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("simulate: %w", err)
		}
		snap.Fire = &proj
		return nil
	})
	g.Go(func() error {
		goals := make([]GoalProgress, len(st.Goals))
		for i, goal := range st.Goals {
			goals[i] = GoalProgress{Goal: goal, Progress: goal.Progress()}
		}
		snap.Goals = goals
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}

	if s.cache != nil {
		s.cacheSnapshot(userID, key, gen, snap)
	}
	return snap, nil
}

// AssistantContext renders the numbers of the year/month dashboard as plain
// text for an external assistant.
func (s *FinanceService) AssistantContext(ctx context.Context, userID string, year, month int) (string, error) {
	snap, err := s.Dashboard(ctx, userID, year, month)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Net worth: %s (assets %s, liabilities %s)\n",
		core.FormatAmount(snap.NetWorth.NetWorth),
		core.FormatAmount(snap.NetWorth.Assets),
		core.FormatAmount(snap.NetWorth.Liabilities))

	totals := snap.Budget.Totals
	fmt.Fprintf(&b, "Budget %04d-%02d: budgeted %s, spent %s, remaining %s\n",
		year, month,
		core.FormatAmount(totals.Budgeted),
		core.FormatAmount(totals.Spent),
		core.FormatAmount(totals.Remaining))

	b.WriteString("Recent transactions:\n")
	if len(snap.RecentTransactions) == 0 {
		b.WriteString("- none\n")
	}
	for _, tx := range snap.RecentTransactions {
		fmt.Fprintf(&b, "- %s %s %s\n", tx.Date, tx.Name, core.FormatAmount(tx.AmountCents))
	}
	return b.String(), nil
}
