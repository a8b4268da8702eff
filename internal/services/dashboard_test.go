package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

func TestDashboard(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	snap, err := svc.Dashboard(ctx, "u1", 2024, 5)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if snap.NetWorth.NetWorth != 2226458 {
		t.Errorf("net worth = %d", snap.NetWorth.NetWorth)
	}
	if snap.Budget.Totals.Remaining != 270208 {
		t.Errorf("budget remaining = %d", snap.Budget.Totals.Remaining)
	}
	if len(snap.TopSpending) != 2 || snap.TopSpending[0].Name != "Groceries" || snap.TopSpending[0].Budget != 60000 {
		t.Errorf("unexpected top spending: %+v", snap.TopSpending)
	}
	if len(snap.RecentTransactions) != 2 {
		t.Errorf("recent transactions = %d", len(snap.RecentTransactions))
	}
	if snap.Fire == nil || *snap.Fire.YearsToFI != 24 {
		t.Errorf("unexpected fire projection: %+v", snap.Fire)
	}
	if len(snap.Goals) != 1 || snap.Goals[0].Progress != 25 {
		t.Errorf("unexpected goals: %+v", snap.Goals)
	}

	if _, err := svc.Dashboard(ctx, "u1", 2024, 13); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestDashboard_CacheInvalidation(t *testing.T) {
	svc := newTestService(newMemoryStore(), nil)
	ctx := context.Background()

	first, _ := svc.Dashboard(ctx, "u1", 2024, 5)
	cached, _ := svc.Dashboard(ctx, "u1", 2024, 5)
	if first != cached {
		t.Fatal("second call should be served from cache")
	}
	if svc.cache.Size() != 1 {
		t.Fatalf("cache size = %d, want 1", svc.cache.Size())
	}

	if _, err := svc.AddTransaction(ctx, "u1", core.Transaction{AccountID: "acc_1", Date: "2024-05-22", Name: "Book", AmountCents: -1000}); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if svc.cache.Size() != 0 {
		t.Fatal("write should invalidate cached snapshots")
	}

	fresh, _ := svc.Dashboard(ctx, "u1", 2024, 5)
	if fresh == first || len(fresh.RecentTransactions) != 3 {
		t.Fatal("expected rebuilt snapshot after write")
	}
}

func TestAssistantContext(t *testing.T) {
	svc := newTestService(newMemoryStore(), nil)

	text, err := svc.AssistantContext(context.Background(), "u1", 2024, 5)
	if err != nil {
		t.Fatalf("AssistantContext() error = %v", err)
	}
	for _, want := range []string{
		"Net worth: $22,264.58 (assets $22,414.58, liabilities $150.00)",
		"Budget 2024-05: budgeted $2,800.00, spent -$97.92, remaining $2,702.08",
		"- 2024-05-20 Trader Joes -$85.42",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("context missing %q:\n%s", want, text)
		}
	}
}

// hookedCache runs onGet before each lookup.
type hookedCache struct {
	cache.Cache[*Snapshot]
	onGet func()
}

func (c *hookedCache) Get(key string) (*Snapshot, bool) {
	if c.onGet != nil {
		c.onGet()
	}
	return c.Cache.Get(key)
}

func TestDashboard_WriteDuringBuildIsNotCached(t *testing.T) {
	ctx := context.Background()
	hooked := &hookedCache{Cache: cache.NewLRUCache[*Snapshot](10, time.Minute)}
	svc := NewFinanceService(newMemoryStore(), nil, Options{SeedDemoData: true, Cache: hooked, Now: func() time.Time { return fixedNow }})
	if _, err := svc.State(ctx, "u1"); err != nil {
		t.Fatalf("State() error = %v", err)
	}

	hooked.onGet = func() {
		hooked.onGet = nil
		if _, err := svc.AddTransaction(ctx, "u1", core.Transaction{AccountID: "acc_1", Date: "2024-05-22", Name: "Book", AmountCents: -1000}); err != nil {
			t.Errorf("AddTransaction() error = %v", err)
		}
	}
	if _, err := svc.Dashboard(ctx, "u1", 2024, 5); err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if hooked.Size() != 0 {
		t.Fatal("snapshot built across a write must not be cached")
	}

	if _, err := svc.Dashboard(ctx, "u1", 2024, 5); err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if hooked.Size() != 1 {
		t.Fatalf("cache size = %d, want 1", hooked.Size())
	}
}
