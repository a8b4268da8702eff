package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/budget"
	"fintrack/internal/cache"
	"fintrack/internal/categorize"
	"fintrack/internal/core"
	"fintrack/internal/fire"
	"fintrack/internal/ledger"
	"fintrack/internal/state"
	"fintrack/internal/storage"
)

// Store persists one FinanceState per user.
type Store interface {
	LoadState(ctx context.Context, userID string) (state.FinanceState, error)
	SaveState(ctx context.Context, st state.FinanceState) error
	HasState(ctx context.Context, userID string) (bool, error)
	Close() error
}

// Publisher hands import batches to the worker.
type Publisher interface {
	PublishImportBatch(ctx context.Context, msg *amqp.ImportBatchMessage) error
	Close() error
}

// Options configures a FinanceService.
type Options struct {
	// SeedDemoData gives users without stored state the demo data set
	// instead of an empty one.
	SeedDemoData bool

	// Cache holds dashboard snapshots. Nil disables caching.
	Cache cache.Cache[*Snapshot]

	// Now and NewID are replaced in tests.
	Now   func() time.Time
	NewID func() string
}

// ImportOutcome reports what happened to an import batch.
type ImportOutcome struct {
	Queued  bool `json:"queued"`
	Added   int  `json:"added"`
	Skipped int  `json:"skipped"`
}

// FinanceService loads a user's state, applies a reducer and stores the
// result. Writes for the same user are serialized.
type FinanceService struct {
	store     Store
	publisher Publisher
	cache     cache.Cache[*Snapshot]
	seed      bool
	now       func() time.Time
	newID     func() string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	// gens counts writes per user so a dashboard built from an older state
	// is not cached.
	gens map[string]uint64
}

func NewFinanceService(store Store, publisher Publisher, opts Options) *FinanceService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &FinanceService{
		store:     store,
		publisher: publisher,
		cache:     opts.Cache,
		seed:      opts.SeedDemoData,
		now:       opts.Now,
		newID:     opts.NewID,
		locks:     make(map[string]*sync.Mutex),
		gens:      make(map[string]uint64),
	}
}

func (s *FinanceService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// State returns the stored state of userID. A user seen for the first time
// gets the demo state (or an empty one) which is saved right away.
func (s *FinanceService) State(ctx context.Context, userID string) (state.FinanceState, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return s.load(ctx, userID)
}

func (s *FinanceService) load(ctx context.Context, userID string) (state.FinanceState, error) {
	if userID == "" {
		return state.FinanceState{}, state.ErrEmptyUserID
	}
	st, err := s.store.LoadState(ctx, userID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, storage.ErrStateNotFound) {
		return state.FinanceState{}, fmt.Errorf("load state: %w", err)
	}

	st = s.initialState(userID)
	if err := s.store.SaveState(ctx, st); err != nil {
		return state.FinanceState{}, fmt.Errorf("save initial state: %w", err)
	}
	slog.InfoContext(ctx, "Initialized finance state", "user_id", userID, "seeded", s.seed)
	return st, nil
}

func (s *FinanceService) initialState(userID string) state.FinanceState {
	if s.seed {
		return state.Default(userID, s.now())
	}
	return state.Empty(userID)
}

// update runs fn against the current state and stores what it returns.
func (s *FinanceService) update(ctx context.Context, userID string, fn func(state.FinanceState) (state.FinanceState, error)) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	next, err := fn(st)
	if err != nil {
		return err
	}
	if err := s.store.SaveState(ctx, next); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	s.invalidate(userID)
	return nil
}

func (s *FinanceService) invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[userID]++
	if s.cache == nil {
		return
	}
	if n := s.cache.DeletePrefix(dashboardKeyPrefix(userID)); n > 0 {
		slog.Debug("Invalidated dashboard cache", "user_id", userID, "entries", n)
	}
}

func (s *FinanceService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

// cacheSnapshot stores snap unless userID was written since gen was read.
func (s *FinanceService) cacheSnapshot(userID, key string, gen uint64, snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[userID] != gen {
		slog.Debug("Skipping stale dashboard snapshot", "user_id", userID, "key", key)
		return
	}
	s.cache.Set(key, snap)
}

func (s *FinanceService) ensureID(id string) string {
	if id == "" {
		return s.newID()
	}
	return id
}

// AddTransaction records a manual transaction.
func (s *FinanceService) AddTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	tx.ID = s.ensureID(tx.ID)
	var created core.Transaction
	err := s.update(ctx, userID, func(st state.FinanceState) (state.FinanceState, error) {
		next, out, err := state.AddManualTransaction(st, tx)
		created = out
		return next, err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction added",
		"user_id", userID,
		"transaction_id", created.ID,
		"amount_cents", created.AmountCents)
	return created, nil
}

// UpdateTransaction applies a partial update to transaction id.
func (s *FinanceService) UpdateTransaction(ctx context.Context, userID, id string, patch state.TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	err := s.update(ctx, userID, func(st state.FinanceState) (state.FinanceState, error) {
		next, out, err := state.UpdateTransaction(st, id, patch)
		updated = out
		return next, err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return updated, nil
}

// ImportTransactions accepts a batch from a bank aggregator. With a
// publisher the batch is queued for the worker; otherwise it is applied
// before returning.
func (s *FinanceService) ImportTransactions(ctx context.Context, userID string, txs []core.Transaction) (ImportOutcome, error) {
	batch := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		tx.ID = s.ensureID(tx.ID)
		if tx.Source == "" {
			tx.Source = core.SourceImported
		}
		if tx.Status == "" {
			tx.Status = core.StatusPosted
		}
		if tx.ImportedAt == "" {
			tx.ImportedAt = s.now().UTC().Format(time.RFC3339)
		}
		if err := tx.Validate(); err != nil {
			return ImportOutcome{}, fmt.Errorf("validate imported transaction %d: %w", i, err)
		}
		batch[i] = tx
	}

	if s.publisher != nil {
		if err := s.publisher.PublishImportBatch(ctx, amqp.NewImportBatchMessage(userID, batch)); err != nil {
			return ImportOutcome{}, fmt.Errorf("publish import batch: %w", err)
		}
		slog.InfoContext(ctx, "Import batch queued", "user_id", userID, "batch_size", len(batch))
		return ImportOutcome{Queued: true}, nil
	}

	res, err := s.ApplyImport(ctx, userID, batch)
	if err != nil {
		return ImportOutcome{}, err
	}
	return ImportOutcome{Added: res.Added, Skipped: res.Skipped}, nil
}

// ApplyImport merges a batch into the stored state.
func (s *FinanceService) ApplyImport(ctx context.Context, userID string, txs []core.Transaction) (categorize.ImportResult, error) {
	var res categorize.ImportResult
	err := s.update(ctx, userID, func(st state.FinanceState) (state.FinanceState, error) {
		next, out, err := state.ImportTransactions(st, txs)
		res = out
		return next, err
	})
	if err != nil {
		return categorize.ImportResult{}, err
	}
	slog.InfoContext(ctx, "Import batch applied",
		"user_id", userID,
		"added", res.Added,
		"skipped", res.Skipped)
	return res, nil
}

func (s *FinanceService) UpsertAccount(ctx context.Context, userID string, acc core.Account) (core.Account, error) {
	acc.ID = s.ensureID(acc.ID)
	acc.UserID = userID
	err := s.update(ctx, userID, func(st state.FinanceState) (state.FinanceState, error) {
		return state.UpsertAccount(st, acc)
	})
	return acc, err
}

func (s *FinanceService) AddCategory(ctx context.Context, userID string, cat core.Category) (core.Category, error) {
	cat.ID = s.ensureID(cat.ID)
	cat.UserID = userID
	err := s.update(ctx, userID, func(st state.FinanceState) (state.FinanceState, error) {
		return state.AddCategory(st, cat)
	})
	return cat, err
}

func (s *FinanceService) AddCategoryRule(ctx context.Context, userID string, rule core.CategoryRule) (core.CategoryRule, error) {
	rule.ID = s.ensureID(rule.ID)
	rule.UserID = userID
	err := s.update(ctx, userID, func(st state.FinanceState) (state.FinanceState, error) {
		return state.AddCategoryRule(st, rule)
	})
	return rule, err
}

func (s *FinanceService) AddGoal(ctx context.Context, userID string, goal core.Goal) (core.Goal, error) {
	goal.ID = s.ensureID(goal.ID)
	goal.UserID = userID
	err := s.update(ctx, userID, func(st state.FinanceState) (state.FinanceState, error) {
		return state.AddGoal(st, goal)
	})
	return goal, err
}

// UpdateFireConfig merges patch into the stored FIRE configuration. A merge
// that would leave an invalid configuration is rejected.
func (s *FinanceService) UpdateFireConfig(ctx context.Context, userID string, patch core.FireConfigPatch) (core.FireConfig, error) {
	var cfg core.FireConfig
	err := s.update(ctx, userID, func(st state.FinanceState) (state.FinanceState, error) {
		next := state.UpdateFireConfig(st, patch)
		if err := fire.Validate(next.FireConfig); err != nil {
			return st, err
		}
		cfg = next.FireConfig
		return next, nil
	})
	return cfg, err
}

// Fire runs the FIRE projection on the stored configuration.
func (s *FinanceService) Fire(ctx context.Context, userID string) (fire.Projection, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return fire.Projection{}, err
	}
	proj, err := fire.Simulate(st.FireConfig)
	if err != nil {
		return fire.Projection{}, fmt.Errorf("simulate: %w", err)
	}
	return proj, nil
}

func (s *FinanceService) NetWorth(ctx context.Context, userID string) (ledger.NetWorthSummary, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return ledger.NetWorthSummary{}, err
	}
	return ledger.NetWorth(st.Accounts), nil
}

// Transactions lists the transactions dated in year/month, newest first.
func (s *FinanceService) Transactions(ctx context.Context, userID string, year, month int) ([]core.Transaction, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	st, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ledger.SortByDateDesc(ledger.TransactionsInMonth(st.Transactions, year, month)), nil
}

// Budget makes sure the budget month exists and returns its summary.
func (s *FinanceService) Budget(ctx context.Context, userID string, year, month int) (budget.Summary, error) {
	var summary budget.Summary
	err := s.update(ctx, userID, func(st state.FinanceState) (state.FinanceState, error) {
		next, _, err := state.EnsureBudgetMonth(st, year, month)
		if err != nil {
			return st, err
		}
		summary = budget.Summarize(next.BudgetMonths, next.Categories, next.BudgetEntries, next.Transactions, year, month)
		return next, nil
	})
	return summary, err
}

func (s *FinanceService) SetBudgetedAmount(ctx context.Context, userID, categoryID string, year, month int, cents int64) (budget.Summary, error) {
	var summary budget.Summary
	err := s.update(ctx, userID, func(st state.FinanceState) (state.FinanceState, error) {
		next, err := state.SetBudgetedAmount(st, categoryID, year, month, cents)
		if err != nil {
			return st, err
		}
		summary = budget.Summarize(next.BudgetMonths, next.Categories, next.BudgetEntries, next.Transactions, year, month)
		return next, nil
	})
	return summary, err
}

// Export returns the JSON backup of userID's state.
func (s *FinanceService) Export(ctx context.Context, userID string) ([]byte, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	return state.ExportJSON(st)
}

// Restore replaces userID's state with a backup. The backup is stored under
// userID whatever user it was taken from.
func (s *FinanceService) Restore(ctx context.Context, userID string, data []byte) error {
	restored, err := state.ImportJSON(data)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	restored.UserID = userID

	err = s.update(ctx, userID, func(state.FinanceState) (state.FinanceState, error) {
		return restored, nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Finance state restored",
		"user_id", userID,
		"accounts", len(restored.Accounts),
		"transactions", len(restored.Transactions))
	return nil
}

// Reset discards userID's data and starts over from the demo state, or from
// an empty one when seeding is off.
func (s *FinanceService) Reset(ctx context.Context, userID string) error {
	err := s.update(ctx, userID, func(state.FinanceState) (state.FinanceState, error) {
		return s.initialState(userID), nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Finance state reset", "user_id", userID, "seeded", s.seed)
	return nil
}

// Close closes the store and the publisher.
func (s *FinanceService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close finance service: %w", errors.Join(errs...))
	}

	return nil
}
