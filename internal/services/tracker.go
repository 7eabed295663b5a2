// Package services hosts the Tracker, the single state container that owns
// the currency registry, the rate store and the expense ledger, and exposes
// every mutation and query the presentation layer needs.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

// SaveNotifier receives a fire-and-forget signal after each successful
// mutation. Persistence failures never reach the Tracker: in-memory state
// is the source of truth for the session.
type SaveNotifier interface {
	Notify()
}

// Tracker serializes all operations behind one mutex: each runs to
// completion and sees the whole state as one snapshot.
type Tracker struct {
	mu       sync.Mutex
	registry *core.Registry
	rates    *core.RateStore
	ledger   *core.Ledger

	notifier SaveNotifier
	now      func() time.Time
	newID    func() string
}

type Option func(*Tracker)

// WithNotifier wires the persistence worker's dirty signal.
func WithNotifier(n SaveNotifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

// SetNotifier installs the save notifier after construction. The saver
// needs the tracker as its snapshot source, so the two are wired in
// two steps at startup.
func (t *Tracker) SetNotifier(n SaveNotifier) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifier = n
}

// WithClock overrides the entry timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator overrides the expense ID source, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// New builds a Tracker from a loaded snapshot. The snapshot is normalized
// first, so a zero snapshot yields the seeded default state.
func New(snap core.Snapshot, opts ...Option) *Tracker {
	t := &Tracker{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.apply(snap)
	return t
}

func (t *Tracker) apply(snap core.Snapshot) {
	snap.Normalize()
	t.registry = core.RegistryFromSnapshot(snap.Currencies, snap.PrimaryCurrency)
	t.rates = core.RateStoreFromSnapshot(snap.ExchangeRates)
	t.ledger = core.LedgerFromSnapshot(snap.Expenses)
}

// Restore replaces the whole state with a loaded snapshot.
func (t *Tracker) Restore(ctx context.Context, snap core.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apply(snap)
	slog.InfoContext(ctx, "State restored from snapshot",
		"expenses", t.ledger.Len(),
		"currencies", len(t.registry.Currencies()),
		"primary", t.registry.Primary().Code)
}

// AddExpense validates and records a new expense. The primary-currency
// equivalent is computed once, with the rates in force right now, and
// frozen on the entry.
func (t *Tracker) AddExpense(ctx context.Context, amount, description string, categoryID int, currencyCode string) (core.Expense, error) {
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return core.Expense{}, err
	}
	category, ok := core.CategoryByID(categoryID)
	if !ok {
		return core.Expense{}, core.ErrUnknownCategory
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	currency, ok := t.registry.ByCode(currencyCode)
	if !ok {
		return core.Expense{}, core.ErrUnknownCurrency
	}
	primary := t.registry.Primary()

	primaryAmount := amt
	if currency.Code != primary.Code {
		primaryAmount = amt.Div(t.rates.Resolve(currency.Code, primary.Code))
	}

	e := core.Expense{
		ID:            t.newID(),
		Amount:        amt,
		Description:   description,
		Category:      category,
		Date:          t.now(),
		Currency:      currency,
		PrimaryAmount: primaryAmount,
	}
	t.ledger.Append(e)

	slog.InfoContext(ctx, "Expense added",
		"expense_id", e.ID,
		"amount", e.Amount.String(),
		"currency", e.Currency.Code,
		"category", e.Category.Name,
		"primary_amount", e.PrimaryAmount.String())
	t.notifySave(ctx)
	return e, nil
}

// DeleteExpense removes the entry with the given ID. Deleting an unknown
// ID leaves the ledger unchanged and is not an error.
func (t *Tracker) DeleteExpense(ctx context.Context, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := t.ledger.Delete(id)
	if removed {
		slog.InfoContext(ctx, "Expense deleted", "expense_id", id)
		t.notifySave(ctx)
	} else {
		slog.DebugContext(ctx, "Delete of unknown expense ignored", "expense_id", id)
	}
	return removed
}

// AddCurrency registers a new currency.
func (t *Tracker) AddCurrency(ctx context.Context, code, symbol, name string) (core.Currency, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, err := t.registry.Add(code, symbol, name)
	if err != nil {
		return core.Currency{}, err
	}
	slog.InfoContext(ctx, "Currency added", "currency", c.Code, "name", c.Name)
	t.notifySave(ctx)
	return c, nil
}

// SetPrimaryCurrency switches the display currency. Stored primary-amount
// snapshots are deliberately left untouched.
func (t *Tracker) SetPrimaryCurrency(ctx context.Context, code string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.registry.SetPrimary(code); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Primary currency changed", "currency", t.registry.Primary().Code)
	t.notifySave(ctx)
	return nil
}

// ConversionResult is what the conversion operation reports back: the
// computed amount and the rate record after the new observation.
type ConversionResult struct {
	From   core.Currency
	To     core.Currency
	Amount decimal.Decimal
	Rate   decimal.Decimal
	Result decimal.Decimal
	Record core.RateRecord
}

// Convert computes amount × rate for a manually entered rate meaning
// "1 from = rate to", and records the rate as a new observation. This is
// the only writer of the rate store in normal operation.
func (t *Tracker) Convert(ctx context.Context, fromCode, toCode, amount, rate string) (ConversionResult, error) {
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return ConversionResult{}, err
	}
	r, err := core.ParseRate(rate)
	if err != nil {
		return ConversionResult{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	from, ok := t.registry.ByCode(fromCode)
	if !ok {
		return ConversionResult{}, core.ErrUnknownCurrency
	}
	to, ok := t.registry.ByCode(toCode)
	if !ok {
		return ConversionResult{}, core.ErrUnknownCurrency
	}

	rec, err := t.rates.Record(from.Code, to.Code, r, t.now())
	if err != nil {
		return ConversionResult{}, err
	}

	result := ConversionResult{
		From:   from,
		To:     to,
		Amount: amt,
		Rate:   r,
		Result: amt.Mul(r),
		Record: rec,
	}
	slog.InfoContext(ctx, "Rate recorded",
		"pair", core.PairKey(from.Code, to.Code),
		"rate", r.String(),
		"current_rate", rec.CurrentRate.String(),
		"observations", len(rec.History))
	t.notifySave(ctx)
	return result, nil
}

// notifySave emits the dirty signal after a mutation. Callers hold the
// mutex; the notifier must not block.
func (t *Tracker) notifySave(ctx context.Context) {
	if t.notifier == nil {
		slog.DebugContext(ctx, "No persistence worker attached, skipping save signal")
		return
	}
	t.notifier.Notify()
}

// Expenses returns the ledger entries in insertion order.
func (t *Tracker) Expenses() []core.Expense {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.Entries()
}

// GroupedExpenses returns the ledger grouped by calendar day, newest
// group first.
func (t *Tracker) GroupedExpenses() []core.DayGroup {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.GroupedByDay()
}

// Total is the running total in the primary currency at current rates.
// It is recomputed on every call and will drift from the per-entry
// snapshots as rates move; both numbers are intentional.
func (t *Tracker) Total() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.TotalInPrimary(t.ledger.Entries(), t.registry.Primary(), t.rates)
}

// DisplayConversion is the live primary-currency value of one entry.
func (t *Tracker) DisplayConversion(e core.Expense) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.ConvertToPrimary(e, t.registry.Primary(), t.rates)
}

func (t *Tracker) Currencies() []core.Currency {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registry.Currencies()
}

func (t *Tracker) PrimaryCurrency() core.Currency {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registry.Primary()
}

// ResolveRate reports the best-known rate for the pair, parity when
// nothing is recorded. The second result tells callers whether the rate
// is backed by observations or is the unverified fallback.
func (t *Tracker) ResolveRate(fromCode, toCode string) (decimal.Decimal, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rates.Resolve(fromCode, toCode), t.rates.Known(fromCode, toCode)
}

// RateView pairs a stored key with its record, for listings.
type RateView struct {
	Pair   string
	Record core.RateRecord
}

func (t *Tracker) Rates() []RateView {
	t.mu.Lock()
	defer t.mu.Unlock()
	records := t.rates.Records()
	views := make([]RateView, 0, len(records))
	for _, key := range t.rates.Keys() {
		views = append(views, RateView{Pair: key, Record: *records[key]})
	}
	return views
}

// Snapshot captures the whole state for the persistence gateway.
func (t *Tracker) Snapshot() core.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.BuildSnapshot(t.registry, t.rates, t.ledger)
}
