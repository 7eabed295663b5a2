package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

type countNotifier struct {
	n int
}

func (c *countNotifier) Notify() { c.n++ }

func newTestTracker(opts ...Option) (*Tracker, *countNotifier) {
	notifier := &countNotifier{}
	seq := 0
	base := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	defaults := []Option{
		WithNotifier(notifier),
		WithClock(func() time.Time { return base }),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
	}
	return New(core.Snapshot{}, append(defaults, opts...)...), notifier
}

func TestAddExpenseInPrimaryCurrency(t *testing.T) {
	tracker, notifier := newTestTracker()
	ctx := context.Background()

	e, err := tracker.AddExpense(ctx, "100", "groceries", 1, "RUB")
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if !e.PrimaryAmount.Equal(e.Amount) {
		t.Fatalf("primary-currency entry must snapshot its own amount: %s vs %s", e.PrimaryAmount, e.Amount)
	}
	if e.ID != "id-1" {
		t.Fatalf("unexpected id %s", e.ID)
	}
	if notifier.n != 1 {
		t.Fatalf("expected one save signal, got %d", notifier.n)
	}
}

func TestAddExpenseSnapshotsRate(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	// 1 USD = 0.5 RUB (manually entered, as the conversion screen would)
	if _, err := tracker.Convert(ctx, "USD", "RUB", "1", "0.5"); err != nil {
		t.Fatalf("convert: %v", err)
	}

	e, err := tracker.AddExpense(ctx, "50", "", 2, "USD")
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	// 50 / 0.5 = 100
	if !e.PrimaryAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("primary amount = %s, expected 100", e.PrimaryAmount)
	}

	// later observations must not touch the stored snapshot
	for i := 0; i < 10; i++ {
		if _, err := tracker.Convert(ctx, "USD", "RUB", "1", "0.25"); err != nil {
			t.Fatalf("convert: %v", err)
		}
	}
	stored := tracker.Expenses()[0]
	if !stored.PrimaryAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("snapshot recomputed retroactively: %s", stored.PrimaryAmount)
	}
	// while the live conversion follows the new mean (50 / 0.25 = 200)
	if got := tracker.DisplayConversion(stored); !got.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("live conversion = %s, expected 200", got)
	}
}

func TestAddExpenseValidation(t *testing.T) {
	tracker, notifier := newTestTracker()
	ctx := context.Background()

	cases := []struct {
		amount   string
		category int
		currency string
		wantErr  error
	}{
		{"abc", 1, "RUB", core.ErrInvalidAmount},
		{"", 1, "RUB", core.ErrInvalidAmount},
		{"-5", 1, "RUB", core.ErrInvalidAmount},
		{"10", 42, "RUB", core.ErrUnknownCategory},
		{"10", 1, "XXX", core.ErrUnknownCurrency},
	}
	for i, tc := range cases {
		if _, err := tracker.AddExpense(ctx, tc.amount, "", tc.category, tc.currency); err != tc.wantErr {
			t.Fatalf("case %d: expected %v, got %v", i, tc.wantErr, err)
		}
	}
	if len(tracker.Expenses()) != 0 {
		t.Fatalf("rejected expenses must not be recorded")
	}
	if notifier.n != 0 {
		t.Fatalf("rejected mutations must not trigger saves, got %d", notifier.n)
	}
}

func TestDeleteExpense(t *testing.T) {
	tracker, notifier := newTestTracker()
	ctx := context.Background()

	e, err := tracker.AddExpense(ctx, "10", "", 1, "RUB")
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	saves := notifier.n

	if tracker.DeleteExpense(ctx, "missing") {
		t.Fatalf("deleting an unknown id must be a no-op")
	}
	if notifier.n != saves {
		t.Fatalf("no-op delete must not trigger a save")
	}

	if !tracker.DeleteExpense(ctx, e.ID) {
		t.Fatalf("expected delete to succeed")
	}
	if len(tracker.Expenses()) != 0 {
		t.Fatalf("entry survived deletion")
	}
	if notifier.n != saves+1 {
		t.Fatalf("expected one more save signal")
	}
}

func TestConvert(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	res, err := tracker.Convert(ctx, "usd", "eur", "100", "0.9")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !res.Result.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("result = %s, expected 90", res.Result)
	}
	if len(res.Record.History) != 1 || !res.Record.CurrentRate.Equal(decimal.RequireFromString("0.9")) {
		t.Fatalf("rate not recorded: %+v", res.Record)
	}

	// the recorded rate now drives resolution both ways
	if rate, known := tracker.ResolveRate("USD", "EUR"); !known || !rate.Equal(decimal.RequireFromString("0.9")) {
		t.Fatalf("direct resolve = %s known=%v", rate, known)
	}
	want := decimal.NewFromInt(1).Div(decimal.RequireFromString("0.9"))
	if rate, known := tracker.ResolveRate("EUR", "USD"); !known || !rate.Equal(want) {
		t.Fatalf("inverse resolve = %s known=%v", rate, known)
	}

	// validation failures leave the store untouched
	if _, err := tracker.Convert(ctx, "USD", "EUR", "x", "0.9"); err != core.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := tracker.Convert(ctx, "USD", "EUR", "10", "0"); err != core.ErrInvalidRate {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := tracker.Convert(ctx, "USD", "ZZZ", "10", "1"); err != core.ErrUnknownCurrency {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	if views := tracker.Rates(); len(views) != 1 || len(views[0].Record.History) != 1 {
		t.Fatalf("failed conversions must not record observations: %+v", views)
	}
}

func TestTotalProperty(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	if _, err := tracker.Convert(ctx, "USD", "RUB", "1", "0.5"); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if _, err := tracker.AddExpense(ctx, "100", "", 1, "RUB"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := tracker.AddExpense(ctx, "50", "", 1, "USD"); err != nil {
		t.Fatalf("add: %v", err)
	}

	// 100 + 50/0.5 = 200
	if got := tracker.Total(); !got.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("total = %s, expected 200", got)
	}
}

func TestSetPrimaryCurrency(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	e, err := tracker.AddExpense(ctx, "100", "", 1, "RUB")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := tracker.SetPrimaryCurrency(ctx, "usd"); err != nil {
		t.Fatalf("set primary: %v", err)
	}
	if tracker.PrimaryCurrency().Code != "USD" {
		t.Fatalf("primary = %s, expected USD", tracker.PrimaryCurrency().Code)
	}
	if err := tracker.SetPrimaryCurrency(ctx, "ZZZ"); err != core.ErrUnknownCurrency {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}

	// switching primary never rewrites stored snapshots
	stored := tracker.Expenses()[0]
	if !stored.PrimaryAmount.Equal(e.PrimaryAmount) {
		t.Fatalf("snapshot rewritten on primary switch: %s", stored.PrimaryAmount)
	}
}

func TestAddCurrency(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	c, err := tracker.AddCurrency(ctx, "gbp", "£", "British Pound")
	if err != nil {
		t.Fatalf("add currency: %v", err)
	}
	if c.Code != "GBP" {
		t.Fatalf("code not normalized: %s", c.Code)
	}
	if _, err := tracker.AddCurrency(ctx, "GBP", "£", "Again"); err != core.ErrDuplicateCurrency {
		t.Fatalf("expected ErrDuplicateCurrency, got %v", err)
	}
	if _, err := tracker.AddCurrency(ctx, "", "£", "Pound"); err != core.ErrEmptyCode {
		t.Fatalf("expected ErrEmptyCode, got %v", err)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	if _, err := tracker.Convert(ctx, "EUR", "RUB", "1", "100"); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if _, err := tracker.AddExpense(ctx, "42", "book", 3, "EUR"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tracker.SetPrimaryCurrency(ctx, "EUR"); err != nil {
		t.Fatalf("set primary: %v", err)
	}

	restored := New(tracker.Snapshot())
	if restored.PrimaryCurrency().Code != "EUR" {
		t.Fatalf("primary lost: %s", restored.PrimaryCurrency().Code)
	}
	if len(restored.Expenses()) != 1 || restored.Expenses()[0].Description != "book" {
		t.Fatalf("ledger lost: %+v", restored.Expenses())
	}
	if rate, known := restored.ResolveRate("EUR", "RUB"); !known || !rate.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("rates lost: %s known=%v", rate, known)
	}
}

func TestGroupedExpensesThroughTracker(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	times := []time.Time{day1, day2}
	i := 0
	tracker, _ := newTestTracker(WithClock(func() time.Time {
		at := times[i%len(times)]
		i++
		return at
	}))
	ctx := context.Background()

	if _, err := tracker.AddExpense(ctx, "1", "", 1, "RUB"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := tracker.AddExpense(ctx, "2", "", 1, "RUB"); err != nil {
		t.Fatalf("add: %v", err)
	}

	groups := tracker.GroupedExpenses()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Day != "2.5.2024" || groups[1].Day != "1.5.2024" {
		t.Fatalf("group order [%s %s], expected newest first", groups[0].Day, groups[1].Day)
	}
}
