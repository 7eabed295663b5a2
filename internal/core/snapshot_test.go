package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSnapshotRoundTrip(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.Add("GBP", "£", "British Pound"); err != nil {
		t.Fatalf("add currency: %v", err)
	}
	if err := registry.SetPrimary("USD"); err != nil {
		t.Fatalf("set primary: %v", err)
	}

	rates := NewRateStore()
	mustRecord(t, rates, "EUR", "USD", "1.1")
	mustRecord(t, rates, "EUR", "USD", "1.3")

	ledger := NewLedger()
	eur, _ := registry.ByCode("EUR")
	ledger.Append(Expense{
		ID:            "e1",
		Amount:        decimal.NewFromInt(12),
		Description:   "coffee",
		Category:      Categories[0],
		Date:          time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
		Currency:      eur,
		PrimaryAmount: decimal.NewFromInt(10),
	})

	snap := BuildSnapshot(registry, rates, ledger)
	blob, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	var loaded Snapshot
	if err := json.Unmarshal(blob, &loaded); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	loaded.Normalize()

	r2 := RegistryFromSnapshot(loaded.Currencies, loaded.PrimaryCurrency)
	if r2.Primary().Code != "USD" {
		t.Fatalf("primary lost in round trip: %s", r2.Primary().Code)
	}
	if len(r2.Currencies()) != len(registry.Currencies()) {
		t.Fatalf("currency count changed: %d vs %d", len(r2.Currencies()), len(registry.Currencies()))
	}

	s2 := RateStoreFromSnapshot(loaded.ExchangeRates)
	want := decimal.RequireFromString("1.2")
	if got := s2.Resolve("EUR", "USD"); !got.Equal(want) {
		t.Fatalf("restored rate = %s, expected %s", got, want)
	}

	l2 := LedgerFromSnapshot(loaded.Expenses)
	if l2.Len() != 1 {
		t.Fatalf("expense count changed: %d", l2.Len())
	}
	e, ok := l2.Get("e1")
	if !ok {
		t.Fatalf("expense e1 lost in round trip")
	}
	if !e.Amount.Equal(decimal.NewFromInt(12)) || !e.PrimaryAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("amounts changed: %s / %s", e.Amount, e.PrimaryAmount)
	}
	if e.Description != "coffee" || e.Category.ID != 1 || e.Currency.Code != "EUR" {
		t.Fatalf("entry fields changed: %+v", e)
	}
}

func TestSnapshotJSONLayout(t *testing.T) {
	snap := BuildSnapshot(NewRegistry(), NewRateStore(), NewLedger())
	blob, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	for _, key := range []string{`"expenses"`, `"currencies"`, `"primaryCurrency"`, `"exchangeRates"`} {
		if !strings.Contains(string(blob), key) {
			t.Fatalf("snapshot JSON missing %s: %s", key, blob)
		}
	}
}

func TestSnapshotNormalizeDefaults(t *testing.T) {
	var snap Snapshot
	snap.Normalize()
	if len(snap.Currencies) != len(DefaultCurrencies) {
		t.Fatalf("expected default currencies, got %d", len(snap.Currencies))
	}
	if snap.PrimaryCurrency.Code != DefaultCurrencies[0].Code {
		t.Fatalf("expected default primary, got %s", snap.PrimaryCurrency.Code)
	}
	if snap.Expenses == nil || snap.ExchangeRates == nil {
		t.Fatalf("collections not defaulted")
	}
}
