package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testExpense(id string, amount string, at time.Time) Expense {
	return Expense{
		ID:            id,
		Amount:        decimal.RequireFromString(amount),
		Category:      Categories[0],
		Date:          at,
		Currency:      DefaultCurrencies[0],
		PrimaryAmount: decimal.RequireFromString(amount),
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{" 5 ", "5", true},
		{"0.01", "0.01", true},
		{"", "", false},
		{"abc", "", false},
		{"0", "", false},
		{"-5", "", false},
		{"+5", "", false},
		{"1.2.3", "", false},
	}
	for i, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d (%q): expected ok, got %v", i, tc.in, err)
		}
		if !tc.ok {
			if err != ErrInvalidAmount {
				t.Fatalf("case %d (%q): expected ErrInvalidAmount, got %v", i, tc.in, err)
			}
			continue
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("case %d (%q): got %s, expected %s", i, tc.in, got, tc.want)
		}
	}
}

func TestParseRateErrorKind(t *testing.T) {
	if _, err := ParseRate("nope"); err != ErrInvalidRate {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestLedgerDelete(t *testing.T) {
	l := NewLedger()
	now := time.Now()
	l.Append(testExpense("a", "10", now))
	l.Append(testExpense("b", "20", now))

	if removed := l.Delete("missing"); removed {
		t.Fatalf("deleting an absent id must be a no-op")
	}
	if l.Len() != 2 {
		t.Fatalf("ledger changed by absent delete: %d entries", l.Len())
	}

	if removed := l.Delete("a"); !removed {
		t.Fatalf("expected delete to remove entry a")
	}
	if l.Len() != 1 {
		t.Fatalf("expected exactly one entry removed, %d left", l.Len())
	}
	if _, ok := l.Get("a"); ok {
		t.Fatalf("entry a still present after delete")
	}
	if _, ok := l.Get("b"); !ok {
		t.Fatalf("entry b removed by deleting a")
	}
}

func TestDayKey(t *testing.T) {
	at := time.Date(2024, 5, 2, 15, 4, 5, 0, time.UTC)
	if got := DayKey(at); got != "2.5.2024" {
		t.Fatalf("DayKey = %q, expected 2.5.2024", got)
	}
}

func TestGroupedByDay(t *testing.T) {
	l := NewLedger()
	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	day2Later := time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC)

	// insertion order crosses days on purpose
	l.Append(testExpense("a", "10", day1))
	l.Append(testExpense("b", "20", day2))
	l.Append(testExpense("c", "30", day2Later))

	groups := l.GroupedByDay()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Day != "2.5.2024" || groups[1].Day != "1.5.2024" {
		t.Fatalf("expected descending group order [2.5.2024 1.5.2024], got [%s %s]", groups[0].Day, groups[1].Day)
	}
	if len(groups[0].Expenses) != 2 {
		t.Fatalf("same-day entries split across groups: %d", len(groups[0].Expenses))
	}
	if groups[0].Expenses[0].ID != "b" || groups[0].Expenses[1].ID != "c" {
		t.Fatalf("insertion order not preserved within group: %s, %s",
			groups[0].Expenses[0].ID, groups[0].Expenses[1].ID)
	}
}

func TestLedgerFromSnapshotDropsInvalid(t *testing.T) {
	now := time.Now()
	valid := testExpense("ok", "10", now)
	broken := testExpense("", "10", now) // no id
	l := LedgerFromSnapshot([]Expense{valid, broken})
	if l.Len() != 1 {
		t.Fatalf("expected 1 restored entry, got %d", l.Len())
	}
}
