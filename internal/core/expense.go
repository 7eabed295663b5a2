package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single recorded expense. PrimaryAmount is the value in the
// primary currency frozen at creation time; it is never recomputed when
// rates change later. Entries are immutable except for deletion.
type Expense struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Category      Category        `json:"category"`
	Date          time.Time       `json:"date"`
	Currency      Currency        `json:"currency"`
	PrimaryAmount decimal.Decimal `json:"primaryAmount"`
}

func (e Expense) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("expense id is empty")
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if _, ok := CategoryByID(e.Category.ID); !ok {
		return ErrUnknownCategory
	}
	if NormalizeCode(e.Currency.Code) == "" {
		return ErrEmptyCode
	}
	if e.Date.IsZero() {
		return fmt.Errorf("expense date is zero")
	}
	return nil
}

// Ledger is the collection of recorded expenses, identity by ID, kept in
// insertion order.
type Ledger struct {
	entries []Expense
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// LedgerFromSnapshot rebuilds a ledger from persisted entries, dropping
// any that no longer validate.
func LedgerFromSnapshot(entries []Expense) *Ledger {
	l := &Ledger{}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			continue
		}
		l.entries = append(l.entries, e)
	}
	return l
}

func (l *Ledger) Append(e Expense) {
	l.entries = append(l.entries, e)
}

// Delete removes the entry with the given ID. Deleting an absent ID is a
// no-op, not an error.
func (l *Ledger) Delete(id string) bool {
	for i, e := range l.entries {
		if e.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (l *Ledger) Get(id string) (Expense, bool) {
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Expense{}, false
}

func (l *Ledger) Entries() []Expense {
	return append([]Expense(nil), l.entries...)
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// DayKey formats a timestamp as the calendar-day key used for grouping,
// D.M.YYYY without zero padding (e.g. "2.5.2024").
func DayKey(t time.Time) string {
	return fmt.Sprintf("%d.%d.%d", t.Day(), int(t.Month()), t.Year())
}

// DayGroup is one calendar day's expenses, in ledger insertion order.
type DayGroup struct {
	Day      string    `json:"day"`
	Expenses []Expense `json:"expenses"`
}

// GroupedByDay groups the ledger by calendar day. Groups are ordered
// descending by the date of their first member; entries within a group
// keep insertion order and are not re-sorted by time of day.
func (l *Ledger) GroupedByDay() []DayGroup {
	index := make(map[string]int)
	var groups []DayGroup
	for _, e := range l.entries {
		key := DayKey(e.Date)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Day: key})
		}
		groups[i].Expenses = append(groups[i].Expenses, e)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Expenses[0].Date.After(groups[b].Expenses[0].Date)
	})
	return groups
}
