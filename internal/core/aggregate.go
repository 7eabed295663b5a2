package core

import "github.com/shopspring/decimal"

// Live aggregation over the ledger. These deliberately use the currently
// resolvable rates, in contrast to the PrimaryAmount snapshot frozen on
// each entry: the snapshot is historical, the totals below track today's
// rates. The two numbers are both legitimate and must not be conflated.

// TotalInPrimary sums all entries converted into the primary currency at
// current rates. Entries already in the primary currency contribute their
// amount unchanged.
func TotalInPrimary(entries []Expense, primary Currency, rates *RateStore) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(ConvertToPrimary(e, primary, rates))
	}
	return total
}

// ConvertToPrimary is the live display conversion for a single entry:
// amount / rate, where the stored rate means "1 unit of the entry currency
// = rate units counted toward the pair's to-side".
func ConvertToPrimary(e Expense, primary Currency, rates *RateStore) decimal.Decimal {
	if NormalizeCode(e.Currency.Code) == primary.Code {
		return e.Amount
	}
	return e.Amount.Div(rates.Resolve(e.Currency.Code, primary.Code))
}
