package core

// Snapshot is the serializable whole-state blob handed to the persistence
// gateway: the four top-level fields, written together on every mutation.
// The JSON layout is the storage contract; gateways must not invent their
// own shapes for these fields.
type Snapshot struct {
	Expenses        []Expense              `json:"expenses"`
	Currencies      []Currency             `json:"currencies"`
	PrimaryCurrency Currency               `json:"primaryCurrency"`
	ExchangeRates   map[string]*RateRecord `json:"exchangeRates"`
}

// BuildSnapshot captures the current state of the three stateful components.
func BuildSnapshot(registry *Registry, rates *RateStore, ledger *Ledger) Snapshot {
	return Snapshot{
		Expenses:        ledger.Entries(),
		Currencies:      registry.Currencies(),
		PrimaryCurrency: registry.Primary(),
		ExchangeRates:   rates.Records(),
	}
}

// Normalize applies load-time defaulting: missing collections become empty,
// a missing currency set becomes the built-in defaults, and a missing or
// unknown primary falls back to the first currency.
func (s *Snapshot) Normalize() {
	if s.Expenses == nil {
		s.Expenses = []Expense{}
	}
	if s.ExchangeRates == nil {
		s.ExchangeRates = map[string]*RateRecord{}
	}
	if len(s.Currencies) == 0 {
		s.Currencies = append([]Currency(nil), DefaultCurrencies...)
	}
	registry := RegistryFromSnapshot(s.Currencies, s.PrimaryCurrency)
	s.Currencies = registry.Currencies()
	s.PrimaryCurrency = registry.Primary()
}
