package core

import (
	"errors"
	"strings"
)

var (
	ErrEmptyCode         = errors.New("empty currency code")
	ErrEmptySymbol       = errors.New("empty currency symbol")
	ErrEmptyName         = errors.New("empty currency name")
	ErrDuplicateCurrency = errors.New("currency code already registered")
	ErrUnknownCurrency   = errors.New("unknown currency")
)

// Currency is an immutable value identified by its upper-case code.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// DefaultCurrencies seed a fresh registry. The first entry is the
// initial primary currency.
var DefaultCurrencies = []Currency{
	{Code: "RUB", Symbol: "₽", Name: "Russian Ruble"},
	{Code: "USD", Symbol: "$", Name: "US Dollar"},
	{Code: "EUR", Symbol: "€", Name: "Euro"},
}

// NormalizeCode trims and upper-cases a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Registry holds the ordered set of known currencies plus the designated
// primary currency. Insertion order is display order. The registry is never
// empty and the primary is always a member.
type Registry struct {
	currencies []Currency
	primary    int // index into currencies
}

// NewRegistry returns a registry seeded with DefaultCurrencies.
func NewRegistry() *Registry {
	return &Registry{currencies: append([]Currency(nil), DefaultCurrencies...)}
}

// RegistryFromSnapshot rebuilds a registry from persisted state. Empty
// currency lists fall back to the defaults; an absent or unknown primary
// falls back to the first currency.
func RegistryFromSnapshot(currencies []Currency, primary Currency) *Registry {
	r := &Registry{}
	for _, c := range currencies {
		c.Code = NormalizeCode(c.Code)
		if c.Code == "" {
			continue
		}
		r.currencies = append(r.currencies, c)
	}
	if len(r.currencies) == 0 {
		r.currencies = append([]Currency(nil), DefaultCurrencies...)
	}
	for i, c := range r.currencies {
		if c.Code == NormalizeCode(primary.Code) {
			r.primary = i
			break
		}
	}
	return r
}

// Add validates and appends a new currency. Any empty field is a validation
// failure and leaves the registry unchanged. Codes are unique: the original
// app silently accepted duplicates, which is treated here as a latent bug
// and rejected instead.
func (r *Registry) Add(code, symbol, name string) (Currency, error) {
	code = NormalizeCode(code)
	symbol = strings.TrimSpace(symbol)
	name = strings.TrimSpace(name)
	if code == "" {
		return Currency{}, ErrEmptyCode
	}
	if symbol == "" {
		return Currency{}, ErrEmptySymbol
	}
	if name == "" {
		return Currency{}, ErrEmptyName
	}
	if _, ok := r.ByCode(code); ok {
		return Currency{}, ErrDuplicateCurrency
	}
	c := Currency{Code: code, Symbol: symbol, Name: name}
	r.currencies = append(r.currencies, c)
	return c, nil
}

// SetPrimary designates an already registered currency as primary. Past
// expense snapshots are not recomputed.
func (r *Registry) SetPrimary(code string) error {
	code = NormalizeCode(code)
	for i, c := range r.currencies {
		if c.Code == code {
			r.primary = i
			return nil
		}
	}
	return ErrUnknownCurrency
}

// Primary returns the designated primary currency.
func (r *Registry) Primary() Currency {
	return r.currencies[r.primary]
}

// ByCode looks up a currency by its (normalized) code.
func (r *Registry) ByCode(code string) (Currency, bool) {
	code = NormalizeCode(code)
	for _, c := range r.currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// Currencies returns the currencies in display order.
func (r *Registry) Currencies() []Currency {
	return append([]Currency(nil), r.currencies...)
}
