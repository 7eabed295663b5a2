package core

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidRate = errors.New("invalid rate")

// rateWindow is how many of the most recent observations feed the current
// rate. Older observations stay in the history for audit only.
const rateWindow = 10

// RateObservation is a single manually entered rate, append-only.
type RateObservation struct {
	Rate       decimal.Decimal `json:"rate"`
	ObservedAt time.Time       `json:"date"`
}

// RateRecord holds the observation history for one ordered currency pair.
// CurrentRate is derived: the arithmetic mean of the last rateWindow
// observations. It is never set directly.
type RateRecord struct {
	CurrentRate decimal.Decimal   `json:"rate"`
	History     []RateObservation `json:"history"`
}

func (r *RateRecord) recompute() {
	window := r.History
	if len(window) > rateWindow {
		window = window[len(window)-rateWindow:]
	}
	rates := make([]decimal.Decimal, len(window))
	for i, obs := range window {
		rates[i] = obs.Rate
	}
	r.CurrentRate = decimal.Avg(rates[0], rates[1:]...)
}

// PairKey builds the ordered-pair key for a rate record, "FROM_TO".
func PairKey(fromCode, toCode string) string {
	return NormalizeCode(fromCode) + "_" + NormalizeCode(toCode)
}

// RateStore maps ordered currency-code pairs to their rate records. Only
// the direction a rate was entered in is stored; the reverse is computed
// on read, never written.
type RateStore struct {
	records map[string]*RateRecord
}

func NewRateStore() *RateStore {
	return &RateStore{records: make(map[string]*RateRecord)}
}

// RateStoreFromSnapshot rebuilds a store from persisted records. Records
// with no usable history or a non-positive rate are dropped; current rates
// are re-derived from the history rather than trusted.
func RateStoreFromSnapshot(records map[string]*RateRecord) *RateStore {
	s := NewRateStore()
	for key, rec := range records {
		if rec == nil {
			continue
		}
		history := make([]RateObservation, 0, len(rec.History))
		for _, obs := range rec.History {
			if obs.Rate.IsPositive() {
				history = append(history, obs)
			}
		}
		if len(history) == 0 {
			if !rec.CurrentRate.IsPositive() {
				continue
			}
			history = []RateObservation{{Rate: rec.CurrentRate}}
		}
		restored := &RateRecord{History: history}
		restored.recompute()
		s.records[key] = restored
	}
	return s
}

// Record appends an observation for the exact (from, to) pair, creating
// the record on first sight, and recomputes the current rate.
func (s *RateStore) Record(fromCode, toCode string, rate decimal.Decimal, observedAt time.Time) (RateRecord, error) {
	if !rate.IsPositive() {
		return RateRecord{}, ErrInvalidRate
	}
	key := PairKey(fromCode, toCode)
	rec, ok := s.records[key]
	if !ok {
		rec = &RateRecord{}
		s.records[key] = rec
	}
	rec.History = append(rec.History, RateObservation{Rate: rate, ObservedAt: observedAt})
	rec.recompute()
	return cloneRecord(rec), nil
}

// Resolve returns the best-known conversion rate meaning "1 from = rate to".
// Lookup order: identity, direct record, inverse record, then parity (1) as
// an unverified fallback. Read-only and safe to call on every render.
func (s *RateStore) Resolve(fromCode, toCode string) decimal.Decimal {
	from := NormalizeCode(fromCode)
	to := NormalizeCode(toCode)
	if from == to {
		return decimal.NewFromInt(1)
	}
	if rec, ok := s.records[PairKey(from, to)]; ok {
		return rec.CurrentRate
	}
	if rec, ok := s.records[PairKey(to, from)]; ok {
		return decimal.NewFromInt(1).Div(rec.CurrentRate)
	}
	return decimal.NewFromInt(1)
}

// Known reports whether a non-fallback rate exists for the pair in either
// direction. Identity counts as known.
func (s *RateStore) Known(fromCode, toCode string) bool {
	from := NormalizeCode(fromCode)
	to := NormalizeCode(toCode)
	if from == to {
		return true
	}
	if _, ok := s.records[PairKey(from, to)]; ok {
		return true
	}
	_, ok := s.records[PairKey(to, from)]
	return ok
}

// Records returns a deep copy of all records keyed by pair.
func (s *RateStore) Records() map[string]*RateRecord {
	out := make(map[string]*RateRecord, len(s.records))
	for key, rec := range s.records {
		c := cloneRecord(rec)
		out[key] = &c
	}
	return out
}

// Keys returns the stored pair keys in sorted order, for stable listings.
func (s *RateStore) Keys() []string {
	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneRecord(rec *RateRecord) RateRecord {
	return RateRecord{
		CurrentRate: rec.CurrentRate,
		History:     append([]RateObservation(nil), rec.History...),
	}
}
