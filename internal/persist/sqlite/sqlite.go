// Package sqlite persists the state snapshot in a local SQLite database.
// Every save rewrites the whole state inside one transaction, keeping the
// "one atomic snapshot" property the engine relies on.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"spendtrack/internal/core"
)

type Repository struct {
	db *sql.DB
}

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Save(ctx context.Context, snap core.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"rate_observations", "rate_records", "expenses", "currencies"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, c := range snap.Currencies {
		isPrimary := 0
		if c.Code == snap.PrimaryCurrency.Code {
			isPrimary = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO currencies (position, code, symbol, name, is_primary) VALUES (?, ?, ?, ?, ?)`,
			i, c.Code, c.Symbol, c.Name, isPrimary)
		if err != nil {
			return fmt.Errorf("insert currency %s: %w", c.Code, err)
		}
	}

	for i, e := range snap.Expenses {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (position, id, amount, description, category_id, date,
			        currency_code, currency_symbol, currency_name, primary_amount)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, e.ID, e.Amount.String(), e.Description, e.Category.ID,
			e.Date.Format(time.RFC3339Nano),
			e.Currency.Code, e.Currency.Symbol, e.Currency.Name,
			e.PrimaryAmount.String())
		if err != nil {
			return fmt.Errorf("insert expense %s: %w", e.ID, err)
		}
	}

	for pair, rec := range snap.ExchangeRates {
		if rec == nil {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO rate_records (pair, current_rate) VALUES (?, ?)`,
			pair, rec.CurrentRate.String())
		if err != nil {
			return fmt.Errorf("insert rate record %s: %w", pair, err)
		}
		for _, obs := range rec.History {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO rate_observations (pair, rate, observed_at) VALUES (?, ?, ?)`,
				pair, obs.Rate.String(), obs.ObservedAt.Format(time.RFC3339Nano))
			if err != nil {
				return fmt.Errorf("insert observation for %s: %w", pair, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (r *Repository) Load(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot

	currencies, primary, err := r.loadCurrencies(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	snap.Currencies = currencies
	snap.PrimaryCurrency = primary

	if snap.Expenses, err = r.loadExpenses(ctx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.ExchangeRates, err = r.loadRates(ctx); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

func (r *Repository) loadCurrencies(ctx context.Context) ([]core.Currency, core.Currency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, symbol, name, is_primary FROM currencies ORDER BY position`)
	if err != nil {
		return nil, core.Currency{}, fmt.Errorf("load currencies: %w", err)
	}
	defer rows.Close()

	var currencies []core.Currency
	var primary core.Currency
	for rows.Next() {
		var c core.Currency
		var isPrimary int
		if err := rows.Scan(&c.Code, &c.Symbol, &c.Name, &isPrimary); err != nil {
			return nil, core.Currency{}, fmt.Errorf("scan currency: %w", err)
		}
		currencies = append(currencies, c)
		if isPrimary == 1 {
			primary = c
		}
	}
	return currencies, primary, rows.Err()
}

func (r *Repository) loadExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, description, category_id, date,
		        currency_code, currency_symbol, currency_name, primary_amount
		 FROM expenses ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e                           core.Expense
			amount, date, primaryAmount string
			categoryID                  int
		)
		err := rows.Scan(&e.ID, &amount, &e.Description, &categoryID, &date,
			&e.Currency.Code, &e.Currency.Symbol, &e.Currency.Name, &primaryAmount)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("decode amount for %s: %w", e.ID, err)
		}
		if e.PrimaryAmount, err = decimal.NewFromString(primaryAmount); err != nil {
			return nil, fmt.Errorf("decode primary amount for %s: %w", e.ID, err)
		}
		if e.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("decode date for %s: %w", e.ID, err)
		}
		// the category set is fixed and not persisted beyond its id
		if cat, ok := core.CategoryByID(categoryID); ok {
			e.Category = cat
		} else {
			e.Category = core.Category{ID: categoryID}
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *Repository) loadRates(ctx context.Context) (map[string]*core.RateRecord, error) {
	records := make(map[string]*core.RateRecord)

	rows, err := r.db.QueryContext(ctx, `SELECT pair, current_rate FROM rate_records`)
	if err != nil {
		return nil, fmt.Errorf("load rate records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pair, current string
		if err := rows.Scan(&pair, &current); err != nil {
			return nil, fmt.Errorf("scan rate record: %w", err)
		}
		rate, err := decimal.NewFromString(current)
		if err != nil {
			return nil, fmt.Errorf("decode rate for %s: %w", pair, err)
		}
		records[pair] = &core.RateRecord{CurrentRate: rate}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	obsRows, err := r.db.QueryContext(ctx,
		`SELECT pair, rate, observed_at FROM rate_observations ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load rate observations: %w", err)
	}
	defer obsRows.Close()
	for obsRows.Next() {
		var pair, rate, observedAt string
		if err := obsRows.Scan(&pair, &rate, &observedAt); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		rec, ok := records[pair]
		if !ok {
			continue
		}
		var obs core.RateObservation
		if obs.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("decode observation rate for %s: %w", pair, err)
		}
		if obs.ObservedAt, err = time.Parse(time.RFC3339Nano, observedAt); err != nil {
			return nil, fmt.Errorf("decode observation time for %s: %w", pair, err)
		}
		rec.History = append(rec.History, obs)
	}
	return records, obsRows.Err()
}
