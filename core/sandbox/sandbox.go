// Package sandbox replays ledger outcomes against a throwaway SQLite ledger.
//
// The ledger keeps double-entry postings in integer centavos. Every applied
// outcome is one batch whose postings must net to zero across the user,
// system, products and rail settlement accounts. Synthesized invariants are
// then evaluated against balances read back from the database, once per seed,
// so a fixture is known to hold on both an empty and a busy ledger before it
// is written out.
package sandbox

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"billing-fixtures/core/determinism"
	"billing-fixtures/core/invariant"
	"billing-fixtures/core/ledger"
	"billing-fixtures/core/scenario"
	"billing-fixtures/internal/errors"
)

// Ledger is an in-memory SQLite ledger.
type Ledger struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates an empty in-memory ledger. The database lives on a single
// connection; closing the ledger discards it.
func Open(ctx context.Context) (*Ledger, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, errors.Internal("failed to open sandbox ledger", err)
	}
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db}
	if err := l.migrate(ctx); err != nil {
		db.Close()
		return nil, errors.Internal("failed to migrate sandbox ledger", err)
	}
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		name TEXT PRIMARY KEY
	);

	-- Opening balances are kind 'opening'; scenario movements are kind 'movement'
	CREATE TABLE IF NOT EXISTS postings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('opening', 'movement')),
		account TEXT NOT NULL REFERENCES accounts(name),
		product TEXT,
		cents INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_postings_batch ON postings(batch);
	CREATE INDEX IF NOT EXISTS idx_postings_account ON postings(account, product);
	`
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	for _, a := range ledger.Accounts() {
		if _, err := l.db.ExecContext(ctx, `INSERT OR IGNORE INTO accounts (name) VALUES (?)`, string(a)); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func post(ctx context.Context, db execer, batch, kind string, account ledger.Account, product string, amount decimal.Decimal) error {
	var prod sql.NullString
	if product != "" {
		prod = sql.NullString{String: product, Valid: true}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO postings (batch, kind, account, product, cents) VALUES (?, ?, ?, ?, ?)`,
		batch, kind, string(account), prod, determinism.ToCents(amount),
	)
	return err
}

// Seed describes opening balances. Products entries are pool balances keyed
// by product index; their sum is the products account balance.
type Seed struct {
	Name     string
	Balances map[ledger.Account]decimal.Decimal
	Products map[string]decimal.Decimal
}

// Seed writes opening balances in one transaction.
func (l *Ledger) Seed(ctx context.Context, seed Seed) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	batch := "seed:" + seed.Name
	for _, a := range determinism.SortedKeys(seed.Balances) {
		if a == ledger.Products {
			continue
		}
		if err := post(ctx, tx, batch, "opening", a, "", seed.Balances[a]); err != nil {
			return errors.Internal("failed to seed balance", err)
		}
	}
	for _, p := range determinism.SortedKeys(seed.Products) {
		if err := post(ctx, tx, batch, "opening", ledger.Products, p, seed.Products[p]); err != nil {
			return errors.Internal("failed to seed product", err)
		}
	}
	return tx.Commit()
}

// Apply posts an outcome as one balanced batch. The batch is rolled back
// when its postings do not net to zero.
func (l *Ledger) Apply(ctx context.Context, batch string, out ledger.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, a := range []ledger.Account{ledger.User, ledger.System, ledger.RailSettlement} {
		delta := out.Delta(a)
		if delta.IsZero() {
			continue
		}
		if err := post(ctx, tx, batch, "movement", a, "", delta); err != nil {
			return errors.Internal("failed to post movement", err)
		}
	}
	credited := decimal.Zero
	for _, c := range out.Credits {
		if err := post(ctx, tx, batch, "movement", ledger.Products, c.Index, c.Amount); err != nil {
			return errors.Internal("failed to post credit", err)
		}
		credited = credited.Add(c.Amount)
	}
	if !credited.Equal(out.Products) {
		return errors.Newf(errors.TypeInvariant, "batch %s: credits %s do not add up to products delta %s",
			batch, credited.StringFixed(2), out.Products.StringFixed(2))
	}

	var sum int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(cents), 0) FROM postings WHERE batch = ?`, batch,
	).Scan(&sum); err != nil {
		return errors.Internal("failed to sum batch", err)
	}
	if sum != 0 {
		return errors.Newf(errors.TypeInvariant, "batch %s does not balance: off by %s",
			batch, determinism.FromCents(sum).StringFixed(2)).WithContext("batch", batch)
	}
	return tx.Commit()
}

// Snapshot is the ledger state at one point in time
type Snapshot struct {
	Balances map[ledger.Account]decimal.Decimal
	Products map[string]decimal.Decimal
}

// Snapshot reads every account balance and the products pool.
func (l *Ledger) Snapshot(ctx context.Context) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{
		Balances: make(map[ledger.Account]decimal.Decimal),
		Products: make(map[string]decimal.Decimal),
	}
	for _, a := range ledger.Accounts() {
		snap.Balances[a] = decimal.Zero
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT account, COALESCE(product, ''), SUM(cents)
		FROM postings
		GROUP BY account, product
		ORDER BY account, product
	`)
	if err != nil {
		return Snapshot{}, errors.Internal("failed to query balances", err)
	}
	defer rows.Close()

	for rows.Next() {
		var account, product string
		var cents int64
		if err := rows.Scan(&account, &product, &cents); err != nil {
			return Snapshot{}, errors.Internal("failed to scan balance", err)
		}
		amount := determinism.FromCents(cents)
		a := ledger.Account(account)
		snap.Balances[a] = snap.Balances[a].Add(amount)
		if a == ledger.Products && product != "" {
			snap.Products[product] = amount
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, errors.Internal("failed to read balances", err)
	}
	return snap, nil
}

// DefaultSeeds returns the ledgers every fixture is replayed on: one holding
// exactly what the scenario needs and one already carrying unrelated
// balances from earlier activity.
func DefaultSeeds(out ledger.Outcome) []Seed {
	return []Seed{
		{
			Name: "empty",
			Balances: map[ledger.Account]decimal.Decimal{
				ledger.User: out.TotalCharge,
			},
		},
		{
			Name: "accumulated",
			Balances: map[ledger.Account]decimal.Decimal{
				ledger.User:           decimal.NewFromInt(50000).Add(out.TotalCharge),
				ledger.System:         decimal.NewFromInt(1000000),
				ledger.RailSettlement: decimal.NewFromInt(350),
			},
			Products: map[string]decimal.Decimal{
				ledger.CashProduct:    decimal.RequireFromString("12500.00"),
				"inputs.fields.email": decimal.RequireFromString("44.00"),
				"rider.message":       decimal.RequireFromString("9.00"),
			},
		},
	}
}

// SeedResult is the evaluation of all invariants on one seeded ledger
type SeedResult struct {
	Seed    string
	Results []invariant.Result
}

// Report is the sandbox verdict for one scenario
type Report struct {
	Scenario string
	Seeds    []SeedResult
}

// Violations returns every failing result across seeds, prefixed with the seed name
func (r Report) Violations() []string {
	var out []string
	for _, s := range r.Seeds {
		for _, res := range invariant.Failed(s.Results) {
			out = append(out, fmt.Sprintf("%s: %s", s.Seed, res))
		}
	}
	return out
}

// Passed reports whether every invariant held on every seed
func (r Report) Passed() bool {
	return len(r.Violations()) == 0
}

// Verify replays an outcome on each seed and evaluates the invariants
// against the balances read back from the ledger. No seeds means DefaultSeeds.
func Verify(ctx context.Context, spec scenario.Spec, out ledger.Outcome, invs []invariant.Invariant, seeds ...Seed) (Report, error) {
	if len(seeds) == 0 {
		seeds = DefaultSeeds(out)
	}
	report := Report{Scenario: spec.Title}
	for _, seed := range seeds {
		results, err := run(ctx, spec, out, invs, seed)
		if err != nil {
			return Report{}, errors.Wrapf(errors.TypeOf(err), err, "seed %s", seed.Name)
		}
		report.Seeds = append(report.Seeds, SeedResult{Seed: seed.Name, Results: results})
	}
	return report, nil
}

func run(ctx context.Context, spec scenario.Spec, out ledger.Outcome, invs []invariant.Invariant, seed Seed) ([]invariant.Result, error) {
	l, err := Open(ctx)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	if err := l.Seed(ctx, seed); err != nil {
		return nil, err
	}
	before, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.Apply(ctx, spec.Key(), out); err != nil {
		return nil, err
	}
	after, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return invariant.EvaluateAll(invs, invariant.Observation{
		Before:        before.Balances,
		After:         after.Balances,
		Products:      after.Products,
		VoucherAmount: spec.BaseAmount,
		VoucherCount:  spec.Count,
	}), nil
}
