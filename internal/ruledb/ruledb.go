// Package ruledb exports mined rule tables to a SQLite database.
package ruledb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/basketlens/internal/apriori"
	"github.com/KaramelBytes/basketlens/internal/rules"
	"github.com/google/uuid"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// ErrRunNotFound is returned when a run id is not in the database.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	source         TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	transactions   INTEGER NOT NULL,
	min_support    REAL NOT NULL,
	min_confidence REAL NOT NULL,
	min_lift       REAL NOT NULL,
	min_length     INTEGER NOT NULL,
	max_length     INTEGER NOT NULL,
	rule_count     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS rules (
	run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	bought_item   TEXT NOT NULL,
	expected_item TEXT NOT NULL,
	support       REAL NOT NULL,
	confidence    REAL NOT NULL,
	lift          REAL NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS idx_rules_bought ON rules(bought_item);
`

// Run describes one exported rule table.
type Run struct {
	ID           string             `json:"id"`
	Source       string             `json:"source"`
	CreatedAt    time.Time          `json:"created_at"`
	Transactions int                `json:"transactions"`
	Thresholds   apriori.Thresholds `json:"thresholds"`
	RuleCount    int                `json:"rule_count"`
}

// DB wraps the export database.
type DB struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open rule database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

// Export stores t as a new run in one transaction and returns the run.
func (d *DB) Export(ctx context.Context, source string, transactions int, th apriori.Thresholds, t rules.Table) (Run, error) {
	run := Run{
		ID:           uuid.NewString(),
		Source:       source,
		CreatedAt:    time.Now().UTC(),
		Transactions: transactions,
		Thresholds:   th,
		RuleCount:    len(t),
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin export: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, created_at, transactions, min_support, min_confidence, min_lift, min_length, max_length, rule_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.CreatedAt.Format(time.RFC3339Nano), run.Transactions,
		th.MinSupport, th.MinConfidence, th.MinLift, th.MinLength, th.MaxLength, run.RuleCount,
	); err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rules (run_id, position, bought_item, expected_item, support, confidence, lift)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("prepare rule insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for i, r := range t {
		if _, err := stmt.ExecContext(ctx, run.ID, i, r.BoughtItem, r.ExpectedItem, r.Support, r.Confidence, r.Lift); err != nil {
			return Run{}, fmt.Errorf("insert rule %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit export: %w", err)
	}
	return run, nil
}

// Runs lists exported runs, newest first.
func (d *DB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, source, created_at, transactions, min_support, min_confidence, min_lift, min_length, max_length, rule_count
		 FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			created string
		)
		if err := rows.Scan(&r.ID, &r.Source, &created, &r.Transactions,
			&r.Thresholds.MinSupport, &r.Thresholds.MinConfidence, &r.Thresholds.MinLift,
			&r.Thresholds.MinLength, &r.Thresholds.MaxLength, &r.RuleCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse run time %q: %w", created, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Rules returns the rule table of a run in export order.
func (d *DB) Rules(ctx context.Context, runID string) (rules.Table, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&n); err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT bought_item, expected_item, support, confidence, lift
		 FROM rules WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := rules.Table{}
	for rows.Next() {
		var r rules.Rule
		if err := rows.Scan(&r.BoughtItem, &r.ExpectedItem, &r.Support, &r.Confidence, &r.Lift); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
