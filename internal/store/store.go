// Package store owns the pipeline's schema, connection pool, and the
// transactional upsert/delete-before-insert primitives every stage builds
// on. No stage opens a database connection of its own.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const connRecycleInterval = 3600 * time.Second

// Store is the shared, process-wide handle every stage is given.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database file (and its parent directory) if needed,
// configures the connection pool, and runs schema migration.
func Open(path string, poolSize int) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening db: %w", err)
	}
	if err := configureSQLiteConnection(db, poolSize); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: configure sqlite: %w", err)
	}

	s := New(db)
	if err := s.Init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle for read-only custom queries not covered
// by a named Store method (the package tests use it for ad-hoc counts).
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS complaints_raw (
			sr_number TEXT PRIMARY KEY,
			sr_row_id TEXT,
			mdn TEXT,
			open_ts TEXT NOT NULL,
			close_ts TEXT,
			open_date TEXT NOT NULL,
			sr_type TEXT,
			sr_sub_type TEXT,
			sr_status TEXT,
			sr_sub_status TEXT,
			region TEXT,
			city TEXT,
			exc_id TEXT,
			cabinet_id TEXT,
			dp_id TEXT,
			switch_id TEXT,
			rca TEXT,
			desc_text TEXT,
			priority TEXT,
			product TEXT,
			sub_product TEXT,
			cust_seg TEXT,
			sr_duration TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_raw_open_date ON complaints_raw(open_date);`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_raw_mdn ON complaints_raw(mdn);`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_raw_region ON complaints_raw(region);`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_raw_close_ts ON complaints_raw(close_ts);`,

		`CREATE TABLE IF NOT EXISTS daily_anomalies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			anomaly_date TEXT NOT NULL,
			dimension TEXT NOT NULL,
			dimension_key TEXT NOT NULL,
			metric_value REAL NOT NULL,
			baseline_avg REAL NOT NULL,
			baseline_std REAL NOT NULL,
			z_score REAL NOT NULL,
			severity TEXT NOT NULL,
			rca_context TEXT,
			UNIQUE(anomaly_date, dimension, dimension_key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_anomalies_date ON daily_anomalies(anomaly_date);`,

		`CREATE TABLE IF NOT EXISTS daily_trends (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trend_date TEXT NOT NULL,
			dimension TEXT NOT NULL,
			dimension_key TEXT NOT NULL,
			window INTEGER NOT NULL,
			trend_direction TEXT NOT NULL,
			trend_strength REAL NOT NULL,
			significance REAL,
			metric_value REAL NOT NULL,
			UNIQUE(trend_date, dimension, dimension_key, window)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_trends_date ON daily_trends(trend_date);`,

		`CREATE TABLE IF NOT EXISTS daily_variations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			variation_date TEXT NOT NULL,
			dimension TEXT NOT NULL,
			dimension_key TEXT NOT NULL,
			variation_type TEXT NOT NULL,
			current_value REAL NOT NULL,
			previous_value REAL NOT NULL,
			variation_percent REAL NOT NULL,
			is_significant INTEGER NOT NULL,
			UNIQUE(variation_date, dimension, dimension_key, variation_type)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_variations_date ON daily_variations(variation_date);`,

		`CREATE TABLE IF NOT EXISTS daily_mttr (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			metric_date TEXT NOT NULL,
			dimension TEXT NOT NULL,
			dimension_key TEXT NOT NULL,
			mean_hours REAL NOT NULL,
			sample_count INTEGER NOT NULL,
			UNIQUE(metric_date, dimension, dimension_key)
		);`,
		`CREATE TABLE IF NOT EXISTS daily_aging (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			metric_date TEXT NOT NULL,
			dimension TEXT NOT NULL,
			dimension_key TEXT NOT NULL,
			slab TEXT NOT NULL,
			count INTEGER NOT NULL,
			UNIQUE(metric_date, dimension, dimension_key, slab)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_mttr_date ON daily_mttr(metric_date);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_aging_date ON daily_aging(metric_date);`,

		`CREATE TABLE IF NOT EXISTS exec_insights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			title TEXT NOT NULL,
			summary TEXT NOT NULL,
			severity TEXT NOT NULL,
			UNIQUE(created_at, title)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_exec_insights_created_at ON exec_insights(created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullableFloat64Ptr(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
