package store

import "database/sql"

// configureSQLiteConnection tunes the pool for a single-writer batch
// pipeline: WAL so readers (dashboard, exec-insights feed) never block on an
// in-flight stage transaction, and a busy timeout so concurrent stage runs
// queue instead of failing immediately.
func configureSQLiteConnection(db *sql.DB, poolSize int) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	if poolSize <= 0 {
		poolSize = 5
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(connRecycleInterval)
	return nil
}
