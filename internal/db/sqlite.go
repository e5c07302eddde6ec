// Package db provides SQLite connectivity helpers and migration support.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Hardened SQLite DSN parameters.
const (
	busyTimeoutMillis = "5000"
	synchronousMode   = "NORMAL"
	journalMode       = "WAL"
)

// OpenSQLite opens a *sql.DB pool for the given SQLite file path.
//
// mode controls write-safety and pool sizing:
//   - "write": MaxOpenConns=1, includes _txlock=immediate
//   - "read":  MaxOpenConns=maxOpen (0 defaults to 4), no _txlock
//
// Both modes use WAL, busy_timeout=5000ms, synchronous=NORMAL, and
// foreign_keys=on.
func OpenSQLite(path string, mode string, maxOpen int) (*sql.DB, error) {
	if mode != "read" && mode != "write" {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be \"read\" or \"write\"", mode)
	}

	conn, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	switch mode {
	case "write":
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	case "read":
		if maxOpen <= 0 {
			maxOpen = 4
		}
		conn.SetMaxOpenConns(maxOpen)
		conn.SetMaxIdleConns(maxOpen)
	}
	conn.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}

	return conn, nil
}

// OpenSQLitePair opens both a write pool (single connection, serialized) and
// a read pool for the same SQLite file. This is how the HTTP server should
// open its store: DDL and mutations go through writeDB, queries through readDB.
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	writeDB, err = OpenSQLite(path, "write", 0)
	if err != nil {
		return nil, nil, err
	}

	readDB, err = OpenSQLite(path, "read", readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}

	return writeDB, readDB, nil
}

func buildDSN(path string, mode string) string {
	params := url.Values{}
	params.Set("_journal_mode", journalMode)
	params.Set("_busy_timeout", busyTimeoutMillis)
	params.Set("_synchronous", synchronousMode)
	params.Set("_foreign_keys", "on")

	if mode == "write" {
		params.Set("_txlock", "immediate")
	}

	return path + "?" + params.Encode()
}
