// Package db contains the sqlite plumbing shared by the stores of signin.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// busyTimeoutMS is how long a connection waits for a lock before failing with SQLITE_BUSY.
const busyTimeoutMS = 5000

// dsn returns the data source name for dbFile.
//
// Both pools use WAL mode so readers don't block the writer, wait for locks
// and enforce foreign keys. The write pool starts its transactions immediately
// to avoid lock upgrades failing halfway, the read pool refuses to write.
// See https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995
func dsn(dbFile string, write bool) string {
	opts := url.Values{}
	opts.Set("_foreign_keys", "on")
	opts.Set("_journal_mode", "wal")
	opts.Set("_busy_timeout", strconv.Itoa(busyTimeoutMS))
	if write {
		opts.Set("_txlock", "immediate")
	} else {
		opts.Set("_query_only", "on")
	}

	return dbFile + "?" + opts.Encode()
}

// OpenSQLite opens a pool of connections to dbFile, configured for either
// writing or reading.
func OpenSQLite(dbFile string, write bool) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(dbFile, write))
	if err != nil {
		return nil, err
	}

	if write {
		// sqlite allows a single writer, so the write pool holds on to one connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}

	return db, nil
}

// Pools are the write and read pools of a single database file.
type Pools struct {
	Write *sql.DB
	Read  *sql.DB
}

// OpenPools opens both pools for dbFile and checks they can connect.
func OpenPools(ctx context.Context, dbFile string) (*Pools, error) {
	write, err := OpenSQLite(dbFile, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open write pool: %w", err)
	}

	read, err := OpenSQLite(dbFile, false)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to open read pool: %w", err), write.Close())
	}

	p := &Pools{Write: write, Read: read}

	// The write pool connects first, so a new database file is in WAL mode
	// before the read pool opens it.
	err = write.PingContext(ctx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect write pool: %w", err), p.Close())
	}

	err = read.PingContext(ctx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect read pool: %w", err), p.Close())
	}

	return p, nil
}

// Close closes both pools.
func (p *Pools) Close() error {
	return errors.Join(p.Write.Close(), p.Read.Close())
}
