package migrate

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/willemschots/signin/internal"
)

// Migration is a migration that was applied to a database.
type Migration struct {
	// Sequence is the position of the migration, the first one is 0.
	Sequence int
	Filename string
	// Checksum is the hex encoded sha256 of the migration file.
	Checksum string
	Metadata Metadata
}

// Equal reports whether two migrations are equal.
func (m Migration) Equal(other Migration) bool {
	return m.Sequence == other.Sequence &&
		m.Filename == other.Filename &&
		m.Checksum == other.Checksum &&
		m.Metadata.AppVersion == other.Metadata.AppVersion &&
		m.Metadata.Timestamp.Equal(other.Metadata.Timestamp)
}

// Metadata records which build applied a migration.
type Metadata struct {
	AppVersion string
	Timestamp  time.Time
}

// BuildMetadata returns the metadata of the running binary.
func BuildMetadata() Metadata {
	return Metadata{
		AppVersion: internal.BuildRevision,
		Timestamp:  internal.BuildRevisionTime,
	}
}

const migrationsTableQuery = `CREATE TABLE IF NOT EXISTS schema_migrations (
	sequence    INTEGER PRIMARY KEY,
	filename    TEXT NOT NULL,
	checksum    TEXT NOT NULL,
	app_version TEXT NOT NULL,
	timestamp   TIMESTAMP NOT NULL
)
`

var (
	// ErrNoTable indicates the migrations table does not exist.
	ErrNoTable = errors.New("migrations table does not exist")
	// ErrMigrationsMismatch indicates the applied migrations no longer match the migration files.
	ErrMigrationsMismatch = errors.New("migrations mismatch")
)

// MigrationError is returned when a migration file fails to execute.
type MigrationError struct {
	Sequence int
	Filename string
	Err      error
}

func (m MigrationError) Error() string {
	return fmt.Sprintf("migration [%d] %q failed: %v", m.Sequence, m.Filename, m.Err)
}

func (m MigrationError) Unwrap() error {
	return m.Err
}

// RunFS applies the pending migrations in fileSys to db in a single transaction, and
// returns the migrations it applied (an empty slice when the database is up to date).
//
// Only .sql files in the root of fileSys are considered, they are applied in lexical
// order of their filenames. Files that were applied before must still be present,
// with the same name and content, otherwise ErrMigrationsMismatch is returned.
func RunFS(ctx context.Context, db *sql.DB, fileSys fs.FS, meta Metadata) ([]Migration, error) {
	files, err := loadFiles(fileSys)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, migrationsTableQuery)
	if err != nil {
		return nil, rollback(tx, fmt.Errorf("failed to create migrations table: %w", err))
	}

	applied, err := queryWith(func(q string) (*sql.Rows, error) {
		return tx.QueryContext(ctx, q)
	})
	if err != nil {
		return nil, rollback(tx, err)
	}

	pending, err := pendingFiles(applied, files)
	if err != nil {
		return nil, rollback(tx, err)
	}

	result, err := apply(ctx, tx, len(applied), pending, meta)
	if err != nil {
		return nil, rollback(tx, err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// Pending returns the filenames of the migrations in fileSys that have not been
// applied to db yet. It does not modify db.
func Pending(ctx context.Context, db *sql.DB, fileSys fs.FS) ([]string, error) {
	files, err := loadFiles(fileSys)
	if err != nil {
		return nil, err
	}

	applied, err := QueryMigrations(ctx, db)
	if errors.Is(err, ErrNoTable) {
		applied = nil
	} else if err != nil {
		return nil, err
	}

	pending, err := pendingFiles(applied, files)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(pending))
	for _, f := range pending {
		names = append(names, f.name)
	}

	return names, nil
}

// pendingFiles verifies the applied migrations against files and returns the files
// that still need to be applied.
func pendingFiles(applied []Migration, files []file) ([]file, error) {
	if len(applied) > len(files) {
		return nil, fmt.Errorf(
			"found %d applied migrations but only %d files: %w",
			len(applied), len(files), ErrMigrationsMismatch,
		)
	}

	for i, m := range applied {
		if i != m.Sequence {
			return nil, fmt.Errorf("migration sequence mismatch, wanted %d got %d", i, m.Sequence)
		}

		if m.Filename != files[i].name {
			return nil, fmt.Errorf(
				"migration %d was applied as %s, but the file is now %s: %w",
				i, m.Filename, files[i].name, ErrMigrationsMismatch,
			)
		}

		if m.Checksum != files[i].checksum {
			return nil, fmt.Errorf(
				"migration %d (%s) changed after it was applied: %w",
				i, m.Filename, ErrMigrationsMismatch,
			)
		}
	}

	return files[len(applied):], nil
}

func apply(ctx context.Context, tx *sql.Tx, offset int, files []file, meta Metadata) ([]Migration, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO schema_migrations (sequence, filename, checksum, app_version, timestamp) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	out := make([]Migration, 0, len(files))
	for i, f := range files {
		m := Migration{
			Sequence: offset + i,
			Filename: f.name,
			Checksum: f.checksum,
			Metadata: meta,
		}

		_, err := tx.ExecContext(ctx, f.content)
		if err != nil {
			return nil, MigrationError{Sequence: m.Sequence, Filename: m.Filename, Err: err}
		}

		_, err = stmt.ExecContext(ctx, m.Sequence, m.Filename, m.Checksum, m.Metadata.AppVersion, m.Metadata.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to record migration %s: %w", m.Filename, err)
		}

		out = append(out, m)
	}

	return out, nil
}

// QueryMigrations returns the migrations applied to db, in order.
// It returns ErrNoTable if no migrations were ever run against db.
func QueryMigrations(ctx context.Context, db *sql.DB) ([]Migration, error) {
	return queryWith(func(q string) (*sql.Rows, error) {
		return db.QueryContext(ctx, q)
	})
}

func queryWith(rowsFunc func(q string) (*sql.Rows, error)) ([]Migration, error) {
	const q = `SELECT sequence, filename, checksum, app_version, timestamp FROM schema_migrations ORDER BY sequence`
	rows, err := rowsFunc(q)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, ErrNoTable
		}
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	out := make([]Migration, 0)
	for rows.Next() {
		var m Migration
		err := rows.Scan(&m.Sequence, &m.Filename, &m.Checksum, &m.Metadata.AppVersion, &m.Metadata.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}

		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over migrations: %w", err)
	}

	return out, nil
}

type file struct {
	name     string
	content  string
	checksum string
}

func loadFiles(fileSys fs.FS) ([]file, error) {
	entries, err := fs.ReadDir(fileSys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	files := make([]file, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		content, err := fs.ReadFile(fileSys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %q: %w", entry.Name(), err)
		}

		sum := sha256.Sum256(content)
		files = append(files, file{
			name:     entry.Name(),
			content:  string(content),
			checksum: hex.EncodeToString(sum[:]),
		})
	}

	return files, nil
}

func rollback(tx *sql.Tx, err error) error {
	rErr := tx.Rollback()
	if rErr != nil {
		return errors.Join(err, rErr)
	}

	return err
}
