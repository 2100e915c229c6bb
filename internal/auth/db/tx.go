package db

import (
	"context"
	"database/sql"

	"github.com/willemschots/signin/internal/auth"
	"github.com/willemschots/signin/internal/errorz"
)

// Tx is a write transaction. Its statements use the context the
// transaction was started with.
type Tx struct {
	ctx   context.Context
	tx    *sql.Tx
	store *Store
}

func (t *Tx) Commit() error {
	return errorz.MapDBErr(t.tx.Commit())
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// CreateAccount inserts a with its identity encrypted. a.ID must be set.
func (t *Tx) CreateAccount(a *auth.Account) error {
	return insertAccount(t.store.newQuery(), t.exec, a)
}

// UpdateAccount updates the secret hash, status and UpdatedAt of a.
// It returns errorz.ErrNotFound if a doesn't exist.
func (t *Tx) UpdateAccount(a *auth.Account) error {
	return updateAccount(t.store.newQuery(), t.exec, a)
}

// FindAccounts returns the accounts matching filter, or an empty slice.
func (t *Tx) FindAccounts(filter *auth.AccountFilter) ([]auth.Account, error) {
	return selectAccounts(t.store.newQuery(), t.query, filter)
}

func (t *Tx) exec(query string, params ...any) (sql.Result, error) {
	return t.tx.ExecContext(t.ctx, query, params...)
}

func (t *Tx) query(query string, params ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(t.ctx, query, params...)
}
