package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/willemschots/signin/internal/auth"
	"github.com/willemschots/signin/internal/db"
	"github.com/willemschots/signin/internal/email"
	"github.com/willemschots/signin/internal/errorz"
	"github.com/willemschots/signin/internal/krypto"
)

// Store is responsible for storing accounts and login attempts in SQLite.
//
// Identities are stored encrypted. To still be able to look them up, a
// blind index (a keyed hash of the normalized identity) is stored next to them.
type Store struct {
	readDB        *sql.DB
	writeDB       *sql.DB
	encryptor     *krypto.Encryptor
	blindIndexKey krypto.Key
}

// New creates a new Store. Reads that are not part of a transaction use
// readDB, everything else uses writeDB. They may be the same.
func New(readDB, writeDB *sql.DB, encryptor *krypto.Encryptor, blindIndexKey krypto.Key) *Store {
	return &Store{
		readDB:        readDB,
		writeDB:       writeDB,
		encryptor:     encryptor,
		blindIndexKey: blindIndexKey,
	}
}

// BeginTx starts a write transaction, ctx applies to all its statements.
func (s *Store) BeginTx(ctx context.Context) (auth.Tx, error) {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}
	return &Tx{
		ctx:   ctx,
		tx:    tx,
		store: s,
	}, nil
}

// FindByIdentity finds the account with the provided identity.
// It returns errorz.ErrNotFound if no such account exists.
func (s *Store) FindByIdentity(ctx context.Context, identity email.Address) (auth.Account, error) {
	accounts, err := selectAccounts(s.newQuery(), func(query string, params ...any) (*sql.Rows, error) {
		return s.readDB.QueryContext(ctx, query, params...)
	}, &auth.AccountFilter{
		Identities: []email.Address{identity},
	})
	if err != nil {
		return auth.Account{}, err
	}

	if len(accounts) != 1 {
		return auth.Account{}, fmt.Errorf("account: %w", errorz.ErrNotFound)
	}

	return accounts[0], nil
}

// RecordLoginAttempt stores a login attempt.
func (s *Store) RecordLoginAttempt(ctx context.Context, attempt auth.LoginAttempt) error {
	return insertLoginAttempt(s.newQuery(), func(query string, params ...any) (sql.Result, error) {
		return s.writeDB.ExecContext(ctx, query, params...)
	}, attempt)
}

// CountLoginAttempts counts the login attempts for an identity with the given outcome.
func (s *Store) CountLoginAttempts(ctx context.Context, identity string, outcome auth.Outcome) (int, error) {
	return countLoginAttempts(s.newQuery(), func(query string, params ...any) (*sql.Rows, error) {
		return s.readDB.QueryContext(ctx, query, params...)
	}, identity, outcome)
}

func (s *Store) newQuery() *db.Query {
	return &db.Query{
		Encryptor:     s.encryptor,
		BlindIndexKey: s.blindIndexKey,
	}
}
