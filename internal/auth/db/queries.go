package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/willemschots/signin/internal/auth"
	"github.com/willemschots/signin/internal/db"
	"github.com/willemschots/signin/internal/email"
	"github.com/willemschots/signin/internal/errorz"
	"github.com/willemschots/signin/internal/krypto"
)

type execFunc func(query string, params ...any) (sql.Result, error)
type queryFunc func(query string, params ...any) (*sql.Rows, error)

// run builds q and hands it to fn, database errors are mapped to errorz errors.
func run[T any, F ~func(string, ...any) (T, error)](q *db.Query, fn F) (T, error) {
	var zero T
	s, params, err := q.Get()
	if err != nil {
		return zero, err
	}

	out, err := fn(s, params...)
	if err != nil {
		return zero, errorz.MapDBErr(err)
	}

	return out, nil
}

func insertAccount(q *db.Query, ef execFunc, a *auth.Account) error {
	if a.ID == uuid.Nil {
		return fmt.Errorf("zero uuid provided: %w", errorz.ErrConstraintViolated)
	}

	if a.SecretHash == nil {
		return fmt.Errorf("no secret hash provided: %w", errorz.ErrConstraintViolated)
	}

	q.Unsafe(`INSERT INTO accounts (id, identity_encrypted, identity_blind_index, secret_hash, status, created_at, updated_at) VALUES (`)
	q.Param(a.ID)
	q.Unsafe(`, `)
	q.ParamEncrypted([]byte(a.Identity))
	q.Unsafe(`, `)
	q.ParamBlindIndex([]byte(a.Identity.Normalized()))
	q.Unsafe(`, `)
	q.Params(a.SecretHash.String(), a.Status, a.CreatedAt, a.UpdatedAt)
	q.Unsafe(`)`)

	_, err := run(q, ef)
	return err
}

func updateAccount(q *db.Query, ef execFunc, a *auth.Account) error {
	if a.SecretHash == nil {
		return fmt.Errorf("no secret hash provided: %w", errorz.ErrConstraintViolated)
	}

	q.Unsafe(`UPDATE accounts SET `)

	q.Unsafe(`secret_hash = `)
	q.Param(a.SecretHash.String())

	q.Unsafe(`, status = `)
	q.Param(a.Status)

	q.Unsafe(`, updated_at = `)
	q.Param(a.UpdatedAt)

	q.Unsafe(` WHERE id = `)
	q.Param(a.ID)

	result, err := run(q, ef)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errorz.MapDBErr(err)
	}

	if rows == 0 {
		return fmt.Errorf("account not found: %w", errorz.ErrNotFound)
	}

	return nil
}

func selectAccounts(q *db.Query, qf queryFunc, f *auth.AccountFilter) ([]auth.Account, error) {
	q.Unsafe(`SELECT id, identity_encrypted, secret_hash, status, created_at, updated_at FROM accounts WHERE 1=1 `)

	if len(f.IDs) > 0 {
		q.Unsafe(`AND id IN (`)
		q.Params(anySlice(f.IDs)...)
		q.Unsafe(`) `)
	}

	if len(f.Identities) > 0 {
		indexes := make([][]byte, 0, len(f.Identities))
		for _, identity := range f.Identities {
			indexes = append(indexes, []byte(identity.Normalized()))
		}

		q.Unsafe(`AND identity_blind_index IN (`)
		q.ParamBlindIndexes(indexes...)
		q.Unsafe(`) `)
	}

	if len(f.Statuses) > 0 {
		q.Unsafe(`AND status IN (`)
		q.Params(anySlice(f.Statuses)...)
		q.Unsafe(`) `)
	}

	q.Unsafe(`ORDER BY created_at ASC, id ASC`)

	rows, err := run(q, qf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]auth.Account, 0)
	for rows.Next() {
		var (
			a          auth.Account
			secretHash string
		)

		identityBytes := q.DecryptionTarget()
		err := rows.Scan(&a.ID, identityBytes, &secretHash, &a.Status, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}

		a.Identity, err = email.ParseAddress(string(identityBytes.Data))
		if err != nil {
			return nil, err
		}

		a.SecretHash, err = krypto.ParseSecretHash(secretHash)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", a.ID, err)
		}

		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

func insertLoginAttempt(q *db.Query, ef execFunc, attempt auth.LoginAttempt) error {
	q.Unsafe(`INSERT INTO login_attempts (identity_blind_index, outcome, created_at) VALUES (`)
	paramIdentityIndex(q, attempt.Identity)
	q.Unsafe(`, `)
	q.Params(string(attempt.Outcome), attempt.CreatedAt)
	q.Unsafe(`)`)

	_, err := run(q, ef)
	return err
}

func countLoginAttempts(q *db.Query, qf queryFunc, identity string, outcome auth.Outcome) (int, error) {
	q.Unsafe(`SELECT COUNT(*) FROM login_attempts WHERE identity_blind_index = `)
	paramIdentityIndex(q, identity)
	q.Unsafe(` AND outcome = `)
	q.Param(string(outcome))

	rows, err := run(q, qf)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		err = rows.Scan(&count)
		if err != nil {
			return 0, errorz.MapDBErr(err)
		}
	}

	if err := rows.Err(); err != nil {
		return 0, errorz.MapDBErr(err)
	}

	return count, nil
}

// paramIdentityIndex adds the blind index of a submitted identity. Login attempts
// can have any identity, including an empty one, so it's normalized here.
func paramIdentityIndex(q *db.Query, identity string) {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" {
		q.Param("")
		return
	}
	q.ParamBlindIndex([]byte(identity))
}

func anySlice[T any](s []T) []any {
	out := make([]any, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}
