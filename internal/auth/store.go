package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/willemschots/signin/internal/email"
)

// AccountStore is used by the Decider to look up accounts.
type AccountStore interface {
	// FindByIdentity returns the account with the provided (normalized) identity.
	// It returns errorz.ErrNotFound if no such account exists. Any other error
	// is considered a failure of the store itself.
	FindByIdentity(ctx context.Context, identity email.Address) (Account, error)
}

// AccountFilter is used to filter accounts.
// Returned accounts must match all the provided fields.
// If a field is empty or nil, it's ignored.
type AccountFilter struct {
	IDs        []uuid.UUID
	Identities []email.Address
	Statuses   []Status
}

// Store provides transactional access to the account store.
type Store interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is a transaction. If an error occurs on any of the Create/Update/Find methods,
// the transaction is considered to have failed and should be rolled back.
// Tx is not safe for concurrent use.
type Tx interface {
	Commit() error
	Rollback() error

	CreateAccount(a *Account) error
	UpdateAccount(a *Account) error
	FindAccounts(filter *AccountFilter) ([]Account, error)
}
