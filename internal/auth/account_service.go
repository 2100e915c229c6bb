package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/willemschots/signin/internal/email"
	"github.com/willemschots/signin/internal/errorz"
)

var (
	ErrDuplicateAccount = errors.New("duplicate account")
)

// AccountService manages the accounts the Decider authenticates against.
type AccountService struct {
	store Store

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

func NewAccountService(s Store) *AccountService {
	return &AccountService{
		store:   s,
		NowFunc: time.Now,
	}
}

// NewAccount contains the input for creating an account.
type NewAccount struct {
	Identity email.Address
	Secret   Secret
}

// CreateAccount creates a new active account. It returns ErrDuplicateAccount if
// an account with the same (case-insensitive) identity already exists.
func (s *AccountService) CreateAccount(ctx context.Context, n NewAccount) (Account, error) {
	if n.Identity == "" {
		return Account{}, errorz.InvalidInput{errorz.Keyed{Key: "Identity", Err: email.ErrInvalidEmail}}
	}

	hash, err := n.Secret.Hash()
	if err != nil {
		return Account{}, err
	}

	now := s.NowFunc()
	account := Account{
		ID:         uuid.New(),
		Identity:   n.Identity.Normalized(),
		SecretHash: hash,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.inTx(ctx, func(tx Tx) error {
		accounts, txErr := tx.FindAccounts(&AccountFilter{
			Identities: []email.Address{account.Identity},
		})
		if txErr != nil {
			return txErr
		}

		if len(accounts) > 0 {
			return ErrDuplicateAccount
		}

		return tx.CreateAccount(&account)
	})
	if err != nil {
		return Account{}, err
	}

	return account, nil
}

// SuspendAccount suspends the account with the provided identity.
// Suspending a suspended account is not an error.
func (s *AccountService) SuspendAccount(ctx context.Context, identity email.Address) error {
	return s.updateAccount(ctx, identity, func(a *Account) error {
		a.Status = StatusSuspended
		return nil
	})
}

// ReactivateAccount lifts the suspension of the account with the provided identity.
// Reactivating an active account is not an error.
func (s *AccountService) ReactivateAccount(ctx context.Context, identity email.Address) error {
	return s.updateAccount(ctx, identity, func(a *Account) error {
		a.Status = StatusActive
		return nil
	})
}

// ChangeSecret replaces the secret of the account with the provided identity.
func (s *AccountService) ChangeSecret(ctx context.Context, identity email.Address, secret Secret) error {
	hash, err := secret.Hash()
	if err != nil {
		return err
	}

	return s.updateAccount(ctx, identity, func(a *Account) error {
		a.SecretHash = hash
		return nil
	})
}

// ListAccounts returns all accounts, oldest first.
func (s *AccountService) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := s.inTx(ctx, func(tx Tx) error {
		var txErr error
		accounts, txErr = tx.FindAccounts(&AccountFilter{})
		return txErr
	})
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (s *AccountService) updateAccount(ctx context.Context, identity email.Address, modFunc func(a *Account) error) error {
	return s.inTx(ctx, func(tx Tx) error {
		accounts, err := tx.FindAccounts(&AccountFilter{
			Identities: []email.Address{identity.Normalized()},
		})
		if err != nil {
			return err
		}

		if len(accounts) != 1 {
			return fmt.Errorf("account %s: %w", identity, errorz.ErrNotFound)
		}

		account := accounts[0]
		err = modFunc(&account)
		if err != nil {
			return err
		}

		account.UpdatedAt = s.NowFunc()
		return tx.UpdateAccount(&account)
	})
}

func (s *AccountService) inTx(ctx context.Context, f func(tx Tx) error) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}

	err = f(tx)
	if err != nil {
		rBackErr := tx.Rollback()
		if rBackErr != nil {
			err = errors.Join(err, rBackErr)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	return nil
}
