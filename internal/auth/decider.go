package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/willemschots/signin/internal/email"
	"github.com/willemschots/signin/internal/errorz"
	"github.com/willemschots/signin/internal/krypto"
)

// DeciderConfig is the configuration for the Decider.
type DeciderConfig struct {
	// LookupTimeout bounds the duration of the account lookup.
	// Zero means no timeout other than the one of the provided context.
	LookupTimeout time.Duration
}

// Decider decides the outcome of login attempts. It holds no mutable
// state and is safe for concurrent use.
type Decider struct {
	store AccountStore
	audit AuditLog
	cfg   DeciderConfig

	// comparisonHash is used to compare secrets when no usable account was found.
	// It's argon2id, so it only matches the timing of accounts with argon2id hashes,
	// not of accounts that still have an imported bcrypt hash.
	comparisonHash krypto.Argon2Hash
}

// NewDecider creates a new Decider that looks up accounts in store
// and records every outcome to audit.
func NewDecider(store AccountStore, audit AuditLog, cfg DeciderConfig) (*Decider, error) {
	tok, err := krypto.GenerateToken()
	if err != nil {
		return nil, err
	}

	hash, err := krypto.HashArgon2(tok[:])
	if err != nil {
		return nil, err
	}

	return &Decider{
		store:          store,
		audit:          audit,
		cfg:            cfg,
		comparisonHash: hash,
	}, nil
}

// Evaluate decides the outcome of a single login attempt. The checks are
// done in a fixed order and the first failing check determines the outcome:
//
//  1. The anti-forgery token must be valid.
//  2. An account with the (case-insensitive) identity must exist.
//  3. The account must not be suspended.
//  4. The secret must match the secret hash of the account.
func (d *Decider) Evaluate(ctx context.Context, token AntiForgeryToken, c Credential) Decision {
	decision := d.evaluate(ctx, token, c)
	d.audit.Record(ctx, strings.TrimSpace(c.Identity), decision.Outcome)
	return decision
}

func (d *Decider) evaluate(ctx context.Context, token AntiForgeryToken, c Credential) Decision {
	if !token.Valid() {
		return Decision{Outcome: OutcomeInvalidToken}
	}

	identity, err := email.ParseAddress(c.Identity)
	if err != nil {
		// No account can have this identity. We still compare the secret, so that
		// the response time does not tell an attacker anything.
		_ = c.Secret.Match(d.comparisonHash)
		return Decision{Outcome: OutcomeIdentityNotFound}
	}

	account, err := d.findAccount(ctx, identity.Normalized())
	if errors.Is(err, errorz.ErrNotFound) {
		// Even if no account is found we compare to a hash to prevent timing differences
		// that could result in user enumeration attacks.
		_ = c.Secret.Match(d.comparisonHash)
		return Decision{Outcome: OutcomeIdentityNotFound}
	}

	if err != nil {
		return Decision{Outcome: OutcomeTransientFailure, Err: err}
	}

	if account.IsSuspended() {
		// Suspension is reported regardless of the secret, so a suspended user can't use
		// the login form to find out if a secret is correct. The comparison is done
		// anyway to keep the timing equal to that of an active account.
		_ = c.Secret.Match(account.SecretHash)
		return Decision{Outcome: OutcomeAccountSuspended}
	}

	if !c.Secret.Match(account.SecretHash) {
		return Decision{Outcome: OutcomeInvalidSecret}
	}

	return Decision{Outcome: OutcomeSuccess, Account: &account}
}

func (d *Decider) findAccount(ctx context.Context, identity email.Address) (Account, error) {
	if d.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.LookupTimeout)
		defer cancel()
	}

	return d.store.FindByIdentity(ctx, identity)
}
