package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/willemschots/signin/internal/auth"
	"github.com/willemschots/signin/internal/auth/db"
	"github.com/willemschots/signin/internal/db/testdb"
	"github.com/willemschots/signin/internal/email"
	"github.com/willemschots/signin/internal/errorz/testerr"
	"github.com/willemschots/signin/internal/krypto"
)

// fixture is a database seeded with the accounts most tests need.
type fixture struct {
	t     *testing.T
	store *testStore
	db    *db.Store
	svc   *auth.AccountService
	audit *auditSpy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	encryptor := must(krypto.NewEncryptor([]krypto.Key{
		must(krypto.ParseKey("2b671594b775f371eab4050b4d58326682df6b1a6cc2e886717b1a26b4d6c45d")),
	}))

	indexKey := must(krypto.ParseKey("90303dfed7994260ea4817a5ca8a392915cd401115b2f97495dadfcbcd14adbf"))

	testDB := testdb.RunWhile(t, true)
	dbStore := db.New(testDB, testDB, encryptor, indexKey)

	f := &fixture{
		t:  t,
		db: dbStore,
		store: &testStore{
			store:   dbStore,
			tracker: &testerr.Calltracker{}, // empty call trackers never fail.
		},
		audit: &auditSpy{},
	}

	f.svc = auth.NewAccountService(f.store)
	f.svc.NowFunc = func() time.Time {
		return time.Now().Round(0)
	}

	return f
}

// seed creates the accounts admin@email.com and user@email.com, and the suspended
// account user2@email.com. All of them have "password" as their secret.
func (f *fixture) seed() {
	f.t.Helper()

	for _, identity := range []string{"admin@email.com", "user@email.com", "user2@email.com"} {
		f.createAccount(identity, "password")
	}

	err := f.svc.SuspendAccount(context.Background(), "user2@email.com")
	if err != nil {
		f.t.Fatalf("failed to suspend account: %v", err)
	}
}

func (f *fixture) createAccount(identity, secret string) auth.Account {
	f.t.Helper()

	a, err := f.svc.CreateAccount(context.Background(), auth.NewAccount{
		Identity: must(email.ParseAddress(identity)),
		Secret:   must(auth.ParseSecret(secret)),
	})
	if err != nil {
		f.t.Fatalf("failed to create account: %v", err)
	}

	return a
}

func (f *fixture) decider(cfg auth.DeciderConfig) *auth.Decider {
	f.t.Helper()

	d, err := auth.NewDecider(f.db, f.audit, cfg)
	if err != nil {
		f.t.Fatalf("failed to create decider: %v", err)
	}

	return d
}

type auditRecord struct {
	identity string
	outcome  auth.Outcome
}

type auditSpy struct {
	mutex   sync.Mutex
	records []auditRecord
}

func (a *auditSpy) Record(_ context.Context, identity string, outcome auth.Outcome) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.records = append(a.records, auditRecord{identity: identity, outcome: outcome})
}

func (a *auditSpy) assertRecords(t *testing.T, want ...auditRecord) {
	t.Helper()

	a.mutex.Lock()
	defer a.mutex.Unlock()

	if len(a.records) != len(want) {
		t.Fatalf("expected %d audit records, got %d: %v", len(want), len(a.records), a.records)
	}

	for i := range want {
		if a.records[i] != want[i] {
			t.Errorf("audit record %d: got %+v, want %+v", i, a.records[i], want[i])
		}
	}
}

type errList struct {
	mutex sync.Mutex
	errs  []error
}

func (e *errList) AppendErr(err error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.errs = append(e.errs, err)
}

func (e *errList) assertNoError(t *testing.T) {
	t.Helper()

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if len(e.errs) > 0 {
		t.Fatalf("unexpected errors: %v", e.errs)
	}
}

func (e *errList) assertErrorIs(t *testing.T, err error) {
	t.Helper()

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if len(e.errs) != 1 || !errors.Is(e.errs[0], err) {
		t.Fatalf("expected error %v, got %v via errors.Is()", err, e.errs)
	}
}

// testStore wraps a real store but uses a testerr.Calltracker to
// possibly fail on certain method calls.
type testStore struct {
	store   auth.Store
	tracker *testerr.Calltracker
}

func (f *testStore) BeginTx(ctx context.Context) (auth.Tx, error) {
	return testerr.MaybeFail(f.tracker, func() (auth.Tx, error) {
		realTx, err := f.store.BeginTx(ctx)
		return &testTx{
			store: f,
			tx:    realTx,
		}, err
	})
}

type testTx struct {
	store *testStore
	tx    auth.Tx
}

func (tx *testTx) Commit() error {
	err := testerr.MaybeFailErrFunc(tx.store.tracker, func() error {
		return tx.tx.Commit()
	})
	if errors.Is(err, testerr.Err) {
		// The test database has a single connection, release it.
		_ = tx.tx.Rollback()
	}
	return err
}

func (tx *testTx) Rollback() error {
	err := testerr.MaybeFailErrFunc(tx.store.tracker, func() error {
		return tx.tx.Rollback()
	})
	if errors.Is(err, testerr.Err) {
		_ = tx.tx.Rollback()
	}
	return err
}

func (tx *testTx) CreateAccount(a *auth.Account) error {
	return testerr.MaybeFailErrFunc(tx.store.tracker, func() error {
		return tx.tx.CreateAccount(a)
	})
}

func (tx *testTx) UpdateAccount(a *auth.Account) error {
	return testerr.MaybeFailErrFunc(tx.store.tracker, func() error {
		return tx.tx.UpdateAccount(a)
	})
}

func (tx *testTx) FindAccounts(filter *auth.AccountFilter) ([]auth.Account, error) {
	return testerr.MaybeFail(tx.store.tracker, func() ([]auth.Account, error) {
		return tx.tx.FindAccounts(filter)
	})
}

// accountStoreFunc adapts a function to an auth.AccountStore.
type accountStoreFunc func(ctx context.Context, identity email.Address) (auth.Account, error)

func (f accountStoreFunc) FindByIdentity(ctx context.Context, identity email.Address) (auth.Account, error) {
	return f(ctx, identity)
}

// countingHash counts how often it was compared against.
type countingHash struct {
	krypto.SecretHash
	calls int
}

func (h *countingHash) MatchBytes(data []byte) bool {
	h.calls++
	return h.SecretHash.MatchBytes(data)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
