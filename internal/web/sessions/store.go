package sessions

import (
	"encoding/gob"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/willemschots/signin/internal/krypto"
)

const CookieName = "signin-session"

// Store loads and saves sessions.
type Store struct {
	store sessions.Store
}

func NewStore(store sessions.Store) *Store {
	return &Store{store: store}
}

// NewCookieStore creates a Store that keeps sessions in an authenticated and
// encrypted cookie. The hash and block keys are derived from key.
func NewCookieStore(key krypto.Key, secure bool) (*Store, error) {
	hashKey, err := key.Derive("session cookie hash")
	if err != nil {
		return nil, err
	}

	blockKey, err := key.Derive("session cookie block")
	if err != nil {
		return nil, err
	}

	cs := sessions.NewCookieStore(hashKey.SecretValue(), blockKey.SecretValue())
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return NewStore(cs), nil
}

// Get returns the session of the request. A new session is returned if
// the request has none, or if its cookie can't be decoded.
func (s *Store) Get(r *http.Request) (*Session, error) {
	base, err := s.store.Get(r, CookieName)
	if err != nil && base == nil {
		return nil, err
	}

	// gorilla returns a new session together with the decoding error when
	// the cookie is invalid, e.g. after a key rotation.
	return &Session{base: base, needsSave: err != nil}, nil
}

func (s *Store) Save(r *http.Request, w http.ResponseWriter, sess *Session) error {
	err := s.store.Save(r, w, sess.base)
	if err != nil {
		return err
	}

	sess.needsSave = false
	return nil
}

func init() {
	// Values are gob encoded, so custom types need to be registered.
	gob.Register(uuid.UUID{})
}
