package auth

import (
	"fmt"
	"log/slog"

	"github.com/willemschots/signin/internal/krypto"
)

const (
	minSecretBytes = 8
	// We put a generous upper cap on secret length, so people can use
	// passphrases but we don't allow MBs of data as a secret.
	maxSecretBytes = 512

	// SecretMarker is a string we can look for in logs to see if the app
	// is accidentally exposing secrets.
	SecretMarker = krypto.SecretMarker
)

var ErrInvalidSecret = fmt.Errorf("invalid secret")

// Secret is a plaintext secret (a password) as submitted by a user.
//
// It should never be persisted, logged or exposed in any other way. To
// protect ourselves from accidentally doing so, the type implements
// several common interfaces that would allow it to be used inappropriately.
//
// There are only two operations allowed on a Secret:
// - Converting it to a hash.
// - Comparing it with an existing hash to see if they match.
type Secret struct {
	plain []byte
}

// NewSecret wraps a submitted plaintext without validating it. Use this for
// login attempts: any input, even an empty one, needs to be compared.
func NewSecret(raw string) Secret {
	return Secret{
		plain: []byte(raw),
	}
}

// ParseSecret creates a new Secret from a plaintext string.
// It errors if the secret is too short or too long. Use this when
// setting a new secret.
func ParseSecret(raw string) (Secret, error) {
	if len(raw) < minSecretBytes || len(raw) > maxSecretBytes {
		return Secret{}, ErrInvalidSecret
	}

	return NewSecret(raw), nil
}

// Match checks if the plaintext secret matches the given hash.
func (s Secret) Match(h krypto.SecretHash) bool {
	if h == nil {
		return false
	}
	return h.MatchBytes(s.plain)
}

// Hash hashes the plaintext secret using the argon2id algorithm.
func (s Secret) Hash() (krypto.Argon2Hash, error) {
	return krypto.HashArgon2(s.plain)
}

func (s Secret) Format(f fmt.State, verb rune) {
	f.Write([]byte(SecretMarker))
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(SecretMarker), nil
}

// LogValue implements the slog.LogValuer interface.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(SecretMarker)
}

// UnmarshalText allows a Secret to be decoded from form values.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = NewSecret(string(text))
	return nil
}
