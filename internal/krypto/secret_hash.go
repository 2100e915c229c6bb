package krypto

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SecretHash is a stored hash of a secret, such as a password.
type SecretHash interface {
	// MatchBytes reports whether data matches the hash. Implementations
	// compare in constant time.
	MatchBytes(data []byte) bool
	// String returns the hash in its storable text format.
	String() string
}

// ParseSecretHash parses a stored secret hash. New hashes are always argon2id,
// bcrypt hashes are accepted so that accounts imported from other systems
// can still log in.
func ParseSecretHash(s string) (SecretHash, error) {
	switch {
	case strings.HasPrefix(s, "$"+argon2Variant+"$"):
		return ParseArgon2Hash(s)
	case strings.HasPrefix(s, "$2a$"), strings.HasPrefix(s, "$2b$"), strings.HasPrefix(s, "$2y$"):
		return ParseBcryptHash(s)
	default:
		return nil, fmt.Errorf("unknown secret hash format: %w", ErrInvalidInput)
	}
}

// BcryptHash is a bcrypt hash in its modular crypt format.
type BcryptHash struct {
	value []byte
}

// ParseBcryptHash parses a bcrypt hash such as "$2y$10$...".
func ParseBcryptHash(s string) (BcryptHash, error) {
	// The $2y$ prefix is produced by PHP and is identical to $2b$.
	normalized := s
	if strings.HasPrefix(s, "$2y$") {
		normalized = "$2b$" + strings.TrimPrefix(s, "$2y$")
	}

	_, err := bcrypt.Cost([]byte(normalized))
	if err != nil {
		return BcryptHash{}, fmt.Errorf("invalid bcrypt hash: %w", errors.Join(ErrInvalidInput, err))
	}

	return BcryptHash{value: []byte(normalized)}, nil
}

// MatchBytes reports whether data matches the bcrypt hash.
func (h BcryptHash) MatchBytes(data []byte) bool {
	if len(h.value) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(h.value, data) == nil
}

func (h BcryptHash) String() string {
	return string(h.value)
}
