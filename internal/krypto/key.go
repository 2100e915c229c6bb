package krypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	keyLen = 32

	// SecretMarker replaces secrets in formatted output and logs. Tests look
	// for it to check nothing leaks.
	SecretMarker = "<!SECRET_REDACTED!>"
)

var (
	ErrInvalidKey = errors.New("invalid key")
)

// Key is a 32 byte secret key used for encryption, blind indexes and
// signing session cookies.
type Key struct {
	value []byte
}

// ParseKey parses a hex encoded 32 byte key.
func ParseKey(raw string) (Key, error) {
	k, err := hex.DecodeString(raw)
	if err != nil || len(k) != keyLen {
		return Key{}, ErrInvalidKey
	}

	return Key{value: k}, nil
}

// ParseKeys parses a comma separated list of hex encoded keys. The order
// is preserved, the last key is considered the latest.
func ParseKeys(raw string) ([]Key, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidKey
	}

	parts := strings.Split(raw, ",")
	keys := make([]Key, 0, len(parts))
	for i, part := range parts {
		k, err := ParseKey(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (k Key) Format(f fmt.State, verb rune) {
	f.Write([]byte(SecretMarker))
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(SecretMarker), nil
}

// LogValue implements the slog.LogValuer interface.
func (k Key) LogValue() slog.Value {
	return slog.StringValue(SecretMarker)
}

// Derive returns a key derived from k with HKDF-SHA256. Different purposes
// result in independent keys, so a single configured key can serve more
// than one use.
func (k Key) Derive(purpose string) (Key, error) {
	if len(k.value) != keyLen {
		return Key{}, ErrInvalidKey
	}

	out := make([]byte, keyLen)
	_, err := io.ReadFull(hkdf.New(sha256.New, k.value, nil, []byte(purpose)), out)
	if err != nil {
		return Key{}, err
	}

	return Key{value: out}, nil
}

// SecretValue returns the raw key, for handing it to libraries that need it.
func (k Key) SecretValue() []byte {
	return k.value
}
