package krypto

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Variant = "argon2id"

	// Parameters for newly created hashes. These follow the OWASP
	// recommendation for argon2id with a single iteration.
	argon2MemoryKiB   = 47104
	argon2Iterations  = 1
	argon2Parallelism = 1
	argon2SaltLen     = 16
	argon2KeyLen      = 32
)

var ErrInvalidInput = errors.New("invalid input")

// Argon2Hash is an argon2id hash together with the parameters that
// were used to create it.
//
// The text format is the PHC string format also used by the reference
// implementation:
//
//	$argon2id$v=19$m=47104,t=1,p=1$<salt>$<hash>
type Argon2Hash struct {
	Variant     string
	Version     int
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	Salt        []byte
	Hash        []byte
}

// HashArgon2 hashes data using argon2id and a random salt.
func HashArgon2(data []byte) (Argon2Hash, error) {
	if len(data) == 0 {
		return Argon2Hash{}, fmt.Errorf("can't hash empty data: %w", ErrInvalidInput)
	}

	salt, err := genRandomBytes(argon2SaltLen)
	if err != nil {
		return Argon2Hash{}, err
	}

	return hashArgon2WithSalt(data, salt), nil
}

// HashArgon2WithKey hashes data using argon2id, using the key as the salt.
// The result is deterministic for the same key and data, which makes it
// suitable as a blind index.
func HashArgon2WithKey(data []byte, key Key) (Argon2Hash, error) {
	if len(data) == 0 {
		return Argon2Hash{}, fmt.Errorf("can't hash empty data: %w", ErrInvalidInput)
	}

	if len(key.value) == 0 {
		return Argon2Hash{}, fmt.Errorf("can't hash with empty key: %w", ErrInvalidInput)
	}

	return hashArgon2WithSalt(data, key.value), nil
}

func hashArgon2WithSalt(data, salt []byte) Argon2Hash {
	return Argon2Hash{
		Variant:     argon2Variant,
		Version:     argon2.Version,
		MemoryKiB:   argon2MemoryKiB,
		Iterations:  argon2Iterations,
		Parallelism: argon2Parallelism,
		Salt:        salt,
		Hash:        argon2.IDKey(data, salt, argon2Iterations, argon2MemoryKiB, argon2Parallelism, argon2KeyLen),
	}
}

// ParseArgon2Hash parses a hash in the PHC string format.
func ParseArgon2Hash(s string) (Argon2Hash, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Argon2Hash{}, fmt.Errorf("expected 6 parts separated by $: %w", ErrInvalidInput)
	}

	h := Argon2Hash{
		Variant: parts[1],
	}

	if h.Variant != argon2Variant {
		return Argon2Hash{}, fmt.Errorf("unsupported variant %q: %w", h.Variant, ErrInvalidInput)
	}

	_, err := fmt.Sscanf(parts[2], "v=%d", &h.Version)
	if err != nil {
		return Argon2Hash{}, fmt.Errorf("invalid version: %w", errors.Join(ErrInvalidInput, err))
	}

	if h.Version != argon2.Version {
		return Argon2Hash{}, fmt.Errorf("unsupported version %d: %w", h.Version, ErrInvalidInput)
	}

	err = h.parseParams(parts[3])
	if err != nil {
		return Argon2Hash{}, err
	}

	h.Salt, err = base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil {
		return Argon2Hash{}, fmt.Errorf("invalid salt: %w", errors.Join(ErrInvalidInput, err))
	}

	h.Hash, err = base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil {
		return Argon2Hash{}, fmt.Errorf("invalid hash: %w", errors.Join(ErrInvalidInput, err))
	}

	if len(h.Hash) == 0 {
		return Argon2Hash{}, fmt.Errorf("empty hash: %w", ErrInvalidInput)
	}

	return h, nil
}

// parseParams parses the "m=47104,t=1,p=1" part of a hash.
func (h *Argon2Hash) parseParams(s string) error {
	params := strings.Split(s, ",")
	if len(params) != 3 {
		return fmt.Errorf("expected 3 parameters: %w", ErrInvalidInput)
	}

	targets := []struct {
		prefix  string
		bitSize int
		set     func(uint64)
	}{
		{"m=", 32, func(v uint64) { h.MemoryKiB = uint32(v) }},
		{"t=", 32, func(v uint64) { h.Iterations = uint32(v) }},
		{"p=", 8, func(v uint64) { h.Parallelism = uint8(v) }},
	}

	for i, tgt := range targets {
		raw, ok := strings.CutPrefix(params[i], tgt.prefix)
		if !ok {
			return fmt.Errorf("expected parameter %q: %w", tgt.prefix, ErrInvalidInput)
		}

		v, err := strconv.ParseUint(raw, 10, tgt.bitSize)
		if err != nil {
			return fmt.Errorf("invalid parameter %q: %w", tgt.prefix, errors.Join(ErrInvalidInput, err))
		}

		tgt.set(v)
	}

	return nil
}

// MatchBytes reports whether data hashes to h, using the parameters and salt of h.
// The comparison is done in constant time.
func (h Argon2Hash) MatchBytes(data []byte) bool {
	if len(h.Hash) == 0 {
		return false
	}

	other := argon2.IDKey(data, h.Salt, h.Iterations, h.MemoryKiB, h.Parallelism, uint32(len(h.Hash)))
	return subtle.ConstantTimeCompare(h.Hash, other) == 1
}

// String returns the hash in the PHC string format.
func (h Argon2Hash) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		h.Variant,
		h.Version,
		h.MemoryKiB,
		h.Iterations,
		h.Parallelism,
		base64.RawStdEncoding.EncodeToString(h.Salt),
		base64.RawStdEncoding.EncodeToString(h.Hash),
	)
}

func (h Argon2Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Argon2Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseArgon2Hash(string(text))
	if err != nil {
		return err
	}

	*h = parsed
	return nil
}

// Scan implements the sql.Scanner interface.
func (h *Argon2Hash) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return h.UnmarshalText([]byte(v))
	case []byte:
		return h.UnmarshalText(v)
	default:
		return fmt.Errorf("can't scan %T into argon2 hash", src)
	}
}
