package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/willemschots/signin/internal/krypto"
)

var errNoEncryptor = errors.New("no encryptor set")

// Query builds a SQL query from literal parts and bind parameters. Parameters
// can be encrypted, or replaced by a blind index so encrypted columns can be
// searched for equal values.
//
// Errors are collected while building and returned by Get. The zero value is
// ready to use for queries without encrypted values.
type Query struct {
	Encryptor     *krypto.Encryptor
	BlindIndexKey krypto.Key

	b      strings.Builder
	params []any
	err    error
}

// Unsafe appends s to the query as is. It must never contain user input.
func (q *Query) Unsafe(s string) {
	q.b.WriteString(s)
}

// Param appends a bind parameter.
func (q *Query) Param(v any) {
	q.b.WriteByte('?')
	q.params = append(q.params, v)
}

// Params appends comma separated bind parameters.
func (q *Query) Params(v ...any) {
	for i, p := range v {
		if i > 0 {
			q.b.WriteString(", ")
		}
		q.Param(p)
	}
}

// ParamEncrypted appends a bind parameter holding the encrypted form of d.
func (q *Query) ParamEncrypted(d []byte) {
	if q.Encryptor == nil {
		q.fail(errNoEncryptor)
		return
	}

	enc, err := q.Encryptor.Encrypt(d)
	if err != nil {
		q.fail(err)
		return
	}

	q.Param(enc)
}

// ParamBlindIndex appends a bind parameter holding the blind index of d. Equal
// values have equal indexes, so callers need to normalize values first.
//
// Stored indexes need to be rebuilt when the key or the argon2 parameters change.
func (q *Query) ParamBlindIndex(d []byte) {
	hash, err := krypto.HashArgon2WithKey(d, q.BlindIndexKey)
	if err != nil {
		q.fail(err)
		return
	}

	// The salt is fixed, there is no point in storing it.
	hash.Salt = nil
	q.Param(hash.String())
}

// ParamBlindIndexes appends comma separated blind index bind parameters.
func (q *Query) ParamBlindIndexes(values ...[]byte) {
	for i, d := range values {
		if i > 0 {
			q.b.WriteString(", ")
		}
		q.ParamBlindIndex(d)
	}
}

// Get returns the query, its parameters and the errors that occurred while building it.
func (q *Query) Get() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	return q.b.String(), q.params, nil
}

func (q *Query) fail(err error) {
	q.err = errors.Join(q.err, fmt.Errorf("param %d: %w", len(q.params), err))
}

// DecryptionTarget returns a Decryptable to scan an encrypted column into.
func (q *Query) DecryptionTarget() *Decryptable {
	return &Decryptable{
		encryptor: q.Encryptor,
	}
}

// Decryptable is a sql.Scanner that decrypts the scanned value into Data.
type Decryptable struct {
	encryptor *krypto.Encryptor
	Data      []byte
}

func (d *Decryptable) Scan(src any) error {
	if d.encryptor == nil {
		return errNoEncryptor
	}

	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("can't decrypt %T", src)
	}

	data, err := d.encryptor.Decrypt(b)
	if err != nil {
		return err
	}

	d.Data = data
	return nil
}
