// Package errorz contains the errors shared between the layers of signin.
package errorz

import (
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConstraintViolated = errors.New("constraint violated")
	// ErrUnavailable indicates the database could not serve the request right
	// now, retrying later might succeed.
	ErrUnavailable = errors.New("temporarily unavailable")
)

// MapDBErr maps database errors to errorz errors, the original error is
// kept in the chain. MapDBErr returns nil if err is nil.
func MapDBErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var sErr sqlite3.Error
	if errors.As(err, &sErr) {
		switch sErr.Code {
		case sqlite3.ErrConstraint:
			return errors.Join(ErrConstraintViolated, err)
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return errors.Join(ErrUnavailable, err)
		}
	}

	return err
}

// InvalidInput signals that input was rejected, it wraps an error for every problem found.
type InvalidInput []error

func (e InvalidInput) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

func (e InvalidInput) Unwrap() []error {
	return e
}

// Keys returns the sorted keys of the Keyed errors in e.
func (e InvalidInput) Keys() []string {
	keys := make([]string, 0, len(e))
	for _, err := range e {
		var k Keyed
		if errors.As(err, &k) {
			keys = append(keys, k.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Keyed is an error about a specific field or parameter.
type Keyed struct {
	Key string
	Err error
}

func (k Keyed) Error() string {
	return k.Key + ": " + k.Err.Error()
}

func (k Keyed) Unwrap() error {
	return k.Err
}
