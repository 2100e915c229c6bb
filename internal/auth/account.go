package auth

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/willemschots/signin/internal/email"
	"github.com/willemschots/signin/internal/krypto"
)

// Status is the status of an account.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// ParseStatus parses a status from its text representation.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	switch s {
	case StatusActive, StatusSuspended:
		return s, nil
	default:
		return "", fmt.Errorf("unknown account status %q", raw)
	}
}

// Scan implements the sql.Scanner interface.
func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("can't scan %T into status", src)
	}

	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}

// Value implements the driver.Valuer interface.
func (s Status) Value() (driver.Value, error) {
	return string(s), nil
}

// Account contains the data for an account that can log in.
//
// Identity is always stored in its normalized (lower case) form, this
// is what makes lookups case-insensitive.
type Account struct {
	ID         uuid.UUID
	Identity   email.Address
	SecretHash krypto.SecretHash
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsSuspended reports whether the account is suspended.
func (a Account) IsSuspended() bool {
	return a.Status == StatusSuspended
}
