package email

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidEmail indicates an email address is not valid.
var ErrInvalidEmail = errors.New("invalid email address")

// maxLen is the longest address that fits in the forward-path of SMTP (RFC 5321).
const maxLen = 254

// Address is how signin represents email addresses. Addresses are used
// as the identity of accounts.
type Address string

// ParseAddress checks raw is shaped like a bare email address, surrounding
// whitespace is ignored. It doesn't check the address exists.
func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) > maxLen {
		return Address(""), ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return Address(""), ErrInvalidEmail
	}

	// Reject display names and comments, "Alice <alice@example.com>" parses fine.
	if addr.Address != trimmed {
		return Address(""), ErrInvalidEmail
	}

	return Address(addr.Address), nil
}

// Normalized returns the address in lower case. Identities are compared
// in their normalized form, which makes lookups case-insensitive.
func (a Address) Normalized() Address {
	return Address(strings.ToLower(string(a)))
}

func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = addr

	return nil
}
