package auth

import (
	"crypto/subtle"
)

// Credential is what a user submits to log in. It's transient: the decider
// never stores it.
type Credential struct {
	// Identity is the submitted login name. It's expected to be shaped like
	// an email address, but is not validated at this point.
	Identity string
	Secret   Secret
}

// AntiForgeryToken pairs the token submitted with a form with the token
// the server issued for that form.
type AntiForgeryToken struct {
	Value    string
	Expected string
}

// Valid reports whether the submitted value matches the expected value.
// A token is never valid if the server did not issue one.
func (t AntiForgeryToken) Valid() bool {
	if t.Expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(t.Value), []byte(t.Expected)) == 1
}
