package krypto

import (
	"encoding/hex"
	"log/slog"
)

const tokenLen = 32

// Token is a random value, used as the anti-forgery token of forms.
//
// Its hex form is embedded in pages and stored in the session cookie, it
// should never end up in logs.
type Token [tokenLen]byte

// GenerateToken returns a new random token.
func GenerateToken() (Token, error) {
	var t Token
	b, err := genRandomBytes(tokenLen)
	if err != nil {
		return t, err
	}

	copy(t[:], b)
	return t, nil
}

// String returns the hex form of the token.
func (t Token) String() string {
	return hex.EncodeToString(t[:])
}

// LogValue implements slog.LogValuer so tokens are masked in logs.
func (t Token) LogValue() slog.Value {
	return slog.StringValue(SecretMarker)
}
