package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/credential-service/internal/config"
)

// PasswordCodec turns a plaintext password into its stored form and checks
// a plaintext candidate against a stored form.
type PasswordCodec interface {
	Encode(plain string) (string, error)
	Matches(encoded, plain string) bool
}

// Base64Codec stores the standard base64 of the password bytes.
// It is reversible and offers no protection if the store leaks.
type Base64Codec struct{}

func (Base64Codec) Encode(plain string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(plain)), nil
}

func (c Base64Codec) Matches(encoded, plain string) bool {
	candidate, _ := c.Encode(plain)
	return subtle.ConstantTimeCompare([]byte(encoded), []byte(candidate)) == 1
}

// BcryptCodec stores a salted bcrypt hash.
type BcryptCodec struct {
	Cost int // bcrypt.DefaultCost when zero
}

func (c BcryptCodec) Encode(plain string) (string, error) {
	cost := c.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hashed), nil
}

func (BcryptCodec) Matches(encoded, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
}

// NewPasswordCodec returns the codec for a PASSWORD_SCHEME value.
func NewPasswordCodec(scheme string) (PasswordCodec, error) {
	switch scheme {
	case "", config.SchemeBase64:
		return Base64Codec{}, nil
	case config.SchemeBcrypt:
		return BcryptCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}
