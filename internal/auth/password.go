package auth

import (
	"crypto/subtle"
	"errors"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidTOTP     = errors.New("invalid one-time code")
	ErrNoCredentials   = errors.New("admin credentials not configured")
)

// CredentialChecker verifies the operator password and optional TOTP code
type CredentialChecker struct {
	passwordHash []byte
	// plaintext is only set outside production when no hash is configured
	plaintext  string
	totpSecret string
}

func NewCredentialChecker(passwordHash, plaintext, totpSecret string) *CredentialChecker {
	return &CredentialChecker{
		passwordHash: []byte(passwordHash),
		plaintext:    plaintext,
		totpSecret:   totpSecret,
	}
}

// TOTPRequired reports whether a one-time code is part of login
func (c *CredentialChecker) TOTPRequired() bool {
	return c.totpSecret != ""
}

// Check returns nil when the password (and code, if enabled) are valid
func (c *CredentialChecker) Check(password, code string) error {
	switch {
	case len(c.passwordHash) > 0:
		if err := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)); err != nil {
			return ErrInvalidPassword
		}
	case c.plaintext != "":
		if subtle.ConstantTimeCompare([]byte(password), []byte(c.plaintext)) != 1 {
			return ErrInvalidPassword
		}
	default:
		return ErrNoCredentials
	}

	if c.TOTPRequired() && !totp.Validate(code, c.totpSecret) {
		return ErrInvalidTOTP
	}
	return nil
}

// HashPassword returns a bcrypt hash for storing in configuration
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
