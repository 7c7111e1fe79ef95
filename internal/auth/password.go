package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is tuned so a single verification takes tens of milliseconds.
const bcryptCost = 12

// HashPassword produces a salted bcrypt hash of the password. bcrypt rejects
// inputs longer than 72 bytes rather than silently truncating them.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// PasswordMatches reports whether the password matches the stored hash using
// a constant-time comparison. A malformed hash yields false, never a panic.
func PasswordMatches(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is computed once and compared against when no account matches a
// login attempt, so verification timing does not reveal whether an email is
// registered.
var dummyHash = sync.OnceValue(func() string {
	filler, err := GenerateResetToken()
	if err != nil {
		filler = "not-a-real-password"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(filler), bcryptCost)
	if err != nil {
		return ""
	}
	return string(hash)
})

// DummyCompare burns one bcrypt verification against a throwaway hash. It
// always returns false.
func DummyCompare(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(dummyHash()), []byte(password)) == nil
}

// ResetTokenLength is the fixed length of generated password reset tokens.
const ResetTokenLength = 32

const resetTokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateResetToken returns a fixed-length alphanumeric token drawn from
// crypto/rand. Each character is sampled independently to avoid modulo bias.
func GenerateResetToken() (string, error) {
	max := big.NewInt(int64(len(resetTokenAlphabet)))
	buf := make([]byte, ResetTokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate reset token: %w", err)
		}
		buf[i] = resetTokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
