package security

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for every stored hash.
const PasswordCost = 10

// ErrPasswordTooLong mirrors bcrypt's 72 byte input limit.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword hashes a plain text password with bcrypt. Each call uses a
// fresh salt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)

	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

var (
	placeholderOnce sync.Once
	placeholderHash []byte
)

// BurnCompare runs a bcrypt comparison against a throwaway hash, so a login
// for an unknown email costs about as much as one with a wrong password.
func BurnCompare(plain string) {
	placeholderOnce.Do(func() {
		placeholderHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), PasswordCost)
	})

	_ = bcrypt.CompareHashAndPassword(placeholderHash, []byte(plain))
}
