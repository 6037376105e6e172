// Package auth implements client portal authentication: bcrypt password
// handling and JWT session tokens carried in an httpOnly cookie.
package auth

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost 12 gives ~250ms per hash on current hardware, slow enough
	// for credential stuffing, fast enough for login.
	BcryptCost = 12

	// TempPasswordLength for accounts provisioned from a Stripe checkout.
	TempPasswordLength = 12
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a bcrypt hash.
// Constant-time by construction.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

const tempPasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

// GenerateTemporaryPassword returns a random password for a freshly
// provisioned client account. The welcome email tells them to change it.
func GenerateTemporaryPassword() (string, error) {
	out := make([]byte, TempPasswordLength)
	max := big.NewInt(int64(len(tempPasswordCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempPasswordCharset[n.Int64()]
	}
	return string(out), nil
}
