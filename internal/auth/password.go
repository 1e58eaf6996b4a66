package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/clinic-records/internal/config"
)

// Hasher turns a password into the value stored in users.log and checks
// candidates against it.
type Hasher interface {
	Hash(password string) (string, error)
	Matches(stored, candidate string) bool
}

// PlainHasher stores passwords as given and compares by exact equality.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlainHasher) Matches(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// BcryptHasher stores bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

// Hash hashes a plaintext password with configured cost.
func (h BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Matches verifies a password against its hashed value.
func (h BcryptHasher) Matches(stored, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
}

// NewHasher picks the hasher named by cfg.PasswordHashing.
func NewHasher(cfg config.AuthConfig) (Hasher, error) {
	switch cfg.PasswordHashing {
	case "", config.HashingPlain:
		return PlainHasher{}, nil
	case config.HashingBcrypt:
		cost := cfg.BcryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
		}
		return BcryptHasher{Cost: cost}, nil
	default:
		return nil, fmt.Errorf("unknown password hashing %q", cfg.PasswordHashing)
	}
}
