package security

import (
	"github.com/matthewhartstonge/argon2"
)

// HashPassword hashes password with argon2id and returns the PHC-encoded hash.
func HashPassword(password string) (string, error) {
	argon := argon2.DefaultConfig()

	encoded, err := argon.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether password matches the encoded hash.
func VerifyPassword(password, encodedHash string) (bool, error) {
	if encodedHash == "" {
		return false, nil
	}

	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}

// PasswordHasher adapts HashPassword and VerifyPassword to an injectable value.
type PasswordHasher struct{}

func (PasswordHasher) Hash(password string) (string, error) {
	return HashPassword(password)
}

func (PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	return VerifyPassword(password, encodedHash)
}
