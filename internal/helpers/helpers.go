package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/joshua-takyi/locals/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// AccessTokenBytes is the amount of randomness behind every access token.
const AccessTokenBytes = 128

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

func StringTrim(s string) string {
	s = strings.TrimSpace(s)
	return strings.Trim(s, "\"'")
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GenerateAccessToken returns AccessTokenBytes random bytes, hex encoded.
func GenerateAccessToken() (string, error) {
	b := make([]byte, AccessTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashPassword hashes password with bcrypt. A password over MaxPasswordBytes
// is a validation error on the password field.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", models.NewFieldError("password", fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

func CheckPassword(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
