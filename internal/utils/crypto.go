package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

var (
	hashPepper = generatePepper()
)

func generatePepper() string {
	return uuid.New().String() + "-" + uuid.New().String()
}

// GenerateTokenValue returns an opaque bearer value with 256 bits of entropy
// from a cryptographically secure source, base64url-encoded for use in links.
func GenerateTokenValue() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashTokenValue maps a raw token value to the digest stored at rest.
// Plain SHA-256, not peppered: the database must be able to look tokens up
// by hash across process restarts.
func HashTokenValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// HashSHA256 is a peppered HMAC digest for process-local identifiers such as
// rate-limit keys. The pepper rotates on restart.
func HashSHA256(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))

	mac := hmac.New(sha256.New, []byte(hashPepper))
	mac.Write([]byte(input))

	hashBytes := mac.Sum(nil)

	return hex.EncodeToString(hashBytes)
}
