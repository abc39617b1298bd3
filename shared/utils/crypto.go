package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

var (
	hashPepper = generatePepper()
)

func generatePepper() string {
	return uuid.New().String() + "-" + uuid.New().String()
}

// Fingerprint returns a keyed hash of a normalized email. The key lives only
// in process memory, so fingerprints are stable for the lifetime of the
// process and meaningless outside it. Used as a rate limiter key instead of
// the address itself.
func Fingerprint(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))

	mac := hmac.New(sha256.New, []byte(hashPepper))
	mac.Write([]byte(input))

	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateKey returns size random bytes encoded as base64.
func GenerateKey(size int) (string, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
