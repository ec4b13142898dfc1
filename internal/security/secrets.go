package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Random material sizes for the opaque credentials issued by the server.
const (
	RefreshTokenBytes  = 48
	ApiKeyBytes        = 32
	WebhookSecretBytes = 32
)

// ApiKeyPrefixLen is the number of leading characters of a raw API key kept
// in plaintext for display purposes.
const ApiKeyPrefixLen = 12

// apiKeyPrefix marks raw API keys so they are recognizable in configuration.
const apiKeyPrefix = "smk_"

// GenerateSecret returns n bytes of cryptographically random material,
// base64url-encoded without padding.
func GenerateSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateApiKey returns the raw key and its display prefix. The raw key is
// shown to the caller once; only its digest is persisted.
func GenerateApiKey() (raw string, prefix string, err error) {
	secret, err := GenerateSecret(ApiKeyBytes)
	if err != nil {
		return "", "", err
	}
	raw = apiKeyPrefix + secret
	return raw, raw[:ApiKeyPrefixLen], nil
}

// DigestToken returns the hex SHA-256 digest of a raw token. Used for API
// keys and refresh tokens, which are already high-entropy random strings.
func DigestToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
