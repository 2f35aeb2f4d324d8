package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// APIKeyPrefix identifies MoltyMingle bearer secrets. The prefix makes
// leaked keys recognizable in logs and scanners without revealing
// anything about the key material.
const APIKeyPrefix = "mm_live_"

// GenerateAPIKey returns a new opaque bearer secret: the prefix followed
// by 64 hex characters (32 random bytes). The secret is shown to the
// agent exactly once at registration and only its hash is persisted.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return APIKeyPrefix + hex.EncodeToString(buf), nil
}

// HashAPIKey derives the stored lookup hash for a bearer secret.
// SHA-256 is deterministic, so authentication is a single indexed
// equality match on the hash column.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// PreviewAPIKey renders a non-reversible hint for display after
// issuance. It exposes a slice of the hash, never of the secret.
func PreviewAPIKey(keyHash string) string {
	if len(keyHash) < 8 {
		return APIKeyPrefix + "..."
	}
	return APIKeyPrefix + keyHash[:8] + "..."
}

// HasAPIKeyPrefix reports whether a presented token looks like one of
// our secrets. Used only for fast rejection; the hash lookup decides.
func HasAPIKeyPrefix(key string) bool {
	return strings.HasPrefix(key, APIKeyPrefix)
}
