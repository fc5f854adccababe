package utils

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a short, URL-safe identifier derived from a fresh UUID.
func NewID() string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	return strings.ToLower(b32.EncodeToString(sum[:]))[:26]
}

// NewToken returns a hyphenless UUID suitable for single-use email tokens.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
