package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.Equal(t, strings.ToLower(a), a)
}

func TestNewToken(t *testing.T) {
	a := NewToken()
	b := NewToken()
	assert.Len(t, a, 32)
	assert.NotContains(t, a, "-")
	assert.NotEqual(t, a, b)
}

func TestPasswordRoundTrip(t *testing.T) {
	h := HashPassword("s3cret")
	assert.NotEqual(t, "s3cret", h)
	assert.True(t, CheckPassword("s3cret", h))
	assert.False(t, CheckPassword("other", h))

	// hashes are salted: same input, different hash
	assert.NotEqual(t, h, HashPassword("s3cret"))
}
