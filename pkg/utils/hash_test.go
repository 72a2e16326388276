package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSecret(t *testing.T) {
	h, err := HashSecret("9999")
	require.NoError(t, err)
	assert.True(t, IsBcryptHash(h))
	assert.True(t, CheckSecretHash("9999", h))
	assert.False(t, CheckSecretHash("1234", h))
}

func TestIsBcryptHash(t *testing.T) {
	assert.False(t, IsBcryptHash("demo123"))
	assert.True(t, IsBcryptHash("$2y$10$abcdefghijklmnopqrstuv"))
}
