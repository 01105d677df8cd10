package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret_PrefixAndEntropy(t *testing.T) {
	s, err := GenerateSecret(ConnectSessionPrefix, DefaultSecretBytes)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(s, ConnectSessionPrefix))
	assert.Len(t, strings.TrimPrefix(s, ConnectSessionPrefix), 64)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		v, err := GenerateSecret(ConnectSessionPrefix, DefaultSecretBytes)
		require.NoError(t, err)
		require.False(t, seen[v], "duplicate secret %q", v)
		seen[v] = true
	}
}

func TestHasher_KeyedIsDeterministicAndDiffersFromPlain(t *testing.T) {
	h1, err := NewHasher("master-key-one")
	require.NoError(t, err)
	h2, err := NewHasher("master-key-two")
	require.NoError(t, err)
	plain, err := NewHasher("")
	require.NoError(t, err)

	const secret = "nango_connect_session_abc"
	assert.Equal(t, h1.Hash(secret), h1.Hash(secret))
	assert.NotEqual(t, h1.Hash(secret), h2.Hash(secret))
	assert.Equal(t, SHA256Base64URL(secret), plain.Hash(secret))
	assert.NotContains(t, h1.Hash(secret), secret)
}
