package sshkeys

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.Contains(t, string(priv), "OPENSSH PRIVATE KEY")
	assert.True(t, strings.HasPrefix(string(pub), "ssh-ed25519 "))
}

func TestEnsureKeyPairIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	keyPath, pub1, err := EnsureKeyPair(dir, "srv-1")
	require.NoError(t, err)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	keyPath2, pub2, err := EnsureKeyPair(dir, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, keyPath, keyPath2)
	assert.Equal(t, pub1, pub2, "existing key is reused, not regenerated")

	_, pubOther, err := EnsureKeyPair(dir, "srv-2")
	require.NoError(t, err)
	assert.NotEqual(t, pub1, pubOther)
}
