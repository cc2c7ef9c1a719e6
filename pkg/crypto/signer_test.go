package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CipherCoRetech/SypherLang/pkg/crypto"
)

func TestNoopSigner(t *testing.T) {
	signer := crypto.NewNoopSigner("node-1")
	digest := crypto.Hash([]byte("anything"))

	sig, err := signer.Sign(digest)
	require.NoError(t, err)
	assert.Empty(t, sig)
	assert.True(t, signer.Verify(digest, sig))
	assert.Equal(t, "node-1", signer.Address())
}

func TestSecp256k1SignerRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	signer, err := crypto.NewSecp256k1Signer(key)
	require.NoError(t, err)
	assert.NotEmpty(t, signer.Address())

	digest := crypto.Hash([]byte("chain snapshot"))
	sig, err := signer.Sign(digest)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(sig), 64)

	assert.True(t, signer.Verify(digest, sig))
	assert.False(t, signer.Verify(crypto.Hash([]byte("other")), sig))
	assert.False(t, signer.Verify(digest, []byte("short")))
}

func TestNoopProofSystem(t *testing.T) {
	var ps crypto.NoopProofSystem
	proof, err := ps.Prove([]byte("statement"))
	require.NoError(t, err)
	assert.True(t, ps.Verify([]byte("statement"), proof))
}
