package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CipherCoRetech/SypherLang/pkg/core"
	"github.com/CipherCoRetech/SypherLang/pkg/db"
	"github.com/CipherCoRetech/SypherLang/pkg/store"
)

func buildChain(t *testing.T, length int) *core.Chain {
	t.Helper()
	chain := core.NewChain()
	for chain.Length() < length {
		tx, err := core.NewTransaction("Alice", "Bob", int64(chain.Length()))
		require.NoError(t, err)
		b := core.NewBlock(uint64(chain.Length()), []core.Transaction{tx}, chain.Latest().Hash)
		require.NoError(t, chain.Append(b))
	}
	return chain
}

func TestLoadChainEmptyStore(t *testing.T) {
	s := store.New(db.NewMemory())

	chain, err := s.LoadChain()
	require.NoError(t, err)
	assert.Nil(t, chain)
}

func TestSaveBlockRoundTrip(t *testing.T) {
	s := store.New(db.NewMemory())
	chain := buildChain(t, 3)

	for i, b := range chain.Blocks() {
		require.NoError(t, s.SaveBlock(b, i+1))
	}

	loaded, err := s.LoadChain()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, 3, loaded.Length())
	assert.True(t, loaded.Validate())

	for i, b := range chain.Blocks() {
		got := loaded.Block(i)
		assert.Equal(t, b.Hash, got.Hash)
		assert.Equal(t, b.Transactions, got.Transactions)
		assert.Equal(t, b.Nonce, got.Nonce)
	}
}

func TestReplaceChainOverwrites(t *testing.T) {
	s := store.New(db.NewMemory())
	require.NoError(t, s.ReplaceChain(buildChain(t, 2)))

	replacement := buildChain(t, 5)
	require.NoError(t, s.ReplaceChain(replacement))

	loaded, err := s.LoadChain()
	require.NoError(t, err)
	require.Equal(t, 5, loaded.Length())
	assert.Equal(t, replacement.Latest().Hash, loaded.Latest().Hash)
}

func TestReplaceChainTruncatesStaleTail(t *testing.T) {
	s := store.New(db.NewMemory())
	require.NoError(t, s.ReplaceChain(buildChain(t, 6)))

	// Shrinking must delete the stored blocks beyond the new tip, or the
	// next load would resurrect them.
	shorter := buildChain(t, 3)
	require.NoError(t, s.ReplaceChain(shorter))

	loaded, err := s.LoadChain()
	require.NoError(t, err)
	require.Equal(t, 3, loaded.Length())
	assert.Equal(t, shorter.Latest().Hash, loaded.Latest().Hash)
	assert.True(t, loaded.Validate())
}

func TestLoadChainPersistsAcrossStores(t *testing.T) {
	database := db.NewMemory()
	chain := buildChain(t, 4)
	require.NoError(t, store.New(database).ReplaceChain(chain))

	loaded, err := store.New(database).LoadChain()
	require.NoError(t, err)
	require.Equal(t, 4, loaded.Length())
	assert.Equal(t, chain.Latest().Hash, loaded.Latest().Hash)
}
