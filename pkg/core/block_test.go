package core_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CipherCoRetech/SypherLang/pkg/core"
	"github.com/CipherCoRetech/SypherLang/pkg/crypto"
)

func TestNewBlockComputesHash(t *testing.T) {
	tx, err := core.NewTransaction("Alice", "Bob", 10)
	require.NoError(t, err)

	b := core.NewBlock(1, []core.Transaction{tx}, crypto.Hash([]byte("prev")))
	assert.Equal(t, uint64(0), b.Nonce)
	assert.Equal(t, b.ComputeHash(), b.Hash)
}

func TestBlockHashExcludesStoredHash(t *testing.T) {
	b := core.NewBlock(1, nil, crypto.ZeroDigest)
	before := b.ComputeHash()

	// Overwriting the stored hash must not change the recomputed one.
	b.Hash = crypto.Hash([]byte("garbage"))
	assert.Equal(t, before, b.ComputeHash())
}

func TestEmptyTransactionListIsValid(t *testing.T) {
	b := core.NewBlock(1, nil, crypto.Hash([]byte("prev")))
	require.NoError(t, b.Mine(context.Background(), 1))
	assert.True(t, core.HashMeetsDifficulty(b.Hash, 1))
}

func TestMineMeetsDifficulty(t *testing.T) {
	for _, difficulty := range []int{1, 2} {
		b := core.NewBlock(1, nil, crypto.Hash([]byte("prev")))
		require.NoError(t, b.Mine(context.Background(), difficulty))

		assert.True(t, core.HashMeetsDifficulty(b.Hash, difficulty))
		assert.True(t, strings.HasPrefix(b.Hash.Hex(), strings.Repeat("0", difficulty)))
		assert.Equal(t, b.ComputeHash(), b.Hash)
	}
}

func TestHashMeetsDifficulty(t *testing.T) {
	var h crypto.Digest
	h[0] = 0x0f // one leading zero nibble

	assert.True(t, core.HashMeetsDifficulty(h, 0))
	assert.True(t, core.HashMeetsDifficulty(h, 1))
	assert.False(t, core.HashMeetsDifficulty(h, 2))
	assert.True(t, core.HashMeetsDifficulty(crypto.ZeroDigest, 64))
	assert.False(t, core.HashMeetsDifficulty(crypto.ZeroDigest, 65))
}

func TestMineIsCancellable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	b := core.NewBlock(1, nil, crypto.Hash([]byte("prev")))
	// A 16-nibble target is unreachable in 20ms; the search must return
	// promptly once the deadline passes.
	start := time.Now()
	err := b.Mine(ctx, 16)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
