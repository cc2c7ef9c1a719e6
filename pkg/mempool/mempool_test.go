package mempool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CipherCoRetech/SypherLang/pkg/core"
	"github.com/CipherCoRetech/SypherLang/pkg/mempool"
)

func mustTx(t *testing.T, sender, recipient string, amount int64) core.Transaction {
	t.Helper()
	tx, err := core.NewTransaction(sender, recipient, amount)
	require.NoError(t, err)
	return tx
}

func TestAddAndSize(t *testing.T) {
	mp := mempool.New()
	assert.Equal(t, 0, mp.Size())

	require.NoError(t, mp.Add(mustTx(t, "Alice", "Bob", 10)))
	require.NoError(t, mp.Add(mustTx(t, "Bob", "Carol", 3)))
	assert.Equal(t, 2, mp.Size())
}

func TestAddRejectsDuplicateIdentity(t *testing.T) {
	mp := mempool.New()
	require.NoError(t, mp.Add(mustTx(t, "Alice", "Bob", 10)))

	// Same fields produce the same identity hash.
	err := mp.Add(mustTx(t, "Alice", "Bob", 10))
	assert.ErrorIs(t, err, mempool.ErrDuplicateTransaction)
	assert.Equal(t, 1, mp.Size())
}

func TestDrainEmptiesPoolInOrder(t *testing.T) {
	mp := mempool.New()
	first := mustTx(t, "Alice", "Bob", 10)
	second := mustTx(t, "Bob", "Carol", 3)
	third := mustTx(t, "Carol", "Dan", 7)
	require.NoError(t, mp.Add(first))
	require.NoError(t, mp.Add(second))
	require.NoError(t, mp.Add(third))

	drained := mp.Drain()
	require.Len(t, drained, 3)
	assert.Equal(t, []core.Transaction{first, second, third}, drained)
	assert.Equal(t, 0, mp.Size())
	assert.Empty(t, mp.Drain())
}

func TestDrainAllowsResubmission(t *testing.T) {
	mp := mempool.New()
	tx := mustTx(t, "Alice", "Bob", 10)
	require.NoError(t, mp.Add(tx))
	mp.Drain()

	assert.NoError(t, mp.Add(tx))
}
