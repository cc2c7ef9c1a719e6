package node_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CipherCoRetech/SypherLang/pkg/core"
	"github.com/CipherCoRetech/SypherLang/pkg/db"
	"github.com/CipherCoRetech/SypherLang/pkg/mempool"
	"github.com/CipherCoRetech/SypherLang/pkg/network"
	"github.com/CipherCoRetech/SypherLang/pkg/node"
	"github.com/CipherCoRetech/SypherLang/pkg/store"
)

func newTestNode(t *testing.T, difficulty int) *node.Node {
	t.Helper()
	n, err := node.New(node.Config{
		Address:    "node-1",
		Difficulty: difficulty,
	}, network.New(network.Config{
		Timeout:       2 * time.Second,
		RetryInterval: 10 * time.Millisecond,
	}), nil, nil)
	require.NoError(t, err)
	return n
}

// buildChain produces a valid candidate chain of the given length.
func buildChain(t *testing.T, seed string, length int) *core.Chain {
	t.Helper()
	chain := core.NewChain()
	for chain.Length() < length {
		tx, err := core.NewTransaction(seed, "Bob", int64(chain.Length()))
		require.NoError(t, err)
		b := core.NewBlock(uint64(chain.Length()), []core.Transaction{tx}, chain.Latest().Hash)
		require.NoError(t, chain.Append(b))
	}
	return chain
}

func TestNewNodeStartsAtGenesis(t *testing.T) {
	n := newTestNode(t, 1)
	assert.Equal(t, 1, n.ChainLength())
	assert.Equal(t, 0, n.PendingCount())
	assert.Equal(t, "node-1", n.Address())
}

func TestNewNodeDefaultsDifficulty(t *testing.T) {
	n := newTestNode(t, 0)
	assert.Equal(t, node.DefaultDifficulty, n.Difficulty())
}

func TestSubmitTransaction(t *testing.T) {
	n := newTestNode(t, 1)

	tx, err := n.SubmitTransaction("Alice", "Bob", 10)
	require.NoError(t, err)
	assert.True(t, tx.Valid())
	assert.Equal(t, 1, n.PendingCount())

	_, err = n.SubmitTransaction("Eve", "Mallory", -5)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = n.SubmitTransaction("Alice", "Bob", 10)
	assert.ErrorIs(t, err, mempool.ErrDuplicateTransaction)
	assert.Equal(t, 1, n.PendingCount())
}

func TestMineSealsPendingTransactions(t *testing.T) {
	n := newTestNode(t, 1)
	submitted, err := n.SubmitTransaction("Alice", "Bob", 10)
	require.NoError(t, err)

	block, err := n.Mine(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n.ChainLength())
	assert.Equal(t, uint64(1), block.Index)
	assert.True(t, core.HashMeetsDifficulty(block.Hash, 1))
	require.Len(t, block.Transactions, 1)
	assert.Equal(t, submitted.Hash, block.Transactions[0].Hash)

	// The pool now holds exactly the reward for the next block.
	assert.Equal(t, 1, n.PendingCount())
	rewardBlock, err := n.Mine(context.Background())
	require.NoError(t, err)
	require.Len(t, rewardBlock.Transactions, 1)
	reward := rewardBlock.Transactions[0]
	assert.Equal(t, core.RewardSender, reward.Sender)
	assert.Equal(t, "node-1", reward.Recipient)
	assert.Equal(t, int64(1), reward.Amount)
}

func TestMineEmptyPool(t *testing.T) {
	n := newTestNode(t, 1)

	block, err := n.Mine(context.Background())
	require.NoError(t, err)
	assert.Empty(t, block.Transactions)
	assert.Equal(t, 2, n.ChainLength())
}

func TestMineCancellationRestoresPool(t *testing.T) {
	n := newTestNode(t, 16)
	_, err := n.SubmitTransaction("Alice", "Bob", 10)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = n.Mine(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, n.ChainLength())
	assert.Equal(t, 1, n.PendingCount())
}

func TestMinePublishesEvent(t *testing.T) {
	n := newTestNode(t, 1)
	events, cancel := n.Subscribe()
	defer cancel()

	block, err := n.Mine(context.Background())
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, node.EventBlockMined, ev.Type)
		require.NotNil(t, ev.Block)
		assert.Equal(t, block.Hash, ev.Block.Hash)
		assert.Equal(t, 2, ev.Length)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestMineBroadcastsChainToPeers(t *testing.T) {
	var got network.Envelope
	received := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		close(received)
	}))
	defer srv.Close()

	n := newTestNode(t, 1)
	n.Peers().Register(strings.TrimPrefix(srv.URL, "http://"))

	_, err := n.Mine(context.Background())
	require.NoError(t, err)

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("peer never received the announcement")
	}
	assert.Equal(t, network.EventChainUpdate, got.Event)

	var blocks []*core.Block
	require.NoError(t, json.Unmarshal(got.Payload, &blocks))
	assert.Len(t, blocks, 2)
}

func TestResolveConflictsAdoptsLongestPeerChain(t *testing.T) {
	long := buildChain(t, "peer-a", 5)
	short := buildChain(t, "peer-b", 2)

	serve := func(c *core.Chain) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(c.Blocks())
		}))
	}
	srvLong := serve(long)
	defer srvLong.Close()
	srvShort := serve(short)
	defer srvShort.Close()

	n := newTestNode(t, 1)
	n.Peers().Register(strings.TrimPrefix(srvLong.URL, "http://"))
	n.Peers().Register(strings.TrimPrefix(srvShort.URL, "http://"))

	changed, err := n.ResolveConflicts(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 5, n.ChainLength())
	assert.Equal(t, long.Latest().Hash, n.GetChain()[4].Hash)

	// A second pass finds nothing better.
	changed, err = n.ResolveConflicts(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestOfferChain(t *testing.T) {
	n := newTestNode(t, 1)
	events, cancel := n.Subscribe()
	defer cancel()

	assert.False(t, n.OfferChain(buildChain(t, "peer", 1)))

	tampered := buildChain(t, "peer", 4)
	tampered.Block(2).Transactions[0].Amount = 9999
	assert.False(t, n.OfferChain(tampered))
	assert.Equal(t, 1, n.ChainLength())

	assert.True(t, n.OfferChain(buildChain(t, "peer", 4)))
	assert.Equal(t, 4, n.ChainLength())

	select {
	case ev := <-events:
		assert.Equal(t, node.EventChainReplaced, ev.Type)
		assert.Equal(t, 4, ev.Length)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestNodeResumesStoredChain(t *testing.T) {
	database := db.NewMemory()
	chainStore := store.New(database)
	peers := network.New(network.Config{})

	first, err := node.New(node.Config{Address: "node-1", Difficulty: 1}, peers, chainStore, nil)
	require.NoError(t, err)
	_, err = first.SubmitTransaction("Alice", "Bob", 10)
	require.NoError(t, err)
	mined, err := first.Mine(context.Background())
	require.NoError(t, err)

	second, err := node.New(node.Config{Address: "node-1", Difficulty: 1}, peers, store.New(database), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.ChainLength())
	assert.Equal(t, mined.Hash, second.GetChain()[1].Hash)
}

func TestStartStopResolveLoop(t *testing.T) {
	n, err := node.New(node.Config{
		Address:         "node-1",
		Difficulty:      1,
		ResolveInterval: 10 * time.Millisecond,
	}, network.New(network.Config{}), nil, nil)
	require.NoError(t, err)

	n.Start()
	time.Sleep(50 * time.Millisecond)
	n.Stop()

	assert.Equal(t, 1, n.ChainLength())
}
