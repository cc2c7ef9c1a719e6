package consensus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CipherCoRetech/SypherLang/pkg/consensus"
	"github.com/CipherCoRetech/SypherLang/pkg/core"
)

// buildChain appends length-1 blocks to a fresh chain, each carrying one
// transaction derived from seed so chains with different seeds diverge.
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

func TestResolveKeepsLocalWithoutCandidates(t *testing.T) {
	engine := consensus.NewEngine()
	local := buildChain(t, "local", 3)

	adopted, changed := engine.Resolve(local, nil)
	assert.False(t, changed)
	assert.Same(t, local, adopted)
}

func TestResolveRejectsShorterAndEqualCandidates(t *testing.T) {
	engine := consensus.NewEngine()
	local := buildChain(t, "local", 3)

	shorter := buildChain(t, "peer-a", 2)
	equal := buildChain(t, "peer-b", 3)

	adopted, changed := engine.Resolve(local, []*core.Chain{shorter, equal})
	assert.False(t, changed)
	assert.Same(t, local, adopted)
}

func TestResolveAdoptsLongerValidCandidate(t *testing.T) {
	engine := consensus.NewEngine()
	local := buildChain(t, "local", 3)
	longer := buildChain(t, "peer", 5)

	adopted, changed := engine.Resolve(local, []*core.Chain{longer})
	assert.True(t, changed)
	assert.Same(t, longer, adopted)
	assert.Equal(t, 5, adopted.Length())
}

func TestResolveNeverAdoptsInvalidCandidate(t *testing.T) {
	engine := consensus.NewEngine()
	local := buildChain(t, "local", 3)

	tampered := buildChain(t, "peer", 5)
	tampered.Block(2).Transactions[0].Amount = 9999
	require.False(t, tampered.Validate())

	adopted, changed := engine.Resolve(local, []*core.Chain{tampered})
	assert.False(t, changed)
	assert.Same(t, local, adopted)
}

func TestResolvePicksLongestAmongValidCandidates(t *testing.T) {
	engine := consensus.NewEngine()
	local := buildChain(t, "local", 3)

	shorter := buildChain(t, "peer-a", 2)
	valid5 := buildChain(t, "peer-b", 5)
	valid7 := buildChain(t, "peer-c", 7)
	tampered := buildChain(t, "peer-d", 9)
	tampered.Block(4).Timestamp++

	adopted, changed := engine.Resolve(local, []*core.Chain{shorter, valid5, tampered, valid7, nil})
	assert.True(t, changed)
	assert.Same(t, valid7, adopted)
}

func TestResolveIsDeterministic(t *testing.T) {
	engine := consensus.NewEngine()
	local := buildChain(t, "local", 3)
	candidates := []*core.Chain{
		buildChain(t, "peer-a", 5),
		buildChain(t, "peer-b", 5),
	}

	first, _ := engine.Resolve(local, candidates)
	second, _ := engine.Resolve(local, candidates)
	assert.Same(t, first, second)
}
