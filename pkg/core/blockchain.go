package core

import (
	"github.com/CipherCoRetech/SypherLang/pkg/crypto"
)

// genesisTimestamp fixes the genesis block so every node derives the same
// chain root.
const genesisTimestamp = 0

// Chain is the append-only sequence of blocks. It is not safe for
// concurrent use: a chain is owned by exactly one node, which serializes
// all access, and conflict resolution replaces it wholesale rather than
// editing it block by block.
type Chain struct {
	blocks []*Block
}

// NewChain creates a chain holding only the genesis block: index 0, no
// transactions, all-zero previous hash.
func NewChain() *Chain {
	genesis := &Block{
		Index:     0,
		Timestamp: genesisTimestamp,
		PrevHash:  crypto.ZeroDigest,
	}
	genesis.Hash = genesis.ComputeHash()
	return &Chain{blocks: []*Block{genesis}}
}

// FromBlocks wraps a block sequence received from a peer. The result is a
// raw candidate; callers must run Validate before trusting it.
func FromBlocks(blocks []*Block) *Chain {
	return &Chain{blocks: blocks}
}

// Append adds a block to the tip. The block must reference the current
// tip's hash and carry the next index, otherwise ErrChainLinkage.
func (c *Chain) Append(b *Block) error {
	tip := c.Latest()
	if b.PrevHash != tip.Hash || b.Index != tip.Index+1 {
		return ErrChainLinkage
	}
	c.blocks = append(c.blocks, b)
	return nil
}

// Latest returns the tip block.
func (c *Chain) Latest() *Block {
	return c.blocks[len(c.blocks)-1]
}

// Length returns the number of blocks including genesis.
func (c *Chain) Length() int {
	return len(c.blocks)
}

// Blocks returns a copy of the block sequence. The blocks themselves are
// frozen once appended, so sharing pointers is safe.
func (c *Chain) Blocks() []*Block {
	out := make([]*Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Block returns the block at the given height, or nil if out of range.
func (c *Chain) Block(height int) *Block {
	if height < 0 || height >= len(c.blocks) {
		return nil
	}
	return c.blocks[height]
}

// Validate walks the full sequence from genesis to tip. It returns true
// only if the genesis block has the sentinel shape, every stored block
// hash equals its recomputed hash, every transaction's identity hash
// matches its fields, and every previous-hash and index linkage holds.
// The walk is iterative, so arbitrarily long chains cannot exhaust the
// stack.
func (c *Chain) Validate() bool {
	if len(c.blocks) == 0 {
		return false
	}
	genesis := c.blocks[0]
	if genesis == nil || genesis.Index != 0 || !genesis.PrevHash.IsZero() || len(genesis.Transactions) != 0 {
		return false
	}
	prev := genesis
	for i, b := range c.blocks {
		if b == nil || b.Hash != b.ComputeHash() {
			return false
		}
		for _, tx := range b.Transactions {
			if !tx.Valid() {
				return false
			}
		}
		if i == 0 {
			continue
		}
		if b.PrevHash != prev.Hash || b.Index != prev.Index+1 {
			return false
		}
		prev = b
	}
	return true
}
