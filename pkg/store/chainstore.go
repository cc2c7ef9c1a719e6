// Package store persists the chain through the db abstraction so a node
// restart does not lose the ledger.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/CipherCoRetech/SypherLang/pkg/core"
	"github.com/CipherCoRetech/SypherLang/pkg/db"
)

// Key layout: blocks live under "b" + 8-byte big-endian height so the
// iterator yields them in chain order; "n" holds the block count.
var (
	blockPrefix    = []byte("b")
	blockPrefixEnd = []byte("c")
	lengthKey      = []byte("n")
)

// ChainStore reads and writes chains block-per-key. Appends write one
// block; a consensus swap rewrites the whole column in one batch.
type ChainStore struct {
	db db.Database
}

// New creates a chain store over the given database.
func New(database db.Database) *ChainStore {
	return &ChainStore{db: database}
}

func blockKey(height uint64) []byte {
	key := make([]byte, 1+8)
	key[0] = blockPrefix[0]
	binary.BigEndian.PutUint64(key[1:], height)
	return key
}

func lengthValue(n int) []byte {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(n))
	return v
}

// SaveBlock persists a newly appended block and the new chain length.
func (s *ChainStore) SaveBlock(b *core.Block, chainLength int) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode block %d: %w", b.Index, err)
	}
	batch := s.db.Batch()
	batch.Put(blockKey(b.Index), raw)
	batch.Put(lengthKey, lengthValue(chainLength))
	return batch.Write()
}

// ReplaceChain rewrites the stored chain wholesale, deleting any stored
// blocks beyond the new tip. Used on conflict resolution and first start.
func (s *ChainStore) ReplaceChain(c *core.Chain) error {
	oldLength := 0
	if raw, err := s.db.Get(lengthKey); err == nil && len(raw) == 8 {
		oldLength = int(binary.BigEndian.Uint64(raw))
	}

	batch := s.db.Batch()
	blocks := c.Blocks()
	for _, b := range blocks {
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode block %d: %w", b.Index, err)
		}
		batch.Put(blockKey(b.Index), raw)
	}
	for height := len(blocks); height < oldLength; height++ {
		batch.Delete(blockKey(uint64(height)))
	}
	batch.Put(lengthKey, lengthValue(len(blocks)))
	return batch.Write()
}

// LoadChain reads the stored chain in order. It returns (nil, nil) when
// nothing has been stored yet. The result is not validated; callers
// decide what to do with a corrupt chain.
func (s *ChainStore) LoadChain() (*core.Chain, error) {
	if _, err := s.db.Get(lengthKey); errors.Is(err, db.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	iter, err := s.db.Iterator(blockPrefix, blockPrefixEnd)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var blocks []*core.Block
	for iter.Next() {
		var b core.Block
		if err := json.Unmarshal(iter.Value(), &b); err != nil {
			return nil, fmt.Errorf("decode stored block: %w", err)
		}
		blocks = append(blocks, &b)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, nil
	}
	return core.FromBlocks(blocks), nil
}
