package core

import (
	"context"
	"time"

	"github.com/CipherCoRetech/SypherLang/pkg/crypto"
)

// Block is an ordered batch of transactions linked to its predecessor by
// hash and sealed by a proof-of-work nonce. A block is mutated only during
// the nonce search; once appended to a chain it is frozen.
type Block struct {
	Index        uint64        `json:"index"`
	Timestamp    int64         `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	PrevHash     crypto.Digest `json:"previous_hash"`
	Nonce        uint64        `json:"nonce"`
	Hash         crypto.Digest `json:"hash"`
}

// NewBlock constructs a block with nonce 0 and the current wall-clock
// timestamp, and computes its hash immediately. An empty transaction list
// is valid.
func NewBlock(index uint64, txs []Transaction, prevHash crypto.Digest) *Block {
	b := &Block{
		Index:        index,
		Timestamp:    time.Now().UnixMilli(),
		Transactions: txs,
		PrevHash:     prevHash,
	}
	b.Hash = b.ComputeHash()
	return b
}

// ComputeHash calculates the BLAKE3 hash of the block. The stored hash
// field is never part of its own input, and transaction digests are
// recomputed from their fields rather than trusted.
func (b *Block) ComputeHash() crypto.Digest {
	inputs := make([][]byte, 0, len(b.Transactions)+4)
	inputs = append(inputs, uint64ToBytes(b.Index))
	for _, tx := range b.Transactions {
		id := tx.IdentityHash()
		inputs = append(inputs, id[:])
	}
	inputs = append(inputs,
		b.PrevHash[:],
		int64ToBytes(b.Timestamp),
		uint64ToBytes(b.Nonce),
	)
	return crypto.HashConcat(inputs...)
}

// HashMeetsDifficulty reports whether h has at least difficulty leading
// zero hex nibbles, i.e. its big-endian value is below 2^(256-difficulty*4).
func HashMeetsDifficulty(h crypto.Digest, difficulty int) bool {
	if difficulty > crypto.DigestSize*2 {
		return false
	}
	for i := 0; i < difficulty; i++ {
		nibble := h[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble != 0 {
			return false
		}
	}
	return true
}

// Mine increments the nonce and recomputes the hash until it meets the
// difficulty target. The search is CPU-bound with no probabilistic upper
// bound, so it checks ctx on every iteration; on cancellation it returns
// ctx.Err() and leaves the block unsealed.
func (b *Block) Mine(ctx context.Context, difficulty int) error {
	for !HashMeetsDifficulty(b.Hash, difficulty) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		b.Nonce++
		b.Hash = b.ComputeHash()
	}
	return nil
}

// uint64ToBytes encodes n as 8 little-endian bytes for hashing.
func uint64ToBytes(n uint64) []byte {
	b := make([]byte, 8)
	for i := uint(0); i < 8; i++ {
		b[i] = byte(n >> (i * 8))
	}
	return b
}
