// Package mempool holds transactions that have been submitted but not yet
// included in a mined block. Uniqueness is by transaction identity hash.
package mempool

import (
	"errors"
	"sync"

	"github.com/CipherCoRetech/SypherLang/pkg/core"
	"github.com/CipherCoRetech/SypherLang/pkg/crypto"
)

// ErrDuplicateTransaction rejects a transaction whose identity hash is
// already pending.
var ErrDuplicateTransaction = errors.New("transaction already pending")

// Mempool is an insertion-ordered set of pending transactions keyed by
// identity hash. It is owned by one node and drained atomically when
// mining starts.
type Mempool struct {
	mu    sync.Mutex
	txs   map[crypto.Digest]core.Transaction
	order []crypto.Digest
}

// New creates an empty mempool.
func New() *Mempool {
	return &Mempool{
		txs: make(map[crypto.Digest]core.Transaction),
	}
}

// Add inserts a transaction, failing with ErrDuplicateTransaction if its
// identity hash is already present.
func (mp *Mempool) Add(tx core.Transaction) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, ok := mp.txs[tx.Hash]; ok {
		return ErrDuplicateTransaction
	}
	mp.txs[tx.Hash] = tx
	mp.order = append(mp.order, tx.Hash)
	return nil
}

// Drain atomically removes and returns all pending transactions in
// insertion order, leaving the pool empty.
func (mp *Mempool) Drain() []core.Transaction {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	out := make([]core.Transaction, 0, len(mp.order))
	for _, h := range mp.order {
		out = append(out, mp.txs[h])
	}
	mp.txs = make(map[crypto.Digest]core.Transaction)
	mp.order = nil
	return out
}

// Size returns the number of pending transactions.
func (mp *Mempool) Size() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.txs)
}
