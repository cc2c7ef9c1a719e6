// Package node ties the chain, mempool, consensus engine and peer network
// together. A node is logically a single actor: submissions, mining and
// conflict resolution are serialized by one lock, and the chain and
// mempool are never touched except through the node's own operations.
package node

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/CipherCoRetech/SypherLang/pkg/consensus"
	"github.com/CipherCoRetech/SypherLang/pkg/core"
	"github.com/CipherCoRetech/SypherLang/pkg/crypto"
	"github.com/CipherCoRetech/SypherLang/pkg/mempool"
	"github.com/CipherCoRetech/SypherLang/pkg/network"
	"github.com/CipherCoRetech/SypherLang/pkg/store"
)

// DefaultDifficulty is the proof-of-work difficulty in leading zero hex
// nibbles, matching the ledger's historical setting.
const DefaultDifficulty = 4

// Config holds the per-node settings.
type Config struct {
	// Address identifies this node; mining rewards are credited to it.
	Address string

	// Difficulty is the proof-of-work difficulty in leading zero hex
	// nibbles. Zero means DefaultDifficulty.
	Difficulty int

	// ResolveInterval is how often the background loop reconciles with
	// peers. Zero disables the loop.
	ResolveInterval time.Duration
}

// Node owns one chain and one mempool, and coordinates mining, submission
// and reconciliation against the peer network.
type Node struct {
	address    string
	difficulty int
	interval   time.Duration

	mu    sync.Mutex
	chain *core.Chain

	pool   *mempool.Mempool
	peers  *network.PeerNetwork
	engine *consensus.Engine
	store  *store.ChainStore
	signer crypto.Signer

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int

	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger
}

// New creates a node. chainStore may be nil for a purely in-memory node;
// signer may be nil, in which case a no-op signer identified by the node
// address is used. If the store holds a valid chain it is resumed,
// otherwise a fresh genesis chain is created (and persisted).
func New(cfg Config, peers *network.PeerNetwork, chainStore *store.ChainStore, signer crypto.Signer) (*Node, error) {
	if cfg.Difficulty <= 0 {
		cfg.Difficulty = DefaultDifficulty
	}
	if signer == nil {
		signer = crypto.NewNoopSigner(cfg.Address)
	}

	n := &Node{
		address:    cfg.Address,
		difficulty: cfg.Difficulty,
		interval:   cfg.ResolveInterval,
		pool:       mempool.New(),
		peers:      peers,
		engine:     consensus.NewEngine(),
		store:      chainStore,
		signer:     signer,
		subs:       make(map[int]chan Event),
		stopCh:     make(chan struct{}),
		log:        slog.With("component", "node", "address", cfg.Address),
	}

	chain, err := n.loadOrCreateChain()
	if err != nil {
		return nil, err
	}
	n.chain = chain
	return n, nil
}

func (n *Node) loadOrCreateChain() (*core.Chain, error) {
	if n.store != nil {
		stored, err := n.store.LoadChain()
		if err != nil {
			return nil, err
		}
		if stored != nil {
			if stored.Validate() {
				n.log.Info("resumed stored chain", "length", stored.Length())
				return stored, nil
			}
			n.log.Error("stored chain failed validation, starting from genesis")
		}
	}
	chain := core.NewChain()
	if n.store != nil {
		if err := n.store.ReplaceChain(chain); err != nil {
			return nil, err
		}
	}
	return chain, nil
}

// Address returns the node's identity address.
func (n *Node) Address() string {
	return n.address
}

// Difficulty returns the proof-of-work difficulty this node mines at.
func (n *Node) Difficulty() int {
	return n.difficulty
}

// SubmitTransaction validates a transfer and inserts it into the mempool.
// It fails with core.ErrInvalidAmount or mempool.ErrDuplicateTransaction.
func (n *Node) SubmitTransaction(sender, recipient string, amount int64) (core.Transaction, error) {
	tx, err := core.NewTransaction(sender, recipient, amount)
	if err != nil {
		return core.Transaction{}, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.pool.Add(tx); err != nil {
		return core.Transaction{}, err
	}
	n.log.Debug("transaction accepted", "hash", tx.Hash, "pending", n.pool.Size())
	return tx, nil
}

// Mine drains the mempool into a block at the current tip, runs the
// proof-of-work search, appends the sealed block and replaces the mempool
// with the reward transaction, then announces the new chain to peers.
//
// The nonce search runs outside the node lock so submissions and
// reconciliation stay live while mining; if the tip moved in the
// meantime the append fails with core.ErrChainLinkage and the drained
// transactions go back into the pool.
func (n *Node) Mine(ctx context.Context) (*core.Block, error) {
	n.mu.Lock()
	txs := n.pool.Drain()
	tip := n.chain.Latest()
	index := uint64(n.chain.Length())
	n.mu.Unlock()

	block := core.NewBlock(index, txs, tip.Hash)
	if err := block.Mine(ctx, n.difficulty); err != nil {
		n.restore(txs)
		return nil, err
	}

	n.mu.Lock()
	if err := n.chain.Append(block); err != nil {
		n.mu.Unlock()
		n.restore(txs)
		return nil, err
	}
	n.pool.Drain()
	n.pool.Add(core.NewRewardTransaction(n.address))
	length := n.chain.Length()
	snapshot := n.chain.Blocks()
	if n.store != nil {
		if err := n.store.SaveBlock(block, length); err != nil {
			n.log.Error("persisting mined block failed", "height", block.Index, "err", err)
		}
	}
	n.mu.Unlock()

	n.log.Info("mined block", "height", block.Index, "nonce", block.Nonce, "txs", len(block.Transactions))
	n.publish(Event{Type: EventBlockMined, Block: block, Length: length})
	n.broadcastChain(ctx, snapshot)
	return block, nil
}

// ResolveConflicts fetches peer chains and applies the fork-choice rule,
// swapping the local chain wholesale if a strictly longer valid candidate
// exists. Unreachable peers and invalid candidates are absorbed; the
// returned error only reflects a failure to persist an adopted chain.
func (n *Node) ResolveConflicts(ctx context.Context) (bool, error) {
	candidates := n.peers.FetchChains(ctx)
	return n.adopt(candidates)
}

// OfferChain hands the node a single candidate chain, as received from a
// peer's chain_update broadcast. It reports whether the chain was adopted.
func (n *Node) OfferChain(candidate *core.Chain) bool {
	changed, err := n.adopt([]*core.Chain{candidate})
	if err != nil {
		n.log.Error("persisting offered chain failed", "err", err)
	}
	return changed
}

func (n *Node) adopt(candidates []*core.Chain) (bool, error) {
	n.mu.Lock()
	adopted, changed := n.engine.Resolve(n.chain, candidates)
	var persistErr error
	var length int
	if changed {
		n.chain = adopted
		length = adopted.Length()
		if n.store != nil {
			persistErr = n.store.ReplaceChain(adopted)
		}
	}
	n.mu.Unlock()

	if changed {
		n.publish(Event{Type: EventChainReplaced, Length: length})
	}
	return changed, persistErr
}

// GetChain returns a snapshot of the block sequence from genesis to tip.
func (n *Node) GetChain() []*core.Block {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chain.Blocks()
}

// ChainLength returns the current chain length.
func (n *Node) ChainLength() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chain.Length()
}

// PendingCount returns the number of transactions waiting to be mined.
func (n *Node) PendingCount() int {
	return n.pool.Size()
}

// Peers exposes the peer network for registration and inspection.
func (n *Node) Peers() *network.PeerNetwork {
	return n.peers
}

// Start launches the background reconciliation loop, if configured.
func (n *Node) Start() {
	if n.interval <= 0 {
		return
	}
	n.wg.Add(1)
	go n.resolveLoop()
}

// Stop terminates the background loop and waits for it to exit.
func (n *Node) Stop() {
	close(n.stopCh)
	n.wg.Wait()
}

func (n *Node) resolveLoop() {
	defer n.wg.Done()
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), n.interval)
			if _, err := n.ResolveConflicts(ctx); err != nil {
				n.log.Error("background reconciliation failed", "err", err)
			}
			cancel()
		case <-n.stopCh:
			return
		}
	}
}

// restore re-inserts drained transactions after a failed mining attempt.
func (n *Node) restore(txs []core.Transaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, tx := range txs {
		n.pool.Add(tx)
	}
}

func (n *Node) broadcastChain(ctx context.Context, blocks []*core.Block) {
	raw, err := json.Marshal(blocks)
	if err != nil {
		n.log.Error("encoding chain snapshot failed", "err", err)
		return
	}
	sig, err := n.signer.Sign(crypto.Hash(raw))
	if err != nil {
		n.log.Error("signing chain snapshot failed", "err", err)
		sig = nil
	}
	report := n.peers.Broadcast(ctx, network.EventChainUpdate, blocks, sig)
	n.log.Info("announced chain",
		"length", len(blocks),
		"delivered", len(report.Delivered),
		"failed", len(report.Failed))
}
