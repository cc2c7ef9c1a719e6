// Package network maintains the registry of known peers and the
// best-effort broadcast/fetch primitives used between nodes. Peers are
// plain host:port addresses, registered manually; there is no discovery
// protocol, and a failure to reach one peer never aborts delivery to the
// others.
package network

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/CipherCoRetech/SypherLang/pkg/core"
)

// EventChainUpdate announces a freshly mined chain to peers.
const EventChainUpdate = "chain_update"

// Envelope is the broadcast wire form, POSTed to each peer's /events
// endpoint. The signature covers the payload bytes and comes from the
// sending node's Signer; receivers without a verification scheme ignore
// it.
type Envelope struct {
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature,omitempty"`
}

// BroadcastReport records the per-peer outcome of one broadcast. The
// broadcast call itself never fails.
type BroadcastReport struct {
	Delivered []string
	Failed    map[string]error
}

// Config tunes peer communication. Zero values fall back to defaults.
type Config struct {
	// Timeout bounds each HTTP attempt to a single peer.
	Timeout time.Duration

	// MaxRetries is the number of additional delivery attempts per peer.
	MaxRetries uint64

	// RetryInterval seeds the exponential backoff between attempts.
	RetryInterval time.Duration
}

const (
	defaultTimeout       = 5 * time.Second
	defaultMaxRetries    = 1
	defaultRetryInterval = 200 * time.Millisecond
)

// PeerNetwork owns the peer set and talks to every peer independently and
// concurrently, so one slow or unreachable peer cannot delay the others.
type PeerNetwork struct {
	mu    sync.RWMutex
	peers map[string]struct{}

	client        *http.Client
	maxRetries    uint64
	retryInterval time.Duration
	log           *slog.Logger
}

// New creates a peer network with an empty registry.
func New(cfg Config) *PeerNetwork {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	return &PeerNetwork{
		peers:         make(map[string]struct{}),
		client:        &http.Client{Timeout: cfg.Timeout},
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		log:           slog.With("component", "network"),
	}
}

// Register adds a host:port address to the peer set. Registering an
// already-known address is a no-op.
func (pn *PeerNetwork) Register(addr string) {
	if addr == "" {
		return
	}
	pn.mu.Lock()
	defer pn.mu.Unlock()
	if _, ok := pn.peers[addr]; ok {
		return
	}
	pn.peers[addr] = struct{}{}
	pn.log.Info("registered peer", "addr", addr)
}

// Peers returns the registered addresses in sorted order.
func (pn *PeerNetwork) Peers() []string {
	pn.mu.RLock()
	defer pn.mu.RUnlock()
	out := make([]string, 0, len(pn.peers))
	for addr := range pn.peers {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// Broadcast attempts delivery of {event, payload} to every registered
// peer. Deliveries run concurrently; a failure for one peer is logged,
// recorded in the report and does not affect the others.
func (pn *PeerNetwork) Broadcast(ctx context.Context, event string, payload any, signature []byte) BroadcastReport {
	report := BroadcastReport{Failed: make(map[string]error)}

	raw, err := json.Marshal(payload)
	if err != nil {
		// A payload the node itself produced should always encode; treat
		// failure as total non-delivery.
		for _, addr := range pn.Peers() {
			report.Failed[addr] = fmt.Errorf("encode payload: %w", err)
		}
		return report
	}
	body, err := json.Marshal(Envelope{
		Event:     event,
		Payload:   raw,
		Signature: hex.EncodeToString(signature),
	})
	if err != nil {
		for _, addr := range pn.Peers() {
			report.Failed[addr] = fmt.Errorf("encode envelope: %w", err)
		}
		return report
	}

	type result struct {
		addr string
		err  error
	}
	peers := pn.Peers()
	results := make(chan result, len(peers))

	for _, addr := range peers {
		go func(addr string) {
			results <- result{addr: addr, err: pn.post(ctx, addr, body)}
		}(addr)
	}
	for range peers {
		r := <-results
		if r.err != nil {
			pn.log.Warn("broadcast delivery failed", "peer", r.addr, "event", event, "err", r.err)
			report.Failed[r.addr] = r.err
		} else {
			report.Delivered = append(report.Delivered, r.addr)
		}
	}
	sort.Strings(report.Delivered)
	return report
}

// FetchChains requests the current chain from every registered peer
// concurrently. Peers that error, time out or return an undecodable body
// are logged and absent from the result, never reported as errors.
func (pn *PeerNetwork) FetchChains(ctx context.Context) []*core.Chain {
	peers := pn.Peers()
	results := make(chan *core.Chain, len(peers))

	for _, addr := range peers {
		go func(addr string) {
			chain, err := pn.fetchChain(ctx, addr)
			if err != nil {
				pn.log.Warn("fetch chain failed", "peer", addr, "err", err)
				results <- nil
				return
			}
			results <- chain
		}(addr)
	}

	chains := make([]*core.Chain, 0, len(peers))
	for range peers {
		if chain := <-results; chain != nil {
			chains = append(chains, chain)
		}
	}
	return chains
}

func (pn *PeerNetwork) post(ctx context.Context, addr string, body []byte) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+addr+"/events", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := pn.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("peer returned %s", resp.Status)
		}
		return nil
	}
	return backoff.Retry(op, pn.newBackOff(ctx))
}

func (pn *PeerNetwork) fetchChain(ctx context.Context, addr string) (*core.Chain, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/chain", nil)
	if err != nil {
		return nil, err
	}
	resp, err := pn.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("peer returned %s", resp.Status)
	}

	var blocks []*core.Block
	if err := json.NewDecoder(resp.Body).Decode(&blocks); err != nil {
		return nil, fmt.Errorf("decode chain: %w", err)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("peer returned empty chain")
	}
	return core.FromBlocks(blocks), nil
}

func (pn *PeerNetwork) newBackOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = pn.retryInterval
	return backoff.WithContext(backoff.WithMaxRetries(bo, pn.maxRetries), ctx)
}
