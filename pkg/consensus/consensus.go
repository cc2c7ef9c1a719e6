// Package consensus implements the fork-choice rule used to reconcile the
// local chain against candidate chains fetched from peers.
package consensus

import (
	"log/slog"

	"github.com/CipherCoRetech/SypherLang/pkg/core"
)

// Engine is the stateless longest-valid-chain decision rule. Candidates
// no longer than the local chain are rejected without validation; equal
// length never replaces, which keeps the current chain as the tie-break.
// Longer candidates are fully re-validated before they can win. The scan
// is single-pass and deterministic for a given candidate set.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates a fork-choice engine.
func NewEngine() *Engine {
	return &Engine{
		log: slog.With("component", "consensus"),
	}
}

// Resolve compares the local chain against raw, unvalidated candidates.
// It returns the chain to adopt and whether it differs from local.
// Invalid candidates are discarded here and never surface as errors.
func (e *Engine) Resolve(local *core.Chain, candidates []*core.Chain) (*core.Chain, bool) {
	best := local
	for i, cand := range candidates {
		if cand == nil || cand.Length() <= best.Length() {
			continue
		}
		if !cand.Validate() {
			e.log.Warn("discarding invalid candidate chain",
				"candidate", i,
				"length", cand.Length())
			continue
		}
		best = cand
	}
	if best == local {
		return local, false
	}
	e.log.Info("adopting longer chain",
		"local_length", local.Length(),
		"new_length", best.Length())
	return best, true
}
