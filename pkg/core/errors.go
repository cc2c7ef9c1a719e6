package core

import "errors"

var (
	// ErrInvalidAmount rejects transactions whose amount is not positive.
	// They never enter a mempool.
	ErrInvalidAmount = errors.New("transaction amount must be positive")

	// ErrChainLinkage means an append would break hash linkage. Only the
	// owning node appends, so hitting this is a local bug, not a
	// user-recoverable condition.
	ErrChainLinkage = errors.New("block does not extend the chain tip")
)
