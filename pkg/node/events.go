package node

import "github.com/CipherCoRetech/SypherLang/pkg/core"

// Event types published on the node's feed.
const (
	EventBlockMined    = "block_mined"
	EventChainReplaced = "chain_replaced"
)

// Event describes a chain change a subscriber may care about.
type Event struct {
	Type   string      `json:"type"`
	Block  *core.Block `json:"block,omitempty"`
	Length int         `json:"length"`
}

// Subscribe registers a listener for chain events. The returned cancel
// function must be called to release the subscription. Slow subscribers
// drop events rather than stall the node.
func (n *Node) Subscribe() (<-chan Event, func()) {
	n.subMu.Lock()
	defer n.subMu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan Event, 16)
	n.subs[id] = ch

	cancel := func() {
		n.subMu.Lock()
		defer n.subMu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (n *Node) publish(ev Event) {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
