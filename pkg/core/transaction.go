package core

import (
	"github.com/CipherCoRetech/SypherLang/pkg/crypto"
)

// RewardSender is the sender recorded on mining reward transactions.
const RewardSender = "network"

// Transaction is an immutable record of a value transfer. The identity
// hash is a pure function of sender, recipient and amount; it is computed
// on construction and never changes afterward.
type Transaction struct {
	Sender    string        `json:"sender"`
	Recipient string        `json:"recipient"`
	Amount    int64         `json:"amount"`
	Hash      crypto.Digest `json:"hash"`
}

// NewTransaction creates a transaction and computes its identity hash.
// Amounts must be strictly positive.
func NewTransaction(sender, recipient string, amount int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	tx := Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}
	tx.Hash = tx.IdentityHash()
	return tx, nil
}

// NewRewardTransaction creates the transaction crediting a miner after a
// successful block.
func NewRewardTransaction(miner string) Transaction {
	tx, _ := NewTransaction(RewardSender, miner, 1)
	return tx
}

// IdentityHash computes the BLAKE3 digest of sender, recipient and amount.
func (tx Transaction) IdentityHash() crypto.Digest {
	return crypto.HashConcat(
		[]byte(tx.Sender),
		[]byte(tx.Recipient),
		int64ToBytes(tx.Amount),
	)
}

// Valid reports whether the transaction carries a positive amount and an
// identity hash matching its fields.
func (tx Transaction) Valid() bool {
	return tx.Amount > 0 && tx.Hash == tx.IdentityHash()
}

// int64ToBytes encodes n as 8 little-endian bytes for hashing.
func int64ToBytes(n int64) []byte {
	b := make([]byte, 8)
	u := uint64(n)
	for i := uint(0); i < 8; i++ {
		b[i] = byte(u >> (i * 8))
	}
	return b
}
