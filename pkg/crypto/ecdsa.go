package crypto

import (
	"crypto/ecdsa"
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Secp256k1Signer signs digests with a secp256k1 key. It is the one real
// Signer implementation; nodes without a keystore fall back to NoopSigner.
type Secp256k1Signer struct {
	key  *ecdsa.PrivateKey
	addr string
}

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ethcrypto.GenerateKey()
}

// NewSecp256k1Signer wraps an existing private key.
func NewSecp256k1Signer(key *ecdsa.PrivateKey) (*Secp256k1Signer, error) {
	if key == nil {
		return nil, errors.New("private key is nil")
	}
	return &Secp256k1Signer{
		key:  key,
		addr: ethcrypto.PubkeyToAddress(key.PublicKey).Hex(),
	}, nil
}

// Sign produces a recoverable 65-byte signature over the digest.
func (s *Secp256k1Signer) Sign(digest Digest) ([]byte, error) {
	return ethcrypto.Sign(digest[:], s.key)
}

// Verify checks the signature against this signer's own public key.
func (s *Secp256k1Signer) Verify(digest Digest, sig []byte) bool {
	if len(sig) < 64 {
		return false
	}
	pub := ethcrypto.CompressPubkey(&s.key.PublicKey)
	return ethcrypto.VerifySignature(pub, digest[:], sig[:64])
}

// Address returns the hex address derived from the public key.
func (s *Secp256k1Signer) Address() string {
	return s.addr
}
