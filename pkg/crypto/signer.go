package crypto

// Signer abstracts the signature scheme a node uses to endorse what it
// sends to peers. Block, chain and consensus logic never depend on a
// concrete scheme; a real implementation can be swapped in without
// touching them.
type Signer interface {
	// Sign produces a signature over the given digest.
	Sign(digest Digest) ([]byte, error)

	// Verify reports whether sig is a valid signature over digest.
	Verify(digest Digest, sig []byte) bool

	// Address returns the address identifying this signer.
	Address() string
}

// ProofSystem abstracts a proof-of-knowledge scheme. The default
// implementation performs no cryptography; it exists so a sound scheme
// can be plugged in behind the same interface.
type ProofSystem interface {
	// Prove produces a proof for the given statement.
	Prove(statement []byte) ([]byte, error)

	// Verify reports whether proof holds for statement.
	Verify(statement, proof []byte) bool
}

// NoopSigner is the default Signer. It emits empty signatures and
// accepts any signature as valid.
type NoopSigner struct {
	addr string
}

// NewNoopSigner creates a no-op signer identified by addr.
func NewNoopSigner(addr string) *NoopSigner {
	return &NoopSigner{addr: addr}
}

func (s *NoopSigner) Sign(Digest) ([]byte, error) { return nil, nil }

func (s *NoopSigner) Verify(Digest, []byte) bool { return true }

func (s *NoopSigner) Address() string { return s.addr }

// NoopProofSystem is the default ProofSystem. Proofs are empty and
// always verify.
type NoopProofSystem struct{}

func (NoopProofSystem) Prove([]byte) ([]byte, error) { return nil, nil }

func (NoopProofSystem) Verify([]byte, []byte) bool { return true }
