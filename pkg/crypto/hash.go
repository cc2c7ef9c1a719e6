package crypto

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// DigestSize is the size of a BLAKE3 digest in bytes.
const DigestSize = 32

// Digest is a fixed-length BLAKE3 hash value. It serializes as lowercase
// hex in JSON, which is also the form used on the peer wire.
type Digest [DigestSize]byte

// ZeroDigest is the sentinel previous-hash carried by a genesis block.
var ZeroDigest Digest

// Hash computes the BLAKE3 digest of the input data.
func Hash(data []byte) Digest {
	hasher := blake3.New()
	hasher.Write(data)
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}

// HashConcat computes the BLAKE3 digest of the concatenation of all inputs.
func HashConcat(inputs ...[]byte) Digest {
	hasher := blake3.New()
	for _, input := range inputs {
		hasher.Write(input)
	}
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is the all-zero sentinel.
func (d Digest) IsZero() bool {
	return d == ZeroDigest
}

func (d Digest) String() string {
	return d.Hex()
}

// DigestFromHex parses a lowercase or uppercase hex string into a Digest.
func DigestFromHex(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("invalid digest encoding: %w", err)
	}
	if len(raw) != DigestSize {
		return d, fmt.Errorf("invalid digest length: %d", len(raw))
	}
	copy(d[:], raw)
	return d, nil
}

// MarshalJSON encodes the digest as a hex string.
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Hex())
}

// UnmarshalJSON decodes a hex string into the digest.
func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := DigestFromHex(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
