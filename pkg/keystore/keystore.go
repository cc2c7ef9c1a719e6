// Package keystore stores the node identity key encrypted at rest. The
// key feeds the secp256k1 signer used to endorse peer broadcasts.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/pbkdf2"
)

const (
	kdfIterations = 4096
	saltSize      = 32
	ivSize        = 16
)

// ErrWrongPassword is returned when the derived MAC does not match.
var ErrWrongPassword = errors.New("keystore: wrong password or corrupt key file")

type cryptoParams struct {
	Cipher     string `json:"cipher"`
	CipherText string `json:"ciphertext"`
	IV         string `json:"iv"`
	KDF        string `json:"kdf"`
	Salt       string `json:"salt"`
	Iterations int    `json:"iterations"`
	MAC        string `json:"mac"`
}

type encryptedKey struct {
	Address string       `json:"address"`
	Crypto  cryptoParams `json:"crypto"`
	Created string       `json:"created"`
}

// KeyStore manages encrypted key files in a directory, one file per
// address.
type KeyStore struct {
	keyDir string
}

// New creates a keystore rooted at keyDir.
func New(keyDir string) *KeyStore {
	return &KeyStore{keyDir: keyDir}
}

func (ks *KeyStore) keyPath(address string) string {
	return filepath.Join(ks.keyDir, "key-"+strings.ToLower(address)+".json")
}

// Store encrypts privateKey under password and writes it to the keystore
// directory, returning the derived address.
func (ks *KeyStore) Store(privateKey *ecdsa.PrivateKey, password string) (string, error) {
	if err := os.MkdirAll(ks.keyDir, 0o700); err != nil {
		return "", err
	}
	address := ethcrypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	derived := pbkdf2.Key([]byte(password), salt, kdfIterations, 32, sha256.New)

	block, err := aes.NewCipher(derived[:16])
	if err != nil {
		return "", err
	}
	plain := ethcrypto.FromECDSA(privateKey)
	cipherText := make([]byte, len(plain))
	cipher.NewCTR(block, iv).XORKeyStream(cipherText, plain)

	mac := sha256.Sum256(append(derived[16:32], cipherText...))

	raw, err := json.MarshalIndent(encryptedKey{
		Address: address,
		Crypto: cryptoParams{
			Cipher:     "aes-128-ctr",
			CipherText: hex.EncodeToString(cipherText),
			IV:         hex.EncodeToString(iv),
			KDF:        "pbkdf2",
			Salt:       hex.EncodeToString(salt),
			Iterations: kdfIterations,
			MAC:        hex.EncodeToString(mac[:]),
		},
		Created: time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(ks.keyPath(address), raw, 0o600); err != nil {
		return "", err
	}
	return address, nil
}

// Load decrypts the key file for address with password.
func (ks *KeyStore) Load(address, password string) (*ecdsa.PrivateKey, error) {
	raw, err := os.ReadFile(ks.keyPath(address))
	if err != nil {
		return nil, err
	}
	var ek encryptedKey
	if err := json.Unmarshal(raw, &ek); err != nil {
		return nil, fmt.Errorf("keystore: decode key file: %w", err)
	}
	if ek.Crypto.KDF != "pbkdf2" || ek.Crypto.Cipher != "aes-128-ctr" {
		return nil, fmt.Errorf("keystore: unsupported scheme %s/%s", ek.Crypto.KDF, ek.Crypto.Cipher)
	}

	salt, err := hex.DecodeString(ek.Crypto.Salt)
	if err != nil {
		return nil, err
	}
	iv, err := hex.DecodeString(ek.Crypto.IV)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(ek.Crypto.CipherText)
	if err != nil {
		return nil, err
	}
	wantMAC, err := hex.DecodeString(ek.Crypto.MAC)
	if err != nil {
		return nil, err
	}

	derived := pbkdf2.Key([]byte(password), salt, ek.Crypto.Iterations, 32, sha256.New)
	mac := sha256.Sum256(append(derived[16:32], cipherText...))
	if !hmac.Equal(mac[:], wantMAC) {
		return nil, ErrWrongPassword
	}

	block, err := aes.NewCipher(derived[:16])
	if err != nil {
		return nil, err
	}
	plain := make([]byte, len(cipherText))
	cipher.NewCTR(block, iv).XORKeyStream(plain, cipherText)

	return ethcrypto.ToECDSA(plain)
}

// Addresses lists the addresses with key files in the store.
func (ks *KeyStore) Addresses() ([]string, error) {
	entries, err := os.ReadDir(ks.keyDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "key-") && strings.HasSuffix(name, ".json") {
			out = append(out, strings.TrimSuffix(strings.TrimPrefix(name, "key-"), ".json"))
		}
	}
	return out, nil
}
