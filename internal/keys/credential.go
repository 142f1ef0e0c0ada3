package keys

import (
	"crypto/ecdsa"
	"strings"
	"sync"

	"github.com/chapool/subflow-agent/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Credential holds the executor key. It is loaded once at startup, read-only afterwards
// and never serialized: String and the JSON encoding only expose the address.
type Credential struct {
	mu      sync.RWMutex
	key     *ecdsa.PrivateKey
	address common.Address
}

// FromHex parses a hex encoded secp256k1 key with or without 0x prefix.
func FromHex(hexKey string) (*Credential, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		// the parse error may echo parts of the input
		return nil, errors.New("invalid executor private key")
	}

	return newCredential(key), nil
}

// FromMnemonic derives the key at path from mnemonic and the BIP39 passphrase.
func FromMnemonic(mnemonic string, passphrase string, path string) (*Credential, error) {
	raw, err := DerivePrivateKey(mnemonic, passphrase, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive executor key")
	}
	defer zero(raw)

	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert derived key")
	}

	return newCredential(key), nil
}

// FromKeystoreFile decrypts the mnemonic keystore at path and derives the executor key from it.
func FromKeystoreFile(path string, password string, passphrase string, derivationPath string) (*Credential, error) {
	ks, err := ReadKeystoreFile(path)
	if err != nil {
		return nil, err
	}

	mnemonic, err := DecryptMnemonic(ks, password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt keystore")
	}

	return FromMnemonic(mnemonic, passphrase, derivationPath)
}

// Load picks the configured key source, a raw key taking precedence over a keystore file.
func Load(cfg config.Executor) (*Credential, error) {
	switch {
	case cfg.PrivateKey != "":
		return FromHex(cfg.PrivateKey)
	case cfg.KeystoreFile != "":
		path := cfg.DerivationPath
		if path == "" {
			path = DefaultDerivationPath
		}
		return FromKeystoreFile(cfg.KeystoreFile, cfg.KeystorePassword, cfg.Passphrase, path)
	default:
		return nil, errors.New("no executor key configured")
	}
}

func newCredential(key *ecdsa.PrivateKey) *Credential {
	return &Credential{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (c *Credential) Address() common.Address {
	return c.address
}

// PrivateKey returns the signing key, nil after Destroy.
func (c *Credential) PrivateKey() *ecdsa.PrivateKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.key
}

// Destroy zeroes the key material. Signing fails afterwards.
func (c *Credential) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != nil {
		c.key.D.SetInt64(0)
		c.key = nil
	}
}

func (c *Credential) String() string {
	return "Credential(" + c.address.Hex() + ")"
}

func (c *Credential) MarshalJSON() ([]byte, error) {
	return []byte(`{"address":"` + c.address.Hex() + `"}`), nil
}
