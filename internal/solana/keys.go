package solana

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// Wallet holds the signing keypair.
type Wallet struct {
	priv   ed25519.PrivateKey
	pubkey string
}

// NewWalletFromBase58 parses a base58-encoded 64-byte ed25519 secret key
// (the format wallet exports use).
func NewWalletFromBase58(secret string) (*Wallet, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)
	return &Wallet{priv: priv, pubkey: base58.Encode(pub)}, nil
}

// PublicKey returns the base58 public key.
func (w *Wallet) PublicKey() string { return w.pubkey }

// Sign signs a serialized message.
func (w *Wallet) Sign(message []byte) []byte {
	return ed25519.Sign(w.priv, message)
}
