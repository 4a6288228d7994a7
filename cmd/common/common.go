// Package common provides shared configuration and wiring for the relay
// commands:
//
//   - YAML configuration with defaults and validation
//   - slog logger construction
//   - store backend selection, including the expiry sweeper
//   - signing key loading for relayctl
package common

import (
	"encoding/hex"
	"fmt"

	"github.com/flashbots/disco-relay/crypto"
)

// LoadOrGenerateSigningKey loads an Ed25519 private key from a hex string
// (32-byte seed or 64-byte key), or generates a new key pair if hexKey is
// empty.
func LoadOrGenerateSigningKey(hexKey string) (crypto.PrivateKey, error) {
	if hexKey != "" {
		priv, err := crypto.NewPrivateKeyFromHex(hexKey)
		if err != nil {
			return nil, fmt.Errorf("invalid signing key: %w", err)
		}
		return priv, nil
	}
	_, priv, err := crypto.GenerateKeyPair()
	return priv, err
}

// EncodeSigningKey returns the hex form of a key's seed, as accepted by
// LoadOrGenerateSigningKey.
func EncodeSigningKey(priv crypto.PrivateKey) string {
	return hex.EncodeToString(priv.Seed())
}
