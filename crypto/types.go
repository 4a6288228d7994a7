package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// PublicKeySize is the length of an identity key in bytes.
	PublicKeySize = ed25519.PublicKeySize
	// SignatureSize is the length of a record signature in bytes.
	SignatureSize = ed25519.SignatureSize
)

var (
	ErrInvalidPrivateKey = errors.New("invalid private key size")
	ErrInvalidSignature  = errors.New("invalid signature size")
)

// PublicKey represents a peer identity.
// In the relay, public keys name peers: records are stored under, and signed by, them.
// The implementation uses Ed25519 public keys.
type PublicKey []byte

// NewPublicKeyFromBytes creates a PublicKey from a byte slice.
// The input is copied and must be the encoding of a valid Ed25519 point.
func NewPublicKeyFromBytes(data []byte) (PublicKey, error) {
	if err := validatePublicKey(data); err != nil {
		return nil, err
	}
	pk := make([]byte, len(data))
	copy(pk, data)
	return PublicKey(pk), nil
}

// Bytes returns the public key as a byte slice.
func (pk PublicKey) Bytes() []byte {
	return pk
}

// Equal compares two public keys for equality in constant time.
func (pk PublicKey) Equal(other PublicKey) bool {
	return subtle.ConstantTimeCompare(pk, other) == 1
}

// String returns the canonical z-base-32 representation of the public key.
// This is the form peers use in URLs and logs.
func (pk PublicKey) String() string {
	return pk.Z32()
}

// PrivateKey represents an Ed25519 signing key.
// Only record publishers hold private keys; the relay itself never does.
type PrivateKey []byte

// NewPrivateKeyFromBytes creates a PrivateKey from either a 32-byte seed or a
// 64-byte expanded Ed25519 private key.
func NewPrivateKeyFromBytes(data []byte) (PrivateKey, error) {
	switch len(data) {
	case ed25519.SeedSize:
		return PrivateKey(ed25519.NewKeyFromSeed(data)), nil
	case ed25519.PrivateKeySize:
		sk := make([]byte, len(data))
		copy(sk, data)
		return PrivateKey(sk), nil
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPrivateKey, len(data))
	}
}

// NewPrivateKeyFromHex parses a hex-encoded seed or expanded private key.
func NewPrivateKeyFromHex(data string) (PrivateKey, error) {
	raw, err := hex.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return NewPrivateKeyFromBytes(raw)
}

// Bytes returns the private key as a byte slice.
// This exposes sensitive key material.
func (sk PrivateKey) Bytes() []byte {
	return sk
}

// Seed returns the 32-byte seed the key was derived from.
func (sk PrivateKey) Seed() []byte {
	return ed25519.PrivateKey(sk).Seed()
}

// PublicKey derives the public key corresponding to this private key.
// For Ed25519, the public key is contained within the private key structure.
func (sk PrivateKey) PublicKey() (PublicKey, error) {
	if len(sk) != ed25519.PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}
	pk := make([]byte, PublicKeySize)
	copy(pk, sk[32:])
	return PublicKey(pk), nil
}

// GenerateKeyPair generates a new Ed25519 identity.
func GenerateKeyPair() (PublicKey, PrivateKey, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return PublicKey(publicKey), PrivateKey(privateKey), nil
}

// Signature represents an Ed25519 signature over a record's signable bytes.
type Signature []byte

// NewSignature creates a Signature from a byte slice.
// This function makes a copy of the input data to ensure immutability.
func NewSignature(data []byte) (Signature, error) {
	if len(data) != SignatureSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSignature, len(data))
	}
	sig := make([]byte, len(data))
	copy(sig, data)
	return Signature(sig), nil
}

// Bytes returns the signature as a byte slice.
func (s Signature) Bytes() []byte {
	return []byte(s)
}

// Verify checks if this signature is valid for the given data and public key.
func (s Signature) Verify(publicKey PublicKey, data []byte) bool {
	if len(publicKey) != PublicKeySize || len(s) != SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), data, s)
}

// String returns a hex-encoded string representation of the signature.
func (s Signature) String() string {
	return hex.EncodeToString(s.Bytes())
}

// Sign signs data with the given private key using Ed25519.
func Sign(privateKey PrivateKey, data []byte) (Signature, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}
	signature := ed25519.Sign(ed25519.PrivateKey(privateKey), data)
	return Signature(signature), nil
}
