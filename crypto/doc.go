// Package crypto provides the identity primitives of the discovery relay.
//
// A peer is named by an Ed25519 public key. This package implements:
//
//   - The identity codec: ParsePublicKey turns the textual z-base-32 form of a
//     key into a PublicKey, PublicKey.StorageKey turns it back into the
//     canonical string records are stored under
//   - Ed25519 key generation, signing and verification (GenerateKeyPair, Sign,
//     Signature.Verify)
//
// # Identity encoding
//
// Keys are 32 bytes encoded with z-base-32, giving 52 lowercase characters.
// Parsing is case-insensitive and tolerates a "pk:" prefix, but rejects
// non-canonical trailing bits and byte strings that are not valid curve
// points, so the mapping between accepted text and keys is one-to-one.
package crypto
