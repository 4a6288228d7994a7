// Package record implements the signed records peers publish to the relay.
//
// A record binds an Ed25519 identity to a small DNS message describing how to
// reach the peer. The relay stores records as opaque bytes; this package is
// the only place their layout is interpreted:
//
//   - Parse / ParseFor validate the wire layout and the identity binding
//   - Signable and VerifySignature define and check the signed content,
//     independent of any storage
//   - Sign / New produce records on the publisher side
//
// Signatures cover the BEP44 mutable-item encoding of the timestamp and
// payload, so records are interchangeable with the mainline DHT form.
package record
