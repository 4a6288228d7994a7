package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/flashbots/disco-relay/crypto"
	"github.com/miekg/dns"
)

const (
	// HeaderSize is the fixed prefix of every record: key, signature and timestamp.
	HeaderSize = crypto.PublicKeySize + crypto.SignatureSize + 8
	// MaxPayloadSize bounds the encoded DNS message, matching the BEP44 value limit.
	MaxPayloadSize = 1000
	// MaxSize is the largest admissible record.
	MaxSize = HeaderSize + MaxPayloadSize
)

var (
	ErrTooShort         = errors.New("record shorter than header")
	ErrTooLarge         = errors.New("record payload exceeds 1000 bytes")
	ErrInvalidKey       = errors.New("invalid embedded public key")
	ErrInvalidPayload   = errors.New("payload is not a valid dns message")
	ErrIdentityMismatch = errors.New("embedded public key does not match claimed identity")
	ErrInvalidSignature = errors.New("signature does not verify")
)

// SignedRecord is a parsed relay record.
//
// Wire layout:
//
//	[0:32]    public key
//	[32:96]   ed25519 signature
//	[96:104]  timestamp, big-endian microseconds since the Unix epoch
//	[104:]    encoded DNS message, at most 1000 bytes
type SignedRecord struct {
	PublicKey crypto.PublicKey
	Signature crypto.Signature
	// Timestamp is in microseconds since the Unix epoch.
	Timestamp uint64
	Payload   []byte
}

// Parse validates the byte layout of a record. It does not check the signature.
func Parse(b []byte) (*SignedRecord, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(b))
	}
	if len(b) > MaxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(b)-HeaderSize)
	}

	pk, err := crypto.NewPublicKeyFromBytes(b[:crypto.PublicKeySize])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	sig, err := crypto.NewSignature(b[crypto.PublicKeySize : crypto.PublicKeySize+crypto.SignatureSize])
	if err != nil {
		return nil, err
	}

	payload := make([]byte, len(b)-HeaderSize)
	copy(payload, b[HeaderSize:])
	if _, err := DecodePayload(payload); err != nil {
		return nil, err
	}

	return &SignedRecord{
		PublicKey: pk,
		Signature: sig,
		Timestamp: binary.BigEndian.Uint64(b[crypto.PublicKeySize+crypto.SignatureSize : HeaderSize]),
		Payload:   payload,
	}, nil
}

// ParseFor parses b and checks that it is bound to the claimed identity.
func ParseFor(claimed crypto.PublicKey, b []byte) (*SignedRecord, error) {
	r, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if !r.PublicKey.Equal(claimed) {
		return nil, fmt.Errorf("%w: record is for %s, claimed %s", ErrIdentityMismatch, r.PublicKey, claimed)
	}
	return r, nil
}

// Signable returns the bytes covered by a record signature, laid out as a
// bencoded BEP44 mutable item: "3:seqi<ts>e1:v<len>:<payload>".
func Signable(timestamp uint64, payload []byte) []byte {
	out := make([]byte, 0, 32+len(payload))
	out = append(out, "3:seqi"...)
	out = strconv.AppendUint(out, timestamp, 10)
	out = append(out, "e1:v"...)
	out = strconv.AppendInt(out, int64(len(payload)), 10)
	out = append(out, ':')
	return append(out, payload...)
}

// VerifySignature reports whether sig is a valid signature of signable by pk.
func VerifySignature(pk crypto.PublicKey, signable []byte, sig crypto.Signature) bool {
	return sig.Verify(pk, signable)
}

// Signable returns the bytes the record's signature covers.
func (r *SignedRecord) Signable() []byte {
	return Signable(r.Timestamp, r.Payload)
}

// Verify checks the record's signature against its own public key.
func (r *SignedRecord) Verify() error {
	if !VerifySignature(r.PublicKey, r.Signable(), r.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

// Bytes returns the wire encoding of the record.
func (r *SignedRecord) Bytes() []byte {
	out := make([]byte, HeaderSize, HeaderSize+len(r.Payload))
	copy(out, r.PublicKey)
	copy(out[crypto.PublicKeySize:], r.Signature)
	binary.BigEndian.PutUint64(out[crypto.PublicKeySize+crypto.SignatureSize:], r.Timestamp)
	return append(out, r.Payload...)
}

// Time returns the record timestamp.
func (r *SignedRecord) Time() time.Time {
	return time.UnixMicro(int64(r.Timestamp))
}

// Message decodes the record payload.
func (r *SignedRecord) Message() (*dns.Msg, error) {
	return DecodePayload(r.Payload)
}

// Sign creates a record for payload signed by priv.
func Sign(priv crypto.PrivateKey, timestamp uint64, payload []byte) (*SignedRecord, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(payload))
	}
	pk, err := priv.PublicKey()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(priv, Signable(timestamp, payload))
	if err != nil {
		return nil, err
	}
	return &SignedRecord{
		PublicKey: pk,
		Signature: sig,
		Timestamp: timestamp,
		Payload:   append([]byte(nil), payload...),
	}, nil
}

// New encodes msg and signs it with priv at time ts.
func New(priv crypto.PrivateKey, ts time.Time, msg *dns.Msg) (*SignedRecord, error) {
	payload, err := EncodePayload(msg)
	if err != nil {
		return nil, err
	}
	return Sign(priv, uint64(ts.UnixMicro()), payload)
}
