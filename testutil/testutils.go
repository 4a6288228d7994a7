package testutil

import (
	"testing"
	"time"

	"github.com/flashbots/disco-relay/crypto"
	"github.com/flashbots/disco-relay/record"
	"github.com/stretchr/testify/require"
)

// RecordOption customizes records built by GenerateTestRecord.
type RecordOption func(*recordOptions)

type recordOptions struct {
	timestamp time.Time
	txt       []string
	label     string
}

// WithTimestamp sets the record timestamp.
func WithTimestamp(ts time.Time) RecordOption {
	return func(o *recordOptions) {
		o.timestamp = ts
	}
}

// WithTXT replaces the TXT values published in the record.
func WithTXT(values ...string) RecordOption {
	return func(o *recordOptions) {
		o.txt = values
	}
}

// WithLabel sets the DNS label the TXT records are published under.
func WithLabel(label string) RecordOption {
	return func(o *recordOptions) {
		o.label = label
	}
}

// GenerateTestKeyPair creates a fresh identity.
func GenerateTestKeyPair(t testing.TB) (crypto.PublicKey, crypto.PrivateKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return pub, priv
}

// GenerateTestRecord creates a valid record signed by priv.
func GenerateTestRecord(t testing.TB, priv crypto.PrivateKey, options ...RecordOption) *record.SignedRecord {
	t.Helper()

	opts := &recordOptions{
		timestamp: time.Now(),
		txt:       []string{"relay=https://relay.example.org./", "addr=192.0.2.1:4433"},
		label:     record.DefaultLabel,
	}
	for _, opt := range options {
		opt(opts)
	}

	pub, err := priv.PublicKey()
	require.NoError(t, err)

	msg := record.NewTXTMessage(pub, opts.label, record.DefaultTTL, opts.txt...)
	rec, err := record.New(priv, opts.timestamp, msg)
	require.NoError(t, err)
	return rec
}

// GenerateTestRecordBytes is GenerateTestRecord in wire form.
func GenerateTestRecordBytes(t testing.TB, priv crypto.PrivateKey, options ...RecordOption) []byte {
	t.Helper()
	return GenerateTestRecord(t, priv, options...).Bytes()
}

// ForgeSignature returns a copy of rec whose signature no longer verifies.
func ForgeSignature(rec *record.SignedRecord) *record.SignedRecord {
	forged := *rec
	forged.Signature = append(crypto.Signature(nil), rec.Signature...)
	forged.Signature[0] ^= 0xFF
	return &forged
}
