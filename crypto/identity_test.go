package crypto

import (
	"strings"
	"testing"

	"filippo.io/edwards25519"
	"github.com/stretchr/testify/require"
)

func TestParsePublicKey_RoundTrip(t *testing.T) {
	pk, _, err := GenerateKeyPair()
	require.NoError(t, err)

	text := pk.Z32()
	require.Len(t, text, EncodedPublicKeySize)

	parsed, err := ParsePublicKey(text)
	require.NoError(t, err)
	require.True(t, parsed.Equal(pk))
	require.Equal(t, text, parsed.StorageKey())
	require.Equal(t, text, parsed.String())
}

func TestParsePublicKey_ZeroKeyVector(t *testing.T) {
	zero := strings.Repeat("y", EncodedPublicKeySize)

	parsed, err := ParsePublicKey(zero)
	require.NoError(t, err)
	require.Equal(t, make([]byte, PublicKeySize), parsed.Bytes())
	require.Equal(t, zero, parsed.StorageKey())
}

func TestParsePublicKey_Normalization(t *testing.T) {
	pk, _, err := GenerateKeyPair()
	require.NoError(t, err)
	canonical := pk.StorageKey()

	for name, text := range map[string]string{
		"upper":      strings.ToUpper(canonical),
		"prefixed":   "pk:" + canonical,
		"whitespace": "  " + canonical + "\n",
	} {
		t.Run(name, func(t *testing.T) {
			parsed, err := ParsePublicKey(text)
			require.NoError(t, err)
			require.Equal(t, canonical, parsed.StorageKey())
		})
	}
}

func TestParsePublicKey_Rejects(t *testing.T) {
	pk, _, err := GenerateKeyPair()
	require.NoError(t, err)
	valid := pk.Z32()

	tests := []struct {
		name string
		text string
		want error
	}{
		{"empty", "", ErrInvalidPublicKeyLength},
		{"not a key", "not-a-valid-key", ErrInvalidPublicKeyLength},
		{"too short", valid[:EncodedPublicKeySize-1], ErrInvalidPublicKeyLength},
		{"too long", valid + "y", ErrInvalidPublicKeyLength},
		{"bad alphabet", "l" + valid[1:], ErrInvalidPublicKeyEncoding},
		{"hex form", strings.Repeat("ab", 26), ErrInvalidPublicKeyEncoding},
		{"padding bits set", strings.Repeat("y", EncodedPublicKeySize-1) + "b", ErrInvalidPublicKeyEncoding},
		{"kelvin sign folds to k", "\u212A" + valid[1:], ErrInvalidPublicKeyEncoding},
		{"non-ascii prefix", "\u212Apk:" + valid, ErrInvalidPublicKeyEncoding},
		{"no-break space", "\u00a0" + valid, ErrInvalidPublicKeyEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePublicKey(tt.text)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParsePublicKey_RejectsNonPoint(t *testing.T) {
	raw := make([]byte, PublicKeySize)
	found := false
	for i := 1; i < 256; i++ {
		raw[0] = byte(i)
		if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
			found = true
			break
		}
	}
	require.True(t, found, "no invalid point among candidates")

	_, err := NewPublicKeyFromBytes(raw)
	require.ErrorIs(t, err, ErrInvalidCurvePoint)

	pk := PublicKey(raw)
	_, err = ParsePublicKey(pk.Z32())
	require.ErrorIs(t, err, ErrInvalidCurvePoint)
}

func TestPublicKey_StorageKeyInjective(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		pk, _, err := GenerateKeyPair()
		require.NoError(t, err)
		_, dup := seen[pk.StorageKey()]
		require.False(t, dup)
		seen[pk.StorageKey()] = struct{}{}
	}
}

func TestPublicKey_Equal(t *testing.T) {
	a, _, err := GenerateKeyPair()
	require.NoError(t, err)
	b, _, err := GenerateKeyPair()
	require.NoError(t, err)

	require.True(t, a.Equal(a))
	require.False(t, a.Equal(b))
	require.False(t, a.Equal(nil))
}

func TestPrivateKey_FromSeedAndHex(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	fromSeed, err := NewPrivateKeyFromBytes(priv.Seed())
	require.NoError(t, err)
	derived, err := fromSeed.PublicKey()
	require.NoError(t, err)
	require.True(t, derived.Equal(pub))

	fromHex, err := NewPrivateKeyFromHex("00")
	require.ErrorIs(t, err, ErrInvalidPrivateKey)
	require.Nil(t, fromHex)

	_, err = NewPrivateKeyFromHex("zz")
	require.Error(t, err)
}
