package crypto

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"filippo.io/edwards25519"
	"github.com/tv42/zbase32"
)

// EncodedPublicKeySize is the length of a z-base-32 encoded identity.
const EncodedPublicKeySize = 52

// publicKeyPrefix is an optional scheme marker some peers put in front of
// their identity.
const publicKeyPrefix = "pk:"

const asciiSpace = " \t\n\v\f\r"

var (
	ErrInvalidPublicKeyLength   = errors.New("invalid public key length")
	ErrInvalidPublicKeyEncoding = errors.New("invalid public key encoding")
	ErrInvalidCurvePoint        = errors.New("public key is not a valid ed25519 point")
)

// ParsePublicKey decodes the textual form of an identity.
//
// Whitespace, letter case and a leading "pk:" are normalized away. Anything
// else that is not the canonical z-base-32 encoding of an Ed25519 point is
// rejected, so every accepted key has exactly one StorageKey.
func ParsePublicKey(text string) (PublicKey, error) {
	s := strings.Trim(text, asciiSpace)
	// Only ASCII case is folded: Unicode folding maps characters such as
	// U+212A KELVIN SIGN onto the alphabet and would create aliases.
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return nil, fmt.Errorf("%w: non-ASCII character at byte %d", ErrInvalidPublicKeyEncoding, i)
		}
	}
	s = strings.TrimPrefix(strings.ToLower(s), publicKeyPrefix)

	if len(s) != EncodedPublicKeySize {
		return nil, fmt.Errorf("%w: expected %d characters, got %d", ErrInvalidPublicKeyLength, EncodedPublicKeySize, len(s))
	}

	raw, err := zbase32.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKeyEncoding, err)
	}
	if len(raw) != PublicKeySize {
		return nil, fmt.Errorf("%w: decoded %d bytes", ErrInvalidPublicKeyLength, len(raw))
	}
	// The last character carries 4 padding bits; only the all-zero form is canonical.
	if zbase32.EncodeToString(raw) != s {
		return nil, fmt.Errorf("%w: non-canonical trailing bits", ErrInvalidPublicKeyEncoding)
	}

	return NewPublicKeyFromBytes(raw)
}

// Z32 returns the z-base-32 encoding of the key.
func (pk PublicKey) Z32() string {
	return zbase32.EncodeToString(pk)
}

// StorageKey returns the key records for this identity are stored under.
// It must stay identical across releases: changing it orphans every stored record.
func (pk PublicKey) StorageKey() string {
	return pk.Z32()
}

func validatePublicKey(data []byte) error {
	if len(data) != PublicKeySize {
		return fmt.Errorf("%w: %d bytes", ErrInvalidPublicKeyLength, len(data))
	}
	if _, err := new(edwards25519.Point).SetBytes(data); err != nil {
		return ErrInvalidCurvePoint
	}
	return nil
}
