package relay

import "errors"

var (
	ErrInvalidIdentity  = errors.New("invalid peer id")
	ErrMissingPayload   = errors.New("missing payload")
	ErrMalformedRecord  = errors.New("invalid packet")
	ErrSignatureInvalid = errors.New("invalid signature")
	ErrNotFound         = errors.New("not found")
	ErrBatchTooLarge    = errors.New("too many ids")

	// ErrStoreUnavailable wraps every failure reported by the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsClientError reports whether err was caused by the request rather than
// by the relay or its store.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidIdentity,
		ErrMissingPayload,
		ErrMalformedRecord,
		ErrSignatureInvalid,
		ErrNotFound,
		ErrBatchTooLarge,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
