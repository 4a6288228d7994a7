package relay

import "time"

const (
	// DefaultTTL is how long a published record is kept: one week.
	DefaultTTL = 7 * 24 * time.Hour

	DefaultBatchMaxIDs      = 64
	DefaultBatchConcurrency = 8
)

// Config holds deployment policy for a Service.
type Config struct {
	// TTL applied to every published record. Zero means DefaultTTL.
	TTL time.Duration

	// BatchMaxIDs caps the number of identities in one LookupMany call.
	BatchMaxIDs int

	// BatchConcurrency bounds the number of store reads in flight for
	// one LookupMany call.
	BatchConcurrency int
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.BatchMaxIDs <= 0 {
		c.BatchMaxIDs = DefaultBatchMaxIDs
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = DefaultBatchConcurrency
	}
	return c
}

// Entry is one record returned by LookupMany.
type Entry struct {
	// ID is the canonical z-base-32 identity.
	ID     string
	Record []byte
}

// BatchRequest is the body of POST /batch.
type BatchRequest struct {
	IDs []string `json:"ids"`
}

// BatchResponse is the reply to POST /batch. Records are base64 encoded.
type BatchResponse struct {
	Records []BatchRecord `json:"records"`
}

// BatchRecord is one requested id and its record, if found.
type BatchRecord struct {
	ID     string `json:"id"`
	Record []byte `json:"record"`
}
