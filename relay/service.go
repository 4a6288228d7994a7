package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/flashbots/disco-relay/crypto"
	"github.com/flashbots/disco-relay/metrics"
	"github.com/flashbots/disco-relay/record"
	"github.com/flashbots/disco-relay/store"
	"golang.org/x/sync/errgroup"
)

// Service implements publish and lookup of signed records on top of a
// Store. It keeps no state of its own and is safe for concurrent use.
type Service struct {
	store store.Store
	cfg   Config
}

// NewService creates a relay service backed by s.
func NewService(s store.Store, cfg Config) *Service {
	return &Service{store: s, cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Lookup returns the stored record bytes for the identity id, unmodified.
// Records are not re-verified on read.
func (s *Service) Lookup(ctx context.Context, id string) ([]byte, error) {
	pk, err := parseIdentity(id)
	if err != nil {
		metrics.IncLookup(metrics.OutcomeRejected)
		return nil, err
	}

	value, err := s.lookup(ctx, pk)
	switch {
	case err == nil:
		metrics.IncLookup(metrics.OutcomeOK)
	case IsClientError(err):
		metrics.IncLookup(metrics.OutcomeNotFound)
	default:
		metrics.IncLookup(metrics.OutcomeError)
	}
	return value, err
}

func (s *Service) lookup(ctx context.Context, pk crypto.PublicKey) ([]byte, error) {
	start := time.Now()
	value, ok, err := s.store.Get(ctx, pk.StorageKey())
	metrics.ObserveStore("get", start)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrStoreUnavailable, pk, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, pk)
	}
	return value, nil
}

// Publish verifies payload as a record signed by the identity id and
// stores it, replacing any previous record for that identity.
//
// Nothing is written unless every check passes.
func (s *Service) Publish(ctx context.Context, id string, payload []byte) error {
	rec, err := s.admit(id, payload)
	if err != nil {
		metrics.IncPublish(metrics.OutcomeRejected)
		return err
	}

	// The key comes from the record itself; ParseFor already bound it to id.
	start := time.Now()
	err = s.store.Put(ctx, rec.PublicKey.StorageKey(), payload, s.cfg.TTL)
	metrics.ObserveStore("put", start)
	if err != nil {
		metrics.IncPublish(metrics.OutcomeError)
		return fmt.Errorf("%w: put %s: %v", ErrStoreUnavailable, rec.PublicKey, err)
	}

	metrics.IncPublish(metrics.OutcomeOK)
	return nil
}

func (s *Service) admit(id string, payload []byte) (*record.SignedRecord, error) {
	pk, err := parseIdentity(id)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, ErrMissingPayload
	}

	rec, err := record.ParseFor(pk, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := rec.Verify(); err != nil {
		return nil, fmt.Errorf("%w for %s", ErrSignatureInvalid, pk)
	}
	return rec, nil
}

// LookupMany resolves up to BatchMaxIDs identities concurrently. Entries
// are returned in request order; ids that are invalid, unknown or fail to
// load are left out.
func (s *Service) LookupMany(ctx context.Context, ids []string) ([]Entry, error) {
	if len(ids) > s.cfg.BatchMaxIDs {
		return nil, fmt.Errorf("%w: %d, limit is %d", ErrBatchTooLarge, len(ids), s.cfg.BatchMaxIDs)
	}

	found := make([]*Entry, len(ids))

	var g errgroup.Group
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			pk, err := crypto.ParsePublicKey(id)
			if err != nil {
				return nil
			}
			value, err := s.lookup(ctx, pk)
			if err != nil {
				return nil
			}
			found[i] = &Entry{ID: pk.Z32(), Record: value}
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]Entry, 0, len(ids))
	for _, e := range found {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

// Evict removes the record stored for id, if any.
func (s *Service) Evict(ctx context.Context, id string) error {
	pk, err := parseIdentity(id)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.store.Delete(ctx, pk.StorageKey())
	metrics.ObserveStore("delete", start)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStoreUnavailable, pk, err)
	}
	return nil
}

func parseIdentity(id string) (crypto.PublicKey, error) {
	pk, err := crypto.ParsePublicKey(id)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidIdentity, id, err)
	}
	return pk, nil
}
