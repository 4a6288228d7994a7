package relay_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flashbots/disco-relay/record"
	"github.com/flashbots/disco-relay/relay"
	"github.com/flashbots/disco-relay/store"
	"github.com/flashbots/disco-relay/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps a MemoryStore, counts calls and can be made to fail.
type countingStore struct {
	*store.MemoryStore

	mu      sync.Mutex
	gets    int
	puts    int
	deletes int
	lastTTL time.Duration
	fail    error
}

func newCountingStore(opts ...store.MemoryOption) *countingStore {
	return &countingStore{MemoryStore: store.NewMemoryStore(opts...)}
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	s.gets++
	fail := s.fail
	s.mu.Unlock()
	if fail != nil {
		return nil, false, fail
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *countingStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.puts++
	s.lastTTL = ttl
	fail := s.fail
	s.mu.Unlock()
	if fail != nil {
		return fail
	}
	return s.MemoryStore.Put(ctx, key, value, ttl)
}

func (s *countingStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	s.deletes++
	fail := s.fail
	s.mu.Unlock()
	if fail != nil {
		return fail
	}
	return s.MemoryStore.Delete(ctx, key)
}

func (s *countingStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets + s.puts + s.deletes
}

func TestService_PublishLookupRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore()
	svc := relay.NewService(st, relay.Config{})

	pub, priv := testutil.GenerateTestKeyPair(t)
	wire := testutil.GenerateTestRecordBytes(t, priv)

	require.NoError(t, svc.Publish(ctx, pub.Z32(), wire))
	require.Equal(t, relay.DefaultTTL, st.lastTTL)

	got, err := svc.Lookup(ctx, pub.Z32())
	require.NoError(t, err)
	require.Equal(t, wire, got)

	// Any accepted spelling of the identity resolves to the same entry.
	got, err = svc.Lookup(ctx, " pk:"+strings.ToUpper(pub.Z32())+"\n")
	require.NoError(t, err)
	require.Equal(t, wire, got)
}

func TestService_Overwrite(t *testing.T) {
	ctx := context.Background()
	svc := relay.NewService(newCountingStore(), relay.Config{})

	pub, priv := testutil.GenerateTestKeyPair(t)
	first := testutil.GenerateTestRecordBytes(t, priv, testutil.WithTXT("addr=192.0.2.1:1"))
	second := testutil.GenerateTestRecordBytes(t, priv, testutil.WithTXT("addr=192.0.2.2:2"))

	require.NoError(t, svc.Publish(ctx, pub.Z32(), first))
	require.NoError(t, svc.Publish(ctx, pub.Z32(), second))

	got, err := svc.Lookup(ctx, pub.Z32())
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestService_OlderRecordStillReplaces(t *testing.T) {
	ctx := context.Background()
	svc := relay.NewService(newCountingStore(), relay.Config{})

	pub, priv := testutil.GenerateTestKeyPair(t)
	newer := testutil.GenerateTestRecordBytes(t, priv, testutil.WithTimestamp(time.Unix(2000, 0)))
	older := testutil.GenerateTestRecordBytes(t, priv, testutil.WithTimestamp(time.Unix(1000, 0)))

	require.NoError(t, svc.Publish(ctx, pub.Z32(), newer))
	require.NoError(t, svc.Publish(ctx, pub.Z32(), older))

	got, err := svc.Lookup(ctx, pub.Z32())
	require.NoError(t, err)
	require.Equal(t, older, got)
}

func TestService_PublishRejections(t *testing.T) {
	pub, priv := testutil.GenerateTestKeyPair(t)
	valid := testutil.GenerateTestRecord(t, priv)
	wire := valid.Bytes()

	tests := []struct {
		name    string
		id      string
		payload []byte
		wantErr error
	}{
		{"malformed identity", "not-a-valid-key", wire, relay.ErrInvalidIdentity},
		{"empty payload", pub.Z32(), nil, relay.ErrMissingPayload},
		{"truncated", pub.Z32(), wire[:50], relay.ErrMalformedRecord},
		{"garbage dns", pub.Z32(), append(append([]byte(nil), wire[:104]...), 0xde, 0xad), relay.ErrMalformedRecord},
		{"forged signature", pub.Z32(), testutil.ForgeSignature(valid).Bytes(), relay.ErrSignatureInvalid},
		{"oversized", pub.Z32(), make([]byte, record.MaxSize+1), relay.ErrMalformedRecord},
		{"oversized with malformed identity", "not-a-valid-key", make([]byte, record.MaxSize+1), relay.ErrInvalidIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := newCountingStore()
			svc := relay.NewService(st, relay.Config{})

			err := svc.Publish(ctx, tt.id, tt.payload)
			require.ErrorIs(t, err, tt.wantErr)
			require.True(t, relay.IsClientError(err))

			// Rejected publishes never reach the store.
			require.Zero(t, st.calls())
			require.Zero(t, st.Len())
		})
	}
}

func TestService_RejectionKeepsPreviousRecord(t *testing.T) {
	ctx := context.Background()
	svc := relay.NewService(newCountingStore(), relay.Config{})

	pub, priv := testutil.GenerateTestKeyPair(t)
	good := testutil.GenerateTestRecord(t, priv)
	require.NoError(t, svc.Publish(ctx, pub.Z32(), good.Bytes()))

	bad := testutil.GenerateTestRecord(t, priv, testutil.WithTXT("addr=198.51.100.1:1"))
	err := svc.Publish(ctx, pub.Z32(), testutil.ForgeSignature(bad).Bytes())
	require.ErrorIs(t, err, relay.ErrSignatureInvalid)

	got, err := svc.Lookup(ctx, pub.Z32())
	require.NoError(t, err)
	require.Equal(t, good.Bytes(), got)
}

func TestService_IdentityMismatch(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore()
	svc := relay.NewService(st, relay.Config{})

	pubA, privA := testutil.GenerateTestKeyPair(t)
	pubB, _ := testutil.GenerateTestKeyPair(t)

	// A record signed by A, published under B.
	err := svc.Publish(ctx, pubB.Z32(), testutil.GenerateTestRecordBytes(t, privA))
	require.ErrorIs(t, err, relay.ErrMalformedRecord)

	for _, pk := range []string{pubA.Z32(), pubB.Z32()} {
		_, err := svc.Lookup(ctx, pk)
		require.ErrorIs(t, err, relay.ErrNotFound)
	}
	require.Zero(t, st.Len())
}

func TestService_LookupUnknown(t *testing.T) {
	svc := relay.NewService(newCountingStore(), relay.Config{})
	pub, _ := testutil.GenerateTestKeyPair(t)

	_, err := svc.Lookup(context.Background(), pub.Z32())
	require.ErrorIs(t, err, relay.ErrNotFound)
	require.True(t, relay.IsClientError(err))
}

func TestService_LookupMalformedIdentity(t *testing.T) {
	st := newCountingStore()
	svc := relay.NewService(st, relay.Config{})

	kelvin := "\u212A" + strings.Repeat("y", 51)
	for _, id := range []string{"", "abc", "not-a-valid-key", strings.Repeat("y", 53), strings.Repeat("l", 52), kelvin} {
		_, err := svc.Lookup(context.Background(), id)
		require.ErrorIs(t, err, relay.ErrInvalidIdentity, "id %q", id)
		require.Contains(t, err.Error(), "invalid peer id")
	}
	require.Zero(t, st.calls())
}

func TestService_Expiry(t *testing.T) {
	ctx := context.Background()
	var (
		mu  sync.Mutex
		now = time.Unix(1700000000, 0)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	svc := relay.NewService(newCountingStore(store.WithClock(clock)), relay.Config{TTL: time.Hour})
	pub, priv := testutil.GenerateTestKeyPair(t)
	require.NoError(t, svc.Publish(ctx, pub.Z32(), testutil.GenerateTestRecordBytes(t, priv)))

	advance(59 * time.Minute)
	_, err := svc.Lookup(ctx, pub.Z32())
	require.NoError(t, err)

	// Republishing resets the expiry.
	require.NoError(t, svc.Publish(ctx, pub.Z32(), testutil.GenerateTestRecordBytes(t, priv)))
	advance(59 * time.Minute)
	_, err = svc.Lookup(ctx, pub.Z32())
	require.NoError(t, err)

	advance(time.Minute)
	_, err = svc.Lookup(ctx, pub.Z32())
	require.ErrorIs(t, err, relay.ErrNotFound)
}

func TestService_StoreFailure(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore()
	st.fail = errors.New("connection refused")
	svc := relay.NewService(st, relay.Config{})

	pub, priv := testutil.GenerateTestKeyPair(t)

	err := svc.Publish(ctx, pub.Z32(), testutil.GenerateTestRecordBytes(t, priv))
	require.ErrorIs(t, err, relay.ErrStoreUnavailable)
	require.False(t, relay.IsClientError(err))

	_, err = svc.Lookup(ctx, pub.Z32())
	require.ErrorIs(t, err, relay.ErrStoreUnavailable)

	err = svc.Evict(ctx, pub.Z32())
	require.ErrorIs(t, err, relay.ErrStoreUnavailable)
}

func TestService_Evict(t *testing.T) {
	ctx := context.Background()
	svc := relay.NewService(newCountingStore(), relay.Config{})

	pub, priv := testutil.GenerateTestKeyPair(t)
	require.NoError(t, svc.Publish(ctx, pub.Z32(), testutil.GenerateTestRecordBytes(t, priv)))
	require.NoError(t, svc.Evict(ctx, pub.Z32()))

	_, err := svc.Lookup(ctx, pub.Z32())
	require.ErrorIs(t, err, relay.ErrNotFound)

	require.ErrorIs(t, svc.Evict(ctx, "bogus"), relay.ErrInvalidIdentity)
}

func TestService_LookupMany(t *testing.T) {
	ctx := context.Background()
	svc := relay.NewService(newCountingStore(), relay.Config{BatchConcurrency: 2})

	var (
		ids   []string
		wires = map[string][]byte{}
	)
	for i := 0; i < 5; i++ {
		pub, priv := testutil.GenerateTestKeyPair(t)
		wire := testutil.GenerateTestRecordBytes(t, priv, testutil.WithTXT(fmt.Sprintf("addr=192.0.2.%d:1", i)))
		require.NoError(t, svc.Publish(ctx, pub.Z32(), wire))
		ids = append(ids, pub.Z32())
		wires[pub.Z32()] = wire
	}

	unknown, _ := testutil.GenerateTestKeyPair(t)
	request := []string{ids[3], "garbage", ids[0], unknown.Z32(), "PK:" + strings.ToUpper(ids[4])}

	entries, err := svc.LookupMany(ctx, request)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.Equal(t, ids[3], entries[0].ID)
	require.Equal(t, ids[0], entries[1].ID)
	require.Equal(t, ids[4], entries[2].ID)
	for _, e := range entries {
		require.Equal(t, wires[e.ID], e.Record)
	}
}

func TestService_LookupManyLimits(t *testing.T) {
	svc := relay.NewService(newCountingStore(), relay.Config{BatchMaxIDs: 2})

	_, err := svc.LookupMany(context.Background(), []string{"a", "b", "c"})
	require.ErrorIs(t, err, relay.ErrBatchTooLarge)

	entries, err := svc.LookupMany(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestService_LookupManyDropsStoreErrors(t *testing.T) {
	st := newCountingStore()
	st.fail = errors.New("timeout")
	svc := relay.NewService(st, relay.Config{})

	pub, _ := testutil.GenerateTestKeyPair(t)
	entries, err := svc.LookupMany(context.Background(), []string{pub.Z32()})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestService_ConcurrentPublish(t *testing.T) {
	ctx := context.Background()
	svc := relay.NewService(newCountingStore(), relay.Config{})
	pub, priv := testutil.GenerateTestKeyPair(t)

	candidates := make([][]byte, 8)
	for i := range candidates {
		candidates[i] = testutil.GenerateTestRecordBytes(t, priv, testutil.WithTXT(fmt.Sprintf("addr=192.0.2.%d:1", i)))
	}

	var wg sync.WaitGroup
	for _, wire := range candidates {
		wire := wire
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.Publish(ctx, pub.Z32(), wire))
		}()
	}
	wg.Wait()

	// Last writer wins: whatever is stored is one of the published records.
	got, err := svc.Lookup(ctx, pub.Z32())
	require.NoError(t, err)
	require.Contains(t, candidates, got)
}
