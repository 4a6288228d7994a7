//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Run with: go test -tags=integration -run TestPostgresStore ./store/...
func TestPostgresStore_Contract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("relay"),
		postgres.WithUsername("relay"),
		postgres.WithPassword("relay"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(ctx, &PostgresConfig{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := newFakeClock()
	s.now = clock.Now

	testStoreContract(t, s, clock.Advance)

	t.Run("delete expired", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "sweep", []byte("v"), time.Second))
		clock.Advance(time.Minute)

		n, err := s.DeleteExpired(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, int64(1))
	})
}
