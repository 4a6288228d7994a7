package common

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flashbots/disco-relay/store"
)

// OpenStore creates the configured store backend. For backends that expire
// lazily a sweeper is started; the returned cleanup stops it and releases
// the backend's connections.
func OpenStore(ctx context.Context, cfg StoreConfig, log *slog.Logger) (store.Store, func(), error) {
	var (
		s       store.Store
		closeFn func() error
	)

	switch cfg.Backend {
	case BackendMemory, "":
		s = store.NewMemoryStore()
	case BackendRedis:
		rs, err := store.NewRedisStore(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		s, closeFn = rs, rs.Close
	case BackendPostgres:
		ps, err := store.NewPostgresStore(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		s, closeFn = ps, ps.Close
	case BackendS3:
		ss, err := store.NewS3Store(ctx, &cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("configuring s3: %w", err)
		}
		s = ss
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	if sw, ok := s.(store.Sweeper); ok && cfg.SweepInterval > 0 {
		log.Info("Starting expiry sweeper", "backend", cfg.Backend, "interval", cfg.SweepInterval)
		go store.RunSweeper(sweepCtx, sw, cfg.SweepInterval, func(err error) {
			log.Error("Expiry sweep failed", "err", err)
		})
	}

	cleanup := func() {
		stopSweep()
		if closeFn != nil {
			if err := closeFn(); err != nil {
				log.Error("Closing store failed", "err", err)
			}
		}
	}
	return s, cleanup, nil
}
