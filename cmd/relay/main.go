// Command relay runs the peer-discovery relay.
//
// Peers publish signed records under their Ed25519 identity and look up the
// records of others by identity.
//
// # Configuration File
//
// Create a YAML file with relay settings:
//
//	http_addr: ":8080"
//	metrics_addr: ":8090"
//	admin_token: "admin:secret"
//	record_ttl: 168h
//	log:
//	  json: true
//	  level: info
//	store:
//	  backend: redis
//	  redis:
//	    addr: "localhost:6379"
//	    prefix: "disco:"
//
// # Endpoints
//
// Public:
//   - GET /{id} - Fetch the record for an identity
//   - PUT /{id} - Publish a signed record
//   - POST /batch - Fetch records for several identities
//   - GET /livez, /readyz - Health checks
//
// Admin (basic auth when admin_token set):
//   - DELETE /admin/{id} - Evict a record
//
// # Usage
//
//	go run ./cmd/relay --config=relay.yaml
//	go run ./cmd/relay --addr=:8080 --store=redis --redis-addr=localhost:6379
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flashbots/disco-relay/api/httpserver"
	"github.com/flashbots/disco-relay/cmd/common"
	"github.com/flashbots/disco-relay/relay"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		addr        = flag.String("addr", "", "HTTP listen address")
		metricsAddr = flag.String("metrics-addr", "", "Metrics listen address")
		adminToken  = flag.String("admin-token", "", "Basic auth token for admin operations (user:pass)")
		recordTTL   = flag.Duration("ttl", 0, "How long published records are kept")
		backend     = flag.String("store", "", "Store backend: memory, redis, postgres or s3")
		redisAddr   = flag.String("redis-addr", "", "Redis address")
		postgresDSN = flag.String("postgres-dsn", "", "PostgreSQL connection string")
		s3Bucket    = flag.String("s3-bucket", "", "S3 bucket for records")
		logJSON     = flag.Bool("log-json", false, "Log in JSON format")
		logLevel    = flag.String("log-level", "", "Log level: debug, info, warn or error")
		pprof       = flag.Bool("pprof", false, "Enable /debug/pprof")
	)
	flag.Parse()

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	applyFlagOverrides(cfg, flagOverrides{
		addr:        *addr,
		metricsAddr: *metricsAddr,
		adminToken:  *adminToken,
		recordTTL:   *recordTTL,
		backend:     *backend,
		redisAddr:   *redisAddr,
		postgresDSN: *postgresDSN,
		s3Bucket:    *s3Bucket,
		logJSON:     *logJSON,
		logLevel:    *logLevel,
		pprof:       *pprof,
	})

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfiguration(configPath string) (*common.Config, error) {
	if configPath != "" {
		return common.LoadConfig(configPath)
	}
	return common.DefaultConfig(), nil
}

type flagOverrides struct {
	addr, metricsAddr, adminToken string
	recordTTL                     time.Duration
	backend, redisAddr            string
	postgresDSN, s3Bucket         string
	logJSON                       bool
	logLevel                      string
	pprof                         bool
}

func applyFlagOverrides(cfg *common.Config, f flagOverrides) {
	if f.addr != "" {
		cfg.HTTPAddr = f.addr
	}
	if f.metricsAddr != "" {
		cfg.MetricsAddr = f.metricsAddr
	}
	if f.adminToken != "" {
		cfg.AdminToken = f.adminToken
	}
	if f.recordTTL != 0 {
		cfg.RecordTTL = f.recordTTL
	}
	if f.backend != "" {
		cfg.Store.Backend = f.backend
	}
	if f.redisAddr != "" {
		cfg.Store.Redis.Addr = f.redisAddr
	}
	if f.postgresDSN != "" {
		cfg.Store.Postgres.DSN = f.postgresDSN
	}
	if f.s3Bucket != "" {
		cfg.Store.S3.Bucket = f.s3Bucket
	}
	if f.logJSON {
		cfg.Log.JSON = true
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.pprof {
		cfg.Server.EnablePprof = true
	}
}

func run(cfg *common.Config) error {
	log, err := common.NewLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := common.OpenStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := relay.NewService(st, cfg.RelayConfig())
	handler := relay.NewHandler(svc, relay.HandlerConfig{
		AdminToken:     cfg.AdminToken,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, log)

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               cfg.HTTPAddr,
		MetricsAddr:              cfg.MetricsAddr,
		EnablePprof:              cfg.Server.EnablePprof,
		Log:                      log,
		DrainDuration:            cfg.Server.DrainDuration,
		GracefulShutdownDuration: cfg.Server.GracefulShutdownDuration,
		ReadTimeout:              cfg.Server.ReadTimeout,
		WriteTimeout:             cfg.Server.WriteTimeout,
	}, handler)
	if err != nil {
		return err
	}

	if cfg.AdminToken != "" {
		log.Info("Admin authentication enabled for /admin/* routes")
	} else {
		log.Warn("No admin token configured, /admin/* routes are unprotected")
	}
	log.Info("Relay configured", "store", cfg.Store.Backend, "recordTTL", cfg.RecordTTL)

	srv.RunInBackground()

	<-ctx.Done()
	log.Info("Shutting down relay...")
	srv.Shutdown()
	return nil
}
