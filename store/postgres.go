package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/atomic"
)

// PostgresStore implements Store with PostgreSQL persistence.
// Expired rows are filtered on read and removed by DeleteExpired.
type PostgresStore struct {
	db     *sql.DB
	now    Clock
	closed atomic.Bool
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	// DSN, when set, is used verbatim instead of the fields above.
	DSN string `yaml:"dsn"`
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(ctx context.Context, config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db, now: time.Now}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS signed_records (
		storage_key VARCHAR(64) PRIMARY KEY,
		record BYTEA NOT NULL,
		expires_at TIMESTAMP WITH TIME ZONE,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_signed_records_expires ON signed_records(expires_at);
	`

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT record FROM signed_records
		WHERE storage_key = $1 AND (expires_at IS NULL OR expires_at > $2)
	`, key, s.now()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, mapSQLErr(err)
	}
	return value, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}

	var expiresAt sql.NullTime
	if at := expiry(s.now(), ttl); !at.IsZero() {
		expiresAt = sql.NullTime{Time: at, Valid: true}
	}

	query := `
	INSERT INTO signed_records (storage_key, record, expires_at, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (storage_key) DO UPDATE SET
		record = EXCLUDED.record,
		expires_at = EXCLUDED.expires_at,
		updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, key, value, expiresAt)
	return mapSQLErr(err)
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx, "DELETE FROM signed_records WHERE storage_key = $1", key)
	return mapSQLErr(err)
}

// DeleteExpired removes rows whose expiry has passed.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM signed_records WHERE expires_at <= $1", s.now())
	if err != nil {
		return 0, mapSQLErr(err)
	}
	return res.RowsAffected()
}

// Close closes the database connection. Later calls return ErrClosed.
func (s *PostgresStore) Close() error {
	s.closed.Store(true)
	return s.db.Close()
}

func mapSQLErr(err error) error {
	if errors.Is(err, sql.ErrConnDone) {
		return ErrClosed
	}
	return err
}
