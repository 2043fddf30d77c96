package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers "postgres"
	"github.com/lomoval/murinahi/internal/storage"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // registers "sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS records (
	record_key TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at BIGINT NOT NULL
)`

type Config struct {
	Driver   string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	// DSN overrides the connection string built from the fields above.
	DSN string
}

type Storage struct {
	driver string
	dsn    string
	db     *sqlx.DB
	now    func() time.Time
}

func New(config Config) *Storage {
	driver := config.Driver
	if driver == "" {
		driver = DriverPostgres
	}
	dsn := config.DSN
	if dsn == "" {
		dsn = fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			config.Host, config.Port, config.Database, config.Username, config.Password)
	}
	return &Storage{driver: driver, dsn: dsn, now: time.Now}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(ctx, s.driver, s.dsn)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return storage.ErrConnectionFailed
	}
	if s.driver == DriverSQLite && strings.Contains(s.dsn, ":memory:") {
		// every connection would open its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to prepare schema: %w", err)
	}
	s.db = db
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.GetContext(
		ctx,
		&value,
		s.db.Rebind("SELECT value FROM records WHERE record_key=? AND expires_at>?"),
		key, s.now().UnixMilli(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get %q: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return []byte(value), nil
}

func (s *Storage) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	if ttl <= 0 {
		return fmt.Errorf("incorrect ttl %v for %q", ttl, key)
	}
	_, err := s.db.ExecContext(
		ctx,
		s.db.Rebind("INSERT INTO records(record_key, value, expires_at) VALUES(?, ?, ?) "+
			"ON CONFLICT(record_key) DO UPDATE SET value=excluded.value, expires_at=excluded.expires_at"),
		key, string(value), s.now().Add(ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

func (s *Storage) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM records WHERE expires_at<=?"), now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to remove expired records: %w", err)
	}
	return res.RowsAffected()
}
