package redisstorage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/lomoval/murinahi/internal/storage"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DB           int
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Storage struct {
	options *redis.Options
	client  *redis.Client
}

// New prepares a store; URL (redis:// or rediss://) takes precedence over host and port.
func New(config Config) (*Storage, error) {
	options := &redis.Options{
		Addr:         net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		Username:     config.Username,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	if config.URL != "" {
		parsed, err := redis.ParseURL(config.URL)
		if err != nil {
			return nil, fmt.Errorf("incorrect redis url: %w", err)
		}
		options = parsed
	}
	return &Storage{options: options}, nil
}

func (s *Storage) Connect(ctx context.Context) error {
	client := redis.NewClient(s.options)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorf("failed to connect: %v", err)
		_ = client.Close()
		return storage.ErrConnectionFailed
	}
	s.client = client
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get %q: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value, nil
}

func (s *Storage) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	if err := s.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}
