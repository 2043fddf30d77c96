package storagebuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/lomoval/murinahi/internal/storage"
	memorystorage "github.com/lomoval/murinahi/internal/storage/memory"
	mongostorage "github.com/lomoval/murinahi/internal/storage/mongo"
	redisstorage "github.com/lomoval/murinahi/internal/storage/redis"
	s3storage "github.com/lomoval/murinahi/internal/storage/s3"
	sqlstorage "github.com/lomoval/murinahi/internal/storage/sql"
)

const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeSQL    = "sql"
	TypeMongo  = "mongo"
	TypeS3     = "s3"
)

const connectTimeout = 15 * time.Second

type Config struct {
	StorageType string
	Redis       redisstorage.Config
	Database    sqlstorage.Config
	Mongo       mongostorage.Config
	S3          s3storage.Config
}

// New creates the configured store and connects it.
func New(config Config) (storage.Store, error) {
	var (
		s    storage.Store
		desc string
	)
	switch config.StorageType {
	case TypeMemory:
		s = memorystorage.New()
		desc = "memory"
	case TypeRedis:
		rs, err := redisstorage.New(config.Redis)
		if err != nil {
			return nil, err
		}
		s = rs
		desc = fmt.Sprintf("redis %s %d", config.Redis.Host, config.Redis.Port)
	case TypeSQL:
		s = sqlstorage.New(config.Database)
		desc = fmt.Sprintf("database %s %s %d", config.Database.Driver, config.Database.Host, config.Database.Port)
	case TypeMongo:
		s = mongostorage.New(config.Mongo)
		desc = fmt.Sprintf("mongo %s", config.Mongo.Database)
	case TypeS3:
		s = s3storage.New(config.S3)
		desc = fmt.Sprintf("s3 bucket %s", config.S3.Bucket)
	default:
		return nil, fmt.Errorf("unknown storage type %s", config.StorageType)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := s.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", desc, err)
	}
	return s, nil
}
