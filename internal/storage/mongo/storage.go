package mongostorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lomoval/murinahi/internal/storage"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultConnectTimeout = 10 * time.Second

type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

type record struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	ExpiresAt time.Time `bson:"expires_at"`
}

type Storage struct {
	config     Config
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

func New(config Config) *Storage {
	if config.Collection == "" {
		config.Collection = "records"
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaultConnectTimeout
	}
	return &Storage{config: config, now: time.Now}
}

func (s *Storage) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.config.URI))
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return storage.ErrConnectionFailed
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Errorf("failed to connect: %v", err)
		_ = client.Disconnect(ctx)
		return storage.ErrConnectionFailed
	}

	collection := client.Database(s.config.Database).Collection(s.config.Collection)
	// The server drops documents once expires_at has passed; reads filter as well because
	// the TTL monitor only runs periodically.
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("records_expires_at_ttl"),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to create ttl index: %w", err)
	}

	s.client = client
	s.collection = collection
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var r record
	err := s.collection.FindOne(ctx, bson.M{
		"_id":        key,
		"expires_at": bson.M{"$gt": s.now().UTC()},
	}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to get %q: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return []byte(r.Value), nil
}

func (s *Storage) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	if ttl <= 0 {
		return fmt.Errorf("incorrect ttl %v for %q", ttl, key)
	}
	r := record{Key: key, Value: string(value), ExpiresAt: s.now().UTC().Add(ttl)}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, r, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}
