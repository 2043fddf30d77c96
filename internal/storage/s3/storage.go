package s3storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/lomoval/murinahi/internal/storage"
	log "github.com/sirupsen/logrus"
)

// Object metadata key holding the expiry moment in unix milliseconds.
const expiresAtMeta = "expires-at"

type Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
	// MaxAttempts limits SDK level retries; zero keeps the SDK default.
	MaxAttempts int
	// Prefix is prepended to every record key to form the object key.
	Prefix string
}

// Storage keeps each record as a separate object. Expiry is enforced on read and by RemoveExpired;
// a bucket lifecycle rule can be added to collect leftovers.
type Storage struct {
	config     Config
	client     *s3.Client
	httpClient s3.HTTPClient
	now        func() time.Time
}

func New(config Config) *Storage {
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	return &Storage{config: config, now: time.Now}
}

func (s *Storage) Connect(ctx context.Context) error {
	if s.config.Bucket == "" {
		return fmt.Errorf("s3 bucket required: %w", storage.ErrConnectionFailed)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s.config.Region)}
	if s.config.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.config.AccessKeyID, s.config.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.Errorf("failed to load aws config: %v", err)
		return storage.ErrConnectionFailed
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = s.config.PathStyle
		if s.config.MaxAttempts > 0 {
			o.RetryMaxAttempts = s.config.MaxAttempts
		}
		if s.config.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.config.Endpoint)
		}
		if s.httpClient != nil {
			o.HTTPClient = s.httpClient
		}
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.config.Bucket)}); err != nil {
		log.Errorf("failed to connect: %v", err)
		return storage.ErrConnectionFailed
	}
	s.client = client
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("failed to get %q: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	defer out.Body.Close()

	if s.expired(out.Metadata) {
		return nil, fmt.Errorf("failed to get %q: %w", key, storage.ErrNotFound)
	}
	value, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, nil
}

func (s *Storage) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	if ttl <= 0 {
		return fmt.Errorf("incorrect ttl %v for %q", ttl, key)
	}
	expiresAt := s.now().Add(ttl).UnixMilli()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{expiresAtMeta: strconv.FormatInt(expiresAt, 10)},
	})
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

func (s *Storage) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	var (
		removed int64
		token   *string
	)
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.config.Bucket),
			Prefix:            aws.String(s.config.Prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return removed, fmt.Errorf("failed to list records: %w", err)
		}
		for _, obj := range out.Contents {
			head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.config.Bucket), Key: obj.Key})
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return removed, fmt.Errorf("failed to check %q: %w", aws.ToString(obj.Key), err)
			}
			if !expiredAt(head.Metadata, now) {
				continue
			}
			_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.config.Bucket), Key: obj.Key})
			if err != nil {
				return removed, fmt.Errorf("failed to remove %q: %w", aws.ToString(obj.Key), err)
			}
			removed++
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			return removed, nil
		}
		token = out.NextContinuationToken
	}
}

func (s *Storage) objectKey(key string) string {
	return s.config.Prefix + key
}

func (s *Storage) expired(metadata map[string]string) bool {
	return expiredAt(metadata, s.now())
}

func expiredAt(metadata map[string]string, now time.Time) bool {
	raw, ok := metadata[expiresAtMeta]
	if !ok {
		return false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return now.UnixMilli() >= ms
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
