package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultS3PollInterval is how often an S3Store checks for peer writes.
const DefaultS3PollInterval = time.Second

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps each key as an object under a bucket prefix. Like FileStore,
// each instance is a separate context and peer writes are found by polling.
type S3Store struct {
	client  S3API
	bucket  string
	prefix  string
	timeout time.Duration
	poll    *poller

	mu     sync.Mutex
	closed bool
}

var _ Store = (*S3Store)(nil)

// S3Option configures an S3Store.
type S3Option func(*s3Config)

type s3Config struct {
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// WithS3PollInterval sets how often the bucket is polled for changes.
func WithS3PollInterval(d time.Duration) S3Option {
	return func(c *s3Config) {
		c.interval = d
	}
}

// WithS3Timeout bounds each individual S3 request. Default: 5s.
func WithS3Timeout(d time.Duration) S3Option {
	return func(c *s3Config) {
		c.timeout = d
	}
}

// WithS3Logger sets the logger used for background poll failures.
func WithS3Logger(l *slog.Logger) S3Option {
	return func(c *s3Config) {
		c.logger = l
	}
}

// NewS3Store creates a store backed by bucket, keeping keys under prefix.
func NewS3Store(client S3API, bucket, prefix string, opts ...S3Option) (*S3Store, error) {
	if client == nil {
		return nil, errors.New("s3 store: nil client")
	}
	if bucket == "" {
		return nil, errors.New("s3 store: bucket is required")
	}
	cfg := s3Config{interval: DefaultS3PollInterval, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.interval <= 0 {
		return nil, fmt.Errorf("s3 store poll interval must be positive, got %s", cfg.interval)
	}
	s := &S3Store{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		timeout: cfg.timeout,
	}
	s.poll = newPoller(s.read, cfg.interval, cfg.logger)
	return s, nil
}

// DefaultS3Region is used when neither the location nor the AWS
// configuration names a region.
const DefaultS3Region = "us-east-1"

// S3ClientOptions describes how to reach an S3-compatible endpoint.
type S3ClientOptions struct {
	Region    string // empty = AWS configuration chain
	Endpoint  string // empty = AWS default endpoint resolution
	PathStyle bool
}

// NewS3Client builds an S3 client from the default AWS configuration chain
// (environment, shared config and credentials files, then instance or
// container roles). Region and endpoint from opts override that chain.
func NewS3Client(ctx context.Context, opts S3ClientOptions) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = DefaultS3Region
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.PathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

func (s *S3Store) objectKey(key string) string {
	return s.prefix + key
}

func (s *S3Store) read(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("s3 get %q: %w", key, err)
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("s3 get %q: %w", key, err)
	}
	return b, true, nil
}

// Read returns the object stored under key.
func (s *S3Store) Read(key string) ([]byte, bool, error) {
	if s.isClosed() {
		return nil, false, ErrClosed
	}
	return s.read(key)
}

// Write replaces the object under key.
func (s *S3Store) Write(key string, value []byte) error {
	if s.isClosed() {
		return ErrClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %q: %w", key, err)
	}
	s.poll.noteWrite(key, value, true)
	return nil
}

// Clear deletes every object under the prefix.
func (s *S3Store) Clear() error {
	if s.isClosed() {
		return ErrClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var toDelete []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("s3 list: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil && strings.HasPrefix(*obj.Key, s.prefix) {
				toDelete = append(toDelete, *obj.Key)
			}
		}
	}

	s.poll.noteClear()
	for _, key := range toDelete {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("s3 delete %q: %w", key, err)
		}
	}
	return nil
}

// OnExternalChange subscribes fn to changes of key made by other contexts.
func (s *S3Store) OnExternalChange(key string, fn ChangeHandler) func() {
	return s.poll.subscribe(key, fn)
}

// Close stops background polling.
func (s *S3Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.poll.close()
	return nil
}

func (s *S3Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
