package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"

	"contest-api/internal/domain/entity"
	"contest-api/internal/observability/metrics"
	"contest-api/internal/resilience/circuitbreaker"
)

// S3Config holds the bucket location and credentials.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

// objectAPI is the subset of the S3 client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store writes entry files to an S3-compatible bucket.
type S3Store struct {
	api    objectAPI
	bucket string
	prefix string
	cb     *circuitbreaker.CircuitBreaker
}

// NewS3Store builds an S3 client from static credentials. Endpoint is optional
// and points the client at MinIO or another S3-compatible service.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 store: bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Store(client, cfg), nil
}

func newS3Store(api objectAPI, cfg S3Config) *S3Store {
	cbCfg := circuitbreaker.ObjectStorageConfig()
	cbCfg.IsSuccessful = func(err error) bool {
		return errors.Is(err, entity.ErrNotFound)
	}
	return &S3Store{
		api:    api,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		cb:     circuitbreaker.New(cbCfg),
	}
}

// Name identifies the backend in health checks and metrics.
func (*S3Store) Name() string { return "s3" }

// ObjectKey returns the key the file of the given entry is stored under.
// The extension follows the declared MIME type.
func (s *S3Store) ObjectKey(entryID, mimeType string) string {
	ext := ""
	if m := mimetype.Lookup(mimeType); m != nil {
		ext = m.Extension()
	}
	return s.prefix + entryID + ext
}

// Save uploads file.Data and replaces it with a storage key.
func (s *S3Store) Save(ctx context.Context, entryID string, file *entity.FileRef) error {
	if file == nil || len(file.Data) == 0 {
		return fmt.Errorf("s3 store: %w", entity.ErrNotFound)
	}
	key := s.ObjectKey(entryID, file.MimeType)

	start := time.Now()
	_, err := circuitbreaker.Do(s.cb, func() (*s3.PutObjectOutput, error) {
		return s.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(file.Data),
			ContentType:   aws.String(file.MimeType),
			ContentLength: aws.Int64(int64(len(file.Data))),
		})
	})
	metrics.RecordFileStore(s.Name(), "put", time.Since(start))
	if err != nil {
		return classify("put object", err)
	}

	file.StorageKey = key
	file.Data = nil
	return nil
}

// Open streams the object behind file.StorageKey. Entries written while the
// inline backend was active still carry their bytes and are served as is.
// A missing key or object is entity.ErrNotFound.
func (s *S3Store) Open(ctx context.Context, file *entity.FileRef) (io.ReadCloser, error) {
	if file.Inline() && file.StorageKey == "" {
		return io.NopCloser(bytes.NewReader(file.Data)), nil
	}
	if file == nil || file.StorageKey == "" {
		return nil, entity.ErrNotFound
	}

	start := time.Now()
	out, err := circuitbreaker.Do(s.cb, func() (*s3.GetObjectOutput, error) {
		out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(file.StorageKey),
		})
		if isNoSuchKey(err) {
			return nil, entity.ErrNotFound
		}
		return out, err
	})
	metrics.RecordFileStore(s.Name(), "get", time.Since(start))
	if err != nil {
		return nil, classify("get object", err)
	}
	return out.Body, nil
}

// Remove deletes the object behind file.StorageKey. Deleting a key that is
// already gone succeeds.
func (s *S3Store) Remove(ctx context.Context, file *entity.FileRef) error {
	if file == nil || file.StorageKey == "" {
		return nil
	}

	start := time.Now()
	err := s.cb.Run(func() error {
		_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(file.StorageKey),
		})
		return err
	})
	metrics.RecordFileStore(s.Name(), "delete", time.Since(start))
	if err != nil {
		return classify("delete object", err)
	}
	return nil
}

// Check confirms the bucket is reachable.
func (s *S3Store) Check(ctx context.Context) error {
	_, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func classify(op string, err error) error {
	if errors.Is(err, entity.ErrNotFound) {
		return err
	}
	return fmt.Errorf("s3 %s: %w: %w", op, entity.ErrDependencyUnavailable, err)
}
