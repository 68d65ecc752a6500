// Package storage keeps attachment content in object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	mailapp "github.com/erp/messaging/internal/application/mail"
	"github.com/erp/messaging/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ mailapp.ObjectStorage = (*S3ObjectStorage)(nil)

var ErrEmptyKey = errors.New("storage key is required")

const (
	defaultRegion    = "us-east-1"
	defaultURLTTL    = 15 * time.Minute
	bucketCreateWait = 30 * time.Second
	s3CodeNotFound   = "NotFound"
	s3CodeNoSuchKey  = "NoSuchKey"
	s3CodeNoSuchBkt  = "NoSuchBucket"
	s3CodeOwnedByYou = "BucketAlreadyOwnedByYou"
)

// S3ObjectStorage keeps attachment content in one bucket of AWS S3 or a
// compatible service such as MinIO.
type S3ObjectStorage struct {
	api       *s3.Client
	presigner *s3.PresignClient
	bucket    string
	urlTTL    time.Duration
	log       *zap.Logger
}

type S3ObjectStorageOption func(*S3ObjectStorage)

func WithLogger(l *zap.Logger) S3ObjectStorageOption {
	return func(s *S3ObjectStorage) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPresignExpiration overrides storage.presign_expiry
func WithPresignExpiration(d time.Duration) S3ObjectStorageOption {
	return func(s *S3ObjectStorage) { s.urlTTL = d }
}

// NewS3ObjectStorage builds the client without contacting the service.
// Without an access key the default AWS credential chain applies, and an
// empty endpoint means AWS itself.
func NewS3ObjectStorage(cfg *config.StorageConfig, opts ...S3ObjectStorageOption) (*S3ObjectStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key id and secret access key must be set together")
	}
	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	load := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		load = append(load, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), load...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	s := &S3ObjectStorage{
		api:       api,
		presigner: s3.NewPresignClient(api),
		bucket:    cfg.Bucket,
		urlTTL:    cfg.PresignExpiry,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.urlTTL <= 0 {
		s.urlTTL = defaultURLTTL
	}
	return s, nil
}

// normalizeEndpoint defaults a bare host:port to https
func normalizeEndpoint(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid storage endpoint scheme %q", u.Scheme)
	}
	return raw, nil
}

func (s *S3ObjectStorage) Bucket() string { return s.bucket }

// EnsureBucket creates the bucket when missing and waits until it answers
func (s *S3ObjectStorage) EnsureBucket(ctx context.Context) error {
	head := &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}
	_, err := s.api.HeadBucket(ctx, head)
	switch {
	case err == nil:
		return nil
	case !hasCode(err, s3CodeNotFound, s3CodeNoSuchBkt):
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	s.log.Info("Creating attachment bucket", zap.String("bucket", s.bucket))
	if _, err := s.api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		if hasCode(err, s3CodeOwnedByYou) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	if err := s3.NewBucketExistsWaiter(s.api).Wait(ctx, head, bucketCreateWait); err != nil {
		return fmt.Errorf("wait for bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *S3ObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.log.Debug("Stored attachment content", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Download maps a missing key to mailapp.ErrObjectNotFound
func (s *S3ObjectStorage) Download(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if hasCode(err, s3CodeNotFound, s3CodeNoSuchKey) {
			return nil, mailapp.ErrObjectNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// GenerateDownloadURL presigns a GET. A non-positive ttl uses the default.
func (s *S3ObjectStorage) GenerateDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	if ttl <= 0 {
		ttl = s.urlTTL
	}
	req, err := s.presigner.PresignGetObject(ctx,
		&s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)},
		s3.WithPresignExpires(ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, time.Now().Add(ttl), nil
}

// DeleteObject succeeds for keys that are already gone
func (s *S3ObjectStorage) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *S3ObjectStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	switch {
	case err == nil:
		return true, nil
	case hasCode(err, s3CodeNotFound, s3CodeNoSuchKey):
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w", key, err)
}

// hasCode matches the service error code. HEAD responses carry no body, so
// S3 reports them as a bare NotFound rather than NoSuchKey.
func hasCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}
