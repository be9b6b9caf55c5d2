package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	catalogapp "github.com/foodontracks/backend/internal/application/catalog"
	"github.com/foodontracks/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// photoCacheControl is stored with each upload. Keys are never reused, so
// the objects can be cached forever.
const photoCacheControl = "public, max-age=31536000, immutable"

// S3Storage presigns direct uploads and downloads against one bucket of AWS
// S3 or an S3 compatible server such as MinIO.
type S3Storage struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	defaultTTL time.Duration
	logger     *zap.Logger
}

// S3Option configures an S3Storage
type S3Option func(*S3Storage)

func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3Storage) { s.logger = logger }
}

// WithDefaultTTL is used when a caller passes a zero ttl
func WithDefaultTTL(ttl time.Duration) S3Option {
	return func(s *S3Storage) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// NewS3Storage builds the client from cfg. Without a static key pair the
// default AWS credential chain applies.
func NewS3Storage(ctx context.Context, cfg config.StorageConfig, opts ...S3Option) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key id and secret must be set together")
	}

	var endpoint string
	if cfg.Endpoint != "" {
		var err error
		if endpoint, err = normalizeEndpoint(cfg.Endpoint); err != nil {
			return nil, err
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := &S3Storage{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		defaultTTL: ttlOr(cfg.PresignExpiration, defaultPresignTTL),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// normalizeEndpoint accepts bare host:port as MinIO docs write it
func normalizeEndpoint(raw string) (string, error) {
	endpoint := strings.TrimRight(raw, "/")
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid storage endpoint %q", raw)
	}
	return endpoint, nil
}

func (s *S3Storage) Bucket() string { return s.bucket }

// PresignUpload signs a PUT whose content type and length are part of the
// signature, so the client cannot swap in a different or larger file.
func (s *S3Storage) PresignUpload(ctx context.Context, key string, upload catalogapp.ImageObject, ttl time.Duration) (catalogapp.PresignedURL, error) {
	if err := checkKey(key); err != nil {
		return catalogapp.PresignedURL{}, err
	}
	if err := checkUpload(upload); err != nil {
		return catalogapp.PresignedURL{}, err
	}
	ttl = ttlOr(ttl, s.defaultTTL)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(upload.ContentType),
		ContentLength: aws.Int64(upload.Size),
		CacheControl:  aws.String(photoCacheControl),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return catalogapp.PresignedURL{}, fmt.Errorf("presign put %s: %w", key, err)
	}

	headers := clientHeaders(req.SignedHeader)
	headers["Content-Type"] = upload.ContentType
	return catalogapp.PresignedURL{URL: req.URL, ExpiresAt: time.Now().Add(ttl), Headers: headers}, nil
}

func (s *S3Storage) PresignDownload(ctx context.Context, key string, ttl time.Duration) (catalogapp.PresignedURL, error) {
	if err := checkKey(key); err != nil {
		return catalogapp.PresignedURL{}, err
	}
	ttl = ttlOr(ttl, s.defaultTTL)

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return catalogapp.PresignedURL{}, fmt.Errorf("presign get %s: %w", key, err)
	}
	return catalogapp.PresignedURL{URL: req.URL, ExpiresAt: time.Now().Add(ttl)}, nil
}

// Delete removes the object. S3 reports success for missing keys.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.logger.Debug("Object deleted", zap.String("key", key))
	return nil
}

// EnsureBucket creates the bucket when it is missing. Used against local
// MinIO; production buckets are provisioned outside the service.
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("Storage bucket created", zap.String("bucket", s.bucket))
	return nil
}

// clientHeaders keeps the signed headers a browser has to send itself;
// Host is set by the HTTP client.
func clientHeaders(signed http.Header) map[string]string {
	out := make(map[string]string, len(signed))
	for name, values := range signed {
		if strings.EqualFold(name, "Host") || len(values) == 0 {
			continue
		}
		out[http.CanonicalHeaderKey(name)] = values[0]
	}
	return out
}
