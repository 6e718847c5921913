package source

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/matzehuels/definekit/pkg/cache"
	"github.com/matzehuels/definekit/pkg/errors"
)

// S3Config holds the parameters of an S3 client. Empty fields fall back to
// the AWS default configuration chain (environment, shared config, IMDS).
type S3Config struct {
	Region          string
	Endpoint        string // optional; enables S3-compatible stores such as MinIO
	PathStyle       bool
	AccessKeyID     string // optional static credentials
	SecretAccessKey string
	SessionToken    string

	// HTTPClient replaces the SDK's transport. Used by tests.
	HTTPClient *http.Client
}

// S3Fetcher fetches objects from S3. SDK-level retries are disabled;
// [Loader] retries transient failures itself.
type S3Fetcher struct {
	client *s3.Client
}

// NewS3Fetcher builds an S3 client from cfg.
func NewS3Fetcher(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load aws config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 1
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &S3Fetcher{client: client}, nil
}

// Fetch downloads one object. Missing objects are FILE_NOT_FOUND; throttling,
// server errors and network timeouts are wrapped as retryable.
func (f *S3Fetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, classifyS3(err, bucket, key)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read s3://%s/%s", bucket, key))
	}
	return data, nil
}

// httpStatus is implemented by the SDK's response errors.
type httpStatus interface {
	HTTPStatusCode() int
}

func classifyS3(err error, bucket, key string) error {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	if stderrors.As(err, &noKey) || stderrors.As(err, &noBucket) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "s3://%s/%s", bucket, key)
	}
	var status httpStatus
	if stderrors.As(err, &status) {
		switch code := status.HTTPStatusCode(); {
		case code == http.StatusNotFound:
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "s3://%s/%s", bucket, key)
		case code == http.StatusTooManyRequests || code >= 500:
			return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, stderrors.Join(cache.ErrNetwork, err), "s3://%s/%s", bucket, key))
		}
	}
	var nerr net.Error
	if stderrors.As(err, &nerr) && nerr.Timeout() {
		return cache.Retryable(errors.Wrap(errors.ErrCodeTimeout, stderrors.Join(cache.ErrNetwork, err), "s3://%s/%s", bucket, key))
	}
	return errors.Wrap(errors.ErrCodeStorage, err, "s3://%s/%s", bucket, key)
}

var _ Fetcher = (*S3Fetcher)(nil)
