package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/vietddude/campusconnect/internal/infra/backend"
)

const s3Source = "s3"

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads objects to an S3 bucket.
type S3Store struct {
	client  putObjectAPI
	bucket  string
	baseURL string
}

// NewS3Store loads the default AWS config for cfg.Region.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return newS3Store(s3.NewFromConfig(awsCfg), cfg.Bucket, baseURL), nil
}

func newS3Store(client putObjectAPI, bucket, baseURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	data, err := readLimited(body)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: int64(len(data)),
	})
	if err != nil {
		return "", translateS3(err)
	}
	return s.baseURL + "/" + key, nil
}

// translateS3 maps SDK failures onto backend reasons.
func translateS3(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return backend.Wrap(s3Source, backend.ReasonDeadlineExceeded, err)
	}
	if errors.Is(err, context.Canceled) {
		return backend.Wrap(s3Source, backend.ReasonCancelled, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return backend.Wrap(s3Source, backend.ReasonPermissionDenied, err)
		case "NoSuchBucket":
			return backend.Wrap(s3Source, backend.ReasonNotFound, err)
		case "RequestTimeout":
			return backend.Wrap(s3Source, backend.ReasonTimeout, err)
		case "SlowDown", "ServiceUnavailable", "InternalError", "Throttling":
			return backend.Wrap(s3Source, backend.ReasonUnavailable, err)
		}
	}

	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) && statusErr.HTTPStatusCode() >= 500 {
		return backend.Wrap(s3Source, backend.ReasonUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return backend.Wrap(s3Source, backend.ReasonTimeout, err)
		}
		return backend.Wrap(s3Source, backend.ReasonUnavailable, err)
	}
	return backend.Wrap(s3Source, backend.ReasonInternal, err)
}
