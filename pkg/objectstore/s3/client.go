// Package s3 adapts the AWS SDK S3 client to objectstore.Client.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/marmos91/gatehouse/internal/logger"
	"github.com/marmos91/gatehouse/internal/telemetry"
	"github.com/marmos91/gatehouse/pkg/objectstore"
)

// Operation names, used as metric labels.
const (
	OpListObjectsV2 = "ListObjectsV2"
	OpGetObject     = "GetObject"
	OpHeadBucket    = "HeadBucket"
)

// Config holds the connection settings for the S3 client.
type Config struct {
	// Region is the AWS region. Default: us-east-1
	Region string

	// Endpoint overrides the AWS endpoint for S3-compatible services.
	Endpoint string

	// AccessKeyID and SecretAccessKey select static credentials. When both
	// are empty the SDK's default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// ForcePathStyle forces path-style addressing (required for Localstack/MinIO).
	ForcePathStyle bool

	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration
}

// Metrics observes S3 calls. A nil Metrics records nothing.
type Metrics interface {
	ObserveOperation(operation string, duration time.Duration, err error)
	RecordBytes(operation string, bytes int64)
}

// API is the subset of *s3.Client used here.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Client implements objectstore.Client on top of the AWS SDK.
type Client struct {
	api     API
	metrics Metrics
}

// New wraps an existing SDK client.
func New(api API, metrics Metrics) *Client {
	return &Client{api: api, metrics: metrics}
}

// NewFromConfig builds an SDK client from cfg.
func NewFromConfig(ctx context.Context, cfg Config, metrics Metrics) (*Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	httpClient := awshttp.NewBuildableClient()
	if cfg.Timeout > 0 {
		httpClient = httpClient.WithTimeout(cfg.Timeout)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithHTTPClient(httpClient),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return New(api, metrics), nil
}

// ListObjectsV2 lists prefix with delimiter, following continuation tokens
// until the listing is complete.
func (c *Client) ListObjectsV2(ctx context.Context, bucket, prefix, delimiter string) (*objectstore.Listing, error) {
	ctx, span := telemetry.StartObjectStoreSpan(ctx, telemetry.SpanObjectStoreList, bucket, telemetry.Prefix(prefix))
	defer span.End()

	start := time.Now()
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	if delimiter != "" {
		input.Delimiter = aws.String(delimiter)
	}

	listing := &objectstore.Listing{}
	paginator := s3.NewListObjectsV2Paginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			err = c.fail(ctx, OpListObjectsV2, start, err)
			return nil, fmt.Errorf("s3 list objects: %w", err)
		}
		for _, obj := range page.Contents {
			listing.Contents = append(listing.Contents, aws.ToString(obj.Key))
		}
		for _, p := range page.CommonPrefixes {
			listing.CommonPrefixes = append(listing.CommonPrefixes, aws.ToString(p.Prefix))
		}
	}

	c.observe(OpListObjectsV2, start, nil)
	telemetry.SetAttributes(ctx, telemetry.Entries(len(listing.Contents)+len(listing.CommonPrefixes)))
	return listing, nil
}

// GetObject opens the object body. Bytes read are recorded when the body
// is closed.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (*objectstore.Download, error) {
	ctx, span := telemetry.StartObjectStoreSpan(ctx, telemetry.SpanObjectStoreGet, bucket, telemetry.ObjectKey(key))
	defer span.End()

	start := time.Now()
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		err = c.fail(ctx, OpGetObject, start, err)
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	c.observe(OpGetObject, start, nil)

	if out.ContentLength != nil {
		telemetry.SetAttributes(ctx, telemetry.Bytes(*out.ContentLength))
	}

	return &objectstore.Download{
		Body:          &countingBody{ReadCloser: out.Body, client: c},
		ContentType:   out.ContentType,
		ContentLength: out.ContentLength,
	}, nil
}

// HeadBucket checks that the bucket exists and is reachable with the
// configured credentials.
func (c *Client) HeadBucket(ctx context.Context, bucket string) error {
	ctx, span := telemetry.StartObjectStoreSpan(ctx, telemetry.SpanObjectStoreHead, bucket)
	defer span.End()

	start := time.Now()
	if _, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		err = c.fail(ctx, OpHeadBucket, start, err)
		return fmt.Errorf("s3 head bucket: %w", err)
	}
	c.observe(OpHeadBucket, start, nil)
	return nil
}

// fail records a failed call and marks not-found errors with objectstore.ErrNotFound.
func (c *Client) fail(ctx context.Context, op string, start time.Time, err error) error {
	c.observe(op, start, err)
	telemetry.RecordError(ctx, err)
	logger.DebugCtx(ctx, "S3 request failed", logger.Operation(op), logger.Err(err))
	if isNotFoundError(err) {
		return fmt.Errorf("%w: %w", objectstore.ErrNotFound, err)
	}
	return err
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.ObserveOperation(op, time.Since(start), err)
	}
}

// countingBody reports bytes read to the metrics on Close.
type countingBody struct {
	io.ReadCloser
	client *Client
	n      int64
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.n += int64(n)
	return n, err
}

func (b *countingBody) Close() error {
	if b.client.metrics != nil {
		b.client.metrics.RecordBytes(OpGetObject, b.n)
	}
	return b.ReadCloser.Close()
}

// isNotFoundError returns true if the error indicates a missing key or bucket.
func isNotFoundError(err error) bool {
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) || errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return true
		}
	}
	return false
}

var _ objectstore.Client = (*Client)(nil)
