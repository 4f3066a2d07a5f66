// Package s3store writes photos to an S3-compatible bucket with
// aws-sdk-go-v2, either with PutObject or through a presigned PUT URL.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/photosync/internal/netx"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

const defaultPresignTTL = 15 * time.Minute

// Config is what the driver needs to reach the bucket.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // empty means AWS itself
	AccessKey string
	SecretKey string

	// Presign uploads through a presigned PUT URL valid for PresignTTL
	// instead of calling PutObject.
	Presign    bool
	PresignTTL time.Duration

	HTTPClient *http.Client
}

type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
	usePre  bool
	http    *http.Client
}

func New(ctx context.Context, c Config) (*Store, error) {
	if c.Bucket == "" {
		return nil, errors.New("s3store: bucket is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(c.Region),
		config.WithRetryMaxAttempts(1),
	}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}
	if c.HTTPClient != nil {
		opts = append(opts, config.WithHTTPClient(c.HTTPClient))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3store: load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg,
		func(o *s3.Options) {
			if c.Endpoint != "" {
				o.BaseEndpoint = aws.String(c.Endpoint)
				o.UsePathStyle = true
			}
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		},
	)

	ttl := c.PresignTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}

	s := &Store{
		client: client,
		bucket: c.Bucket,
		ttl:    ttl,
		usePre: c.Presign,
		http:   c.HTTPClient,
	}
	if c.Presign {
		s.presign = newS3PresignClient(client)
	}
	return s, nil
}

// Put writes body under key.
func (s *Store) Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error {
	if s.usePre {
		return s.putPresigned(ctx, key, body, size, contentType)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	},
		// Stream the body once while sending instead of hashing it up front.
		s3.WithAPIOptions(v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware),
	)
	if err != nil {
		return fmt.Errorf("s3store: put %s: %w", key, err)
	}
	return nil
}

// PresignedPutURL returns a URL that accepts a single PUT of key.
func (s *Store) PresignedPutURL(ctx context.Context, key string) (*v4.PresignedHTTPRequest, error) {
	pc := s.presign
	if pc == nil {
		pc = newS3PresignClient(s.client)
	}
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("s3store: presign %s: %w", key, err)
	}
	return req, nil
}

func (s *Store) putPresigned(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	req, err := s.PresignedPutURL(ctx, key)
	if err != nil {
		return err
	}

	h := req.SignedHeader.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Del("Host")
	h.Set("Content-Type", contentType)

	if err := netx.PutPresigned(ctx, s.http, req.URL, h, body, size); err != nil {
		return fmt.Errorf("s3store: put %s: %w", key, err)
	}
	return nil
}
