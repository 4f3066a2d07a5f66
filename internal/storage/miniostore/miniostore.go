// Package miniostore writes photos to a MinIO server with minio-go.
package miniostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var newMinioClient = minio.New

type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // http(s)://host:port or host:port
	AccessKey string
	SecretKey string

	Transport http.RoundTripper
}

type Store struct {
	client *minio.Client
	bucket string
}

func New(c Config) (*Store, error) {
	if c.Bucket == "" {
		return nil, errors.New("miniostore: bucket is required")
	}
	host, secure, err := splitEndpoint(c.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := newMinioClient(host, &minio.Options{
		Creds:        credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure:       secure,
		Region:       c.Region,
		BucketLookup: minio.BucketLookupPath,
		Transport:    c.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("miniostore: new client: %w", err)
	}
	return &Store{client: client, bucket: c.Bucket}, nil
}

// Put writes body under key in a single request.
func (s *Store) Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("miniostore: put %s: %w", key, err)
	}
	return nil
}

// splitEndpoint accepts a bare host:port or a URL and reports whether TLS
// is used. A bare host defaults to TLS.
func splitEndpoint(endpoint string) (string, bool, error) {
	if endpoint == "" {
		return "", false, errors.New("miniostore: endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint, true, nil
	}
	switch u.Scheme {
	case "http":
		return u.Host, false, nil
	case "https":
		return u.Host, true, nil
	}
	return "", false, fmt.Errorf("miniostore: unsupported endpoint scheme %q", u.Scheme)
}
