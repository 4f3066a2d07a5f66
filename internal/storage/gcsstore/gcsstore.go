// Package gcsstore writes photos to a Google Cloud Storage bucket.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var newStorageClient = storage.NewClient

type Config struct {
	Bucket string
	// Endpoint overrides the JSON API endpoint (emulators). Empty means GCS.
	Endpoint string
	// CredentialsFile is a service account key. Empty uses application
	// default credentials, or none when Endpoint is set.
	CredentialsFile string
}

// objectWriter opens a writer for one object.
type objectWriter func(ctx context.Context, key, contentType string) io.WriteCloser

type Store struct {
	client *storage.Client
	bucket string
	open   objectWriter
}

func New(ctx context.Context, c Config) (*Store, error) {
	if c.Bucket == "" {
		return nil, errors.New("gcsstore: bucket is required")
	}

	var opts []option.ClientOption
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	switch {
	case c.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	case c.Endpoint != "":
		opts = append(opts, option.WithoutAuthentication())
	}

	client, err := newStorageClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcsstore: new client: %w", err)
	}

	s := &Store{client: client, bucket: c.Bucket}
	s.open = func(ctx context.Context, key, contentType string) io.WriteCloser {
		w := client.Bucket(s.bucket).Object(key).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
	return s, nil
}

// Put streams body into a new object. The object is committed by Close,
// which only runs once all size bytes were copied; any other outcome
// cancels the writer's context so nothing is stored under key.
func (s *Store) Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.open(ctx, key, contentType)
	n, err := io.Copy(w, body)
	if err != nil {
		cancel()
		return fmt.Errorf("gcsstore: write %s: %w", key, err)
	}
	if size >= 0 && n != size {
		cancel()
		return fmt.Errorf("gcsstore: wrote %d of %d bytes for %s", n, size, key)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcsstore: commit %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
