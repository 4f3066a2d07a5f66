// Package storage picks the object store driver named in the config.
package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/photosync/internal/config"
	"github.com/dmitrijs2005/photosync/internal/storage/gcsstore"
	"github.com/dmitrijs2005/photosync/internal/storage/miniostore"
	"github.com/dmitrijs2005/photosync/internal/storage/s3store"
	"github.com/dmitrijs2005/photosync/internal/upload"
)

// Open builds the driver for c. The returned close func is never nil.
func Open(ctx context.Context, c config.StoreConfig) (upload.Store, func() error, error) {
	noop := func() error { return nil }

	switch c.Driver {
	case config.DriverS3:
		s, err := s3store.New(ctx, s3store.Config{
			Bucket:     c.Bucket,
			Region:     c.Region,
			Endpoint:   c.Endpoint,
			AccessKey:  c.AccessKey,
			SecretKey:  c.SecretKey,
			Presign:    c.UsePresign,
			PresignTTL: c.PresignTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case config.DriverMinIO:
		s, err := miniostore.New(miniostore.Config{
			Bucket:    c.Bucket,
			Region:    c.Region,
			Endpoint:  c.Endpoint,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case config.DriverGCS:
		s, err := gcsstore.New(ctx, gcsstore.Config{
			Bucket:          c.Bucket,
			Endpoint:        c.Endpoint,
			CredentialsFile: c.CredentialsFile,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", c.Driver)
}
