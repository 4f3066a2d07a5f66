package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photosync/internal/config"
	"github.com/dmitrijs2005/photosync/internal/storage/miniostore"
	"github.com/dmitrijs2005/photosync/internal/storage/s3store"
)

func TestOpen(t *testing.T) {
	base := config.StoreConfig{
		Bucket:    "photos",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000/",
		AccessKey: "admin",
		SecretKey: "secretpassword",
	}

	t.Run("s3", func(t *testing.T) {
		c := base
		c.Driver = config.DriverS3
		s, closeFn, err := Open(context.Background(), c)
		require.NoError(t, err)
		assert.IsType(t, &s3store.Store{}, s)
		require.NoError(t, closeFn())
	})

	t.Run("minio", func(t *testing.T) {
		c := base
		c.Driver = config.DriverMinIO
		s, closeFn, err := Open(context.Background(), c)
		require.NoError(t, err)
		assert.IsType(t, &miniostore.Store{}, s)
		require.NoError(t, closeFn())
	})

	t.Run("gcs without bucket", func(t *testing.T) {
		_, _, err := Open(context.Background(), config.StoreConfig{Driver: config.DriverGCS})
		require.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := Open(context.Background(), config.StoreConfig{Driver: "ftp", Bucket: "x"})
		require.Error(t, err)
	})
}
