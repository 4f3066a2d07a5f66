package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/photosync/internal/flagx"
)

var (
	valueFlags = []string{"-d", "-i", "-gallery", "-k", "-r", "-s", "-b", "-g", "-e", "-u", "-p", "-x", "-y", "-l"}
	boolFlags  = []string{"-presign", "-no-camera", "-no-storage"}
)

// parseFlags populates Config fields from command-line flags (see the
// package doc for the list). args is filtered with flagx.FilterArgs first,
// so REPL commands and other components' flags pass through untouched.
// Malformed values panic.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, valueFlags, boolFlags...)

	fs := flag.NewFlagSet("photosync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.PicturesDir, "d", cfg.PicturesDir, "pictures directory")
	fs.StringVar(&cfg.IndexDSN, "i", cfg.IndexDSN, "media index DSN")
	fs.StringVar(&cfg.GallerySource, "gallery", cfg.GallerySource, "gallery source (index|fs)")
	fs.IntVar(&cfg.CameraIndex, "k", cfg.CameraIndex, "camera index")
	fs.IntVar(&cfg.DisplayRotation, "r", cfg.DisplayRotation, "display rotation (degrees)")

	fs.StringVar(&cfg.Store.Driver, "s", cfg.Store.Driver, "store driver (s3|minio|gcs)")
	fs.StringVar(&cfg.Store.Bucket, "b", cfg.Store.Bucket, "bucket")
	fs.StringVar(&cfg.Store.Region, "g", cfg.Store.Region, "region")
	fs.StringVar(&cfg.Store.Endpoint, "e", cfg.Store.Endpoint, "store endpoint")
	fs.StringVar(&cfg.Store.AccessKey, "u", cfg.Store.AccessKey, "store access key")
	fs.StringVar(&cfg.Store.SecretKey, "p", cfg.Store.SecretKey, "store secret key")
	fs.StringVar(&cfg.Store.KeyPrefix, "x", cfg.Store.KeyPrefix, "remote key prefix")
	fs.BoolVar(&cfg.Store.UsePresign, "presign", cfg.Store.UsePresign, "upload via presigned URLs")

	fs.StringVar(&cfg.SyncSchedule, "y", cfg.SyncSchedule, "background sync cron schedule")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	noCamera := fs.Bool("no-camera", !cfg.Permissions.Camera, "deny camera permission")
	noStorage := fs.Bool("no-storage", !cfg.Permissions.Storage, "deny storage permission")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.Permissions.Camera = !*noCamera
	cfg.Permissions.Storage = !*noStorage
}
