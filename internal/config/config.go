package config

import (
	"fmt"
	"os"
	"time"
)

// Store drivers.
const (
	DriverS3    = "s3"
	DriverMinIO = "minio"
	DriverGCS   = "gcs"
)

// Gallery sources.
const (
	GalleryIndex = "index"
	GalleryFS    = "fs"
)

// StoreConfig selects and configures the remote object store.
//
// AccessKey/SecretKey are the S3 or MinIO credentials; GCS uses
// CredentialsFile (or ambient application-default credentials when empty).
type StoreConfig struct {
	Driver          string
	Bucket          string
	Region          string
	Endpoint        string
	AccessKey       string
	SecretKey       string
	KeyPrefix       string
	UsePresign      bool
	PresignTTL      time.Duration
	CredentialsFile string
}

// Permissions are the two capability checks the platform layer supplies.
type Permissions struct {
	Camera  bool
	Storage bool
}

// Config holds runtime settings for photosync.
type Config struct {
	PicturesDir     string
	IndexDSN        string
	GallerySource   string
	CameraIndex     int
	DisplayRotation int
	Store           StoreConfig
	Permissions     Permissions
	SyncSchedule    string
	LogLevel        string
	LogFormat       string
}

// LoadDefaults populates c with development defaults. The store points at
// a local MinIO-compatible endpoint.
func (c *Config) LoadDefaults() {
	c.PicturesDir = "./Pictures"
	c.IndexDSN = "photosync.db"
	c.GallerySource = GalleryIndex
	c.CameraIndex = 1
	c.DisplayRotation = 0
	c.Store = StoreConfig{
		Driver:     DriverS3,
		Bucket:     "photos",
		Region:     "us-east-1",
		Endpoint:   "http://127.0.0.1:9000/",
		AccessKey:  "admin",
		SecretKey:  "secretpassword",
		KeyPrefix:  "images",
		PresignTTL: 15 * time.Minute,
	}
	c.Permissions = Permissions{Camera: true, Storage: true}
	c.SyncSchedule = ""
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate reports settings that cannot work at all.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverS3, DriverMinIO, DriverGCS:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.GallerySource {
	case GalleryIndex, GalleryFS:
	default:
		return fmt.Errorf("unknown gallery source %q", c.GallerySource)
	}
	switch c.DisplayRotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("display rotation must be 0, 90, 180 or 270, got %d", c.DisplayRotation)
	}
	if c.Store.Bucket == "" {
		return fmt.Errorf("store bucket is required")
	}
	if c.CameraIndex < 0 {
		return fmt.Errorf("camera index must not be negative")
	}
	return nil
}

// LoadConfig constructs a Config from os.Args: defaults, then the JSON
// file (if any), then flags. Later sources take precedence.
func LoadConfig() *Config {
	return LoadConfigArgs(os.Args[1:])
}

// LoadConfigArgs is LoadConfig over an explicit argument list.
func LoadConfigArgs(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
