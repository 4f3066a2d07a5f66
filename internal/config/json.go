package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/photosync/internal/flagx"
	"github.com/dmitrijs2005/photosync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from the zero value so a file only overrides
// what it mentions.
type JsonConfig struct {
	PicturesDir     *string          `json:"pictures_dir"`
	IndexDSN        *string          `json:"index_dsn"`
	GallerySource   *string          `json:"gallery_source"`
	CameraIndex     *int             `json:"camera_index"`
	DisplayRotation *int             `json:"display_rotation"`
	Store           *JsonStoreConfig `json:"store"`
	Permissions     *JsonPermissions `json:"permissions"`
	SyncSchedule    *string          `json:"sync_schedule"`
	LogLevel        *string          `json:"log_level"`
	LogFormat       *string          `json:"log_format"`
}

type JsonStoreConfig struct {
	Driver          *string         `json:"driver"`
	Bucket          *string         `json:"bucket"`
	Region          *string         `json:"region"`
	Endpoint        *string         `json:"endpoint"`
	AccessKey       *string         `json:"access_key"`
	SecretKey       *string         `json:"secret_key"`
	KeyPrefix       *string         `json:"key_prefix"`
	UsePresign      *bool           `json:"use_presign"`
	PresignTTL      *timex.Duration `json:"presign_ttl"`
	CredentialsFile *string         `json:"gcs_credentials_file"`
}

type JsonPermissions struct {
	Camera  *bool `json:"camera"`
	Storage *bool `json:"storage"`
}

// parseJson overlays cfg with values from the JSON file named by -c/-config
// (or $PHOTOSYNC_CONFIG). No file means no changes. Read or unmarshal
// errors panic; main recovers nothing, so a broken config stops startup.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.PicturesDir, jc.PicturesDir)
	setString(&cfg.IndexDSN, jc.IndexDSN)
	setString(&cfg.GallerySource, jc.GallerySource)
	setInt(&cfg.CameraIndex, jc.CameraIndex)
	setInt(&cfg.DisplayRotation, jc.DisplayRotation)
	setString(&cfg.SyncSchedule, jc.SyncSchedule)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if s := jc.Store; s != nil {
		setString(&cfg.Store.Driver, s.Driver)
		setString(&cfg.Store.Bucket, s.Bucket)
		setString(&cfg.Store.Region, s.Region)
		setString(&cfg.Store.Endpoint, s.Endpoint)
		setString(&cfg.Store.AccessKey, s.AccessKey)
		setString(&cfg.Store.SecretKey, s.SecretKey)
		setString(&cfg.Store.KeyPrefix, s.KeyPrefix)
		setString(&cfg.Store.CredentialsFile, s.CredentialsFile)
		if s.UsePresign != nil {
			cfg.Store.UsePresign = *s.UsePresign
		}
		if s.PresignTTL != nil {
			cfg.Store.PresignTTL = s.PresignTTL.Duration
		}
	}

	if p := jc.Permissions; p != nil {
		if p.Camera != nil {
			cfg.Permissions.Camera = *p.Camera
		}
		if p.Storage != nil {
			cfg.Permissions.Storage = *p.Storage
		}
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
