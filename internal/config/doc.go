// Package config loads runtime configuration for photosync.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c / -config, or $PHOTOSYNC_CONFIG.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   pictures directory captures are written to
//	-i string   media index DSN (SQLite)
//	-gallery string   gallery source: "index" or "fs"
//	-k int      camera index in the enumerated device list
//	-r int      display rotation in degrees (0, 90, 180, 270)
//	-s string   object store driver: s3, minio or gcs
//	-b string   bucket name
//	-g string   region
//	-e string   store endpoint
//	-u string   store access key / root user
//	-p string   store secret / root password
//	-x string   remote key prefix
//	-y string   cron schedule for background sync ("" disables)
//	-l string   log level
//	-presign    upload through presigned S3 URLs
//	-no-camera  report the camera permission as not granted
//	-no-storage report the storage permission as not granted
//
// # JSON schema
//
//	{
//	  "pictures_dir": "./Pictures",
//	  "index_dsn": "photosync.db",
//	  "gallery_source": "index",
//	  "camera_index": 1,
//	  "display_rotation": 0,
//	  "store": {
//	    "driver": "s3",
//	    "bucket": "photos",
//	    "region": "us-east-1",
//	    "endpoint": "http://127.0.0.1:9000/",
//	    "access_key": "admin",
//	    "secret_key": "secretpassword",
//	    "key_prefix": "images",
//	    "use_presign": false,
//	    "presign_ttl": "15m",
//	    "gcs_credentials_file": ""
//	  },
//	  "permissions": {"camera": true, "storage": true},
//	  "sync_schedule": "*/15 * * * *",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
package config
