package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	defaults := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		name        string
		args        []string
		expected    func() *Config
		expectPanic bool
	}{
		{
			name: "store and camera flags",
			args: []string{"-d", "/sdcard/DCIM", "-k", "0", "-r", "90", "-s", "minio", "-b", "snaps", "-e", "127.0.0.1:9000"},
			expected: func() *Config {
				c := defaults()
				c.PicturesDir = "/sdcard/DCIM"
				c.CameraIndex = 0
				c.DisplayRotation = 90
				c.Store.Driver = DriverMinIO
				c.Store.Bucket = "snaps"
				c.Store.Endpoint = "127.0.0.1:9000"
				return c
			},
		},
		{
			name: "bool flags and REPL words mixed in",
			args: []string{"capture", "-presign", "-no-camera", "-y", "@hourly"},
			expected: func() *Config {
				c := defaults()
				c.Store.UsePresign = true
				c.Permissions.Camera = false
				c.SyncSchedule = "@hourly"
				return c
			},
		},
		{
			name:        "non-numeric camera index",
			args:        []string{"-k", "front"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg, tt.args) })
				return
			}

			require.NotPanics(t, func() { parseFlags(cfg, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected(), cfg))
		})
	}
}
