package flagx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		valueFlags []string
		boolFlags  []string
		want       []string
	}{
		{
			name:       "short flag with separate value",
			args:       []string{"-c", "conf.json", "-a", "localhost"},
			valueFlags: []string{"-c", "-config"},
			want:       []string{"-c", "conf.json"},
		},
		{
			name:       "flag with equals",
			args:       []string{"-config=alt.json", "-a", "localhost"},
			valueFlags: []string{"-c", "-config"},
			want:       []string{"-config=alt.json"},
		},
		{
			name:       "unknown flags ignored",
			args:       []string{"-x", "1", "--y=2", "positional"},
			valueFlags: []string{"-c"},
			want:       []string{},
		},
		{
			name:       "flag without value at end is kept as-is",
			args:       []string{"-c"},
			valueFlags: []string{"-c"},
			want:       []string{"-c"},
		},
		{
			name:       "next dash-starting token is not a value",
			args:       []string{"-c", "-config=alt.json"},
			valueFlags: []string{"-c", "-config"},
			want:       []string{"-c", "-config=alt.json"},
		},
		{
			name:       "repeated flag preserved in order",
			args:       []string{"-d", "/a", "-d", "/b"},
			valueFlags: []string{"-d"},
			want:       []string{"-d", "/a", "-d", "/b"},
		},
		{
			name:       "bool flag does not swallow positional",
			args:       []string{"-presign", "capture", "-d", "/sdcard"},
			valueFlags: []string{"-d"},
			boolFlags:  []string{"-presign"},
			want:       []string{"-presign", "-d", "/sdcard"},
		},
		{
			name:       "bool flag with explicit value",
			args:       []string{"-presign=false", "-x"},
			boolFlags:  []string{"-presign"},
			want:       []string{"-presign=false"},
		},
		{
			name: "empty args",
			args: []string{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.valueFlags, tt.boolFlags...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	t.Run("short -c with value", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "")
		assert.Equal(t, "/path/short.json", ConfigFile([]string{"-c", "/path/short.json"}))
	})

	t.Run("long -config with value", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "")
		assert.Equal(t, "/path/long.json", ConfigFile([]string{"-config", "/path/long.json"}))
	})

	t.Run("last flag wins", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "")
		assert.Equal(t, "/2.json", ConfigFile([]string{"-c", "/1.json", "-config", "/2.json"}))
	})

	t.Run("falls back to environment", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "/env.json")
		assert.Equal(t, "/env.json", ConfigFile([]string{"-x", "1"}))
	})

	t.Run("flag beats environment", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "/env.json")
		assert.Equal(t, "/flag.json", ConfigFile([]string{"-c", "/flag.json"}))
	})

	t.Run("nothing set", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "")
		assert.Empty(t, ConfigFile(nil))
	})
}
