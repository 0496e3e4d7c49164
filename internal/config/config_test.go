package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Port)
	assert.Nil(t, cfg.Defaults.MemoryThreshold)
}

func TestLoadFile_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[defaults]
port = 9090
memory_threshold = "256M"
force_disk = true
index_dir = "/var/cache/lineserve"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.Port)
	assert.Equal(t, 9090, *cfg.Defaults.Port)
	require.NotNil(t, cfg.Defaults.MemoryThreshold)
	assert.Equal(t, "256M", *cfg.Defaults.MemoryThreshold)
	require.NotNil(t, cfg.Defaults.ForceDisk)
	assert.True(t, *cfg.Defaults.ForceDisk)
	require.NotNil(t, cfg.Defaults.IndexDir)
	assert.Equal(t, "/var/cache/lineserve", *cfg.Defaults.IndexDir)
	assert.Nil(t, cfg.Defaults.Addr)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[defaults\nport="), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"100", 100, false},
		{"100B", 100, false},
		{"1K", 1024, false},
		{"1k", 1024, false},
		{"512M", 512 * 1024 * 1024, false},
		{"2G", 2 * 1024 * 1024 * 1024, false},
		{"1T", 1024 * 1024 * 1024 * 1024, false},
		{"1.5K", 1536, false},
		{" 10M ", 10 * 1024 * 1024, false},
		{"", 0, true},
		{"abc", 0, true},
		{"M", 0, true},
		{"-5M", 0, true},
		{"-1", 0, true},
		{"-0.5K", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseSize(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseSize(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseSize(%q)", tt.in)
	}
}
