package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg := loadConfig(filepath.Join(t.TempDir(), "does-not-exist.ini"))

	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfigReadsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canbridgectl.ini")
	content := "[canbridgectl]\nport = /dev/ttyUSB0\nbaud = 2000000\nlog_level = debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := loadConfig(path)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.Equal(t, 2000000, cfg.Baud)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigPartialOverrideKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canbridgectl.ini")
	require.NoError(t, os.WriteFile(path, []byte("[canbridgectl]\nbaud = 57600\n"), 0o644))

	cfg := loadConfig(path)

	def := defaultConfig()
	assert.Equal(t, def.Port, cfg.Port)
	assert.Equal(t, 57600, cfg.Baud)
	assert.Equal(t, def.LogLevel, cfg.LogLevel)
}
