package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
storageType: sqlite
storagePath: /tmp/ledger.db
transport: http
httpPort: 9090
logLevel: debug
logFormat: json
verbosity: diagnostic
sqlite:
  walMode: true
validation:
  archivedContactIsError: true
`)

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", settings.StorageType)
	assert.Equal(t, "/tmp/ledger.db", settings.StoragePath)
	assert.Equal(t, "http", settings.Transport)
	assert.Equal(t, 9090, settings.HTTPPort)
	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, "json", settings.LogFormat)
	assert.Equal(t, "diagnostic", settings.Verbosity)
	assert.True(t, settings.Sqlite.WALMode)
	assert.True(t, settings.Validation.ArchivedContactIsError)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYaml(t *testing.T) {
	path := writeConfig(t, "storageType: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateNormalizesCase(t *testing.T) {
	s := &Settings{
		StorageType: "SQLite",
		StoragePath: "/tmp/x.db",
		Transport:   "HTTP",
		LogLevel:    "WARN",
		LogFormat:   "JSON",
		Verbosity:   "Debug",
	}
	require.NoError(t, s.Validate())
	assert.Equal(t, "sqlite", s.StorageType)
	assert.Equal(t, "http", s.Transport)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, "json", s.LogFormat)
	assert.Equal(t, "debug", s.Verbosity)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{"bad log level", Settings{LogLevel: "verbose"}},
		{"bad log format", Settings{LogFormat: "xml"}},
		{"bad storage type", Settings{StorageType: "postgres"}},
		{"bad transport", Settings{Transport: "grpc"}},
		{"bad verbosity", Settings{Verbosity: "loud"}},
		{"negative port", Settings{HTTPPort: -1}},
		{"port too large", Settings{HTTPPort: 70000}},
		{"sqlite without path", Settings{StorageType: "sqlite"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.settings.Validate())
		})
	}
}

func TestValidateAllowsEmptySettings(t *testing.T) {
	s := &Settings{}
	assert.NoError(t, s.Validate())
}

func TestDefault(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, "memory", s.StorageType)
	assert.Equal(t, "stdio", s.Transport)
	assert.Equal(t, "compact", s.Verbosity)
	assert.False(t, s.Validation.ArchivedContactIsError)
}
