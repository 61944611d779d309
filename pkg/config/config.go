package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	StorageType string             `yaml:"storageType"`
	StoragePath string             `yaml:"storagePath"`
	HTTPPort    int                `yaml:"httpPort"`
	Transport   string             `yaml:"transport"`
	LogLevel    string             `yaml:"logLevel"`
	LogFormat   string             `yaml:"logFormat"`
	Verbosity   string             `yaml:"verbosity"`
	Sqlite      SqliteSettings     `yaml:"sqlite"`
	Validation  ValidationSettings `yaml:"validation"`
}

type SqliteSettings struct {
	WALMode bool `yaml:"walMode"`
}

// ValidationSettings carries policy knobs for the validation engine.
type ValidationSettings struct {
	// ArchivedContactIsError escalates a reference to an archived contact
	// from a warning to a hard validation error.
	ArchivedContactIsError bool `yaml:"archivedContactIsError"`
}

// Validate validates the configuration settings
func (s *Settings) Validate() error {
	// Validate LogLevel - must be one of [debug, info, warn, error] (case-insensitive)
	// Empty log level is allowed and will use default
	if s.LogLevel != "" {
		validLogLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		normalizedLogLevel := strings.ToLower(s.LogLevel)
		if !validLogLevels[normalizedLogLevel] {
			return fmt.Errorf("logLevel must be one of [debug, info, warn, error], got '%s'", s.LogLevel)
		}
		s.LogLevel = normalizedLogLevel
	}

	if s.LogFormat != "" {
		normalizedFormat := strings.ToLower(s.LogFormat)
		if normalizedFormat != "json" && normalizedFormat != "text" {
			return fmt.Errorf("logFormat must be one of [json, text], got '%s'", s.LogFormat)
		}
		s.LogFormat = normalizedFormat
	}

	// Validate StorageType - must be one of [memory, sqlite] (case-insensitive)
	validStorageTypes := map[string]bool{
		"memory": true,
		"sqlite": true,
		"":       true, // Empty defaults to memory
	}
	normalizedStorageType := strings.ToLower(s.StorageType)
	if !validStorageTypes[normalizedStorageType] {
		return fmt.Errorf("storageType must be one of [memory, sqlite], got '%s'", s.StorageType)
	}
	s.StorageType = normalizedStorageType

	// Validate Transport - stdio is the default
	validTransports := map[string]bool{
		"stdio": true,
		"http":  true,
		"":      true, // Empty defaults to stdio
	}
	normalizedTransport := strings.ToLower(s.Transport)
	if !validTransports[normalizedTransport] {
		return fmt.Errorf("transport must be one of [stdio, http], got '%s'", s.Transport)
	}
	s.Transport = normalizedTransport

	// Validate default Verbosity tier
	if s.Verbosity != "" {
		validVerbosity := map[string]bool{
			"silent":     true,
			"compact":    true,
			"diagnostic": true,
			"debug":      true,
		}
		normalizedVerbosity := strings.ToLower(s.Verbosity)
		if !validVerbosity[normalizedVerbosity] {
			return fmt.Errorf("verbosity must be one of [silent, compact, diagnostic, debug], got '%s'", s.Verbosity)
		}
		s.Verbosity = normalizedVerbosity
	}

	// Validate HTTPPort - must be a valid port number
	if s.HTTPPort < 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("httpPort must be between 0 and 65535, got %d", s.HTTPPort)
	}

	// Validate SQLite path - if storageType is sqlite, storagePath must not be empty
	if normalizedStorageType == "sqlite" && strings.TrimSpace(s.StoragePath) == "" {
		return fmt.Errorf("storagePath cannot be empty when storageType is sqlite")
	}

	return nil
}

func Load(path string) (*Settings, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var settings Settings
	err = yaml.Unmarshal(bytes, &settings)
	if err != nil {
		return nil, err
	}

	// Validate the configuration after unmarshaling
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &settings, nil
}

// Default returns settings used when no config file is supplied.
func Default() *Settings {
	return &Settings{
		StorageType: "memory",
		Transport:   "stdio",
		LogLevel:    "info",
		LogFormat:   "text",
		Verbosity:   "compact",
	}
}
