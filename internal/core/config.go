// Package core holds shared configuration for the gaanatag service.
package core

import (
	"errors"
	"time"
)

type Config struct {
	Gaana  GaanaConfig
	Server ServerConfig
	Store  StoreConfig
	Log    LogConfig
}

type GaanaConfig struct {
	// BaseURL is the root of the catalog API, e.g. "https://gaana-api.example.com".
	BaseURL string
	// SourceWeight is the penalty the host's candidate scoring applies
	// to records from this source.
	SourceWeight float64
	// Timeout bounds every outbound HTTP request.
	Timeout time.Duration
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StoreConfig struct {
	// Path is the sqlite database file for imported playlist songs.
	Path string
	// MaxSongs bounds the in-memory dedup store.
	MaxSongs int
	// BloomFalsePositiveRate tunes the dedup store's Bloom filter.
	BloomFalsePositiveRate float64
}

type LogConfig struct {
	Level  string
	Format string
}

func DefaultConfig() *Config {
	return &Config{
		Gaana: GaanaConfig{
			SourceWeight: 0.5,
			Timeout:      30 * time.Second,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path:                   "./gaanatag.db",
			MaxSongs:               10000,
			BloomFalsePositiveRate: 0.001,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Gaana.BaseURL == "" {
		return errors.New("gaana base URL is required")
	}
	return nil
}
