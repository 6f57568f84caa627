package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// StorageBackend selects the storage adapter used by Save.
type StorageBackend string

const (
	StorageLocal StorageBackend = "local"
	StorageS3    StorageBackend = "s3"
)

// Config is the top-level configuration struct.  All fields have safe defaults
// so callers can start with Default() and override only what they need.
type Config struct {
	// Batch worker pool size; 0 = runtime.NumCPU().
	Workers int `toml:"workers"`

	// Streaming / memory limits.
	MaxImageBytes int64 `toml:"max_image_bytes"` // 0 = no limit
	ChunkSize     int   `toml:"chunk_size"`      // read chunk size in bytes; default 32 KiB

	Pattern PatternConfig `toml:"pattern"`
	PNG     PNGConfig     `toml:"png"`

	// Storage.
	Storage StorageBackend `toml:"storage"`
	Local   LocalConfig    `toml:"local"`
	S3      S3Config       `toml:"s3"`

	LogLevel string `toml:"log_level"` // "debug", "info", "warn", "error"
}

// PatternConfig holds the stripe geometry of the pixel-pattern filter.
type PatternConfig struct {
	Period      int `toml:"period"`       // distance between stripe starts
	StripeWidth int `toml:"stripe_width"` // painted pixels per period
}

// PNGConfig controls the output encoder.
type PNGConfig struct {
	Compression string `toml:"compression"` // "default", "none", "speed", "best"
}

// LocalConfig configures the local filesystem storage adapter.
type LocalConfig struct {
	RootDir     string `toml:"root_dir"`
	Permissions uint32 `toml:"permissions"` // default 0644
}

// S3Config configures the S3-compatible storage adapter.
type S3Config struct {
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	Endpoint     string `toml:"endpoint"` // optional custom endpoint (MinIO, etc.)
	UsePathStyle bool   `toml:"use_path_style"`
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		Workers:   0, // resolved at runtime to NumCPU
		ChunkSize: 32 * 1024,
		Pattern: PatternConfig{
			Period:      4,
			StripeWidth: 1,
		},
		PNG:      PNGConfig{Compression: "default"},
		Storage:  StorageLocal,
		Local:    LocalConfig{Permissions: 0o644},
		LogLevel: "info",
	}
}

// Load overlays the TOML file at path on top of Default() and validates the
// result.  An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	fd, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer fd.Close()

	if err := toml.NewDecoder(fd).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, Validate(cfg)
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.Workers < 0 {
		return errors.New("config: Workers must not be negative")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	if c.MaxImageBytes < 0 {
		return errors.New("config: MaxImageBytes must not be negative")
	}
	if c.Pattern.Period <= 0 {
		return errors.New("config: Pattern.Period must be positive")
	}
	if c.Pattern.StripeWidth <= 0 || c.Pattern.StripeWidth > c.Pattern.Period {
		return errors.New("config: Pattern.StripeWidth must be between 1 and Pattern.Period")
	}
	switch c.PNG.Compression {
	case "", "default", "none", "speed", "best":
	default:
		return fmt.Errorf("config: unknown PNG.Compression %q", c.PNG.Compression)
	}
	switch c.Storage {
	case StorageLocal:
	case StorageS3:
		if c.S3.Bucket == "" {
			return errors.New("config: S3.Bucket is required with the s3 storage backend")
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage)
	}
	return nil
}
