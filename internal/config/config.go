package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort                = 3000
	defaultUploadDir           = "uploads"
	defaultMaxConcurrentWrites = 8
	defaultLogLevel            = "info"
	defaultS3Region            = "us-east-1"
	compressDirSuffix          = "-compressed"

	BackendFS = "fs"
	BackendS3 = "s3"
)

// Config describes runtime configuration for the service.
type Config struct {
	Port                int     `yaml:"port"`
	UploadDir           string  `yaml:"upload_dir"`
	MaxConcurrentWrites int     `yaml:"max_concurrent_writes"`
	Compress            bool    `yaml:"compress"`
	CompressDir         string  `yaml:"compress_dir"`
	LogLevel            string  `yaml:"log_level"`
	Storage             Storage `yaml:"storage"`
}

type Storage struct {
	Backend string   `yaml:"backend"`
	S3      S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
}

func Default() Config {
	return Config{
		Port:                defaultPort,
		UploadDir:           defaultUploadDir,
		MaxConcurrentWrites: defaultMaxConcurrentWrites,
		LogLevel:            defaultLogLevel,
		Storage: Storage{
			Backend: BackendFS,
			S3:      S3Config{Region: defaultS3Region},
		},
	}
}

// Path returns the config file location, honouring CONFIG_PATH.
func Path(fallback string) string {
	if v := strings.TrimSpace(os.Getenv("CONFIG_PATH")); v != "" {
		return v
	}
	return fallback
}

// Load reads YAML config from the provided path and applies ENV overrides.
// If the file does not exist or is empty, defaults are used.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("empty config path")
	}
	fileData, err := os.ReadFile(path) //nolint:gosec // config path is controlled by deployment
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(fileData) > 0 {
		if err := yaml.Unmarshal(fileData, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PORT: %w", err)
		}
		cfg.Port = port
	}
	overrides := map[string]*string{
		"UPLOAD_DIR":      &cfg.UploadDir,
		"COMPRESS_DIR":    &cfg.CompressDir,
		"LOG_LEVEL":       &cfg.LogLevel,
		"STORAGE_BACKEND": &cfg.Storage.Backend,
		"S3_BUCKET":       &cfg.Storage.S3.Bucket,
		"S3_REGION":       &cfg.Storage.S3.Region,
		"S3_ENDPOINT":     &cfg.Storage.S3.Endpoint,
		"S3_ACCESS_KEY":   &cfg.Storage.S3.AccessKey,
		"S3_SECRET_KEY":   &cfg.Storage.S3.SecretKey,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
	return nil
}

func normalize(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.UploadDir) == "" {
		cfg.UploadDir = defaultUploadDir
	}
	// gzip copies never share a directory with uploads
	if strings.TrimSpace(cfg.CompressDir) == "" {
		cfg.CompressDir = filepath.Clean(cfg.UploadDir) + compressDirSuffix
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFS
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = defaultS3Region
	}
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	// values < 1 are not allowed
	if c.MaxConcurrentWrites < 1 {
		return fmt.Errorf("invalid max_concurrent_writes: %d (must be >= 1)", c.MaxConcurrentWrites)
	}
	switch c.Storage.Backend {
	case BackendFS:
		if c.Compress && filepath.Clean(c.CompressDir) == filepath.Clean(c.UploadDir) {
			return errors.New("compress_dir must differ from upload_dir")
		}
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
	return nil
}
