package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Backend names accepted by STORAGE_BACKEND and BLOB_BACKEND.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendS3     = "s3"
)

type Config struct {
	Port           string        `env:"PORT,            default=8080"`
	Env            string        `env:"ENV,             default=development"`
	LogLevel       string        `env:"LOG_LEVEL,       default=info"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,       default=24h"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=30s"`

	StorageBackend string `env:"STORAGE_BACKEND, default=mongo"`
	BlobBackend    string `env:"BLOB_BACKEND,    default=s3"`

	Lock  LockConfig
	Trash TrashConfig
	Mongo MongoConfig
	Redis RedisConfig
	S3    S3Config
}

type LockConfig struct {
	Wait time.Duration `env:"LOCK_WAIT, default=5s"`
	TTL  time.Duration `env:"LOCK_TTL,  default=30s"`
}

type TrashConfig struct {
	Async   bool `env:"ATTACHMENT_ASYNC_TRASH, default=false"`
	Workers int  `env:"TRASH_WORKERS,          default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=logbook"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type S3Config struct {
	Bucket        string `env:"S3_BUCKET,          default=logbook"`
	Region        string `env:"S3_REGION,          default=us-east-1"`
	Endpoint      string `env:"S3_ENDPOINT"`
	AccessKey     string `env:"S3_ACCESS_KEY"`
	SecretKey     string `env:"S3_SECRET_KEY"`
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
	TrashPrefix   string `env:"S3_TRASH_PREFIX,    default=trash"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, nil)
}

// load reads from lookuper, or from the process environment when it is nil.
func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	ec := &envconfig.Config{Target: &cfg, Lookuper: lookuper}
	if lookuper == nil {
		ec.Lookuper = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, ec); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StorageBackend {
	case BackendMongo, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendMongo, BackendMemory, c.StorageBackend))
	}
	switch c.BlobBackend {
	case BackendS3, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("BLOB_BACKEND must be %q or %q, got %q", BackendS3, BackendMemory, c.BlobBackend))
	}
	if c.BlobBackend == BackendS3 && c.S3.Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required for the s3 blob backend"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
