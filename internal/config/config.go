package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string      `mapstructure:"port"`
	Env      string      `mapstructure:"env"`
	Model    ModelConfig `mapstructure:"model"`
	Store    StoreConfig `mapstructure:"store"`
	Cache    CacheConfig `mapstructure:"cache"`
	Analysis Analysis    `mapstructure:"analysis"`
}

type ModelConfig struct {
	// Provider is "gemini" or "fake".
	Provider string `mapstructure:"provider"`
	Name     string `mapstructure:"name"`
	APIKey   string `mapstructure:"api_key"`
	// RPS caps model calls per second; zero disables limiting.
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	// Backend is one of memory, file, s3, postgres.
	Backend    string   `mapstructure:"backend"`
	Dir        string   `mapstructure:"dir"`
	MaxEntries int      `mapstructure:"max_entries"`
	DSN        string   `mapstructure:"dsn"`
	S3         S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type CacheConfig struct {
	Entries int `mapstructure:"entries"`
}

// Load reads .env (if any), then the optional YAML file at path, then LENS_*
// environment overrides. Every field starts from its default.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port: ":8080",
		Env:  "local",
		Model: ModelConfig{
			Provider: "gemini",
			Name:     "gemini-2.5-flash",
			RPS:      1,
			Burst:    1,
			Timeout:  3 * time.Minute,
		},
		Store: StoreConfig{
			Backend:    "memory",
			Dir:        ".codelens/reports",
			MaxEntries: 256,
			S3: S3Config{
				Region: "us-east-1",
				Bucket: "codelens-reports",
				UseSSL: true,
			},
		},
		Cache:    CacheConfig{Entries: 128},
		Analysis: *Default(),
	}

	v := viper.New()
	v.SetEnvPrefix("LENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{
		"port", "env",
		"model.provider", "model.name", "model.api_key", "model.rps", "model.burst", "model.timeout",
		"store.backend", "store.dir", "store.max_entries", "store.dsn",
		"store.s3.endpoint", "store.s3.region", "store.s3.access_key", "store.s3.secret_key", "store.s3.bucket", "store.s3.use_ssl",
		"cache.entries",
		"analysis.retry.max_retries", "analysis.retry.backoff",
		"analysis.prompt.max_instruction_chars", "analysis.prompt.max_context_chars",
		"analysis.quality.pass_score",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if !strings.HasPrefix(cfg.Port, ":") && !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	cfg.Model.APIKey = firstNonEmpty(cfg.Model.APIKey, os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
	cfg.Store.DSN = firstNonEmpty(cfg.Store.DSN, os.Getenv("DATABASE_URL"))
	cfg.Store.S3.AccessKey = firstNonEmpty(cfg.Store.S3.AccessKey, os.Getenv("MINIO_ROOT_USER"))
	cfg.Store.S3.SecretKey = firstNonEmpty(cfg.Store.S3.SecretKey, os.Getenv("MINIO_ROOT_PASSWORD"))

	if err := cfg.Analysis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	return &cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
