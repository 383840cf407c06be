package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string
	MongoURI        string
	DBName          string
	JWTSecret       string
	S3Bucket        string
	S3Region        string
	S3AccessKeyID   string
	S3SecretKey     string
	RedisAddr       string // empty disables the catalog cache
	CatalogAPIKey   string
	CatalogRPS      float64
	CatalogCacheTTL time.Duration
	MaxAvatarMB     int64
	LogLevel        string
	CORSOrigins     []string
}

const defaultJWTSecret = "change-me-in-production"

// Load reads configuration from the environment and, if CONFIG_FILE is set, from
// that file. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DB", "shelfmates")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("CATALOG_RPS", 5.0)
	v.SetDefault("CATALOG_CACHE_TTL", "10m")
	v.SetDefault("MAX_AVATAR_MB", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "*")

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Port:            v.GetString("PORT"),
		MongoURI:        v.GetString("MONGODB_URI"),
		DBName:          v.GetString("MONGODB_DB"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		S3Bucket:        v.GetString("AWS_S3_BUCKET"),
		S3Region:        v.GetString("AWS_REGION"),
		S3AccessKeyID:   v.GetString("AWS_ACCESS_KEY_ID"),
		S3SecretKey:     v.GetString("AWS_SECRET_ACCESS_KEY"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		CatalogAPIKey:   v.GetString("CATALOG_API_KEY"),
		CatalogRPS:      v.GetFloat64("CATALOG_RPS"),
		CatalogCacheTTL: v.GetDuration("CATALOG_CACHE_TTL"),
		MaxAvatarMB:     v.GetInt64("MAX_AVATAR_MB"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.MongoURI == "" || c.DBName == "" {
		return fmt.Errorf("MONGODB_URI and MONGODB_DB are required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.MaxAvatarMB <= 0 {
		return fmt.Errorf("MAX_AVATAR_MB must be positive (got %d)", c.MaxAvatarMB)
	}
	if c.CatalogRPS < 0 {
		return fmt.Errorf("CATALOG_RPS must not be negative")
	}
	return nil
}

// InsecureJWTSecret reports whether the JWT secret is still the shipped default.
func (c *Config) InsecureJWTSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
