package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvHTTPAddr          = "HTTP_ADDR"
	EnvAppEnv            = "APP_ENV"
	EnvDatabaseDSN       = "DATABASE_DSN"
	EnvDatabaseMaxConns  = "DATABASE_MAX_CONNS"
	EnvSessionSecret     = "SESSION_SECRET"
	EnvSessionTTLSeconds = "SESSION_TTL_SECONDS"
	EnvS3AccessKeyID     = "S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "S3_SECRET_ACCESS_KEY"
	EnvS3Bucket          = "S3_BUCKET"
	EnvS3Region          = "S3_REGION"
	EnvS3BaseEndpoint    = "S3_BASE_ENDPOINT"
	EnvS3UsePathStyle    = "S3_USE_PATH_STYLE"
)

// readDotEnv returns the key/value pairs of a .env file, or nil when the
// file does not exist. The process environment is not modified.
func readDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return values, nil
}

// withFallback prefers the real environment and falls back to .env values.
func withFallback(lookup func(string) (string, bool), dotEnv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotEnv[key]
		return v, ok
	}
}

func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(EnvHTTPAddr, &config.HTTPAddr)
	str(EnvAppEnv, &config.Environment)
	str(EnvDatabaseDSN, &config.DatabaseDSN)
	str(EnvSessionSecret, &config.SessionSecret)
	str(EnvS3AccessKeyID, &config.S3AccessKeyID)
	str(EnvS3SecretAccessKey, &config.S3SecretAccessKey)
	str(EnvS3Bucket, &config.S3Bucket)
	str(EnvS3Region, &config.S3Region)
	str(EnvS3BaseEndpoint, &config.S3BaseEndpoint)

	if v, ok := lookup(EnvDatabaseMaxConns); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDatabaseMaxConns, err)
		}
		config.DatabaseMaxConns = n
	}

	if v, ok := lookup(EnvSessionTTLSeconds); ok && v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSessionTTLSeconds, err)
		}
		config.SessionTTL = time.Duration(seconds) * time.Second
	}

	if v, ok := lookup(EnvS3UsePathStyle); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvS3UsePathStyle, err)
		}
		config.S3UsePathStyle = b
	}

	return nil
}
