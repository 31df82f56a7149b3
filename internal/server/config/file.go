package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bridgeclub/clubhouse/internal/flagx"
	"github.com/bridgeclub/clubhouse/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration file, JSON or YAML.
// Absent fields leave the current value untouched.
type FileConfig struct {
	HTTPAddr          *string         `json:"http_addr" yaml:"http_addr"`
	Environment       *string         `json:"environment" yaml:"environment"`
	DatabaseDSN       *string         `json:"database_dsn" yaml:"database_dsn"`
	DatabaseMaxConns  *int            `json:"database_max_conns" yaml:"database_max_conns"`
	SessionSecret     *string         `json:"session_secret" yaml:"session_secret"`
	SessionTTL        *timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	S3AccessKeyID     *string         `json:"s3_access_key_id" yaml:"s3_access_key_id"`
	S3SecretAccessKey *string         `json:"s3_secret_access_key" yaml:"s3_secret_access_key"`
	S3Bucket          *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region          *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3UsePathStyle    *bool           `json:"s3_use_path_style" yaml:"s3_use_path_style"`
}

// parseFile overlays values from the file given with -c or -config. Files
// ending in .yaml or .yml are read as YAML, anything else as JSON. Without
// either flag nothing is loaded.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &FileConfig{}
	unmarshal := json.Unmarshal
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	}
	if err := unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.Environment, c.Environment)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.DatabaseMaxConns != nil {
		config.DatabaseMaxConns = *c.DatabaseMaxConns
	}
	setString(&config.SessionSecret, c.SessionSecret)
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	setString(&config.S3AccessKeyID, c.S3AccessKeyID)
	setString(&config.S3SecretAccessKey, c.S3SecretAccessKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.S3UsePathStyle != nil {
		config.S3UsePathStyle = *c.S3UsePathStyle
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
