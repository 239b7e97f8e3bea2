package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/funnel/internal/flagx"
	"github.com/dmitrijs2005/funnel/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
//
// Keys absent from the file keep the value they had before the overlay.
type FileConfig struct {
	DatabaseDSN    string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey      string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenTTL timex.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	AnchorTTL      timex.Duration `json:"anchor_ttl" yaml:"anchor_ttl"`
	LogLevel       string         `json:"log_level" yaml:"log_level"`
	LogFormat      string         `json:"log_format" yaml:"log_format"`
	KafkaBrokers   []string       `json:"kafka_brokers" yaml:"kafka_brokers"`
	KafkaTopic     string         `json:"kafka_topic" yaml:"kafka_topic"`
	S3Bucket       string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3AccessKey    string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey    string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Prefix       string         `json:"s3_prefix" yaml:"s3_prefix"`
}

// parseFile overlays the file named by -c/-config onto config. The format
// follows the extension: .yaml/.yml is YAML, anything else JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	fc := fromConfig(config)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func fromConfig(c *Config) *FileConfig {
	return &FileConfig{
		DatabaseDSN:    c.DatabaseDSN,
		SecretKey:      c.SecretKey,
		AccessTokenTTL: timex.Duration{Duration: c.AccessTokenTTL},
		AnchorTTL:      timex.Duration{Duration: c.AnchorTTL},
		LogLevel:       c.LogLevel,
		LogFormat:      c.LogFormat,
		KafkaBrokers:   c.KafkaBrokers,
		KafkaTopic:     c.KafkaTopic,
		S3Bucket:       c.S3Bucket,
		S3Region:       c.S3Region,
		S3BaseEndpoint: c.S3BaseEndpoint,
		S3AccessKey:    c.S3AccessKey,
		S3SecretKey:    c.S3SecretKey,
		S3Prefix:       c.S3Prefix,
	}
}

func (fc *FileConfig) apply(c *Config) {
	c.DatabaseDSN = fc.DatabaseDSN
	c.SecretKey = fc.SecretKey
	c.AccessTokenTTL = fc.AccessTokenTTL.Duration
	c.AnchorTTL = fc.AnchorTTL.Duration
	c.LogLevel = fc.LogLevel
	c.LogFormat = fc.LogFormat
	c.KafkaBrokers = fc.KafkaBrokers
	c.KafkaTopic = fc.KafkaTopic
	c.S3Bucket = fc.S3Bucket
	c.S3Region = fc.S3Region
	c.S3BaseEndpoint = fc.S3BaseEndpoint
	c.S3AccessKey = fc.S3AccessKey
	c.S3SecretKey = fc.S3SecretKey
	c.S3Prefix = fc.S3Prefix
}
