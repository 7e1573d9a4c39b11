package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables carrying secrets.
const (
	EnvHCloudToken = "HCLOUD_TOKEN"
	EnvS3AccessKey = "K8ZDB_S3_ACCESS_KEY"
	EnvS3SecretKey = "K8ZDB_S3_SECRET_KEY"
	EnvStoreDSN    = "K8ZDB_STORE_DSN"
)

// Load reads, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses, defaults and validates a configuration.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// parseConfig rejects unknown fields so typos surface early.
func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.HCloudToken = os.Getenv(EnvHCloudToken)
	c.S3.AccessKey = os.Getenv(EnvS3AccessKey)
	c.S3.SecretKey = os.Getenv(EnvS3SecretKey)
	c.Store.DSN = os.Getenv(EnvStoreDSN)
}

// FindConfigFile looks for k8zdb.yaml in the current directory and its parents.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := cwd
	for {
		path := filepath.Join(dir, DefaultConfigFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("config file %s not found", DefaultConfigFilename)
}
