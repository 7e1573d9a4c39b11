package config

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.validateHost(); err != nil {
		return fmt.Errorf("host validation failed: %w", err)
	}

	if !path.IsAbs(c.RemoteDir) {
		return fmt.Errorf("remoteDir must be an absolute path, got %q", c.RemoteDir)
	}
	if errs := validation.IsDNS1123Label(c.DefaultNamespace); len(errs) > 0 {
		return fmt.Errorf("defaultNamespace %q is invalid: %s", c.DefaultNamespace, strings.Join(errs, "; "))
	}

	if c.Limits.MaxReplicas < 1 {
		return fmt.Errorf("limits.maxReplicas must be at least 1, got %d", c.Limits.MaxReplicas)
	}
	if c.Limits.MaxCapacityGi < 1 {
		return fmt.Errorf("limits.maxCapacityGi must be at least 1, got %d", c.Limits.MaxCapacityGi)
	}

	if c.Identity.Length < 4 || c.Identity.Length > 32 {
		return fmt.Errorf("identity.length must be between 4 and 32, got %d", c.Identity.Length)
	}
	if c.Identity.MaxAttempts < 1 {
		return fmt.Errorf("identity.maxAttempts must be at least 1, got %d", c.Identity.MaxAttempts)
	}

	if c.S3.Enabled() && (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
		return fmt.Errorf("%s and %s must be set together", EnvS3AccessKey, EnvS3SecretKey)
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver %s requires %s", StorePostgres, EnvStoreDSN)
		}
	default:
		return fmt.Errorf("unknown store driver %q (supported: %s, %s)", c.Store.Driver, StoreMemory, StorePostgres)
	}

	return nil
}

func (c *Config) validateHost() error {
	h := c.Host
	if h.Name == "" {
		return errors.New("host.name is required")
	}
	switch h.Source {
	case SourceStatic:
		if h.Address == "" {
			return errors.New("host.address is required for static hosts")
		}
	case SourceHCloud:
		if c.HCloudToken == "" {
			return fmt.Errorf("%s is required for hcloud hosts", EnvHCloudToken)
		}
	default:
		return fmt.Errorf("unknown host.source %q (supported: %s, %s)", h.Source, SourceStatic, SourceHCloud)
	}
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("host.port %d is out of range", h.Port)
	}
	if h.PrivateKeyPath == "" {
		return errors.New("host.privateKeyPath is required")
	}
	if h.DialRetries < 0 {
		return fmt.Errorf("host.dialRetries cannot be negative, got %d", h.DialRetries)
	}
	return nil
}
