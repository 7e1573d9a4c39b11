package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Command          time.Duration // Default bound for a single remote command
	Apply            time.Duration // Bound for kubectl apply
	VolumeBound      time.Duration // Deadline for the volume claim to bind
	PodReady         time.Duration // Deadline for the workload pod to become Ready
	Import           time.Duration // Bound for the data import command
	PollInterval     time.Duration // Interval of the volume and readiness polls
	EndpointAttempts int           // Attempts to read the external endpoint
	EndpointInterval time.Duration // Interval between endpoint attempts
	DialTimeout      time.Duration // TCP dial timeout for the SSH connection
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - K8ZDB_TIMEOUT_COMMAND (default: 2m)
//   - K8ZDB_TIMEOUT_APPLY (default: 5m)
//   - K8ZDB_TIMEOUT_VOLUME_BOUND (default: 5m)
//   - K8ZDB_TIMEOUT_POD_READY (default: 10m)
//   - K8ZDB_TIMEOUT_IMPORT (default: 30m)
//   - K8ZDB_POLL_INTERVAL (default: 5s)
//   - K8ZDB_ENDPOINT_ATTEMPTS (default: 30)
//   - K8ZDB_ENDPOINT_INTERVAL (default: 10s)
//   - K8ZDB_TIMEOUT_DIAL (default: 10s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Command:          parseDuration("K8ZDB_TIMEOUT_COMMAND", 2*time.Minute),
		Apply:            parseDuration("K8ZDB_TIMEOUT_APPLY", 5*time.Minute),
		VolumeBound:      parseDuration("K8ZDB_TIMEOUT_VOLUME_BOUND", 5*time.Minute),
		PodReady:         parseDuration("K8ZDB_TIMEOUT_POD_READY", 10*time.Minute),
		Import:           parseDuration("K8ZDB_TIMEOUT_IMPORT", 30*time.Minute),
		PollInterval:     parseDuration("K8ZDB_POLL_INTERVAL", 5*time.Second),
		EndpointAttempts: parseInt("K8ZDB_ENDPOINT_ATTEMPTS", 30),
		EndpointInterval: parseDuration("K8ZDB_ENDPOINT_INTERVAL", 10*time.Second),
		DialTimeout:      parseDuration("K8ZDB_TIMEOUT_DIAL", 10*time.Second),
	}
}

// parseDuration parses a positive duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses a positive integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}

	return i
}
