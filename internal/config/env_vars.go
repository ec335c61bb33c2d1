package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar     = "PORT"
	hostEnvVar     = "HOST"
	appNameVar     = "APP_NAME"
	logLevelEnvVar = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// GetPort returns the listen address. A bare or colon prefixed port is bound to HOST, which
// defaults to loopback; set HOST=0.0.0.0 or a full host:port to listen on other interfaces.
func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8090")
	if strings.LastIndex(port, ":") > 0 {
		return port
	}
	return net.JoinHostPort(GetEnv(hostEnvVar, "127.0.0.1"), strings.TrimPrefix(port, ":"))
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Star Console")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvDuration parses a Go duration string (e.g. "45s"), falling back to defaultValue when unset or invalid.
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func GetEnvInt(envVar string, defaultValue int) int {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
