package config

import (
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	API
	Session
	Storage
}

// New loads an optional .env file and returns the environment backed configuration.
func New() Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
	return mainConfig{}
}
