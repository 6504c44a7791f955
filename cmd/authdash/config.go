package main

import (
	"os"
	"path/filepath"
)

// cliConfig is the environment layer of the CLI. Flags override every field.
type cliConfig struct {
	APIURL        string
	SessionStore  string
	SessionDir    string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
	LogLevel      string
}

const (
	DefaultAPIURL       = "http://localhost:5000"
	DefaultSessionStore = "file"
	DefaultRedisPrefix  = "authdash"
	DefaultLogLevel     = "warn"
)

func loadConfig(getenv func(string) string) cliConfig {
	return cliConfig{
		APIURL:        getEnvOrDefault(getenv, "AUTHDASH_API_URL", DefaultAPIURL),
		SessionStore:  getEnvOrDefault(getenv, "AUTHDASH_SESSION_STORE", DefaultSessionStore),
		SessionDir:    getEnvOrDefault(getenv, "AUTHDASH_SESSION_DIR", defaultSessionDir(getenv)),
		RedisAddr:     getenv("AUTHDASH_REDIS_ADDR"),
		RedisPassword: getenv("AUTHDASH_REDIS_PASSWORD"),
		RedisPrefix:   getEnvOrDefault(getenv, "AUTHDASH_REDIS_PREFIX", DefaultRedisPrefix),
		LogLevel:      getEnvOrDefault(getenv, "AUTHDASH_LOG_LEVEL", DefaultLogLevel),
	}
}

func defaultSessionDir(getenv func(string) string) string {
	home := getenv("HOME")
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		} else {
			home = os.TempDir()
		}
	}
	return filepath.Join(home, ".authdash")
}

func getEnvOrDefault(getenv func(string) string, key, defaultValue string) string {
	value := getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
