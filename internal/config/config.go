package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	// server config
	APP_PORT string
	// database config
	DB_DRIVER            string
	DB_DSN               string
	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_CONN_MAX_LIFETIME time.Duration
	DB_MAX_IDLE_CONNS    int
	DB_MAX_OPEN_CONNS    int
	DB_QUERY_TIMEOUT     time.Duration
	DB_AUTO_MIGRATE      bool
	// logger config
	LOG_LEVEL        string
	LOG_FILE_PATH    string
	LOG_MAX_SIZE_MB  int
	LOG_MAX_BACKUPS  int
	LOG_MAX_AGE_DAYS int
	// search index config, empty URL disables the index
	ELASTIC_URL   string
	ELASTIC_INDEX string
	// export config
	EXPORT_CONFIG_PATH string
}

// Load reads an optional .env file from the working directory and then the
// process environment. A missing .env file is not an error.
func Load(files ...string) (*EnvConfig, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &EnvConfig{
		APP_PORT:             getEnvString("APP_PORT", "8080"),
		DB_DRIVER:            strings.ToLower(getEnvString("DB_DRIVER", "postgres")),
		DB_DSN:               getEnvString("DB_DSN", ""),
		DB_HOST:              getEnvString("DB_HOST", "localhost"),
		DB_PORT:              getEnvInt("DB_PORT", 5432),
		DB_USER:              getEnvString("DB_USER", "postgres"),
		DB_PASSWORD:          getEnvString("DB_PASSWORD", "postgres"),
		DB_NAME:              getEnvString("DB_NAME", "school"),
		DB_SSL_MODE:          getEnvString("DB_SSL_MODE", "disable"),
		DB_CONN_MAX_LIFETIME: getEnvDuration("DB_CONN_MAX_LIFETIME", 20*time.Minute),
		DB_MAX_IDLE_CONNS:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DB_MAX_OPEN_CONNS:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
		DB_QUERY_TIMEOUT:     getEnvDuration("DB_QUERY_TIMEOUT", 5*time.Second),
		DB_AUTO_MIGRATE:      getEnvBool("DB_AUTO_MIGRATE", true),
		LOG_LEVEL:            getEnvString("LOG_LEVEL", "info"),
		LOG_FILE_PATH:        getEnvString("LOG_FILE_PATH", ""),
		LOG_MAX_SIZE_MB:      getEnvInt("LOG_MAX_SIZE_MB", 50),
		LOG_MAX_BACKUPS:      getEnvInt("LOG_MAX_BACKUPS", 5),
		LOG_MAX_AGE_DAYS:     getEnvInt("LOG_MAX_AGE_DAYS", 30),
		ELASTIC_URL:          getEnvString("ELASTIC_URL", ""),
		ELASTIC_INDEX:        getEnvString("ELASTIC_INDEX", "teachers"),
		EXPORT_CONFIG_PATH:   getEnvString("EXPORT_CONFIG_PATH", ""),
	}, nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
