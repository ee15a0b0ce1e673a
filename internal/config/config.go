package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Database DatabaseConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
}

// StorageConfig governs the key-value medium behind the legacy and keyed
// stores.
type StorageConfig struct {
	// Medium is "file" (default) or "redis".
	Medium string
	// RootDir is the file medium's directory.
	RootDir string
	// CapacityBytes caps the file medium's total size; 0 means unlimited.
	CapacityBytes int64
	RedisURL      string
}

// DatabaseConfig governs the transactional store.
type DatabaseConfig struct {
	// Driver is "sqlite" (default, embedded) or "postgres".
	Driver string
	// SqlitePath is the database file for the sqlite driver.
	SqlitePath string
	// Connection is the postgres DSN.
	Connection string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
		},
		Storage: StorageConfig{
			Medium:        getEnv("STORAGE_MEDIUM", "file"),
			RootDir:       getEnv("STORAGE_ROOT_DIR", "./data/kv"),
			CapacityBytes: getEnvAsInt64("STORAGE_CAPACITY_BYTES", 0),
			RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "sqlite"),
			SqlitePath: getEnv("DB_SQLITE_PATH", "./data/notes.db"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}
