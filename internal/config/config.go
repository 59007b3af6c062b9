// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Gate    GateConfig
}

type ServerConfig struct {
	Port string
}

type StorageConfig struct {
	Type  string
	Redis RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// GateConfig agrega os parâmetros de runtime do gate de admissão.
// As políticas em si vivem no arquivo YAML (ver policies.go).
type GateConfig struct {
	PoliciesFile string
	FailOpen     bool
	StoreTimeout time.Duration
	LogLevel     string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	server := ServerConfig{Port: getEnv("SERVER_PORT", "8080")}

	storageType := getEnv("STORAGE_TYPE", "redis")

	redisConfig, err := buildRedisConfig()
	if err != nil {
		return Config{}, err
	}

	gateConfig, err := buildGateConfig()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Server: server,
		Storage: StorageConfig{
			Type:  storageType,
			Redis: redisConfig,
		},
		Gate: gateConfig,
	}, nil
}

func buildRedisConfig() (RedisConfig, error) {
	host := getEnv("REDIS_HOST", "localhost")
	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func buildGateConfig() (GateConfig, error) {
	failOpen, err := strconv.ParseBool(getEnv("RATE_LIMIT_FAIL_OPEN", "false"))
	if err != nil {
		return GateConfig{}, fmt.Errorf("invalid RATE_LIMIT_FAIL_OPEN: %w", err)
	}

	storeTimeout, err := time.ParseDuration(getEnv("RATE_LIMIT_STORE_TIMEOUT", "500ms"))
	if err != nil {
		return GateConfig{}, fmt.Errorf("invalid RATE_LIMIT_STORE_TIMEOUT: %w", err)
	}
	if storeTimeout <= 0 {
		return GateConfig{}, fmt.Errorf("RATE_LIMIT_STORE_TIMEOUT must be positive")
	}

	return GateConfig{
		PoliciesFile: getEnv("RATE_LIMIT_POLICIES_FILE", "policies.yaml"),
		FailOpen:     failOpen,
		StoreTimeout: storeTimeout,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
