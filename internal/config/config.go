package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir     string
	JSONPath    string
	XLSXPath    string
	DBPath      string
	OutputDir   string
	FrontendDir string
	RulesPath   string

	DatasetKind         string
	DatasetURL          string
	DatasetToken        string
	DatasetRateLimitRPS int
	DatasetTimeoutMs    int

	HTTPAddr            string
	HTTPReadTimeoutSec  int
	HTTPWriteTimeoutSec int

	ReloadWatch       bool
	ReloadIntervalSec int

	LogLevel string
	LogFile  string
	LogJSON  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	dataDir := getEnv("DATA_DIR", filepath.Join(cwd, "data"))
	cfg := Config{
		DataDir:     dataDir,
		JSONPath:    getEnv("JSON_PATH", filepath.Join(dataDir, "mech.json")),
		XLSXPath:    getEnv("XLSX_PATH", filepath.Join(dataDir, "Mechanisms_Data.xlsx")),
		DBPath:      getEnv("DB_PATH", filepath.Join(dataDir, "app.db")),
		OutputDir:   getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		FrontendDir: getEnv("FRONTEND_DIR", filepath.Join(cwd, "frontend")),
		RulesPath:   getEnv("RULES_PATH", ""),

		DatasetKind:         strings.ToLower(strings.TrimSpace(getEnv("DATASET_KIND", "json"))),
		DatasetURL:          getEnv("DATASET_URL", ""),
		DatasetToken:        getEnv("DATASET_TOKEN", ""),
		DatasetRateLimitRPS: getEnvInt("DATASET_RATE_LIMIT_RPS", 5),
		DatasetTimeoutMs:    getEnvInt("DATASET_TIMEOUT_MS", 30000),

		HTTPAddr:            getEnv("HTTP_ADDR", "127.0.0.1:8000"),
		HTTPReadTimeoutSec:  getEnvInt("HTTP_READ_TIMEOUT_SEC", 15),
		HTTPWriteTimeoutSec: getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 30),

		ReloadWatch:       getEnvBool("RELOAD_WATCH", true),
		ReloadIntervalSec: getEnvInt("RELOAD_INTERVAL_SEC", 60),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
		LogJSON:  getEnvBool("LOG_JSON", true),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// DatasetPath is the local file backing the configured dataset kind, or "" for remote.
func (c Config) DatasetPath() string {
	switch c.DatasetKind {
	case "xlsx":
		return c.XLSXPath
	case "sqlite":
		return c.DBPath
	case "remote":
		return ""
	default:
		return c.JSONPath
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
