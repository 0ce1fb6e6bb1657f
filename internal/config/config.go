package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	Server    ServerConfig              `json:"server"`
	Databases map[string]DatabaseConfig `json:"databases"`
	Redis     RedisConfig               `json:"redis"`
	Gemini    GeminiConfig              `json:"gemini"`
}

type ServerConfig struct {
	Address  string `json:"address"`
	Database string `json:"database"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type GeminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// Load reads configuration from the provided path (defaults to config.json).
// The Gemini API key may also come from the GEMINI_API_KEY environment
// variable, which takes precedence over the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.Database == "" {
		cfg.Server.Database = "sqlite"
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini api key must be configured")
	}

	dbCfg, ok := cfg.Databases[cfg.Server.Database]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", cfg.Server.Database)
	}
	if cfg.Server.Database == "sqlite" && dbCfg.DSN != "" && !filepath.IsAbs(dbCfg.DSN) {
		dbCfg.DSN = filepath.Join(filepath.Dir(absPath), dbCfg.DSN)
		cfg.Databases[cfg.Server.Database] = dbCfg
	}

	return &cfg, nil
}
