package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`
	Database struct {
		Path string `toml:"path"`
	} `toml:"database"`
	Remote struct {
		// DSN of the hosted Postgres store; empty runs the app offline
		// against the in-memory gateway.
		DSN string `toml:"dsn"`
	} `toml:"remote"`
	Identity struct {
		UserID string `toml:"user_id"`
	} `toml:"identity"`
}

const defaultConfigPath = "~/.config/rutina/config.toml"

// Load reads the TOML config file (missing file is fine, defaults apply) and
// then lets environment variables override individual fields.
func Load(path string) (*Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Database.Path = defaultDBPath()

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// no file, defaults + env only
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.Remote.DSN = getEnv("REMOTE_DSN", cfg.Remote.DSN)
	cfg.Identity.UserID = getEnv("RUTINA_USER_ID", cfg.Identity.UserID)

	log.Printf("✅ Config loaded: port=%s db=%s remote=%v",
		cfg.Server.Port, cfg.Database.Path, cfg.Remote.DSN != "")

	return cfg, nil
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "rutina.db"
	}
	return filepath.Join(dir, "rutina", "rutina.db")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultConfigPath
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
