package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Favorites backends
const (
	FavoritesMemory   = "memory"
	FavoritesFile     = "file"
	FavoritesPostgres = "postgres"
)

// Permission modes
const (
	PermissionNone = "none"
	PermissionUnix = "unix"
)

// Config holds the runtime configuration of the browser.
type Config struct {
	ServerPort  string
	CORSOrigins []string

	LogLevel  string
	LogFormat string

	// StorageRoot is the directory whose children are scanned for removable mounts.
	StorageRoot string
	// ExternalDirs is the platform's external storage directory list.
	ExternalDirs []string

	PermissionMode string

	FavoritesBackend string
	FavoritesFile    string
	DatabaseURL      string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:       envOr("SERVER_PORT", "8080"),
		CORSOrigins:      splitList(envOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173,http://localhost:5174"), ","),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogFormat:        envOr("LOG_FORMAT", "console"),
		StorageRoot:      envOr("AUDIONAV_STORAGE_ROOT", "/storage"),
		ExternalDirs:     externalDirs(),
		PermissionMode:   envOr("AUDIONAV_PERMISSION_MODE", PermissionNone),
		FavoritesBackend: envOr("AUDIONAV_FAVORITES_BACKEND", FavoritesFile),
		FavoritesFile:    envOr("AUDIONAV_FAVORITES_FILE", defaultFavoritesFile()),
		DatabaseURL:      envOr("DATABASE_URL", ""),
	}

	switch cfg.FavoritesBackend {
	case FavoritesMemory, FavoritesFile:
	case FavoritesPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s favorites backend", FavoritesPostgres)
		}
	default:
		return nil, fmt.Errorf("unknown favorites backend %q", cfg.FavoritesBackend)
	}

	switch cfg.PermissionMode {
	case PermissionNone, PermissionUnix:
	default:
		return nil, fmt.Errorf("unknown permission mode %q", cfg.PermissionMode)
	}

	return cfg, nil
}

// externalDirs prefers an explicit list and falls back to the variables Android exports.
func externalDirs() []string {
	if v := os.Getenv("AUDIONAV_EXTERNAL_DIRS"); v != "" {
		return splitList(v, ":")
	}

	var dirs []string
	dirs = append(dirs, splitList(os.Getenv("EXTERNAL_STORAGE"), ":")...)
	dirs = append(dirs, splitList(os.Getenv("SECONDARY_STORAGE"), ":")...)
	return dirs
}

// defaultFavoritesFile returns the path of the favorites file in the user's home directory
func defaultFavoritesFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if can't get home dir
		return filepath.Join(".", ".audionav-favorites.json")
	}
	return filepath.Join(homeDir, ".audionav-favorites.json")
}

func splitList(v, sep string) []string {
	var out []string
	for _, part := range strings.Split(v, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
