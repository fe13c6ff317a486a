package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUDIONAV_STORAGE_ROOT", "")
	t.Setenv("AUDIONAV_FAVORITES_BACKEND", "")
	t.Setenv("AUDIONAV_PERMISSION_MODE", "")
	t.Setenv("AUDIONAV_EXTERNAL_DIRS", "")
	t.Setenv("EXTERNAL_STORAGE", "")
	t.Setenv("SECONDARY_STORAGE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/storage", cfg.StorageRoot)
	assert.Equal(t, FavoritesFile, cfg.FavoritesBackend)
	assert.Equal(t, PermissionNone, cfg.PermissionMode)
	assert.Empty(t, cfg.ExternalDirs)
	assert.NotEmpty(t, cfg.FavoritesFile)
}

func TestExternalDirs(t *testing.T) {
	tests := []struct {
		name      string
		explicit  string
		external  string
		secondary string
		expected  []string
	}{
		{
			name:     "explicit list wins",
			explicit: "/storage/emulated/0/Android/data/x/files:/storage/ABCD-1234/Android/data/x/files",
			external: "/sdcard",
			expected: []string{"/storage/emulated/0/Android/data/x/files", "/storage/ABCD-1234/Android/data/x/files"},
		},
		{
			name:      "android variables",
			external:  "/storage/emulated/0",
			secondary: "/storage/1A2B-3C4D: /storage/5E6F-7A8B",
			expected:  []string{"/storage/emulated/0", "/storage/1A2B-3C4D", "/storage/5E6F-7A8B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUDIONAV_EXTERNAL_DIRS", tt.explicit)
			t.Setenv("EXTERNAL_STORAGE", tt.external)
			t.Setenv("SECONDARY_STORAGE", tt.secondary)

			assert.Equal(t, tt.expected, externalDirs())
		})
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Run("postgres without database url", func(t *testing.T) {
		t.Setenv("AUDIONAV_FAVORITES_BACKEND", FavoritesPostgres)
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("AUDIONAV_FAVORITES_BACKEND", "redis")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown permission mode", func(t *testing.T) {
		t.Setenv("AUDIONAV_FAVORITES_BACKEND", FavoritesMemory)
		t.Setenv("AUDIONAV_PERMISSION_MODE", "android")
		_, err := Load()
		assert.Error(t, err)
	})
}
