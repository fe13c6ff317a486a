package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"audionav/types"

	"github.com/spf13/afero"
)

// FileFavorites persists pins as a JSON document.
type FileFavorites struct {
	fs   afero.Fs
	path string

	mu      sync.Mutex
	records []favoriteRecord
}

// NewFileFavorites loads the favorites file at path, treating a missing file as empty.
func NewFileFavorites(fs afero.Fs, path string) (*FileFavorites, error) {
	f := &FileFavorites{fs: fs, path: path}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("read favorites: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &f.records); err != nil {
			return nil, fmt.Errorf("parse favorites %s: %w", path, err)
		}
	}
	return f, nil
}

// Get implements FavoritesStore.
func (f *FileFavorites) Get(_ context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return indexOfRecord(f.records, normalizeFavoritePath(path)) >= 0, nil
}

// Set implements FavoritesStore. The file is rewritten on every change.
func (f *FileFavorites) Set(_ context.Context, entry types.Entry, pinned bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := applyPin(append([]favoriteRecord(nil), f.records...), recordFromEntry(entry), pinned)
	if err := f.save(next); err != nil {
		return err
	}
	f.records = next
	return nil
}

// List implements FavoritesStore.
func (f *FileFavorites) List(context.Context) ([]types.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return entriesFromRecords(f.records), nil
}

// save writes records to a temporary file and renames it over the favorites file.
func (f *FileFavorites) save(records []favoriteRecord) error {
	if records == nil {
		records = []favoriteRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}

	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create favorites dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write favorites: %w", err)
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace favorites: %w", err)
	}
	return nil
}
