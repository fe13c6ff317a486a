package services

import (
	"context"
	"path/filepath"
	"sync"

	"audionav/types"
)

// FavoritesStore persists pin state keyed by path.
// Listed entries carry {path, name, isDirectory} with IsPinned set.
type FavoritesStore interface {
	Get(ctx context.Context, path string) (bool, error)
	Set(ctx context.Context, entry types.Entry, pinned bool) error
	List(ctx context.Context) ([]types.Entry, error)
}

// favoriteRecord is the persisted shape of one pin.
type favoriteRecord struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	IsDirectory bool   `json:"isDirectory"`
}

func recordFromEntry(e types.Entry) favoriteRecord {
	return favoriteRecord{
		Path:        normalizeFavoritePath(e.Path),
		Name:        e.Name,
		IsDirectory: e.IsDirectory,
	}
}

func (r favoriteRecord) entry() types.Entry {
	return types.Entry{
		Path:        r.Path,
		Name:        r.Name,
		IsDirectory: r.IsDirectory,
		IsPinned:    true,
	}
}

func normalizeFavoritePath(path string) string {
	return filepath.Clean(path)
}

// MemoryFavorites keeps pins in memory, in insertion order.
type MemoryFavorites struct {
	mu      sync.RWMutex
	records []favoriteRecord
}

// NewMemoryFavorites creates an empty in-memory store.
func NewMemoryFavorites() *MemoryFavorites {
	return &MemoryFavorites{}
}

// Get implements FavoritesStore.
func (m *MemoryFavorites) Get(_ context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return indexOfRecord(m.records, normalizeFavoritePath(path)) >= 0, nil
}

// Set implements FavoritesStore.
func (m *MemoryFavorites) Set(_ context.Context, entry types.Entry, pinned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = applyPin(m.records, recordFromEntry(entry), pinned)
	return nil
}

// List implements FavoritesStore.
func (m *MemoryFavorites) List(context.Context) ([]types.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return entriesFromRecords(m.records), nil
}

func indexOfRecord(records []favoriteRecord, path string) int {
	for i, r := range records {
		if r.Path == path {
			return i
		}
	}
	return -1
}

// applyPin returns records with rec added (or refreshed) when pinned, removed otherwise.
func applyPin(records []favoriteRecord, rec favoriteRecord, pinned bool) []favoriteRecord {
	i := indexOfRecord(records, rec.Path)
	switch {
	case pinned && i >= 0:
		records[i] = rec
	case pinned:
		records = append(records, rec)
	case i >= 0:
		records = append(records[:i], records[i+1:]...)
	}
	return records
}

func entriesFromRecords(records []favoriteRecord) []types.Entry {
	entries := make([]types.Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.entry())
	}
	return entries
}
