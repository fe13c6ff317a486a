package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"audionav/types"

	_ "github.com/lib/pq"
)

const favoritesSchema = `CREATE TABLE IF NOT EXISTS audionav_favorites (
	path       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	is_dir     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresFavorites stores pins in a PostgreSQL table.
type PostgresFavorites struct {
	db *sql.DB
}

// NewPostgresFavorites connects to databaseURL and ensures the favorites table exists.
func NewPostgresFavorites(ctx context.Context, databaseURL string) (*PostgresFavorites, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, favoritesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create favorites table: %w", err)
	}

	return &PostgresFavorites{db: db}, nil
}

// Close closes the database connection.
func (p *PostgresFavorites) Close() error {
	return p.db.Close()
}

// Get implements FavoritesStore.
func (p *PostgresFavorites) Get(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM audionav_favorites WHERE path = $1)`,
		normalizeFavoritePath(path)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("get favorite: %w", err)
	}
	return exists, nil
}

// Set implements FavoritesStore.
func (p *PostgresFavorites) Set(ctx context.Context, entry types.Entry, pinned bool) error {
	rec := recordFromEntry(entry)

	var err error
	if pinned {
		_, err = p.db.ExecContext(ctx,
			`INSERT INTO audionav_favorites (path, name, is_dir) VALUES ($1, $2, $3)
			 ON CONFLICT (path) DO UPDATE SET name = EXCLUDED.name, is_dir = EXCLUDED.is_dir`,
			rec.Path, rec.Name, rec.IsDirectory)
	} else {
		_, err = p.db.ExecContext(ctx,
			`DELETE FROM audionav_favorites WHERE path = $1`, rec.Path)
	}
	if err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}
	return nil
}

// List implements FavoritesStore.
func (p *PostgresFavorites) List(ctx context.Context) ([]types.Entry, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT path, name, is_dir FROM audionav_favorites ORDER BY created_at, path`)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var records []favoriteRecord
	for rows.Next() {
		var r favoriteRecord
		if err := rows.Scan(&r.Path, &r.Name, &r.IsDirectory); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return entriesFromRecords(records), nil
}
