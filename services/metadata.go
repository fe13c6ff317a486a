package services

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"audionav/logging"
	"audionav/types"

	"github.com/dhowden/tag"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// trackPrefix matches leading track numbers like "01 - ", "1. ".
var trackPrefix = regexp.MustCompile(`^(\d+)[\.\-\s]+(.+)`)

// MetadataReader extracts tag information from audio files.
type MetadataReader struct {
	fs afero.Fs
}

// NewMetadataReader creates a reader on fs.
func NewMetadataReader(fs afero.Fs) *MetadataReader {
	return &MetadataReader{fs: fs}
}

// Read returns the metadata of the audio file at path. Tags are read with
// dhowden/tag; fields the tags lack are filled from the Artist/Album/Track path layout.
func (r *MetadataReader) Read(ctx context.Context, path string) (*types.AudioMetadata, error) {
	if !IsAudioFile(path) {
		return nil, fmt.Errorf("%s is not an audio file", path)
	}

	info, err := r.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	metadata := metadataFromPath(path)
	metadata.Size = info.Size()

	file, err := r.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		logging.WithContext(ctx).Debug("no readable tags, using path metadata",
			zap.String("path", path), zap.Error(err))
		return metadata, nil
	}

	metadata.FromTags = true
	if v := meta.Title(); v != "" {
		metadata.Title = v
	}
	if v := meta.Artist(); v != "" {
		metadata.Artist = v
	}
	if v := meta.Album(); v != "" {
		metadata.Album = v
	}
	metadata.Genre = meta.Genre()
	metadata.Year = meta.Year()
	if track, _ := meta.Track(); track > 0 {
		metadata.TrackNumber = track
	}

	return metadata, nil
}

// metadataFromPath extracts metadata from an Artist/Album/NN - Title.ext layout.
func metadataFromPath(path string) *types.AudioMetadata {
	metadata := &types.AudioMetadata{
		Path:   path,
		Format: AudioFormat(path),
	}

	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	if len(parts) >= 3 && parts[len(parts)-3] != "" {
		metadata.Artist = parts[len(parts)-3]
	}
	if len(parts) >= 2 && parts[len(parts)-2] != "" {
		metadata.Album = parts[len(parts)-2]
	}

	filename := filepath.Base(path)
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if matches := trackPrefix.FindStringSubmatch(title); len(matches) > 2 {
		title = matches[2]
		if n, err := strconv.Atoi(matches[1]); err == nil {
			metadata.TrackNumber = n
		}
	}
	metadata.Title = title

	return metadata
}
