package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"audionav/logging"
	"audionav/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	errNotAudio      = errors.New("only audio files can be served")
	errOutsideVolume = errors.New("path is outside every storage volume")
)

// FileHandler serves metadata and content of audio files inside the discovered volumes.
type FileHandler struct {
	fs       afero.Fs
	volumes  services.VolumeSource
	metadata *services.MetadataReader
}

// NewFileHandler creates a new file handler
func NewFileHandler(fs afero.Fs, volumes services.VolumeSource) *FileHandler {
	return &FileHandler{
		fs:       fs,
		volumes:  volumes,
		metadata: services.NewMetadataReader(fs),
	}
}

// GetMetadata returns the tags of the audio file named by the path query parameter.
func (h *FileHandler) GetMetadata(c *gin.Context) {
	path, err := h.resolve(c.Request.Context(), c.Query("path"))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "path not allowed",
			"details": err.Error(),
		})
		return
	}

	metadata, err := h.metadata.Read(c.Request.Context(), path)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, os.ErrNotExist) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "failed to read metadata",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, metadata)
}

// StreamFile streams an audio file with support for range requests
func (h *FileHandler) StreamFile(c *gin.Context) {
	ctx := c.Request.Context()
	path, err := h.resolve(ctx, c.Param("filepath"))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "path not allowed",
			"details": err.Error(),
		})
		return
	}

	fileInfo, err := h.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "file not found",
				"path":  path,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "file access error",
			"details": err.Error(),
		})
		return
	}

	if fileInfo.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is a directory, not a file",
		})
		return
	}

	file, err := h.fs.Open(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to open file",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	c.Header("Content-Type", services.GetContentType(path))
	c.Header("Cache-Control", "public, max-age=3600")

	logging.WithContext(ctx).Debug("streaming file", zap.String("path", path), zap.Int64("size", fileInfo.Size()))
	http.ServeContent(c.Writer, c.Request, fileInfo.Name(), fileInfo.ModTime(), file)
}

// resolve cleans a requested path and checks that it names an audio file inside one of
// the discovered volumes.
func (h *FileHandler) resolve(ctx context.Context, requested string) (string, error) {
	if requested == "" {
		return "", errors.New("path is required")
	}
	path := filepath.Clean("/" + strings.TrimPrefix(requested, "/"))

	if !services.IsAudioFile(path) {
		return "", errNotAudio
	}

	for _, volume := range h.volumes.Discover(ctx) {
		root := filepath.Clean(volume.Path)
		if strings.HasPrefix(path, root+string(filepath.Separator)) {
			return path, nil
		}
	}
	return "", errOutsideVolume
}
