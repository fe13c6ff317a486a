package services

import (
	"context"
	"os"
	"sort"

	"audionav/logging"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FindAudioFiles walks root recursively and returns every audio file path, sorted.
// Unreadable subtrees are logged and skipped; symlinks are not followed.
func FindAudioFiles(ctx context.Context, fs afero.Fs, root string) ([]string, error) {
	var files []string

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logging.WithContext(ctx).Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.IsDir() && IsAudioFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
