package services

import (
	"path/filepath"
	"strings"
)

// audioContentTypes maps every browsable audio extension to its MIME type.
var audioContentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".wma":  "audio/x-ms-wma",
	".opus": "audio/opus",
}

// AudioExtensions returns the allowed extensions, lower-case with leading dot.
func AudioExtensions() []string {
	return []string{".mp3", ".wav", ".flac", ".m4a", ".aac", ".ogg", ".wma", ".opus"}
}

// IsAudioFile reports whether the final dot suffix of path is an allowed audio extension.
func IsAudioFile(path string) bool {
	_, ok := audioContentTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// AudioFormat returns the extension without its dot, e.g. "flac".
func AudioFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// GetContentType returns the appropriate MIME type for an audio file
func GetContentType(path string) string {
	if ct, ok := audioContentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}
