package converter

import (
	"context"
	"path/filepath"
	"strings"
)

const (
	// MimeTypeOGG is the only media type the converter accepts.
	MimeTypeOGG = "audio/ogg"
	// TargetExtension replaces the source extension on the converted file.
	TargetExtension = ".mp3"
)

var supportedMimeTypes = map[string]struct{}{
	MimeTypeOGG: {},
}

// Episode is the subset of a host episode the converter needs.
type Episode interface {
	MimeType() string
	Title() string
	// LocalFilename returns the on-disk path. When create is true the host may
	// prepare the parent directory; it fails when no file is associated.
	LocalFilename(create bool) (string, error)
	// WasDownloaded reports whether the host finished downloading the episode.
	// With andExists set, the file must also be present on disk.
	WasDownloaded(andExists bool) bool
	// RenameFile re-points the stored filename through the host so any
	// indexing stays consistent.
	RenameFile(ctx context.Context, newPath string) error
}

// Identified is implemented by episodes that carry a host identifier. Convert
// tags its context and log lines with it.
type Identified interface {
	EpisodeID() int64
}

// Supports reports whether the episode has a convertible media type.
func Supports(episode Episode) bool {
	if episode == nil {
		return false
	}
	_, ok := supportedMimeTypes[episode.MimeType()]
	return ok
}

// DestinationPath swaps the source extension for TargetExtension, keeping the
// directory and base name.
func DestinationPath(source string) string {
	ext := filepath.Ext(source)
	return strings.TrimSuffix(source, ext) + TargetExtension
}
