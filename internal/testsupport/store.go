package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"ogg2mp3/internal/config"
	"ogg2mp3/internal/library"
)

// MustOpenLibrary opens the episode library for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg.LibraryPath())
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewDownloadedOGG writes an OGG file under the data directory and registers
// it in store as a downloaded episode.
func NewDownloadedOGG(t testing.TB, cfg *config.Config, store *library.Store, name string) *library.Episode {
	t.Helper()

	path := filepath.Join(BaseDir(cfg), "podcasts", name+".ogg")
	WriteFile(t, path, 1024)
	episode, err := store.Add(context.Background(), library.AddParams{
		Title:      name,
		MimeType:   "audio/ogg",
		Filename:   path,
		Downloaded: true,
	})
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return episode
}
