package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// oggMagic is the capture pattern that opens every Ogg page.
var oggMagic = []byte("OggS")

// WriteFile fills the target path with the requested number of bytes. The
// content starts with the Ogg capture pattern followed by a repeating filler.
// A size <= 0 writes just the capture pattern.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size < int64(len(oggMagic)) {
		size = int64(len(oggMagic))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.Write(oggMagic); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size - int64(len(oggMagic))
	for remaining > 0 {
		toWrite := min(int64(chunkSize), remaining)
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}
