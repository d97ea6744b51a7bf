package transcoder

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrMissingDependency reports that no supported transcoder is installed.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrUnknownBinary reports a resolved executable outside the supported set.
	ErrUnknownBinary = errors.New("unsupported transcoder binary")
)

// Binary enumerates the transcoder executables the converter knows how to drive.
type Binary int

const (
	BinaryAvconv Binary = iota + 1
	BinaryFFmpeg
)

// Candidates lists executable names in resolution priority order.
var Candidates = []string{BinaryAvconv.String(), BinaryFFmpeg.String()}

const (
	sourceSlot      = "{src}"
	destinationSlot = "{dst}"
)

// Both binaries share the same CLI surface: VBR quality 2 with ID3v2.3 and
// ID3v1 tags.
var templates = map[Binary][]string{
	BinaryAvconv: {"-i", sourceSlot, "-q:a", "2", "-id3v2_version", "3", "-write_id3v1", "1", destinationSlot},
	BinaryFFmpeg: {"-i", sourceSlot, "-q:a", "2", "-id3v2_version", "3", "-write_id3v1", "1", destinationSlot},
}

func (b Binary) String() string {
	switch b {
	case BinaryAvconv:
		return "avconv"
	case BinaryFFmpeg:
		return "ffmpeg"
	default:
		return fmt.Sprintf("Binary(%d)", int(b))
	}
}

// Template returns a copy of the argument template with unbound slots.
func (b Binary) Template() []string {
	tpl, ok := templates[b]
	if !ok {
		return nil
	}
	return append([]string(nil), tpl...)
}

// ParseBinary maps an executable name or path to a supported Binary. Directory
// components (either separator style) and a trailing extension such as ".exe"
// are ignored.
func ParseBinary(command string) (Binary, error) {
	base := strings.TrimSpace(command)
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	switch strings.ToLower(name) {
	case "avconv":
		return BinaryAvconv, nil
	case "ffmpeg":
		return BinaryFFmpeg, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBinary, command)
	}
}

// DependencyResolver finds the first installed executable among candidates.
type DependencyResolver interface {
	RequireAnyCommand(candidates []string) (string, error)
}

// Transcoder is the executable chosen for the lifetime of an extension.
type Transcoder struct {
	binary Binary
	path   string
}

// Resolve picks the first installed candidate and binds its argument template.
func Resolve(resolver DependencyResolver) (Transcoder, error) {
	if resolver == nil {
		return Transcoder{}, fmt.Errorf("%w: no dependency resolver", ErrMissingDependency)
	}
	path, err := resolver.RequireAnyCommand(append([]string(nil), Candidates...))
	if err != nil {
		return Transcoder{}, fmt.Errorf("%w: %w", ErrMissingDependency, err)
	}
	binary, err := ParseBinary(path)
	if err != nil {
		return Transcoder{}, err
	}
	return Transcoder{binary: binary, path: path}, nil
}

// New binds an explicit binary and path, mainly for tests and diagnostics.
func New(binary Binary, path string) (Transcoder, error) {
	if _, ok := templates[binary]; !ok {
		return Transcoder{}, fmt.Errorf("%w: %s", ErrUnknownBinary, binary)
	}
	if strings.TrimSpace(path) == "" {
		path = binary.String()
	}
	return Transcoder{binary: binary, path: path}, nil
}

// Binary reports which supported transcoder was resolved.
func (t Transcoder) Binary() Binary { return t.binary }

// Path returns the executable as returned by the resolver.
func (t Transcoder) Path() string { return t.path }

// Command returns the full argv: executable followed by the bound template.
func (t Transcoder) Command(source, destination string) []string {
	tpl := templates[t.binary]
	argv := make([]string, 0, len(tpl)+1)
	argv = append(argv, t.path)
	for _, arg := range tpl {
		switch arg {
		case sourceSlot:
			argv = append(argv, source)
		case destinationSlot:
			argv = append(argv, destination)
		default:
			argv = append(argv, arg)
		}
	}
	return argv
}
