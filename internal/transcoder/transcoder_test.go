package transcoder_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ogg2mp3/internal/transcoder"
)

type fakeResolver struct {
	installed map[string]string
	asked     []string
}

func (f *fakeResolver) RequireAnyCommand(candidates []string) (string, error) {
	f.asked = append(f.asked, candidates...)
	for _, name := range candidates {
		if path, ok := f.installed[name]; ok {
			return path, nil
		}
	}
	return "", errors.New("none installed")
}

func TestParseBinary(t *testing.T) {
	tests := []struct {
		input string
		want  transcoder.Binary
	}{
		{"ffmpeg", transcoder.BinaryFFmpeg},
		{"/usr/bin/ffmpeg", transcoder.BinaryFFmpeg},
		{"ffmpeg.exe", transcoder.BinaryFFmpeg},
		{"/opt/libav/bin/avconv", transcoder.BinaryAvconv},
		{"AVCONV.EXE", transcoder.BinaryAvconv},
	}
	for _, tc := range tests {
		got, err := transcoder.ParseBinary(tc.input)
		if err != nil {
			t.Fatalf("ParseBinary(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseBinary(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseBinaryRejectsUnknownNames(t *testing.T) {
	for _, input := range []string{"", "sox", "/usr/bin/ffplay", "ffmpeg6"} {
		if _, err := transcoder.ParseBinary(input); !errors.Is(err, transcoder.ErrUnknownBinary) {
			t.Fatalf("ParseBinary(%q): expected ErrUnknownBinary, got %v", input, err)
		}
	}
}

func TestResolvePrefersFirstCandidate(t *testing.T) {
	resolver := &fakeResolver{installed: map[string]string{
		"avconv": "/usr/bin/avconv",
		"ffmpeg": "/usr/bin/ffmpeg",
	}}
	tc, err := transcoder.Resolve(resolver)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tc.Binary() != transcoder.BinaryAvconv {
		t.Fatalf("expected avconv to win, got %s", tc.Binary())
	}
	if tc.Path() != "/usr/bin/avconv" {
		t.Fatalf("unexpected path %q", tc.Path())
	}
	if diff := cmp.Diff(transcoder.Candidates, resolver.asked); diff != "" {
		t.Fatalf("resolver candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveFallsBackToFFmpeg(t *testing.T) {
	resolver := &fakeResolver{installed: map[string]string{"ffmpeg": `C:\tools\ffmpeg.exe`}}
	tc, err := transcoder.Resolve(resolver)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tc.Binary() != transcoder.BinaryFFmpeg {
		t.Fatalf("expected ffmpeg, got %s", tc.Binary())
	}
}

func TestResolveFailsWhenNothingInstalled(t *testing.T) {
	_, err := transcoder.Resolve(&fakeResolver{})
	if !errors.Is(err, transcoder.ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
	if _, err := transcoder.Resolve(nil); !errors.Is(err, transcoder.ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency for nil resolver, got %v", err)
	}
}

func TestResolveRejectsUnrecognizedResolution(t *testing.T) {
	resolver := &fakeResolver{installed: map[string]string{"ffmpeg": "/usr/local/bin/transcode-wrapper"}}
	if _, err := transcoder.Resolve(resolver); !errors.Is(err, transcoder.ErrUnknownBinary) {
		t.Fatalf("expected ErrUnknownBinary, got %v", err)
	}
}

func TestCommandBindsSlots(t *testing.T) {
	for _, binary := range []transcoder.Binary{transcoder.BinaryFFmpeg, transcoder.BinaryAvconv} {
		tc, err := transcoder.New(binary, "/usr/bin/"+binary.String())
		if err != nil {
			t.Fatalf("New(%s): %v", binary, err)
		}
		got := tc.Command("/pods/show/ep 1.ogg", "/pods/show/ep 1.mp3")
		want := []string{
			"/usr/bin/" + binary.String(),
			"-i", "/pods/show/ep 1.ogg",
			"-q:a", "2",
			"-id3v2_version", "3",
			"-write_id3v1", "1",
			"/pods/show/ep 1.mp3",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s argv mismatch (-want +got):\n%s", binary, diff)
		}
	}
}

func TestTemplateReturnsCopy(t *testing.T) {
	tpl := transcoder.BinaryFFmpeg.Template()
	tpl[0] = "mutated"
	if transcoder.BinaryFFmpeg.Template()[0] != "-i" {
		t.Fatal("expected template to be immutable")
	}
	if transcoder.Binary(99).Template() != nil {
		t.Fatal("expected nil template for unknown binary")
	}
	if _, err := transcoder.New(transcoder.Binary(99), ""); !errors.Is(err, transcoder.ErrUnknownBinary) {
		t.Fatalf("expected ErrUnknownBinary, got %v", err)
	}
}
