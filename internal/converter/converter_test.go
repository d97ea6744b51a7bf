package converter_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ogg2mp3/internal/converter"
	"ogg2mp3/internal/logging"
	"ogg2mp3/internal/transcoder"
)

type fakeEpisode struct {
	mime       string
	title      string
	path       string
	localErr   error
	renameErr  error
	downloaded bool
	renamed    []string
}

func (e *fakeEpisode) MimeType() string { return e.mime }
func (e *fakeEpisode) Title() string    { return e.title }

func (e *fakeEpisode) LocalFilename(bool) (string, error) {
	if e.localErr != nil {
		return "", e.localErr
	}
	return e.path, nil
}

func (e *fakeEpisode) WasDownloaded(andExists bool) bool {
	if !e.downloaded {
		return false
	}
	if !andExists {
		return true
	}
	_, err := os.Stat(e.path)
	return err == nil
}

func (e *fakeEpisode) RenameFile(_ context.Context, newPath string) error {
	if e.renameErr != nil {
		return e.renameErr
	}
	e.renamed = append(e.renamed, newPath)
	e.path = newPath
	return nil
}

type notification struct{ title, body string }

type recordingNotifier struct {
	sent []notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, title, body string) error {
	n.sent = append(n.sent, notification{title: title, body: body})
	return n.err
}

// fakeRunner simulates a transcoder: on success it writes the destination
// (last argument) so filesystem assertions behave like a real run.
type fakeRunner struct {
	calls    [][]string
	exitCode map[string]int
	stderr   string
	startErr error
}

func (r *fakeRunner) Run(argv []string) (converter.Result, error) {
	r.calls = append(r.calls, append([]string(nil), argv...))
	if r.startErr != nil {
		return converter.Result{ExitCode: -1}, r.startErr
	}
	src := argv[2]
	if code := r.exitCode[src]; code != 0 {
		return converter.Result{ExitCode: code, Stdout: "partial", Stderr: r.stderr}, nil
	}
	if _, err := os.Stat(src); err != nil {
		return converter.Result{ExitCode: 1, Stderr: src + ": No such file or directory"}, nil
	}
	if err := os.WriteFile(argv[len(argv)-1], []byte("ID3"), 0o644); err != nil {
		return converter.Result{ExitCode: 1, Stderr: err.Error()}, nil
	}
	return converter.Result{}, nil
}

func newTestConverter(t *testing.T, runner converter.Runner, notifier converter.Notifier) *converter.Converter {
	t.Helper()
	tc, err := transcoder.New(transcoder.BinaryFFmpeg, "ffmpeg")
	if err != nil {
		t.Fatalf("transcoder.New: %v", err)
	}
	return converter.New(tc, notifier, logging.NewNop(), converter.WithRunner(runner))
}

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("OggS"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestDestinationPath(t *testing.T) {
	tests := map[string]string{
		"/pods/show/episode.ogg":      "/pods/show/episode.mp3",
		"/pods/show/episode.one.ogg":  "/pods/show/episode.one.mp3",
		"/pods/show/no-extension":     "/pods/show/no-extension.mp3",
		"relative/dir/Episode 12.OGG": "relative/dir/Episode 12.mp3",
	}
	for input, want := range tests {
		if got := converter.DestinationPath(input); got != want {
			t.Fatalf("DestinationPath(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestConvertSkipsUnsupportedMedia(t *testing.T) {
	dir := t.TempDir()
	for _, mime := range []string{"audio/mpeg", "video/ogg", "audio/ogg; codecs=vorbis", ""} {
		src := writeSource(t, dir, "episode.ogg")
		runner := &fakeRunner{}
		notifier := &recordingNotifier{}
		conv := newTestConverter(t, runner, notifier)
		episode := &fakeEpisode{mime: mime, title: "Skip me", path: src, downloaded: true}

		outcome := conv.Convert(context.Background(), episode)

		if outcome.Status != converter.StatusSkipped {
			t.Fatalf("mime %q: expected skipped, got %s", mime, outcome.Status)
		}
		if !errors.Is(outcome.Err, converter.ErrUnsupportedMedia) {
			t.Fatalf("mime %q: expected ErrUnsupportedMedia, got %v", mime, outcome.Err)
		}
		if len(runner.calls) != 0 {
			t.Fatalf("mime %q: expected no process, got %v", mime, runner.calls)
		}
		if len(notifier.sent) != 0 || len(episode.renamed) != 0 {
			t.Fatalf("mime %q: expected no side effects", mime)
		}
		if !exists(src) || exists(converter.DestinationPath(src)) {
			t.Fatalf("mime %q: filesystem changed", mime)
		}
	}
}

func TestConvertSuccess(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "Episode 7.ogg")
	runner := &fakeRunner{}
	notifier := &recordingNotifier{}
	conv := newTestConverter(t, runner, notifier)
	episode := &fakeEpisode{mime: converter.MimeTypeOGG, title: "Episode 7", path: src, downloaded: true}

	outcome := conv.Convert(context.Background(), episode)

	if !outcome.Converted() {
		t.Fatalf("expected converted outcome, got %s (%v)", outcome.Status, outcome.Err)
	}
	want := filepath.Join(dir, "Episode 7.mp3")
	if outcome.Destination != want {
		t.Fatalf("destination = %q, want %q", outcome.Destination, want)
	}
	if exists(src) {
		t.Fatal("expected source to be removed")
	}
	if !exists(want) {
		t.Fatal("expected destination to exist")
	}
	if diff := cmp.Diff([]string{want}, episode.renamed); diff != "" {
		t.Fatalf("rename calls mismatch (-want +got):\n%s", diff)
	}
	if path, _ := episode.LocalFilename(false); path != want {
		t.Fatalf("episode path = %q, want %q", path, want)
	}
	wantArgv := []string{"ffmpeg", "-i", src, "-q:a", "2", "-id3v2_version", "3", "-write_id3v1", "1", want}
	if diff := cmp.Diff([][]string{wantArgv}, runner.calls); diff != "" {
		t.Fatalf("argv mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]notification{{converter.NotifySuccessTitle, "Episode 7"}}, notifier.sent, cmp.AllowUnexported(notification{})); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertFailureLeavesFilesUntouched(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "broken.ogg")
	runner := &fakeRunner{exitCode: map[string]int{src: 1}, stderr: "Invalid data found when processing input"}
	notifier := &recordingNotifier{}
	conv := newTestConverter(t, runner, notifier)
	episode := &fakeEpisode{mime: converter.MimeTypeOGG, title: "Broken", path: src, downloaded: true}

	outcome := conv.Convert(context.Background(), episode)

	if !outcome.Failed() {
		t.Fatalf("expected failure, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Err, converter.ErrConversionFailed) {
		t.Fatalf("expected ErrConversionFailed, got %v", outcome.Err)
	}
	if !strings.Contains(outcome.Err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr in error, got %q", outcome.Err.Error())
	}
	if outcome.Result.Stderr == "" || outcome.Result.Stdout == "" {
		t.Fatalf("expected captured output, got %#v", outcome.Result)
	}
	if !exists(src) {
		t.Fatal("expected source to remain")
	}
	if len(episode.renamed) != 0 || episode.path != src {
		t.Fatal("expected episode path untouched")
	}
	if diff := cmp.Diff([]notification{{converter.NotifyFailureTitle, "Broken"}}, notifier.sent, cmp.AllowUnexported(notification{})); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertMissingSourceReportsSourceUnavailable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "gone.ogg")
	notifier := &recordingNotifier{}
	conv := newTestConverter(t, &fakeRunner{}, notifier)
	episode := &fakeEpisode{mime: converter.MimeTypeOGG, title: "Gone", path: src}

	outcome := conv.Convert(context.Background(), episode)

	if !outcome.Failed() {
		t.Fatalf("expected failure, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Err, converter.ErrSourceUnavailable) || !errors.Is(outcome.Err, converter.ErrConversionFailed) {
		t.Fatalf("expected source unavailable conversion failure, got %v", outcome.Err)
	}
	if exists(converter.DestinationPath(src)) {
		t.Fatal("expected no destination file")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].title != converter.NotifyFailureTitle {
		t.Fatalf("expected failure notification, got %#v", notifier.sent)
	}
}

func TestConvertLocalFilenameError(t *testing.T) {
	runner := &fakeRunner{}
	notifier := &recordingNotifier{}
	conv := newTestConverter(t, runner, notifier)
	episode := &fakeEpisode{mime: converter.MimeTypeOGG, title: "No file", localErr: errors.New("no file")}

	outcome := conv.Convert(context.Background(), episode)

	if !outcome.Failed() || !errors.Is(outcome.Err, converter.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable failure, got %s %v", outcome.Status, outcome.Err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("expected no process when source cannot be resolved")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].body != "No file" {
		t.Fatalf("expected failure notification carrying title, got %#v", notifier.sent)
	}
}

func TestConvertRenameFailureDiscardsDestination(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "locked.ogg")
	notifier := &recordingNotifier{}
	conv := newTestConverter(t, &fakeRunner{}, notifier)
	episode := &fakeEpisode{mime: converter.MimeTypeOGG, title: "Locked", path: src, renameErr: errors.New("database is locked")}

	outcome := conv.Convert(context.Background(), episode)

	if !outcome.Failed() || !errors.Is(outcome.Err, converter.ErrConversionFailed) {
		t.Fatalf("expected conversion failure, got %s %v", outcome.Status, outcome.Err)
	}
	if !exists(src) {
		t.Fatal("expected source to remain after rename failure")
	}
	if exists(converter.DestinationPath(src)) {
		t.Fatal("expected unadopted destination to be discarded")
	}
	if notifier.sent[len(notifier.sent)-1].title != converter.NotifyFailureTitle {
		t.Fatalf("expected failure notification, got %#v", notifier.sent)
	}
}

func TestConvertStartErrorIsContained(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "episode.ogg")
	notifier := &recordingNotifier{}
	conv := newTestConverter(t, &fakeRunner{startErr: errors.New("exec format error")}, notifier)
	episode := &fakeEpisode{mime: converter.MimeTypeOGG, title: "Episode", path: src}

	outcome := conv.Convert(context.Background(), episode)
	if !outcome.Failed() || !errors.Is(outcome.Err, converter.ErrConversionFailed) {
		t.Fatalf("expected conversion failure, got %s %v", outcome.Status, outcome.Err)
	}
	if !exists(src) {
		t.Fatal("expected source to remain")
	}
}

func TestConvertNotifierErrorDoesNotChangeOutcome(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "episode.ogg")
	notifier := &recordingNotifier{err: errors.New("ntfy down")}
	conv := newTestConverter(t, &fakeRunner{}, notifier)
	episode := &fakeEpisode{mime: converter.MimeTypeOGG, title: "Episode", path: src}

	if outcome := conv.Convert(context.Background(), episode); !outcome.Converted() {
		t.Fatalf("expected converted outcome, got %s (%v)", outcome.Status, outcome.Err)
	}
}

func TestConvertRefusesSourceWithTargetExtension(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "episode.mp3")
	runner := &fakeRunner{}
	notifier := &recordingNotifier{}
	conv := newTestConverter(t, runner, notifier)
	episode := &fakeEpisode{mime: converter.MimeTypeOGG, title: "Relabelled", path: src, downloaded: true}

	outcome := conv.Convert(context.Background(), episode)

	if !outcome.Failed() || !errors.Is(outcome.Err, converter.ErrConversionFailed) {
		t.Fatalf("expected conversion failure, got %s %v", outcome.Status, outcome.Err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected no transcoder run, got %v", runner.calls)
	}
	if !exists(src) {
		t.Fatal("expected the episode file to survive")
	}
	if len(episode.renamed) != 0 || episode.path != src {
		t.Fatal("expected episode path untouched")
	}
	if diff := cmp.Diff([]notification{{converter.NotifyFailureTitle, "Relabelled"}}, notifier.sent, cmp.AllowUnexported(notification{})); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertSourceRemovalFailureStillConverts(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "sticky.ogg")
	notifier := &recordingNotifier{}
	tc, err := transcoder.New(transcoder.BinaryFFmpeg, "ffmpeg")
	if err != nil {
		t.Fatalf("transcoder.New: %v", err)
	}
	var removed []string
	conv := converter.New(tc, notifier, logging.NewNop(),
		converter.WithRunner(&fakeRunner{}),
		converter.WithRemoveFunc(func(path string) error {
			removed = append(removed, path)
			return os.ErrPermission
		}),
	)
	episode := &fakeEpisode{mime: converter.MimeTypeOGG, title: "Sticky", path: src, downloaded: true}

	outcome := conv.Convert(context.Background(), episode)

	if !outcome.Converted() {
		t.Fatalf("expected converted outcome, got %s (%v)", outcome.Status, outcome.Err)
	}
	want := filepath.Join(dir, "sticky.mp3")
	if episode.path != want {
		t.Fatalf("episode path = %q, want %q", episode.path, want)
	}
	if diff := cmp.Diff([]string{src}, removed); diff != "" {
		t.Fatalf("remove calls mismatch (-want +got):\n%s", diff)
	}
	if !exists(src) || !exists(want) {
		t.Fatal("expected both files on disk when source removal fails")
	}
	if diff := cmp.Diff([]notification{{converter.NotifySuccessTitle, "Sticky"}}, notifier.sent, cmp.AllowUnexported(notification{})); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

type identifiedEpisode struct {
	*fakeEpisode
	id int64
}

func (e identifiedEpisode) EpisodeID() int64 { return e.id }

func TestConvertTagsLogsWithEpisodeID(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tc, err := transcoder.New(transcoder.BinaryFFmpeg, "ffmpeg")
	if err != nil {
		t.Fatalf("transcoder.New: %v", err)
	}
	conv := converter.New(tc, nil, logger, converter.WithRunner(&fakeRunner{}))

	episodes := []converter.Episode{
		identifiedEpisode{&fakeEpisode{mime: converter.MimeTypeOGG, title: "a", path: writeSource(t, dir, "a.ogg")}, 41},
		identifiedEpisode{&fakeEpisode{mime: converter.MimeTypeOGG, title: "b", path: writeSource(t, dir, "b.ogg")}, 42},
	}
	for _, outcome := range conv.ConvertAll(context.Background(), episodes) {
		if !outcome.Converted() {
			t.Fatalf("expected conversion, got %s (%v)", outcome.Status, outcome.Err)
		}
	}

	logs := buf.String()
	for _, want := range []string{`"episode_id":41`, `"episode_id":42`} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %s in logs, got:\n%s", want, logs)
		}
	}
}

func TestConvertAllIsIndependentPerEpisode(t *testing.T) {
	dir := t.TempDir()
	good1 := writeSource(t, dir, "one.ogg")
	bad := writeSource(t, dir, "two.ogg")
	good2 := writeSource(t, dir, "three.ogg")
	mp3 := writeSource(t, dir, "four.mp3")

	runner := &fakeRunner{exitCode: map[string]int{bad: 1}}
	notifier := &recordingNotifier{}
	conv := newTestConverter(t, runner, notifier)

	episodes := []converter.Episode{
		&fakeEpisode{mime: converter.MimeTypeOGG, title: "one", path: good1, downloaded: true},
		&fakeEpisode{mime: converter.MimeTypeOGG, title: "two", path: bad, downloaded: true},
		&fakeEpisode{mime: "audio/mpeg", title: "four", path: mp3, downloaded: true},
		&fakeEpisode{mime: converter.MimeTypeOGG, title: "three", path: good2, downloaded: true},
	}

	outcomes := conv.ConvertAll(context.Background(), episodes)

	var statuses []string
	for _, outcome := range outcomes {
		statuses = append(statuses, outcome.Status.String())
	}
	if diff := cmp.Diff([]string{"converted", "failed", "skipped", "converted"}, statuses); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}
	if len(runner.calls) != 3 {
		t.Fatalf("expected 3 transcoder runs, got %d", len(runner.calls))
	}
	if len(notifier.sent) != 3 {
		t.Fatalf("expected one notification per attempted episode, got %d", len(notifier.sent))
	}
	if !exists(bad) || !exists(mp3) {
		t.Fatal("expected failed and skipped sources to remain")
	}
	if exists(good1) || exists(good2) {
		t.Fatal("expected converted sources to be removed")
	}
}

func TestExecRunnerWithStubTranscoder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffmpeg")
	// Copy input to output when the input exists; mimic ffmpeg's failure otherwise.
	script := "#!/bin/sh\n" +
		"src=\"$2\"\n" +
		"for last; do :; done\n" +
		"if [ ! -f \"$src\" ]; then echo \"$src: No such file or directory\" >&2; exit 1; fi\n" +
		"echo converting\n" +
		"cp \"$src\" \"$last\"\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	tc, err := transcoder.New(transcoder.BinaryFFmpeg, stub)
	if err != nil {
		t.Fatalf("transcoder.New: %v", err)
	}
	notifier := &recordingNotifier{}
	conv := converter.New(tc, notifier, logging.NewNop())

	src := writeSource(t, dir, "real.ogg")
	episode := &fakeEpisode{mime: converter.MimeTypeOGG, title: "Real", path: src, downloaded: true}
	if outcome := conv.Convert(context.Background(), episode); !outcome.Converted() {
		t.Fatalf("expected conversion via stub, got %s (%v)", outcome.Status, outcome.Err)
	}
	if !exists(filepath.Join(dir, "real.mp3")) || exists(src) {
		t.Fatal("unexpected filesystem state after stub conversion")
	}

	missing := &fakeEpisode{mime: converter.MimeTypeOGG, title: "Missing", path: filepath.Join(dir, "missing.ogg")}
	outcome := conv.Convert(context.Background(), missing)
	if !outcome.Failed() || outcome.Result.ExitCode != 1 {
		t.Fatalf("expected exit status 1 failure, got %s %#v", outcome.Status, outcome.Result)
	}
	if !strings.Contains(outcome.Result.Stderr, "No such file") {
		t.Fatalf("expected stderr captured, got %q", outcome.Result.Stderr)
	}
}

func TestExecRunnerReportsSignalAsNegativeExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	stub := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nkill -9 $$\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	result, err := (converter.ExecRunner{}).Run([]string{stub})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != -1 {
		t.Fatalf("expected exit code -1 for a killed process, got %d", result.ExitCode)
	}
}

func TestExecRunnerEmptyCommand(t *testing.T) {
	if _, err := (converter.ExecRunner{}).Run(nil); err == nil {
		t.Fatal("expected error for empty command")
	}
}
