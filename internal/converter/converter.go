package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ogg2mp3/internal/logging"
	"ogg2mp3/internal/services"
	"ogg2mp3/internal/transcoder"
)

const (
	// NotifySuccessTitle heads the notification raised after a conversion.
	NotifySuccessTitle = "File converted from ogg to mp3"
	// NotifyFailureTitle heads the notification raised when conversion fails.
	NotifyFailureTitle = "Conversion failed from ogg to mp3"

	component = "converter"
)

// Notifier surfaces a message to the user.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Converter turns OGG episodes into MP3 files using the resolved transcoder.
type Converter struct {
	transcoder transcoder.Transcoder
	runner     Runner
	notifier   Notifier
	logger     *slog.Logger
	removeFile func(string) error
}

// Option customizes a Converter.
type Option func(*Converter)

// WithRunner swaps the process runner, typically for tests.
func WithRunner(runner Runner) Option {
	return func(c *Converter) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// WithRemoveFunc overrides how the source file is deleted after success.
func WithRemoveFunc(remove func(string) error) Option {
	return func(c *Converter) {
		if remove != nil {
			c.removeFile = remove
		}
	}
}

// New builds a Converter. A nil notifier or logger is replaced by a no-op.
func New(tc transcoder.Transcoder, notifier Notifier, logger *slog.Logger, opts ...Option) *Converter {
	c := &Converter{
		transcoder: tc,
		runner:     ExecRunner{},
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, component),
		removeFile: os.Remove,
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcoder returns the binary bound to this converter.
func (c *Converter) Transcoder() transcoder.Transcoder {
	return c.transcoder
}

// Convert transcodes a single episode. Episodes with an unsupported media type
// are skipped without side effects. Failures are logged and reported to the
// user, never returned: the outcome describes what happened.
//
// Filesystem state changes only after the transcoder exits with status 0: the
// episode is re-pointed at the MP3 and the OGG source is removed.
func (c *Converter) Convert(ctx context.Context, episode Episode) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	if !Supports(episode) {
		outcome := Outcome{Status: StatusSkipped, Err: ErrUnsupportedMedia}
		if episode != nil {
			outcome.Title = episode.Title()
		}
		return outcome
	}

	if identified, ok := episode.(Identified); ok {
		ctx = services.WithEpisodeID(ctx, identified.EpisodeID())
	}
	title := episode.Title()
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldEpisodeTitle, title))
	outcome := Outcome{Title: title}

	source, err := episode.LocalFilename(false)
	if err != nil {
		outcome.Err = services.Wrap(ErrSourceUnavailable, component, "resolve source", "", err)
		return c.fail(ctx, logger, outcome)
	}
	outcome.Source = source
	outcome.Destination = DestinationPath(source)
	if filepath.Clean(outcome.Destination) == filepath.Clean(outcome.Source) {
		// The source already carries the target extension. Transcoding onto
		// itself and then removing the source would delete the only copy.
		outcome.Err = services.Wrap(ErrConversionFailed, component, "plan destination",
			"source already has the "+TargetExtension+" extension", services.ErrValidation)
		return c.fail(ctx, logger, outcome)
	}

	argv := c.transcoder.Command(outcome.Source, outcome.Destination)
	logger.Debug("running transcoder",
		logging.String(logging.FieldEventType, "transcode_start"),
		logging.String("command", strings.Join(argv, " ")),
	)

	result, runErr := c.runner.Run(argv)
	outcome.Result = result
	if runErr != nil || result.ExitCode != 0 {
		outcome.Err = transcodeError(result, runErr)
		if _, statErr := os.Stat(outcome.Source); errors.Is(statErr, os.ErrNotExist) {
			outcome.Err = fmt.Errorf("%w: %w", ErrSourceUnavailable, outcome.Err)
		}
		return c.fail(ctx, logger, outcome)
	}

	if err := episode.RenameFile(ctx, outcome.Destination); err != nil {
		// The episode still points at the source, so the new file is not
		// adopted. Drop it to keep the on-disk state unchanged.
		if rmErr := c.removeFile(outcome.Destination); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("failed to discard unadopted mp3",
				logging.String(logging.FieldEventType, "cleanup_failed"),
				logging.String("path", outcome.Destination),
				logging.Error(rmErr),
			)
		}
		outcome.Err = services.Wrap(ErrConversionFailed, component, "rename episode file", "", err)
		return c.fail(ctx, logger, outcome)
	}

	if err := c.removeFile(outcome.Source); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "converted episode but could not remove ogg source",
			"source_cleanup_failed",
			logging.String("path", outcome.Source),
			logging.String(logging.FieldErrorHint, "remove the file manually"),
			logging.String(logging.FieldImpact, "original ogg file remains on disk"),
			logging.Error(err),
		)
	}

	outcome.Status = StatusConverted
	logger.Info("converted ogg file to mp3",
		logging.String(logging.FieldEventType, "conversion_completed"),
		logging.String("source", outcome.Source),
		logging.String("destination", outcome.Destination),
		logging.String("transcoder", c.transcoder.Binary().String()),
	)
	c.notify(ctx, logger, NotifySuccessTitle, title)
	return outcome
}

// ConvertAll converts each episode in order. A failure on one episode does
// not stop the rest; every episode reports its own outcome.
func (c *Converter) ConvertAll(ctx context.Context, episodes []Episode) []Outcome {
	outcomes := make([]Outcome, 0, len(episodes))
	for _, episode := range episodes {
		outcomes = append(outcomes, c.Convert(ctx, episode))
	}
	return outcomes
}

func (c *Converter) fail(ctx context.Context, logger *slog.Logger, outcome Outcome) Outcome {
	outcome.Status = StatusFailed
	logging.WarnWithContext(logger, "error converting file from ogg to mp3",
		services.EventType(outcome.Err),
		logging.String("source", outcome.Source),
		logging.Int("exit_code", outcome.Result.ExitCode),
		logging.String("stdout", strings.TrimSpace(outcome.Result.Stdout)),
		logging.String("stderr", strings.TrimSpace(outcome.Result.Stderr)),
		logging.String(logging.FieldErrorHint, "inspect transcoder stderr"),
		logging.String(logging.FieldImpact, "episode left as ogg"),
		logging.Error(outcome.Err),
	)
	c.notify(ctx, logger, NotifyFailureTitle, outcome.Title)
	return outcome
}

func (c *Converter) notify(ctx context.Context, logger *slog.Logger, title, body string) {
	if err := c.notifier.Notify(ctx, title, body); err != nil {
		logger.Warn("notification failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String("notification_title", title),
			logging.Error(err),
		)
	}
}

func transcodeError(result Result, runErr error) error {
	detail := fmt.Sprintf("exit status %d", result.ExitCode)
	if stderr := lastLine(result.Stderr); stderr != "" {
		detail += ": " + stderr
	}
	return fmt.Errorf("%w: %w", ErrConversionFailed, services.Wrap(services.ErrExternalTool, component, "transcode", detail, runErr))
}

func lastLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.LastIndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	}
	return strings.TrimSpace(text)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string) error { return nil }
