package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ogg2mp3/internal/converter"
	"ogg2mp3/internal/logging"
	"ogg2mp3/internal/transcoder"
)

// MenuLabel is shown on the context-menu entry for eligible selections.
const MenuLabel = "Convert to MP3"

// ErrMissingDependency reports that no transcoder binary could be resolved.
var ErrMissingDependency = transcoder.ErrMissingDependency

// Metadata describes the extension to its host.
var Metadata = Info{
	Title:       "Convert OGG audio to MP3",
	Description: "Transcode .ogg files to .mp3 using ffmpeg",
	Category:    "post-download",
}

// Info is the descriptive metadata a host lists for an extension.
type Info struct {
	Title       string
	Description string
	Category    string
}

// ConfigReader exposes the extension's settings.
type ConfigReader interface {
	ContextMenuEnabled() bool
}

// MenuAction is a single context-menu entry.
type MenuAction struct {
	Label  string
	Invoke func(ctx context.Context) []converter.Outcome
}

// Extension reacts to host events by converting OGG episodes.
type Extension struct {
	config    ConfigReader
	converter *converter.Converter
	logger    *slog.Logger
}

// New resolves a transcoder and wires the converter. It fails with
// ErrMissingDependency when neither avconv nor ffmpeg is installed, in which
// case the extension must not be activated.
func New(cfg ConfigReader, resolver transcoder.DependencyResolver, notifier converter.Notifier, logger *slog.Logger, opts ...converter.Option) (*Extension, error) {
	tc, err := transcoder.Resolve(resolver)
	if err != nil {
		if !errors.Is(err, ErrMissingDependency) {
			err = fmt.Errorf("%w: %w", ErrMissingDependency, err)
		}
		return nil, err
	}
	logger = logging.NewComponentLogger(logger, "extension")
	logger.Debug("transcoder resolved",
		logging.String(logging.FieldEventType, "transcoder_resolved"),
		logging.String("binary", tc.Binary().String()),
		logging.String("path", tc.Path()),
	)
	return &Extension{
		config:    cfg,
		converter: converter.New(tc, notifier, logger, opts...),
		logger:    logger,
	}, nil
}

// Converter exposes the underlying converter.
func (e *Extension) Converter() *converter.Converter {
	return e.converter
}

// OnEpisodeDownloaded converts a freshly downloaded episode. Non-OGG episodes
// are ignored.
func (e *Extension) OnEpisodeDownloaded(ctx context.Context, episode converter.Episode) converter.Outcome {
	return e.converter.Convert(ctx, episode)
}

// OnEpisodesContextMenu returns the menu entry for a selection, or nil when
// the entry must not be offered. The entry is suppressed when the context
// menu is disabled, when any selected episode is not downloaded with its file
// present, or when no selected episode is OGG.
func (e *Extension) OnEpisodesContextMenu(episodes []converter.Episode) *MenuAction {
	if e.config != nil && !e.config.ContextMenuEnabled() {
		return nil
	}
	if len(episodes) == 0 {
		return nil
	}
	anySupported := false
	for _, episode := range episodes {
		if episode == nil || !episode.WasDownloaded(true) {
			return nil
		}
		if converter.Supports(episode) {
			anySupported = true
		}
	}
	if !anySupported {
		return nil
	}

	selection := append([]converter.Episode(nil), episodes...)
	return &MenuAction{
		Label: MenuLabel,
		Invoke: func(ctx context.Context) []converter.Outcome {
			return e.converter.ConvertAll(ctx, selection)
		},
	}
}
