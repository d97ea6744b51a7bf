package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ogg2mp3/internal/config"
	"ogg2mp3/internal/converter"
	"ogg2mp3/internal/deps"
	"ogg2mp3/internal/extension"
	"ogg2mp3/internal/library"
	"ogg2mp3/internal/logging"
	"ogg2mp3/internal/notifications"
	"ogg2mp3/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := c.flagValue(c.logLevelFlag); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// requestContext tags the command's context with a fresh correlation ID and
// the host operation it stands in for.
func (c *commandContext) requestContext(cmd *cobra.Command, operation string) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRequestID(ctx, uuid.NewString())
	return services.WithOperation(ctx, operation)
}

func (c *commandContext) withLibrary(fn func(*library.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg.LibraryPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// withConversionLock serializes conversions across concurrent CLI runs. With
// wait unset it fails with library.ErrLocked instead of blocking.
func (c *commandContext) withConversionLock(ctx context.Context, wait bool, fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := library.NewLock(cfg.LockPath())
	if err != nil {
		return err
	}
	acquire := lock.TryLock
	if wait {
		acquire = func() error { return lock.Acquire(ctx) }
	}
	if err := acquire(); err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()
	return fn()
}

func (c *commandContext) notifier(out io.Writer) (notifications.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	svc := notifications.NewService(cfg, out)
	var muted []string
	if !cfg.Notifications.Success {
		muted = append(muted, converter.NotifySuccessTitle)
	}
	if !cfg.Notifications.Failure {
		muted = append(muted, converter.NotifyFailureTitle)
	}
	return notifications.Suppress(svc, muted...), nil
}

func (c *commandContext) newExtension(out io.Writer) (*extension.Extension, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	notifier, err := c.notifier(out)
	if err != nil {
		return nil, err
	}
	ext, err := extension.New(cfg, deps.NewCommandResolver(), notifier, logger)
	if err != nil {
		if errors.Is(err, extension.ErrMissingDependency) {
			return nil, fmt.Errorf("%w (install avconv or ffmpeg)", err)
		}
		return nil, err
	}
	return ext, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseEpisodeIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	seen := make(map[int64]struct{}, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid episode id %q", arg)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
