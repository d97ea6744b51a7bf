package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"ogg2mp3/internal/config"
)

const userAgent = "ogg2mp3/0.1.0"

// Service delivers a user-facing message.
type Service interface {
	Notify(ctx context.Context, title, body string) error
}

// NewService builds the notification sink described by cfg. Pushes go to
// ntfy when a topic is configured; console output is added when enabled and
// w is non-nil. With neither, a noop sink is returned.
func NewService(cfg *config.Config, w io.Writer) Service {
	if cfg == nil {
		return noopService{}
	}
	var sinks []Service
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		sinks = append(sinks, NewNtfy(topic, &http.Client{Timeout: timeout}))
	}
	if cfg.Notifications.Console && w != nil {
		sinks = append(sinks, Console(w))
	}
	switch len(sinks) {
	case 0:
		return noopService{}
	case 1:
		return sinks[0]
	default:
		return Fanout(sinks...)
	}
}

// NewNtfy returns a sink that posts to the ntfy topic URL.
func NewNtfy(endpoint string, client *http.Client) Service {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ntfyService{endpoint: endpoint, client: client}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Notify(ctx context.Context, title, body string) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(strings.TrimSpace(body)))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title = strings.TrimSpace(title); title != "" {
		req.Header.Set("Title", title)
	}
	req.Header.Set("Tags", "ogg2mp3")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Console writes "title: body" lines to w.
func Console(w io.Writer) Service {
	return &consoleService{w: w}
}

type consoleService struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *consoleService) Notify(_ context.Context, title, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	var err error
	switch {
	case title != "" && body != "":
		_, err = fmt.Fprintf(c.w, "%s: %s\n", title, body)
	case title != "":
		_, err = fmt.Fprintln(c.w, title)
	default:
		_, err = fmt.Fprintln(c.w, body)
	}
	return err
}

// Fanout delivers to every sink and joins their errors.
func Fanout(sinks ...Service) Service {
	return fanout(sinks)
}

type fanout []Service

func (f fanout) Notify(ctx context.Context, title, body string) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Notify(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Suppress drops notifications whose title is in titles and forwards the rest.
func Suppress(next Service, titles ...string) Service {
	if len(titles) == 0 {
		return next
	}
	set := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		set[t] = struct{}{}
	}
	return &suppressed{next: next, titles: set}
}

type suppressed struct {
	next   Service
	titles map[string]struct{}
}

func (s *suppressed) Notify(ctx context.Context, title, body string) error {
	if _, drop := s.titles[title]; drop || s.next == nil {
		return nil
	}
	return s.next.Notify(ctx, title, body)
}

type noopService struct{}

func (noopService) Notify(context.Context, string, string) error { return nil }
