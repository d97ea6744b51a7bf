package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"ogg2mp3/internal/config"
	"ogg2mp3/internal/deps"
	"ogg2mp3/internal/transcoder"
)

// CheckNtfy verifies that the ntfy topic answers a poll request.
func CheckNtfy(ctx context.Context, topic string) Result {
	const name = "ntfy"

	base := strings.TrimRight(strings.TrimSpace(topic), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing topic"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/json?poll=1&since=1m", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("poll failed (%v)", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "topic requires authentication"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("poll failed (%d)", resp.StatusCode)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps reports every transcoder candidate. Each one is optional on
// its own; TranscoderAvailable decides whether the set is usable.
func CheckSystemDeps(_ *config.Config) []deps.Status {
	requirements := make([]deps.Requirement, 0, len(transcoder.Candidates))
	for _, name := range transcoder.Candidates {
		requirements = append(requirements, deps.Requirement{
			Name:        name,
			Command:     name,
			Description: "Transcodes ogg to mp3 (either avconv or ffmpeg is required)",
			Optional:    true,
		})
	}
	return deps.CheckBinaries(requirements)
}

// TranscoderAvailable reports whether at least one candidate was found.
func TranscoderAvailable(statuses []deps.Status) bool {
	for _, status := range statuses {
		if status.Available {
			return true
		}
	}
	return false
}

// CheckTranscoder summarizes CheckSystemDeps as a single result naming the
// binary that conversions will use.
func CheckTranscoder(cfg *config.Config) Result {
	const name = "Transcoder"
	for _, status := range CheckSystemDeps(cfg) {
		if status.Available {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", status.Name, status.Path)}
		}
	}
	return Result{Name: name, Detail: "neither avconv nor ffmpeg found on PATH"}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "poll timed out (ntfy unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "poll timed out (ntfy unreachable)"
	}
	return err.Error()
}
