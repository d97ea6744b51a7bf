package converter

import (
	"errors"
)

var (
	// ErrUnsupportedMedia marks episodes skipped because of their media type.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrConversionFailed marks a transcoder run that did not exit cleanly.
	ErrConversionFailed = errors.New("conversion failed")
	// ErrSourceUnavailable marks an episode without a readable local file.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// Status classifies a single conversion attempt.
type Status int

const (
	StatusSkipped Status = iota
	StatusConverted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusConverted:
		return "converted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the transient result of converting one episode.
type Outcome struct {
	Title       string
	Status      Status
	Source      string
	Destination string
	Result      Result
	Err         error
}

// Converted reports whether the episode now points at the MP3.
func (o Outcome) Converted() bool { return o.Status == StatusConverted }

// Failed reports whether the conversion was attempted and did not succeed.
func (o Outcome) Failed() bool { return o.Status == StatusFailed }
