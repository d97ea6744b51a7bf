package services_test

import (
	"errors"
	"strings"
	"testing"

	"ogg2mp3/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "converter", "transcode", "exit status 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"converter", "transcode", "exit status 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, " ", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestEventType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrExternalTool, "converter", "run", "", nil), "external_tool_failed"},
		{services.Wrap(services.ErrConfiguration, "config", "load", "", nil), "configuration_invalid"},
		{services.Wrap(services.ErrNotFound, "library", "get", "", nil), "not_found"},
		{services.Wrap(services.ErrValidation, "library", "add", "", nil), "validation_failed"},
		{errors.New("other"), "failure"},
	}
	for _, tc := range tests {
		if got := services.EventType(tc.err); got != tc.want {
			t.Fatalf("EventType(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
