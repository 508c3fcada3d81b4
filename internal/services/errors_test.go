package services_test

import (
	"errors"
	"strings"
	"testing"

	"popquiz/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "render", "concat", "failed", base)
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
	for _, fragment := range []string{"render", "concat", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "sources", "fetch", "", errors.New("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestDetailsStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "round", "verify", "interval reversed", nil)
	details := services.Details(err)
	if !errors.Is(details.Marker, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", details.Marker)
	}
	if strings.Contains(details.Message, "validation error") {
		t.Fatalf("expected marker prefix stripped, got %q", details.Message)
	}
	if !strings.Contains(details.Message, "interval reversed") {
		t.Fatalf("expected message retained, got %q", details.Message)
	}
}

func TestDetailsNil(t *testing.T) {
	details := services.Details(nil)
	if details.Marker != nil || details.Message != "" {
		t.Fatalf("expected zero details, got %+v", details)
	}
}

func TestIsUsageError(t *testing.T) {
	if !services.IsUsageError(services.Wrap(services.ErrValidation, "round", "verify", "bad", nil)) {
		t.Fatal("validation errors are usage errors")
	}
	if !services.IsUsageError(services.Wrap(services.ErrConfiguration, "config", "load", "bad", nil)) {
		t.Fatal("configuration errors are usage errors")
	}
	if services.IsUsageError(services.Wrap(services.ErrExternalTool, "render", "run", "bad", nil)) {
		t.Fatal("tool errors are not usage errors")
	}
}
