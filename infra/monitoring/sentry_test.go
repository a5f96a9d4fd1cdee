package monitoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/corner-25/test-umc-sub000/config"
	coremon "github.com/corner-25/test-umc-sub000/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor got %T", m)
	}
}

func TestNewSentryMonitorWithDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{DSN: "https://public@example.com/1", Environment: "test"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, ok := m.(*sentryMonitor); !ok {
		t.Fatalf("expected sentry monitor got %T", m)
	}
	m.CaptureException(nil, nil)
}

func TestCaptureSkipsCanceled(t *testing.T) {
	m := &sentryMonitor{}
	m.CaptureException(context.Canceled, map[string]string{"component": "ingest"})
	m.CaptureException(fmt.Errorf("read: %w", context.Canceled), nil)
}
