package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaronwright/repsync/internal/notifications"
	"github.com/jaronwright/repsync/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(cfg)
	if err := svc.NotifySyncCompleted(context.Background(), 3, 1); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestSummaryFormatting(t *testing.T) {
	if got := notifications.Summary(3, 0); got != "3 synced" {
		t.Fatalf("full success summary: got %q", got)
	}
	if got := notifications.Summary(3, 2); got != "3 synced, 2 failed" {
		t.Fatalf("partial failure summary: got %q", got)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "sync completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifySyncCompleted(context.Background(), 4, 0)
			},
			expectTitle:   "Repsync - Sync Complete",
			expectMessage: "Workout sync complete: 4 synced",
			expectTags:    "repsync,sync,completed",
		},
		{
			name: "sync completed with failures",
			notify: func(svc notifications.Service) error {
				return svc.NotifySyncCompleted(context.Background(), 4, 2)
			},
			expectTitle:    "Repsync - Sync Complete (with failures)",
			expectMessage:  "Workout sync complete: 4 synced, 2 failed",
			expectTags:     "repsync,sync,completed",
			expectPriority: "high",
		},
		{
			name: "sync interrupted",
			notify: func(svc notifications.Service) error {
				return svc.NotifySyncInterrupted(context.Background(), 2, 3)
			},
			expectTitle:   "Repsync - Sync Interrupted",
			expectMessage: "Connection lost: 2 synced, 3 still queued",
			expectTags:    "repsync,sync,interrupted",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("schema mismatch"), "queue store")
			},
			expectTitle:    "Repsync - Error",
			expectMessage:  "Error with queue store: schema mismatch",
			expectTags:     "repsync,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := testsupport.NewConfig(t)
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx ntfy response")
	}
}
