package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jaronwright/repsync/internal/config"
)

const userAgent = "repsync/0.1.0"

// Service defines the notification surface exposed to the scheduler and CLI.
type Service interface {
	NotifySyncCompleted(ctx context.Context, synced, failed int) error
	NotifySyncInterrupted(ctx context.Context, synced, remaining int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// Summary renders the user-facing result line for a sync pass.
func Summary(synced, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("%d synced", synced)
	}
	return fmt.Sprintf("%d synced, %d failed", synced, failed)
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, synced, failed int) error {
	data := payload{
		title:   "Repsync - Sync Complete",
		message: fmt.Sprintf("Workout sync complete: %s", Summary(synced, failed)),
		tags:    []string{"repsync", "sync", "completed"},
	}
	if failed > 0 {
		data.title = "Repsync - Sync Complete (with failures)"
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncInterrupted(ctx context.Context, synced, remaining int) error {
	data := payload{
		title:   "Repsync - Sync Interrupted",
		message: fmt.Sprintf("Connection lost: %d synced, %d still queued", synced, remaining),
		tags:    []string{"repsync", "sync", "interrupted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Repsync - Error",
		message:  builder.String(),
		tags:     []string{"repsync", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Repsync - Test",
		message:  "Notification system test",
		tags:     []string{"repsync", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

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

type noopService struct{}

func (noopService) NotifySyncCompleted(context.Context, int, int) error   { return nil }
func (noopService) NotifySyncInterrupted(context.Context, int, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }
