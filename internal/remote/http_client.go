package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jaronwright/repsync/internal/config"
)

const userAgent = "repsync/0.1.0"

// HTTPDoer describes the HTTP client used by the API service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type httpClient struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// NewHTTPClient constructs an Operations implementation backed by the remote
// workout API.
func NewHTTPClient(cfg *config.Config) Operations {
	timeout := time.Duration(cfg.API.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		baseURL: strings.TrimRight(cfg.API.BaseURL, "/"),
		token:   strings.TrimSpace(cfg.API.Token),
		client:  &http.Client{Timeout: timeout},
	}
}

// NewHTTPClientWithDoer constructs an Operations implementation with a custom
// HTTP doer (used in tests).
func NewHTTPClientWithDoer(baseURL, token string, client HTTPDoer) Operations {
	return &httpClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  client,
	}
}

func (c *httpClient) CreateSession(ctx context.Context, userID, workoutDayID string) (*Session, error) {
	body := map[string]string{"userId": userID, "workoutDayId": workoutDayID}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &session, nil
}

func (c *httpClient) CompleteSession(ctx context.Context, sessionID, notes string) error {
	body := map[string]string{}
	if notes != "" {
		body["notes"] = notes
	}
	path := "/sessions/" + url.PathEscape(sessionID) + "/complete"
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return nil
}

func (c *httpClient) LogSet(ctx context.Context, entry SetEntry) error {
	path := "/sessions/" + url.PathEscape(entry.SessionID) + "/sets"
	if err := c.do(ctx, http.MethodPost, path, entry, nil); err != nil {
		return fmt.Errorf("log set: %w", err)
	}
	return nil
}

func (c *httpClient) ListSets(ctx context.Context, sessionID string) ([]SetRecord, error) {
	path := "/sessions/" + url.PathEscape(sessionID) + "/sets"
	var records []SetRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	return records, nil
}

func (c *httpClient) UpdateSet(ctx context.Context, setID string, repsCompleted int, weightUsed float64) error {
	body := map[string]any{"repsCompleted": repsCompleted, "weightUsed": weightUsed}
	path := "/sets/" + url.PathEscape(setID)
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("update set: %w", err)
	}
	return nil
}

func (c *httpClient) DeleteSet(ctx context.Context, setID string) error {
	path := "/sets/" + url.PathEscape(setID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete set: %w", err)
	}
	return nil
}

func (c *httpClient) CreateTemplateSession(ctx context.Context, userID, templateID string) (*Session, error) {
	body := map[string]string{"userId": userID, "templateId": templateID}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/template-sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create template session: %w", err)
	}
	return &session, nil
}

func (c *httpClient) CompleteTemplateSession(ctx context.Context, sessionID string) error {
	path := "/template-sessions/" + url.PathEscape(sessionID) + "/complete"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{}, nil); err != nil {
		return fmt.Errorf("complete template session: %w", err)
	}
	return nil
}

func (c *httpClient) QuickLogTemplateSession(ctx context.Context, userID, templateID, performedAt string) (*Session, error) {
	body := map[string]string{"userId": userID, "templateId": templateID}
	if performedAt != "" {
		body["performedAt"] = performedAt
	}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/template-sessions/quick-log", body, &session); err != nil {
		return nil, fmt.Errorf("quick log template session: %w", err)
	}
	return &session, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
