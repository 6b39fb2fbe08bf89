// Package transifex is a client for the resource endpoints of the Transifex
// API (v2 layout). Resources hold one XLIFF domain each.
package transifex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public Transifex endpoint.
const DefaultBaseURL = "https://www.transifex.com"

// Client talks to one Transifex project.
type Client struct {
	baseURL    string
	project    string
	token      string
	httpClient *http.Client
	maxRetries int
	backoff    func(attempt int) time.Duration
}

// NewClient creates a client for project. An empty baseURL uses
// DefaultBaseURL.
func NewClient(baseURL, project, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		project: project,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		maxRetries: 3,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*2) * time.Second
		},
	}
}

// Resource is a translatable resource of the project.
type Resource struct {
	Slug           string `json:"slug"`
	Name           string `json:"name"`
	I18nType       string `json:"i18n_type"`
	SourceLanguage string `json:"source_language_code"`
}

// UploadResult reports what an upload changed on the server.
type UploadResult struct {
	Added   int `json:"strings_added"`
	Updated int `json:"strings_updated"`
	Deleted int `json:"strings_delete"`
}

type contentBody struct {
	Content  string `json:"content"`
	Mimetype string `json:"mimetype,omitempty"`
}

type createBody struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	I18nType string `json:"i18n_type"`
	Content  string `json:"content"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// ListResources returns all resources of the project.
func (c *Client) ListResources(ctx context.Context) ([]Resource, error) {
	body, err := c.do(ctx, http.MethodGet, c.projectPath("resources"), nil)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}

	var resources []Resource
	if err := json.Unmarshal(body, &resources); err != nil {
		return nil, fmt.Errorf("unmarshal resources: %w", err)
	}
	return resources, nil
}

// CreateResource creates an XLIFF resource with content as its source.
func (c *Client) CreateResource(ctx context.Context, slug, name string, content []byte) error {
	payload, err := json.Marshal(createBody{Slug: slug, Name: name, I18nType: "XLIFF", Content: string(content)})
	if err != nil {
		return fmt.Errorf("marshal create request: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, c.projectPath("resources"), payload); err != nil {
		return fmt.Errorf("create resource %s: %w", slug, err)
	}
	log.Info().Str("resource", slug).Msg("Created resource")
	return nil
}

// UploadSource replaces the source content of an existing resource.
func (c *Client) UploadSource(ctx context.Context, slug string, content []byte) (*UploadResult, error) {
	payload, err := json.Marshal(contentBody{Content: string(content)})
	if err != nil {
		return nil, fmt.Errorf("marshal upload request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPut, c.projectPath("resource", slug, "content"), payload)
	if err != nil {
		return nil, fmt.Errorf("upload source %s: %w", slug, err)
	}

	var result UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal upload result: %w", err)
	}
	log.Debug().
		Str("resource", slug).
		Int("added", result.Added).
		Int("updated", result.Updated).
		Int("deleted", result.Deleted).
		Msg("Uploaded source")
	return &result, nil
}

// DownloadTranslation returns the translated XLIFF content of a resource.
func (c *Client) DownloadTranslation(ctx context.Context, slug, lang string) ([]byte, error) {
	path := c.projectPath("resource", slug, "translation", lang) + "?mode=default"
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", slug, lang, err)
	}

	var content contentBody
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, fmt.Errorf("unmarshal translation: %w", err)
	}
	return []byte(content.Content), nil
}

func (c *Client) projectPath(parts ...string) string {
	escaped := make([]string, 0, len(parts)+4)
	escaped = append(escaped, "api", "2", "project", url.PathEscape(c.project))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return "/" + strings.Join(escaped, "/") + "/"
}

// do sends a request, retrying rate limits and server errors.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			log.Warn().Int("attempt", attempt+1).Dur("backoff", backoff).Str("path", path).Msg("Retrying Transifex request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := c.doRequest(ctx, method, path, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth("api", c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}
