// Package engineclient talks to the downstream workflow-automation
// engine: paging over its workflow list and forwarding raw HTTP requests
// to its webhook endpoints (§4.B). It holds no state past construction, so
// a single instance is shared (and safe for concurrent use) by every
// provider Router, the way the teacher shares its *sql.DB handle
// (internal/db.DB) across every request-handling goroutine.
package engineclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/cedricziel/unihook/internal/unihookerr"
)

// Client forwards to, and discovers workflows from, the engine.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// New constructs an engine Client. httpClient may be nil, in which case
// http.DefaultClient is used (mirroring pkg/client's RequestEditorFn
// pattern in the teacher, generalized here into a plain struct since this
// client only ever calls two endpoints).
func New(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpClient, logger: logger}
}

// FetchWorkflows pages through GET /api/v1/workflows until nextCursor is
// absent or empty, returning every workflow (active and inactive alike).
func (c *Client) FetchWorkflows(ctx context.Context) ([]Workflow, error) {
	var all []Workflow
	cursor := ""
	for {
		page, next, err := c.fetchPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

func (c *Client) fetchPage(ctx context.Context, cursor string) ([]Workflow, string, error) {
	u, err := url.Parse(c.baseURL + "/api/v1/workflows")
	if err != nil {
		return nil, "", fmt.Errorf("parse engine base url: %w", err)
	}
	if cursor != "" {
		q := u.Query()
		q.Set("cursor", cursor)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build workflows request: %w", err)
	}
	req.Header.Set("X-N8N-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch workflows: %w: %v", unihookerr.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read workflows response: %w: %v", unihookerr.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch workflows: %w", unihookerr.NewRemoteError(resp.StatusCode, body))
	}

	var page workflowListResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("decode workflows response: %w", err)
	}
	return page.Data, page.NextCursor, nil
}

// Forward POSTs the raw body byte-for-byte to webhookURL, carrying the
// supplied headers, and returns the engine's status code. It never
// re-serializes the body: any canonical-JSON normalization would
// invalidate a signature computed over the original bytes (§4.B).
func (c *Client) Forward(ctx context.Context, webhookURL string, body []byte, headers http.Header) (status int, err error) {
	deliveryID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build forward request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("forward transport error", "delivery_id", deliveryID, "url", webhookURL, "error", err)
		return 0, fmt.Errorf("forward to %s: %w: %v", webhookURL, unihookerr.ErrTransport, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	c.logger.Debug("forwarded delivery", "delivery_id", deliveryID, "url", webhookURL, "status", resp.StatusCode)
	return resp.StatusCode, nil
}
