// Package webhook is the HTTP transport of the remote sync bridge.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/remotesync"
)

// contentType keeps the request a CORS "simple request" on spreadsheet web apps.
const contentType = "text/plain;charset=utf-8"

const maxPullBytes = 32 << 20

// Client posts pushes to the configured endpoint and reads pulls from it with GET.
// The endpoint is resolved on every call so settings changes apply at once.
type Client struct {
	endpoint   func() string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(endpoint func() string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		log:        log.Named("webhook"),
	}
}

func (c *Client) Name() string {
	return "webhook"
}

func (c *Client) Configured() bool {
	return c.endpoint() != ""
}

// Send posts env. The response is drained and otherwise ignored; only a
// request that never completes fails the push.
func (c *Client) Send(ctx context.Context, env remotesync.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	c.log.Debug("Push delivered",
		zap.String("kind", env.Kind().Label()),
		zap.Int("bytes", len(body)),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}

func (c *Client) Fetch(ctx context.Context) (*remotesync.PullResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pull request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pull failed with status %d", resp.StatusCode)
	}

	return remotesync.DecodePullResponse(io.LimitReader(resp.Body, maxPullBytes))
}
