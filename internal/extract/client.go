// Package extract calls the PDF text-extraction service.
package extract

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

	"github.com/hangarops/docsense/internal/domain"
)

// Client implements domain.TextExtractor against the extraction service's
// POST /extract endpoint: PDF bytes in, plain text out.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates an extraction client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Extract converts raw PDF bytes into plain text.
// Server 5xx and transport failures are transient; a 4xx means the
// document itself is unreadable and retrying cannot help.
func (c *Client) Extract(ctx context.Context, fileName string, data []byte) (string, error) {
	endpoint := c.baseURL + "/extract?filename=" + url.QueryEscape(fileName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w: %w", fileName, err, domain.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read extract response: %w: %w", err, domain.ErrProviderUnavailable)
	}

	switch {
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("extract %s: status %d: %w", fileName, resp.StatusCode, domain.ErrProviderUnavailable)
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("extract %s: status %d: %w", fileName, resp.StatusCode, domain.ErrDocumentUnreadable)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse extract response: %w: %w", err, domain.ErrDocumentUnreadable)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return "", fmt.Errorf("extract %s: empty text: %w", fileName, domain.ErrDocumentUnreadable)
	}

	return parsed.Text, nil
}

// HealthCheck verifies the extraction service responds.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("extraction health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("extraction health: status %d", resp.StatusCode)
	}
	return nil
}
