// Package ipfs uploads validated cover metadata through the protocol's IPFS
// upload endpoint.
package ipfs

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"coversdk/core/content"
)

const defaultTimeout = 30 * time.Second

// ErrMissingHash indicates the upload service answered without a content identifier.
var ErrMissingHash = errors.New("ipfs: upload response missing ipfsHash")

// Client posts content payloads to the upload service.
type Client struct {
	baseURL    *url.URL
	sdkVersion string
	httpClient *http.Client
}

// Option mutates the client configuration during construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New constructs a client pointed at the upload service. sdkVersion is sent
// as the sdk query parameter.
func New(baseURL, sdkVersion string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("baseURL required")
	}
	parsed, err := url.Parse(strings.TrimSuffix(trimmed, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}
	client := &Client{
		baseURL:    parsed,
		sdkVersion: strings.TrimSpace(sdkVersion),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type uploadRequest struct {
	Type    content.Type    `json:"type"`
	Content content.Content `json:"content"`
}

type uploadResponse struct {
	IPFSHash string `json:"ipfsHash"`
}

// UploadError is a non-2xx answer from the upload service. Body is kept for
// logs and left out of Error.
type UploadError struct {
	Status int
	Body   string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("ipfs: upload service returned status %d", e.Status)
}

// Upload validates c and stores it, returning the content identifier.
func (c *Client) Upload(ctx context.Context, payload content.Content) (string, error) {
	if payload == nil {
		return "", fmt.Errorf("ipfs: content required")
	}
	if err := payload.Validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(uploadRequest{Type: payload.ContentType(), Content: payload})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	target := c.baseURL.ResolveReference(&url.URL{Path: "ipfs"})
	if c.sdkVersion != "" {
		target.RawQuery = url.Values{"sdk": []string{c.sdkVersion}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UploadError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	var out uploadResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(out.IPFSHash) == "" {
		return "", ErrMissingHash
	}
	return out.IPFSHash, nil
}
