package amibridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the Asterisk AMI bridge sidecar. Every operation is a single
// JSON POST; the bridge answers with a textual message.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type transferRequest struct {
	UUID     string `json:"uuid"`
	Exten    string `json:"exten,omitempty"`
	Context  string `json:"context,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

type hangupRequest struct {
	UUID string `json:"uuid"`
}

type bridgeResponse struct {
	Message string `json:"message"`
}

// Transfer asks the bridge to redirect the channel identified by uuid.
func (c *Client) Transfer(ctx context.Context, uuid, exten, dialContext string, priority int) (string, error) {
	return c.post(ctx, "/transfer", transferRequest{
		UUID:     uuid,
		Exten:    exten,
		Context:  dialContext,
		Priority: priority,
	})
}

// Hangup asks the bridge to tear down the channel identified by uuid.
func (c *Client) Hangup(ctx context.Context, uuid string) (string, error) {
	return c.post(ctx, "/hangup", hangupRequest{UUID: uuid})
}

func (c *Client) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ami bridge request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("ami bridge response read failed: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("ami bridge %s returned %d: %s", path, res.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed bridgeResponse
	if err := json.Unmarshal(data, &parsed); err != nil || parsed.Message == "" {
		return strings.TrimSpace(string(data)), nil
	}
	return parsed.Message, nil
}
