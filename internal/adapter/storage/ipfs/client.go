package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient talks to the IPFS HTTP RPC API (the /api/v0 endpoints exposed
// by Kubo nodes). It implements Client.
type HTTPClient struct {
	base string
	http *http.Client
}

// NewHTTPClient creates a client for the node at baseURL
// (e.g. "http://127.0.0.1:5001").
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Add uploads data to the node and returns the resulting CID.
func (c *HTTPClient) Add(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "item.json")
	if err != nil {
		return "", fmt.Errorf("ipfs add: build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("ipfs add: write form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("ipfs add: close form: %w", err)
	}

	resp, err := c.post(ctx, "/api/v0/add", mw.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ipfs add: decode response: %w", err)
	}
	if out.Hash == "" {
		return "", fmt.Errorf("ipfs add: empty hash in response")
	}
	return out.Hash, nil
}

// Cat fetches the content behind a CID.
func (c *HTTPClient) Cat(ctx context.Context, cidStr string) ([]byte, error) {
	resp, err := c.post(ctx, "/api/v0/cat?arg="+url.QueryEscape(cidStr), "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// Pin pins a CID on the node.
func (c *HTTPClient) Pin(ctx context.Context, cidStr string) error {
	resp, err := c.post(ctx, "/api/v0/pin/add?arg="+url.QueryEscape(cidStr), "", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// IsOnline reports whether the node answers its identity endpoint.
func (c *HTTPClient) IsOnline(ctx context.Context) bool {
	resp, err := c.post(ctx, "/api/v0/id", "", nil)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (c *HTTPClient) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("ipfs request %s: %w", path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipfs request %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("ipfs request %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
