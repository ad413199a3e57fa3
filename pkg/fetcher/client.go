package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

const defaultTimeout = 90 * time.Second

// maxDocumentSize bounds how much of a fetched report is kept
const maxDocumentSize = 64 << 20

// Client asks the browser-automation service to turn a report link into a PDF
type Client struct {
	serviceURL string
	tempDir    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a fetch client. An empty tempDir uses the OS default.
func NewClient(serviceURL, tempDir string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		serviceURL: serviceURL,
		tempDir:    tempDir,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Fetch resolves link to a PDF and writes it to a temp file. The caller owns
// the returned path.
func (c *Client) Fetch(ctx context.Context, link string) (string, error) {
	if c.serviceURL == "" {
		return "", eris.New("fetcher: no fetch service configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"url": link})
	if err != nil {
		return "", eris.Wrap(err, "fetcher: marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL, bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "fetcher: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", eris.Errorf("fetcher: service error (%d): %s", resp.StatusCode, string(msg))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return "", eris.Wrap(err, "fetcher: read response")
	}
	if len(data) == 0 {
		return "", eris.New("fetcher: empty document")
	}

	dir := c.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "fetch_"+uuid.New().String()+".pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", eris.Wrap(err, "fetcher: write temp file")
	}
	return path, nil
}
