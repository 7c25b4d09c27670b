package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fentz26/roster/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// HTTPClient talks to the roster backend over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the backend at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchTasks implements Gateway.
func (c *HTTPClient) FetchTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	return models.CloneTasks(tasks), nil
}

// FetchHousekeepers implements Gateway.
func (c *HTTPClient) FetchHousekeepers(ctx context.Context) ([]models.Housekeeper, error) {
	var hks []models.Housekeeper
	if err := c.do(ctx, http.MethodGet, "/housekeepers", nil, &hks); err != nil {
		return nil, fmt.Errorf("fetch housekeepers: %w", err)
	}
	return models.CloneHousekeepers(hks), nil
}

// SubmitTasks implements Gateway.
func (c *HTTPClient) SubmitTasks(ctx context.Context, tasks []models.Task) ([]models.Task, error) {
	var echoed []models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", models.CloneTasks(tasks), &echoed); err != nil {
		return nil, fmt.Errorf("submit tasks: %w", err)
	}
	return models.CloneTasks(echoed), nil
}

// CheckHealth reports whether the backend answers its health probe.
func (c *HTTPClient) CheckHealth(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/health", nil, nil) == nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
