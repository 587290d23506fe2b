package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"whisperd/pkg/types"
)

// Client handles API calls to the whisperd daemon.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new client with the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Detail     types.ErrorResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *Client) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var detail types.ErrorResponse
		if json.Unmarshal(respBody, &detail) == nil && detail.Error != "" {
			apiErr.Message = detail.Error
			apiErr.Detail = detail
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// SubmitJob sends POST /jobs to enqueue a transcription.
func (c *Client) SubmitJob(req types.SubmitRequest) (*types.SubmitResponse, error) {
	var resp types.SubmitResponse
	if err := c.do(http.MethodPost, "/jobs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetJob sends GET /jobs/{id}.
func (c *Client) GetJob(jobID string) (*types.JobView, error) {
	var resp types.JobView
	if err := c.do(http.MethodGet, "/jobs/"+jobID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListJobs sends GET /jobs.
func (c *Client) ListJobs() (*types.JobsResponse, error) {
	var resp types.JobsResponse
	if err := c.do(http.MethodGet, "/jobs", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelJob sends DELETE /jobs/{id}.
func (c *Client) CancelJob(jobID string) error {
	return c.do(http.MethodDelete, "/jobs/"+jobID, nil, nil)
}

// ListDevices sends GET /devices.
func (c *Client) ListDevices() (*types.DevicesResponse, error) {
	var resp types.DevicesResponse
	if err := c.do(http.MethodGet, "/devices", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListModels sends GET /models.
func (c *Client) ListModels() (*types.ModelsResponse, error) {
	var resp types.ModelsResponse
	if err := c.do(http.MethodGet, "/models", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStatus sends GET /status.
func (c *Client) GetStatus() (*types.StatusResponse, error) {
	var resp types.StatusResponse
	if err := c.do(http.MethodGet, "/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OpenEvents opens the /events NDJSON stream. The caller must close the
// returned body.
func (c *Client) OpenEvents() (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+"/events", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// No client timeout: the stream stays open until interrupted.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	return resp.Body, nil
}
