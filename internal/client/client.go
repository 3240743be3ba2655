package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/process-agent/internal/models"
)

const (
	DefaultBaseURL = "http://localhost:18080"
	processPath    = "/process"
)

// APIError is a non-2xx answer from the process endpoint.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("process failed with status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("process failed with status %d (%s): %s", e.Status, e.Kind, e.Message)
}

// Client calls a running process agent over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 150 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) Process(ctx context.Context, text string, prompt string) (string, error) {
	body, err := json.Marshal(models.ProcessRequest{Text: text, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+processPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call %s: %w", processPath, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", decodeError(resp.StatusCode, respBody)
	}

	// a 200 may still carry the legacy error field
	var result struct {
		Response *string         `json:"response"`
		Error    json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Error) > 0 && string(result.Error) != "null" {
		return "", decodeError(resp.StatusCode, respBody)
	}
	if result.Response == nil {
		return "", errors.New("response field missing from reply")
	}

	return *result.Response, nil
}

// decodeError accepts {"error":{"kind","message"}} as well as the older
// {"error":"message"} shape.
func decodeError(status int, body []byte) error {
	apiErr := &APIError{Status: status, Message: strings.TrimSpace(string(body))}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return apiErr
	}

	var detail struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		apiErr.Kind = detail.Kind
		apiErr.Message = detail.Message
		return apiErr
	}

	var legacy string
	if err := json.Unmarshal(envelope.Error, &legacy); err == nil {
		apiErr.Message = legacy
	}
	return apiErr
}
