package gpt

import (
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/povarna/generative-ai-agents/process-agent/internal/llm"
)

// Client speaks the OpenAI chat completions protocol. Pointing BaseURL at
// Ollama's /v1 endpoint reaches the local daemon through its compatibility layer.
type Client struct {
	Client      openai.Client
	Model       string
	RetryPolicy llm.RetryPolicy
}

func NewClient(apiKey string, baseURL string, model string, opts ...option.RequestOption) (*Client, error) {
	if model == "" {
		return nil, fmt.Errorf("OpenAI model ID is required")
	}
	if apiKey == "" && baseURL == "" {
		return nil, fmt.Errorf("OpenAI API key is required when no base URL is set")
	}
	if apiKey == "" {
		// local OpenAI-compatible servers ignore the key but the SDK insists on one
		apiKey = "ollama"
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// retries are driven by InvokeModelWithRetry only
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &Client{
		Client:      openai.NewClient(clientOpts...),
		Model:       model,
		RetryPolicy: llm.DefaultRetryPolicy(),
	}, nil
}

func (c *Client) ModelID() string {
	return c.Model
}
