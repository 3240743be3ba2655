package ollama

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/povarna/generative-ai-agents/process-agent/internal/llm"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	DefaultServerURL = "http://localhost:11434"
	DefaultModel     = "gemma2:2b"
)

// Client talks to a local Ollama daemon through langchaingo.
type Client struct {
	llm         llms.Model
	ServerURL   string
	Model       string
	RetryPolicy llm.RetryPolicy
}

func NewClient(serverURL string, model string, httpClient *http.Client) (*Client, error) {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	if model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}

	opts := []ollama.Option{
		ollama.WithModel(model),
		ollama.WithServerURL(strings.TrimRight(serverURL, "/")),
	}
	if httpClient != nil {
		opts = append(opts, ollama.WithHTTPClient(httpClient))
	}

	ollamaLLM, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &Client{
		llm:         ollamaLLM,
		ServerURL:   serverURL,
		Model:       model,
		RetryPolicy: llm.DefaultRetryPolicy(),
	}, nil
}

func (c *Client) ModelID() string {
	return c.Model
}
