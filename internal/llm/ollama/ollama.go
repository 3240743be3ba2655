package ollama

import (
	"context"
	"fmt"

	"github.com/povarna/generative-ai-agents/process-agent/internal/llm"
	"github.com/tmc/langchaingo/llms"
)

func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	var options []llms.CallOption
	if request.Temperature != nil {
		options = append(options, llms.WithTemperature(*request.Temperature))
	}
	if request.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(request.MaxTokens))
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, request.Prompt),
	}

	output, err := c.llm.GenerateContent(ctx, messages, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to invoke ollama model %s: %w", c.Model, err)
	}

	if output == nil || len(output.Choices) == 0 {
		return nil, fmt.Errorf("no choices in ollama response")
	}

	choice := output.Choices[0]
	return &llm.LLMResponse{
		Content:    choice.Content,
		StopReason: choice.StopReason,
	}, nil
}

func (c *Client) InvokeModelWithRetry(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	return llm.InvokeWithRetry(ctx, c.RetryPolicy, func(ctx context.Context) (*llm.LLMResponse, error) {
		return c.InvokeModel(ctx, request)
	})
}
