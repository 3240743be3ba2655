package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/povarna/generative-ai-agents/process-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/process-agent/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// textLabel separates the instruction from the content in the combined prompt.
const textLabel = "Текст: "

var (
	ErrEmptyText   = errors.New("text is required")
	ErrEmptyPrompt = errors.New("prompt is required")
	ErrUpstream    = errors.New("upstream generation failed")
	ErrTimeout     = errors.New("generation timed out")
	ErrCanceled    = errors.New("generation canceled")
)

type Options struct {
	MaxTokens      int
	Temperature    *float64
	Retry          bool
	MaxConcurrency int64
	Timeout        time.Duration
}

// Processor turns a ProcessRequest into a single upstream generation call.
// At most MaxConcurrency calls are in flight at once; the rest wait for a
// slot until their context expires.
type Processor struct {
	llmClient llm.LLMClient
	options   Options
	pool      *semaphore.Weighted
	logger    *zerolog.Logger
}

func NewProcessor(llmClient llm.LLMClient, options Options, logger *zerolog.Logger) *Processor {
	if options.MaxConcurrency < 1 {
		options.MaxConcurrency = 1
	}

	return &Processor{
		llmClient: llmClient,
		options:   options,
		pool:      semaphore.NewWeighted(options.MaxConcurrency),
		logger:    logger,
	}
}

// BuildPrompt joins the instruction and the text the same way for every request.
func BuildPrompt(prompt string, text string) string {
	return prompt + "\n\n" + textLabel + text
}

func Validate(req models.ProcessRequest) error {
	switch {
	case req.Text == "" && req.Prompt == "":
		return fmt.Errorf("%w, %w", ErrEmptyText, ErrEmptyPrompt)
	case req.Text == "":
		return ErrEmptyText
	case req.Prompt == "":
		return ErrEmptyPrompt
	}
	return nil
}

func (p *Processor) ModelID() string {
	return p.llmClient.ModelID()
}

func (p *Processor) Process(ctx context.Context, req models.ProcessRequest) (*models.ProcessResponse, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	start := time.Now()

	if p.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.options.Timeout)
		defer cancel()
	}

	if err := p.pool.Acquire(ctx, 1); err != nil {
		p.logger.Warn().Err(err).Msg("no free generation slot")
		return nil, contextError(ctx, start)
	}
	defer p.pool.Release(1)

	now := time.Now()
	request := llm.LLMRequest{
		Prompt:      BuildPrompt(req.Prompt, req.Text),
		MaxTokens:   p.options.MaxTokens,
		Temperature: p.options.Temperature,
	}

	var resp *llm.LLMResponse
	var err error
	if p.options.Retry {
		resp, err = p.llmClient.InvokeModelWithRetry(ctx, request)
	} else {
		resp, err = p.llmClient.InvokeModel(ctx, request)
	}

	if err != nil {
		if ctx.Err() != nil {
			p.logger.Warn().Err(err).Dur("duration", time.Since(now)).Msg("generation interrupted")
			return nil, contextError(ctx, start)
		}
		p.logger.Error().Err(err).Str("model", p.llmClient.ModelID()).Msg("LLM call failed")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrUpstream)
	}

	p.logger.Info().
		Str("model", p.llmClient.ModelID()).
		Int("prompt_chars", len([]rune(request.Prompt))).
		Int("response_chars", len([]rune(resp.Content))).
		Str("stop_reason", resp.StopReason).
		Dur("duration", time.Since(now)).
		Msg("generation complete")

	return &models.ProcessResponse{Response: resp.Content}, nil
}

// contextError reports the time actually spent, since the deadline may come
// from the caller rather than from Options.Timeout.
func contextError(ctx context.Context, start time.Time) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, time.Since(start).Round(time.Millisecond))
	}
	return ErrCanceled
}
