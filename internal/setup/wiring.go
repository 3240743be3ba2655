package setup

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/povarna/generative-ai-agents/process-agent/internal/config"
	"github.com/povarna/generative-ai-agents/process-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/process-agent/internal/llm/bedrock"
	"github.com/povarna/generative-ai-agents/process-agent/internal/llm/gpt"
	"github.com/povarna/generative-ai-agents/process-agent/internal/llm/ollama"
	"github.com/povarna/generative-ai-agents/process-agent/internal/processor"
	"github.com/rs/zerolog"
)

const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
)

// Config is read from the environment. Zero values for the model, pool and
// timeout settings fall back to the YAML process config.
type Config struct {
	Provider       string
	OllamaURL      string
	ModelID        string
	OpenAIKey      string
	OpenAIBaseURL  string
	AWSRegion      string
	Port           string
	MaxBodyBytes   int64
	MaxConcurrency int64
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
}

type Dependencies struct {
	Processor *processor.Processor
	Logger    *zerolog.Logger
	ModelID   string
}

func LoadConfig() *Config {
	return &Config{
		Provider:       getEnv("LLM_PROVIDER", ProviderOllama),
		OllamaURL:      getEnv("OLLAMA_URL", ollama.DefaultServerURL),
		ModelID:        getEnv("MODEL_ID", ""),
		OpenAIKey:      getEnv("OPEN_AI_KEY", ""),
		OpenAIBaseURL:  getEnv("OPEN_AI_BASE_URL", ""),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		Port:           getEnv("PROCESS_AGENT_API_PORT", "18080"),
		MaxBodyBytes:   getEnvInt("PROCESS_MAX_BODY_BYTES", 1<<20),
		MaxConcurrency: getEnvInt("PROCESS_MAX_CONCURRENCY", 0),
		RequestTimeout: getEnvDuration("PROCESS_REQUEST_TIMEOUT", 0),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
	}
}

func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	processConfig, err := config.LoadProcessConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load process config: %w", err)
	}

	modelID := cfg.ModelID
	if modelID == "" {
		modelID = processConfig.Model.Name
	}

	llmClient, err := createLLMClient(ctx, cfg, modelID)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}

	options := processor.Options{
		MaxTokens:      processConfig.Model.MaxTokens,
		Temperature:    processConfig.Model.Temperature,
		Retry:          processConfig.Model.Retry,
		MaxConcurrency: processConfig.Pool.MaxConcurrency,
		Timeout:        processConfig.Pool.RequestTimeout,
	}
	if cfg.MaxConcurrency > 0 {
		options.MaxConcurrency = cfg.MaxConcurrency
	}
	if cfg.RequestTimeout > 0 {
		options.Timeout = cfg.RequestTimeout
	}

	logger.Info().
		Str("provider", cfg.Provider).
		Str("model", llmClient.ModelID()).
		Int64("max_concurrency", options.MaxConcurrency).
		Dur("timeout", options.Timeout).
		Msg("Processor configured")

	return &Dependencies{
		Processor: processor.NewProcessor(llmClient, options, logger),
		Logger:    logger,
		ModelID:   llmClient.ModelID(),
	}, nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}

func createLLMClient(ctx context.Context, cfg *Config, modelID string) (llm.LLMClient, error) {
	switch cfg.Provider {
	case ProviderOllama:
		// the per-request timeout is enforced by the processor context
		return ollama.NewClient(cfg.OllamaURL, modelID, &http.Client{})
	case ProviderOpenAI:
		return gpt.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, modelID)
	case ProviderBedrock:
		return bedrock.NewClient(ctx, cfg.AWSRegion, modelID)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
