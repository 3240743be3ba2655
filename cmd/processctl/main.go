package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/process-agent/internal/client"
	"github.com/povarna/generative-ai-agents/process-agent/internal/setup/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	file := flag.String("file", "", "Text file to process, '-' for stdin")
	prompt := flag.String("prompt", "", "Instruction applied to every chunk")
	url := flag.String("url", getEnv("PROCESS_AGENT_URL", client.DefaultBaseURL), "Process agent base URL")
	chunkSize := flag.Int("chunk-size", client.DefaultChunkSize, "Maximum characters per request")
	workers := flag.Int("workers", 1, "Concurrent requests, 1 keeps chunks strictly sequential")
	timeout := flag.Duration("timeout", 150*time.Second, "Per request HTTP timeout")

	flag.Parse()

	log.Logger = logger.NewWithWriter(getEnv("LOG_LEVEL", "info"), "console", os.Stderr)

	if *file == "" || *prompt == "" {
		log.Fatal().Msg("both -file and -prompt are required")
	}

	text, err := readText(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read input")
	}

	chunks := client.Chunk(text, *chunkSize)
	if len(chunks) == 0 {
		log.Fatal().Str("file", *file).Msg("Input is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(*url, &http.Client{Timeout: *timeout})

	log.Info().
		Str("url", *url).
		Int("chunks", len(chunks)).
		Int("workers", *workers).
		Msg("Sending text")

	// print each response as soon as it is in order, so a later failure keeps earlier output
	results, err := c.ProcessChunks(ctx, chunks, *prompt, *workers, func(index int, response string) {
		fmt.Print(response + "\n\n")
	})
	if err != nil {
		log.Fatal().Err(err).Int("completed", len(results)).Int("chunks", len(chunks)).Msg("Processing failed")
	}
}

func readText(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
