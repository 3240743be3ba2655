package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/process-agent/internal/batch"
	"github.com/povarna/generative-ai-agents/process-agent/internal/setup"
	"github.com/povarna/generative-ai-agents/process-agent/internal/setup/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	startTime := time.Now()

	input := flag.String("input", "", "Input JSONL file path, '-' for stdin")
	output := flag.String("output", "", "Output file path, stdout when empty")
	format := flag.String("format", batch.FormatJSONL, "Output format. Supported formats: 'jsonl', 'text'")
	workers := flag.Int("workers", 4, "Concurrent process workers")
	dryRun := flag.Bool("dry-run", false, "Check every record parses and has text and prompt, without calling the model")

	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg := setup.LoadConfig()
	appLogger := logger.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	log.Logger = appLogger

	if *input == "" {
		log.Fatal().Msg("required flag -input not provided")
	}

	ctx, cancel := setupGracefulShutdown()
	defer cancel()

	// Open input file
	var inputFile io.Reader
	if *input == "-" {
		inputFile = os.Stdin
		log.Info().Msg("Reading from stdin")
	} else {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatal().Err(err).Str("file", *input).Msg("Failed to open input file")
		}
		defer f.Close()
		inputFile = f
		log.Info().Str("file", *input).Msg("Reading input file")
	}

	// Read records
	var records []batch.InputRecord
	for record := range batch.NewReader(inputFile, &appLogger).ReadAll(ctx) {
		records = append(records, record)
	}

	log.Info().Int("total", len(records)).Msg("Input file parsed")

	if *dryRun {
		dryRunAndExit(records)
	}

	deps, err := setup.Wire(ctx, cfg, &appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// Open output file
	var outputFile io.Writer
	if *output == "" {
		outputFile = os.Stdout
		log.Info().Msg("Writing to stdout")
	} else {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal().Err(err).Str("file", *output).Msg("Failed to create output file")
		}
		defer f.Close()
		outputFile = f
		log.Info().Str("file", *output).Msg("Writing to output file")
	}

	writer, err := batch.NewWriter(outputFile, *format, deps.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create writer")
	}
	defer writer.Close()

	// Process with worker pool
	processor := batch.NewProcessor(deps.Processor, *workers, deps.Logger)

	successCount := 0
	errorCount := 0

	for result := range processor.Process(ctx, records) {
		if result.Error != nil {
			errorCount++
		} else {
			successCount++
		}

		if err := writer.Write(result); err != nil {
			log.Error().Err(err).Str("id", result.ID).Msg("Failed to write result")
		}
	}

	log.Info().
		Int("success", successCount).
		Int("errors", errorCount).
		Dur("duration", time.Since(startTime)).
		Msg("Batch processing complete")
}

func setupGracefulShutdown() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Warn().Msg("Received interrupt signal, finishing current work...")
		cancel()
	}()

	return ctx, cancel
}

func dryRunAndExit(records []batch.InputRecord) {
	errorCount := 0
	for _, record := range records {
		if err := record.Validate(); err != nil {
			log.Error().
				Int("line", record.LineNumber).
				Err(err).
				Msg("Validation error")
			errorCount++
		}
	}

	if errorCount > 0 {
		log.Fatal().Int("errors", errorCount).Msg("Validation failed")
	}

	log.Info().Msg("Validation successful")
	os.Exit(0)
}
