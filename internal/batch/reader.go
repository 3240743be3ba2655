package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/povarna/generative-ai-agents/process-agent/internal/models"
	"github.com/povarna/generative-ai-agents/process-agent/internal/processor"
	"github.com/rs/zerolog"
)

// maxLineBytes bounds a single JSONL record; long texts easily exceed the
// scanner default of 64KiB.
const maxLineBytes = 8 << 20

// Record is one line of batch input.
type Record struct {
	ID string `json:"id"`
	models.ProcessRequest
}

type InputRecord struct {
	LineNumber int
	Request    Record
	Error      error
}

type Reader struct {
	source io.Reader
	logger *zerolog.Logger
}

func NewReader(source io.Reader, logger *zerolog.Logger) *Reader {
	return &Reader{source: source, logger: logger}
}

// ReadAll streams parsed lines. Blank lines are skipped; lines that fail to
// parse are emitted with Error set so callers can report them by line.
func (r *Reader) ReadAll(ctx context.Context) <-chan InputRecord {
	out := make(chan InputRecord)

	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r.source)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		lineNumber := 0
		for scanner.Scan() {
			lineNumber++

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			record := InputRecord{LineNumber: lineNumber}
			if err := json.Unmarshal([]byte(line), &record.Request); err != nil {
				record.Error = fmt.Errorf("line %d: %w", lineNumber, err)
			}
			if record.Request.ID == "" {
				record.Request.ID = fmt.Sprintf("line-%d", lineNumber)
			}

			select {
			case out <- record:
			case <-ctx.Done():
				r.logger.Warn().Int("line", lineNumber).Msg("Reading interrupted")
				return
			}
		}

		if err := scanner.Err(); err != nil {
			r.logger.Error().Err(err).Int("line", lineNumber).Msg("Failed to scan input")
			select {
			case out <- InputRecord{LineNumber: lineNumber + 1, Error: err}:
			case <-ctx.Done():
			}
		}
	}()

	return out
}

// Validate reports what would fail before the model is called: a parse error
// or a missing text or prompt.
func (r InputRecord) Validate() error {
	if r.Error != nil {
		return r.Error
	}
	if err := processor.Validate(r.Request.ProcessRequest); err != nil {
		return fmt.Errorf("line %d: %w", r.LineNumber, err)
	}
	return nil
}
