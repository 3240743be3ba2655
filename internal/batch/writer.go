package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/povarna/generative-ai-agents/process-agent/internal/api/middleware"
	"github.com/rs/zerolog"
)

const (
	FormatJSONL = "jsonl"
	FormatText  = "text"
)

// Result is one processed record. Exactly one of Response and Error is set.
type Result struct {
	ID         string                  `json:"id"`
	LineNumber int                     `json:"line"`
	Response   string                  `json:"response,omitempty"`
	Error      *middleware.ErrorDetail `json:"error,omitempty"`
}

type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	format string
	logger *zerolog.Logger
}

func NewWriter(out io.Writer, format string, logger *zerolog.Logger) (*Writer, error) {
	switch format {
	case FormatJSONL, FormatText:
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}

	return &Writer{out: out, format: format, logger: logger}, nil
}

func (w *Writer) Write(result Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.format == FormatText {
		return w.writeText(result)
	}

	line, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result %s: %w", result.ID, err)
	}
	if _, err := w.out.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write result %s: %w", result.ID, err)
	}
	return nil
}

func (w *Writer) writeText(result Result) error {
	var err error
	if result.Error != nil {
		_, err = fmt.Fprintf(w.out, "[%s] error (%s): %s\n\n", result.ID, result.Error.Kind, result.Error.Message)
	} else {
		_, err = fmt.Fprintf(w.out, "[%s]\n%s\n\n", result.ID, result.Response)
	}
	if err != nil {
		return fmt.Errorf("failed to write result %s: %w", result.ID, err)
	}
	return nil
}

// Close flushes the underlying writer when it supports it.
func (w *Writer) Close() error {
	if f, ok := w.out.(interface{ Sync() error }); ok {
		if err := f.Sync(); err != nil {
			w.logger.Debug().Err(err).Msg("Output sync skipped")
		}
	}
	return nil
}
