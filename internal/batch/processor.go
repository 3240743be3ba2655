package batch

import (
	"context"
	"time"

	"github.com/povarna/generative-ai-agents/process-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/process-agent/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type TextProcessor interface {
	Process(ctx context.Context, req models.ProcessRequest) (*models.ProcessResponse, error)
}

// Processor fans records out to a fixed number of workers. Record failures
// are reported in the Result; they never stop the batch.
type Processor struct {
	textProcessor TextProcessor
	workers       int
	logger        *zerolog.Logger
}

func NewProcessor(textProcessor TextProcessor, workers int, logger *zerolog.Logger) *Processor {
	if workers < 1 {
		workers = 1
	}

	return &Processor{
		textProcessor: textProcessor,
		workers:       workers,
		logger:        logger,
	}
}

// Process returns results in completion order. The channel closes once every
// record is done or ctx is cancelled.
func (p *Processor) Process(ctx context.Context, records []InputRecord) <-chan Result {
	results := make(chan Result, p.workers)

	go func() {
		defer close(results)

		g := new(errgroup.Group)
		g.SetLimit(p.workers)

		for _, record := range records {
			if ctx.Err() != nil {
				p.logger.Warn().Int("line", record.LineNumber).Msg("Batch cancelled, skipping remaining records")
				break
			}

			g.Go(func() error {
				result := p.processRecord(ctx, record)
				select {
				case results <- result:
				case <-ctx.Done():
				}
				return nil
			})
		}

		_ = g.Wait()
	}()

	return results
}

func (p *Processor) processRecord(ctx context.Context, record InputRecord) Result {
	result := Result{ID: record.Request.ID, LineNumber: record.LineNumber}

	if record.Error != nil {
		result.Error = &middleware.ErrorDetail{Kind: middleware.KindMalformedRequest, Message: record.Error.Error()}
		return result
	}

	start := time.Now()
	resp, err := p.textProcessor.Process(ctx, record.Request.ProcessRequest)
	if err != nil {
		p.logger.Error().Err(err).Str("id", result.ID).Int("line", record.LineNumber).Msg("Record failed")
		result.Error = &middleware.ErrorDetail{Kind: middleware.KindForError(err), Message: err.Error()}
		return result
	}

	p.logger.Debug().Str("id", result.ID).Dur("duration", time.Since(start)).Msg("Record processed")
	result.Response = resp.Response
	return result
}
