package client

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

const DefaultChunkSize = 2000

// Chunk splits text into pieces of at most size characters. Splitting is
// rune based so multi-byte characters are never cut.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// ChunkHandler receives a response as soon as it and every earlier chunk
// have completed, so callers see output in chunk order.
type ChunkHandler func(index int, response string)

// ProcessChunks sends every chunk with the same prompt. With workers <= 1 the
// chunks go out one after another. On failure the responses completed in
// order before the failing chunk are returned along with the error.
func (c *Client) ProcessChunks(ctx context.Context, chunks []string, prompt string, workers int, onChunk ChunkHandler) ([]string, error) {
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	results := make([]string, len(chunks))
	completed := make([]bool, len(chunks))
	next := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, chunk := range chunks {
		g.Go(func() error {
			response, err := c.Process(ctx, chunk, prompt)
			if err != nil {
				return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}

			mu.Lock()
			defer mu.Unlock()

			results[i] = response
			completed[i] = true
			for next < len(chunks) && completed[next] {
				if onChunk != nil {
					onChunk(next, results[next])
				}
				next++
			}
			return nil
		})
	}

	err := g.Wait()
	return results[:next], err
}
