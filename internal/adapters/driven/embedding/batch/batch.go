// Package batch splits embedding inputs into provider-sized requests.
package batch

import (
	"context"
	"fmt"
)

// Func embeds one request worth of texts, returning vectors aligned with them.
type Func func(ctx context.Context, texts []string) ([][]float32, error)

// Embed calls fn on consecutive slices of at most size texts and joins
// the results in input order. Every vector must have the length of the
// first one; cosine similarity is undefined across dimensions.
func Embed(ctx context.Context, texts []string, size int, fn Func) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if size <= 0 {
		size = len(texts)
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+size, len(texts))
		vectors, err := fn(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, end-1, err)
		}
		out = append(out, vectors...)
	}

	dim := len(out[0])
	if dim == 0 {
		return nil, fmt.Errorf("embed: empty vector for text 0")
	}
	for i, v := range out {
		if len(v) != dim {
			return nil, fmt.Errorf("embed: vector %d has %d dimensions, want %d", i, len(v), dim)
		}
	}
	return out, nil
}
