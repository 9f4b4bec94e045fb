package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

// IndexedVector carries the position the input text had in the request so
// callers can restore order even when a provider answers out of order.
type IndexedVector struct {
	Index  int
	Values []float32
}

// Provider is the embedding backend. Implementations may return batch
// vectors in any order as long as each one carries its request index.
type Provider interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([]IndexedVector, error)
}

// Generator wraps a Provider with batch splitting and order restoration.
// Output vectors are always positionally aligned with the input texts.
type Generator struct {
	provider Provider
	//provider hard cap on texts per call; tests shrink it
	batchLimit int
	dimension  int
	logger     *logger_i.Logger
}

func NewGenerator(p Provider) *Generator {
	return &Generator{
		provider:   p,
		batchLimit: config.ProviderBatchLimit,
		dimension:  int(config.EmbeddingOutputDimensionality),
		logger:     logger_i.NewLogger("embedding"),
	}
}

func (g *Generator) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return g.provider.EmbedQuery(ctx, query)
}

// Embed produces one vector per input text, in input order. Any batch
// failure aborts the whole call: partial embeddings are never returned.
func (g *Generator) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchLimit {
		end := start + g.batchLimit
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := g.embedOne(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedWithProgress embeds in small sub-batches with a pause between them to
// smooth rate-limit pressure, reporting completed counts after each one.
func (g *Generator) EmbedWithProgress(ctx context.Context, texts []string, report func(done int, total int)) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += config.ProgressSubBatchSize {
		end := start + config.ProgressSubBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := g.embedOne(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)

		if report != nil {
			report(len(out), len(texts))
		}
		if end < len(texts) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(config.ProgressBatchDelay):
			}
		}
	}
	return out, nil
}

func (g *Generator) embedOne(ctx context.Context, texts []string) ([][]float32, error) {
	indexed, err := g.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(indexed) != len(texts) {
		g.logger.Error("provider returned wrong vector count", "want", len(texts), "got", len(indexed))
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(indexed))
	}

	sort.Slice(indexed, func(i, j int) bool { return indexed[i].Index < indexed[j].Index })

	out := make([][]float32, len(indexed))
	for i, v := range indexed {
		if v.Index != i {
			return nil, fmt.Errorf("embedding index gap: expected %d, got %d", i, v.Index)
		}
		if len(v.Values) != g.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch at %d: got %d, want %d",
				i, len(v.Values), g.dimension)
		}
		out[i] = v.Values
	}
	return out, nil
}

// CosineSimilarity compares two vectors of equal dimension.
func CosineSimilarity(a []float32, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, errors.New("empty vectors")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, errors.New("zero magnitude vector")
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}
