package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

const testDim = 4

// vecFor builds a deterministic vector from the text so tests can check
// which input produced which output.
func vecFor(text string) []float32 {
	v := make([]float32, testDim)
	for i := range v {
		v[i] = float32(len(text) + i)
	}
	return v
}

type mockProvider struct {
	batchFn func(ctx context.Context, texts []string) ([]IndexedVector, error)
	calls   int
}

func (m *mockProvider) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return vecFor(query), nil
}

func (m *mockProvider) EmbedBatch(ctx context.Context, texts []string) ([]IndexedVector, error) {
	m.calls++
	return m.batchFn(ctx, texts)
}

func testGenerator(p Provider, batchLimit int) *Generator {
	return &Generator{
		provider:   p,
		batchLimit: batchLimit,
		dimension:  testDim,
		logger:     logger_i.NewLogger("embedding-test"),
	}
}

// a provider that answers in reverse order: outputs must still line up with
// the inputs positionally
func reversingProvider() *mockProvider {
	return &mockProvider{batchFn: func(_ context.Context, texts []string) ([]IndexedVector, error) {
		out := make([]IndexedVector, 0, len(texts))
		for i := len(texts) - 1; i >= 0; i-- {
			out = append(out, IndexedVector{Index: i, Values: vecFor(texts[i])})
		}
		return out, nil
	}}
}

func TestEmbed_RestoresProviderOrder(t *testing.T) {
	g := testGenerator(reversingProvider(), 100)
	texts := []string{"a", "bb", "ccc"}

	vectors, err := g.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors; want %d", len(vectors), len(texts))
	}
	for i, text := range texts {
		want := vecFor(text)
		for j := range want {
			if vectors[i][j] != want[j] {
				t.Fatalf("vectors[%d] does not match input %q", i, text)
			}
		}
	}
}

func TestEmbed_SplitsAtBatchLimit(t *testing.T) {
	p := reversingProvider()
	g := testGenerator(p, 2)

	texts := []string{"a", "b", "c", "d", "e"}
	vectors, err := g.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 5 {
		t.Errorf("got %d vectors; want 5", len(vectors))
	}
	if p.calls != 3 {
		t.Errorf("provider called %d times; want 3", p.calls)
	}
}

func TestEmbed_FailureAbortsWhole(t *testing.T) {
	p := &mockProvider{batchFn: func(_ context.Context, texts []string) ([]IndexedVector, error) {
		return nil, errors.New("quota exceeded")
	}}
	g := testGenerator(p, 2)

	vectors, err := g.Embed(context.Background(), []string{"a", "b", "c"})
	if err == nil {
		t.Fatal("expected error")
	}
	if vectors != nil {
		t.Errorf("partial vectors returned on failure: %v", vectors)
	}
}

func TestEmbed_CountMismatchRejected(t *testing.T) {
	p := &mockProvider{batchFn: func(_ context.Context, texts []string) ([]IndexedVector, error) {
		//drop the last vector
		out := make([]IndexedVector, 0, len(texts)-1)
		for i := 0; i < len(texts)-1; i++ {
			out = append(out, IndexedVector{Index: i, Values: vecFor(texts[i])})
		}
		return out, nil
	}}
	g := testGenerator(p, 100)

	_, err := g.Embed(context.Background(), []string{"a", "b", "c"})
	if err == nil || !strings.Contains(err.Error(), "count mismatch") {
		t.Fatalf("expected count mismatch error, got %v", err)
	}
}

func TestEmbed_DimensionMismatchRejected(t *testing.T) {
	p := &mockProvider{batchFn: func(_ context.Context, texts []string) ([]IndexedVector, error) {
		out := make([]IndexedVector, len(texts))
		for i := range texts {
			out[i] = IndexedVector{Index: i, Values: make([]float32, testDim+1)}
		}
		return out, nil
	}}
	g := testGenerator(p, 100)

	_, err := g.Embed(context.Background(), []string{"a"})
	if err == nil || !strings.Contains(err.Error(), "dimension mismatch") {
		t.Fatalf("expected dimension mismatch error, got %v", err)
	}
}

func TestEmbedWithProgress_ReportsMonotonically(t *testing.T) {
	g := testGenerator(reversingProvider(), 1000)

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%d", i)
	}

	var reports []int
	vectors, err := g.EmbedWithProgress(context.Background(), texts, func(done int, total int) {
		if total != len(texts) {
			t.Errorf("report total = %d; want %d", total, len(texts))
		}
		reports = append(reports, done)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors; want %d", len(vectors), len(texts))
	}
	// 250 texts in sub-batches of 100 means reports at 100, 200, 250
	want := []int{100, 200, 250}
	if len(reports) != len(want) {
		t.Fatalf("got reports %v; want %v", reports, want)
	}
	for i := range want {
		if reports[i] != want[i] {
			t.Errorf("reports[%d] = %d; want %d", i, reports[i], want[i])
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1, false},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, false},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, false},
		{"dimension mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0, true},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(float64(got)-tt.want) > 1e-6 {
				t.Errorf("similarity = %v; want %v", got, tt.want)
			}
		})
	}
}
