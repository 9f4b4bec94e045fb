package vectorDB

import (
	"context"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
)

// DataProcessor is the vector persistence layer for chunk embeddings and the
// semantic search cache.
type DataProcessor interface {
	EnsureCollections(ctx context.Context) error

	// ReplaceDocumentChunks atomically swaps a document's chunks: existing
	// points for the document are deleted before the new set is inserted,
	// so a shrinking document never leaves stale chunks behind.
	ReplaceDocumentChunks(ctx context.Context, doc docModel.Document, chunks []docModel.Chunk, vectors [][]float32) error
	DeleteDocumentChunks(ctx context.Context, documentId string) error

	SearchChunks(ctx context.Context, vector []float32, limit uint64, threshold float32) ([]docModel.ScoredChunk, error)

	GetCachedSearch(ctx context.Context, queryVector []float32) (string, bool, error)
	SaveSearchToCache(ctx context.Context, id string, vector []float32, response string) error
}
