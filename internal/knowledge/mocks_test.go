package knowledge_test

import (
	"context"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/crawler"
)

// MockCrawler implements knowledge.SiteCrawler
type MockCrawler struct {
	OnCrawl func(ctx context.Context, startURL string, maxDepth int, maxPages int) ([]crawler.PageResult, error)
}

func (m *MockCrawler) Crawl(ctx context.Context, startURL string, maxDepth int, maxPages int) ([]crawler.PageResult, error) {
	if m.OnCrawl != nil {
		return m.OnCrawl(ctx, startURL, maxDepth, maxPages)
	}
	return nil, nil
}

// MockProcessor implements knowledge.DocumentProcessor
type MockProcessor struct {
	OnProcessDocument func(ctx context.Context, id string) error
	OnProcessPending  func(ctx context.Context, limit int) (int, int, error)
	OnResync          func(ctx context.Context, id string) error
	OnDelete          func(ctx context.Context, id string) error

	ProcessedIds []string
}

func (m *MockProcessor) ProcessDocument(ctx context.Context, id string) error {
	m.ProcessedIds = append(m.ProcessedIds, id)
	if m.OnProcessDocument != nil {
		return m.OnProcessDocument(ctx, id)
	}
	return nil
}

func (m *MockProcessor) ProcessPending(ctx context.Context, limit int) (int, int, error) {
	if m.OnProcessPending != nil {
		return m.OnProcessPending(ctx, limit)
	}
	return 0, 0, nil
}

func (m *MockProcessor) Resync(ctx context.Context, id string) error {
	if m.OnResync != nil {
		return m.OnResync(ctx, id)
	}
	return nil
}

func (m *MockProcessor) Delete(ctx context.Context, id string) error {
	if m.OnDelete != nil {
		return m.OnDelete(ctx, id)
	}
	return nil
}

// MockDocStore implements docModel.DocumentStore
type MockDocStore struct {
	OnSaveDocument    func(ctx context.Context, doc docModel.Document) error
	OnSaveEntityLinks func(ctx context.Context, entityKey string, documentIds []string) error

	Saved      []docModel.Document
	LinkedKeys map[string][]string
}

func (m *MockDocStore) SaveDocument(ctx context.Context, doc docModel.Document) error {
	if m.OnSaveDocument != nil {
		if err := m.OnSaveDocument(ctx, doc); err != nil {
			return err
		}
	}
	m.Saved = append(m.Saved, doc)
	return nil
}

func (m *MockDocStore) GetDocument(ctx context.Context, id string) (docModel.Document, bool) {
	for _, d := range m.Saved {
		if d.Id == id {
			return d, true
		}
	}
	return docModel.Document{}, false
}

func (m *MockDocStore) GetPendingDocuments(ctx context.Context, limit int) ([]docModel.Document, error) {
	return nil, nil
}

func (m *MockDocStore) UpdateDocumentStatus(ctx context.Context, id string, status docModel.DocStatus, errMsg string) error {
	return nil
}

func (m *MockDocStore) UpdateDocumentExtractedText(ctx context.Context, id string, text string, hash string) error {
	return nil
}

func (m *MockDocStore) SaveEntityLinks(ctx context.Context, entityKey string, documentIds []string) error {
	if m.LinkedKeys == nil {
		m.LinkedKeys = make(map[string][]string)
	}
	m.LinkedKeys[entityKey] = documentIds
	if m.OnSaveEntityLinks != nil {
		return m.OnSaveEntityLinks(ctx, entityKey, documentIds)
	}
	return nil
}

func (m *MockDocStore) DeleteDocument(ctx context.Context, id string) {}

// MockVectorDB implements vectorDB.DataProcessor
type MockVectorDB struct {
	OnSearchChunks    func(ctx context.Context, vector []float32, limit uint64, threshold float32) ([]docModel.ScoredChunk, error)
	OnGetCachedSearch func(ctx context.Context, queryVector []float32) (string, bool, error)
	OnSaveToCache     func(ctx context.Context, id string, vector []float32, response string) error
}

func (m *MockVectorDB) EnsureCollections(ctx context.Context) error { return nil }

func (m *MockVectorDB) ReplaceDocumentChunks(ctx context.Context, doc docModel.Document, chunks []docModel.Chunk, vectors [][]float32) error {
	return nil
}

func (m *MockVectorDB) DeleteDocumentChunks(ctx context.Context, documentId string) error {
	return nil
}

func (m *MockVectorDB) SearchChunks(ctx context.Context, vector []float32, limit uint64, threshold float32) ([]docModel.ScoredChunk, error) {
	if m.OnSearchChunks != nil {
		return m.OnSearchChunks(ctx, vector, limit, threshold)
	}
	return nil, nil
}

func (m *MockVectorDB) GetCachedSearch(ctx context.Context, queryVector []float32) (string, bool, error) {
	if m.OnGetCachedSearch != nil {
		return m.OnGetCachedSearch(ctx, queryVector)
	}
	return "", false, nil
}

func (m *MockVectorDB) SaveSearchToCache(ctx context.Context, id string, vector []float32, response string) error {
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, id, vector, response)
	}
	return nil
}

// MockQueryEmbedder implements knowledge.QueryEmbedder
type MockQueryEmbedder struct {
	OnEmbedQuery func(ctx context.Context, query string) ([]float32, error)
}

func (m *MockQueryEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, query)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}
