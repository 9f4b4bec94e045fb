package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

var inMemDocLogger = logger_i.NewLogger("InMem DocumentStore")

// InMemoryDocumentStore is the single-process fallback used when redis is
// unreachable. Same semantics as the redis store, gone on restart.
type InMemoryDocumentStore struct {
	mutex  *sync.RWMutex
	docMap map[string]docModel.Document
	links  map[string][]string
}

func InitInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		mutex:  new(sync.RWMutex),
		docMap: make(map[string]docModel.Document),
		links:  make(map[string][]string),
	}
}

func (store *InMemoryDocumentStore) SaveDocument(ctx context.Context, doc docModel.Document) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.docMap[doc.Id] = doc
	inMemDocLogger.Debug("Saved document to store", "documentId", doc.Id)
	return nil
}

func (store *InMemoryDocumentStore) GetDocument(ctx context.Context, id string) (docModel.Document, bool) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	result, found := store.docMap[id]
	return result, found
}

func (store *InMemoryDocumentStore) GetPendingDocuments(ctx context.Context, limit int) ([]docModel.Document, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	var ids []string
	for id, doc := range store.docMap {
		if doc.Status == docModel.StatusPending {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var out []docModel.Document
	for _, id := range ids {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, store.docMap[id])
	}
	return out, nil
}

func (store *InMemoryDocumentStore) UpdateDocumentStatus(ctx context.Context, id string, status docModel.DocStatus, errMsg string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	doc, found := store.docMap[id]
	if !found {
		return redisNotFound(id)
	}
	doc.Status = status
	doc.ErrorMessage = errMsg
	doc.UpdatedTime = time.Now()
	store.docMap[id] = doc
	return nil
}

func (store *InMemoryDocumentStore) UpdateDocumentExtractedText(ctx context.Context, id string, text string, hash string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	doc, found := store.docMap[id]
	if !found {
		return redisNotFound(id)
	}
	doc.ExtractedText = text
	doc.ContentHash = hash
	doc.UpdatedTime = time.Now()
	store.docMap[id] = doc
	return nil
}

func (store *InMemoryDocumentStore) SaveEntityLinks(ctx context.Context, entityKey string, documentIds []string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	existing := store.links[entityKey]
	for _, id := range documentIds {
		dup := false
		for _, have := range existing {
			if have == id {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, id)
		}
	}
	store.links[entityKey] = existing
	return nil
}

func (store *InMemoryDocumentStore) DeleteDocument(ctx context.Context, id string) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	delete(store.docMap, id)
}
