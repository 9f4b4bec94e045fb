package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/data/redisStore"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

const documentKeyPrefix = "document:"
const statusSetPrefix = "docs:status:"
const entityLinkPrefix = "links:"

// RedisDocumentStore keeps document records as JSON values plus one set per
// status so the pending backlog can be read without scanning every key.
type RedisDocumentStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisDocumentStore(ctx context.Context) *RedisDocumentStore {
	backing := redisStore.GetRedisStore(ctx, config.RedisDocumentStore)
	if backing == nil {
		return nil
	}
	return &RedisDocumentStore{
		store:  backing,
		logger: logger_i.NewLogger("DocumentStore"),
	}
}

func documentKey(id string) string { return documentKeyPrefix + id }

func statusSet(status docModel.DocStatus) string { return statusSetPrefix + string(status) }

var allStatuses = []docModel.DocStatus{
	docModel.StatusPending, docModel.StatusProcessing,
	docModel.StatusIndexed, docModel.StatusFailed,
}

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, doc docModel.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, documentKey(doc.Id), data, config.RedisDocumentTTL); err != nil {
		return err
	}
	return s.moveToStatusSet(ctx, doc.Id, doc.Status)
}

func (s *RedisDocumentStore) GetDocument(ctx context.Context, id string) (docModel.Document, bool) {
	var doc docModel.Document

	val, err := s.store.Get(ctx, documentKey(id))
	if s.store.IsNil(err) || err != nil {
		return doc, false
	}
	if err := json.Unmarshal([]byte(val), &doc); err != nil {
		s.logger.Error("document record unreadable", "documentId", id, "error", err)
		return doc, false
	}
	return doc, true
}

// GetPendingDocuments reads the pending set in sorted id order so repeated
// batch runs drain the backlog deterministically.
func (s *RedisDocumentStore) GetPendingDocuments(ctx context.Context, limit int) ([]docModel.Document, error) {
	ids, err := s.store.SetMembers(ctx, statusSet(docModel.StatusPending))
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)

	var out []docModel.Document
	for _, id := range ids {
		if limit > 0 && len(out) >= limit {
			break
		}
		if doc, ok := s.GetDocument(ctx, id); ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *RedisDocumentStore) UpdateDocumentStatus(ctx context.Context, id string, status docModel.DocStatus, errMsg string) error {
	doc, ok := s.GetDocument(ctx, id)
	if !ok {
		return redisNotFound(id)
	}
	doc.Status = status
	doc.ErrorMessage = errMsg
	doc.UpdatedTime = time.Now()
	return s.SaveDocument(ctx, doc)
}

func (s *RedisDocumentStore) UpdateDocumentExtractedText(ctx context.Context, id string, text string, hash string) error {
	doc, ok := s.GetDocument(ctx, id)
	if !ok {
		return redisNotFound(id)
	}
	doc.ExtractedText = text
	doc.ContentHash = hash
	doc.UpdatedTime = time.Now()
	return s.SaveDocument(ctx, doc)
}

func (s *RedisDocumentStore) SaveEntityLinks(ctx context.Context, entityKey string, documentIds []string) error {
	members := make([]interface{}, len(documentIds))
	for i, id := range documentIds {
		members[i] = id
	}
	return s.store.SetAdd(ctx, entityLinkPrefix+entityKey, members...)
}

func (s *RedisDocumentStore) DeleteDocument(ctx context.Context, id string) {
	for _, status := range allStatuses {
		if err := s.store.SetRemove(ctx, statusSet(status), id); err != nil {
			s.logger.Error("could not clear status set", "documentId", id, "error", err)
		}
	}
	if err := s.store.Del(ctx, documentKey(id)); err != nil {
		s.logger.Error("Error deleting document from Redis", "documentId", id)
		return
	}
	s.logger.Debug("Document deleted from Redis", "documentId", id)
}

func (s *RedisDocumentStore) moveToStatusSet(ctx context.Context, id string, status docModel.DocStatus) error {
	for _, other := range allStatuses {
		if other == status {
			continue
		}
		if err := s.store.SetRemove(ctx, statusSet(other), id); err != nil {
			return err
		}
	}
	return s.store.SetAdd(ctx, statusSet(status), id)
}

func redisNotFound(id string) error {
	return &notFoundError{id: id}
}

type notFoundError struct{ id string }

func (e *notFoundError) Error() string { return "document not found: " + e.id }

func TestDocumentStore(store *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  store,
		logger: logger_i.NewLogger("test redis docs"),
	}
}
