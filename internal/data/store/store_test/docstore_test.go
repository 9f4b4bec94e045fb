package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/data/redisStore"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/data/store"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
)

func newTestDocStore(t *testing.T) *store.RedisDocumentStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.TestDocumentStore(redisStore.NewTestStore(client))
}

func pendingDoc(id string) docModel.Document {
	return docModel.Document{
		Id:         id,
		Name:       "Doc " + id,
		SourceType: docModel.SourceWeb,
		SourceRef:  "https://example.com/" + id,
		Status:     docModel.StatusPending,
		Priority:   docModel.PriorityStandard,
	}
}

func TestRedisDocumentStore_Roundtrip(t *testing.T) {
	docStore := newTestDocStore(t)
	ctx := context.Background()

	doc := pendingDoc("d1")
	doc.ExtractedText = "some extracted text"
	if err := docStore.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}

	got, found := docStore.GetDocument(ctx, "d1")
	if !found {
		t.Fatal("document not found after save")
	}
	if got.Name != doc.Name || got.ExtractedText != doc.ExtractedText {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
}

func TestRedisDocumentStore_PendingBacklog(t *testing.T) {
	docStore := newTestDocStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		if err := docStore.SaveDocument(ctx, pendingDoc(id)); err != nil {
			t.Fatal(err)
		}
	}
	indexed := pendingDoc("z")
	indexed.Status = docModel.StatusIndexed
	if err := docStore.SaveDocument(ctx, indexed); err != nil {
		t.Fatal(err)
	}

	pending, err := docStore.GetPendingDocuments(ctx, 2)
	if err != nil {
		t.Fatalf("GetPendingDocuments failed: %v", err)
	}
	//sorted by id, capped at the limit, indexed doc excluded
	if len(pending) != 2 || pending[0].Id != "a" || pending[1].Id != "b" {
		t.Errorf("unexpected backlog: %+v", pending)
	}
}

func TestRedisDocumentStore_StatusTransitionMovesSets(t *testing.T) {
	docStore := newTestDocStore(t)
	ctx := context.Background()

	if err := docStore.SaveDocument(ctx, pendingDoc("d1")); err != nil {
		t.Fatal(err)
	}
	if err := docStore.UpdateDocumentStatus(ctx, "d1", docModel.StatusIndexed, ""); err != nil {
		t.Fatalf("UpdateDocumentStatus failed: %v", err)
	}

	pending, err := docStore.GetPendingDocuments(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("indexed document still in pending set: %+v", pending)
	}

	got, _ := docStore.GetDocument(ctx, "d1")
	if got.Status != docModel.StatusIndexed {
		t.Errorf("status = %s; want indexed", got.Status)
	}
	if got.UpdatedTime.IsZero() {
		t.Error("UpdatedTime not bumped on status change")
	}
}

func TestRedisDocumentStore_FailureRecordsMessage(t *testing.T) {
	docStore := newTestDocStore(t)
	ctx := context.Background()

	if err := docStore.SaveDocument(ctx, pendingDoc("d1")); err != nil {
		t.Fatal(err)
	}
	if err := docStore.UpdateDocumentStatus(ctx, "d1", docModel.StatusFailed, "extraction failed: timeout"); err != nil {
		t.Fatal(err)
	}

	got, _ := docStore.GetDocument(ctx, "d1")
	if got.Status != docModel.StatusFailed || got.ErrorMessage == "" {
		t.Errorf("failure not recorded: %+v", got)
	}
}

func TestRedisDocumentStore_UpdateExtractedText(t *testing.T) {
	docStore := newTestDocStore(t)
	ctx := context.Background()

	if err := docStore.SaveDocument(ctx, pendingDoc("d1")); err != nil {
		t.Fatal(err)
	}
	if err := docStore.UpdateDocumentExtractedText(ctx, "d1", "fresh text", "abc123"); err != nil {
		t.Fatal(err)
	}

	got, _ := docStore.GetDocument(ctx, "d1")
	if got.ExtractedText != "fresh text" || got.ContentHash != "abc123" {
		t.Errorf("text update lost: %+v", got)
	}
}

func TestRedisDocumentStore_Delete(t *testing.T) {
	docStore := newTestDocStore(t)
	ctx := context.Background()

	if err := docStore.SaveDocument(ctx, pendingDoc("d1")); err != nil {
		t.Fatal(err)
	}
	docStore.DeleteDocument(ctx, "d1")

	if _, found := docStore.GetDocument(ctx, "d1"); found {
		t.Error("document still present after delete")
	}
	pending, _ := docStore.GetPendingDocuments(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("deleted document still in pending set: %+v", pending)
	}
}

func TestRedisDocumentStore_EntityLinks(t *testing.T) {
	docStore := newTestDocStore(t)
	ctx := context.Background()

	if err := docStore.SaveEntityLinks(ctx, "Acme Corporation", []string{"d1", "d2"}); err != nil {
		t.Fatalf("SaveEntityLinks failed: %v", err)
	}
	//saving again with an overlap must not error or duplicate
	if err := docStore.SaveEntityLinks(ctx, "Acme Corporation", []string{"d2", "d3"}); err != nil {
		t.Fatalf("second SaveEntityLinks failed: %v", err)
	}
}

func TestInMemoryDocumentStore_Basics(t *testing.T) {
	docStore := store.InitInMemoryDocumentStore()
	ctx := context.Background()

	if err := docStore.SaveDocument(ctx, pendingDoc("b")); err != nil {
		t.Fatal(err)
	}
	if err := docStore.SaveDocument(ctx, pendingDoc("a")); err != nil {
		t.Fatal(err)
	}

	pending, err := docStore.GetPendingDocuments(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].Id != "a" {
		t.Errorf("unexpected pending order: %+v", pending)
	}

	if err := docStore.UpdateDocumentStatus(ctx, "a", docModel.StatusIndexed, ""); err != nil {
		t.Fatal(err)
	}
	pending, _ = docStore.GetPendingDocuments(ctx, 10)
	if len(pending) != 1 || pending[0].Id != "b" {
		t.Errorf("status change not reflected: %+v", pending)
	}

	docStore.DeleteDocument(ctx, "b")
	if _, found := docStore.GetDocument(ctx, "b"); found {
		t.Error("document still present after delete")
	}
}
