package lifecycle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/adapter/utils"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/chunker"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/crawler"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/vectorDB"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/metrics"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

// PageFetcher refetches a single web page during re-sync.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (crawler.PageResult, error)
}

// FileReader extracts text from an uploaded file on disk.
type FileReader interface {
	FileText(path string) (string, error)
}

// Embedder produces one vector per text, in order, or fails as a whole.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ProgressEmbedder is an optional Embedder upgrade: sub-batched embedding
// with a pause between batches, for chunk sets too big for one burst.
type ProgressEmbedder interface {
	EmbedWithProgress(ctx context.Context, texts []string, report func(done int, total int)) ([][]float32, error)
}

// Controller drives a document through extract -> chunk -> embed -> persist.
// Status transitions are written to the store at each boundary so a crashed
// run leaves the document visibly stuck in processing rather than lying
// about success.
type Controller struct {
	docs     docModel.DocumentStore
	vectors  vectorDB.DataProcessor
	embedder Embedder
	fetcher  PageFetcher
	files    FileReader
	cfg      chunker.Config
	logger   *logger_i.Logger
}

func NewController(docs docModel.DocumentStore, vectors vectorDB.DataProcessor, embedder Embedder, fetcher PageFetcher, files FileReader, cfg chunker.Config) *Controller {
	return &Controller{
		docs:     docs,
		vectors:  vectors,
		embedder: embedder,
		fetcher:  fetcher,
		files:    files,
		cfg:      cfg,
		logger:   logger_i.NewLogger("lifecycle"),
	}
}

// ProcessPending indexes up to limit pending documents. Failures are
// recorded per document and do not stop the batch.
func (c *Controller) ProcessPending(ctx context.Context, limit int) (indexed int, failed int, err error) {
	pending, err := c.docs.GetPendingDocuments(ctx, limit)
	if err != nil {
		return 0, 0, err
	}

	for _, doc := range pending {
		if err := c.ProcessDocument(ctx, doc.Id); err != nil {
			c.logger.Error("document processing failed", "documentId", doc.Id, "error", err)
			failed++
			continue
		}
		indexed++
	}
	return indexed, failed, nil
}

// ProcessDocument runs one document through the pipeline. An unchanged
// content hash on a previously indexed document short-circuits: the existing
// chunks and vectors stay untouched.
func (c *Controller) ProcessDocument(ctx context.Context, id string) error {
	doc, ok := c.docs.GetDocument(ctx, id)
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	wasIndexed := doc.Status == docModel.StatusIndexed

	if err := c.docs.UpdateDocumentStatus(ctx, id, docModel.StatusProcessing, ""); err != nil {
		return err
	}

	text, err := c.extractText(ctx, doc)
	if err != nil {
		return c.fail(ctx, id, fmt.Errorf("extraction failed: %w", err))
	}

	hash := contentHash(text)
	if hash == doc.ContentHash && wasIndexed {
		//a resync blanks the stored text before refetching, so put the
		//(identical) extraction back or the record ends up empty
		if text != doc.ExtractedText {
			if err := c.docs.UpdateDocumentExtractedText(ctx, id, text, hash); err != nil {
				return c.fail(ctx, id, err)
			}
		}
		c.logger.Info("content unchanged, skipping re-index", "documentId", id)
		return c.docs.UpdateDocumentStatus(ctx, id, docModel.StatusIndexed, "")
	}

	if err := c.docs.UpdateDocumentExtractedText(ctx, id, text, hash); err != nil {
		return c.fail(ctx, id, err)
	}

	chunks := chunker.Split(text, c.cfg)
	if len(chunks) == 0 {
		return c.fail(ctx, id, errors.New("no chunkable content"))
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vectors, err := c.embed(ctx, id, texts)
	if err != nil {
		//nothing is persisted on embedding failure: the old chunk set, if
		//any, remains queryable
		return c.fail(ctx, id, fmt.Errorf("embedding failed: %w", err))
	}
	metrics.CountChunksEmbedded(len(vectors))

	docChunks := make([]docModel.Chunk, len(chunks))
	for i, ch := range chunks {
		docChunks[i] = docModel.Chunk{
			ChunkId:      utils.GetNewUUID(),
			DocumentId:   doc.Id,
			Index:        ch.Index,
			SectionTitle: ch.SectionTitle,
			TokenCount:   ch.TokenCount,
			Content:      ch.Content,
			Priority:     doc.Priority,
		}
	}

	if err := c.vectors.ReplaceDocumentChunks(ctx, doc, docChunks, vectors); err != nil {
		return c.fail(ctx, id, fmt.Errorf("vector persistence failed: %w", err))
	}

	c.logger.Info("document indexed", "documentId", id, "chunks", len(docChunks))
	return c.docs.UpdateDocumentStatus(ctx, id, docModel.StatusIndexed, "")
}

// Resync forces a refetch and re-index. Clearing the stored text makes
// extractText go back to the source; the content hash still short-circuits
// when the source has not actually changed.
func (c *Controller) Resync(ctx context.Context, id string) error {
	doc, ok := c.docs.GetDocument(ctx, id)
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	if err := c.docs.UpdateDocumentExtractedText(ctx, id, "", doc.ContentHash); err != nil {
		return err
	}
	return c.ProcessDocument(ctx, id)
}

// Delete removes a document and its chunks. Vectors go first: a document
// record without vectors is consistent, orphaned vectors are not.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.vectors.DeleteDocumentChunks(ctx, id); err != nil {
		return err
	}
	c.docs.DeleteDocument(ctx, id)
	return nil
}

// embed vectorizes the chunk texts. Chunk sets bigger than one embedding
// sub-batch go through the paced EmbedWithProgress path when the embedder
// offers it, with progress surfaced in the log.
func (c *Controller) embed(ctx context.Context, id string, texts []string) ([][]float32, error) {
	pe, ok := c.embedder.(ProgressEmbedder)
	if !ok || len(texts) <= config.ProgressSubBatchSize {
		return c.embedder.Embed(ctx, texts)
	}
	return pe.EmbedWithProgress(ctx, texts, func(done int, total int) {
		c.logger.Info("embedding progress", "documentId", id, "done", done, "total", total)
	})
}

func (c *Controller) extractText(ctx context.Context, doc docModel.Document) (string, error) {
	if doc.ExtractedText != "" {
		return doc.ExtractedText, nil
	}

	switch doc.SourceType {
	case docModel.SourceWeb:
		page, err := c.fetcher.FetchPage(ctx, doc.SourceRef)
		if err != nil {
			return "", err
		}
		if !page.Success {
			return "", fmt.Errorf("page fetch unsuccessful: %s", page.Error)
		}
		return page.Text, nil
	case docModel.SourceFile:
		return c.files.FileText(doc.SourceRef)
	default:
		return "", fmt.Errorf("unknown source type: %s", doc.SourceType)
	}
}

func (c *Controller) fail(ctx context.Context, id string, cause error) error {
	if err := c.docs.UpdateDocumentStatus(ctx, id, docModel.StatusFailed, cause.Error()); err != nil {
		c.logger.Error("could not record failure", "documentId", id, "error", err)
	}
	return cause
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
