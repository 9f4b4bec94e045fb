package docModel

import (
	"context"
	"time"
)

type DocStatus string
type TruthPriority string
type SourceType string

const (
	StatusPending    DocStatus = "pending"
	StatusProcessing DocStatus = "processing"
	StatusIndexed    DocStatus = "indexed"
	StatusFailed     DocStatus = "failed"
	StatusDeleted    DocStatus = "deleted"

	PriorityStandard      TruthPriority = "standard"
	PriorityHigh          TruthPriority = "high"
	PriorityAuthoritative TruthPriority = "authoritative"

	SourceFile SourceType = "file"
	SourceWeb  SourceType = "web"
)

// Document is one ingested unit - an uploaded file or a crawled page.
// ContentHash is recomputed on every extraction; an unchanged hash on an
// already indexed document means re-chunking and re-embedding are skipped.
type Document struct {
	Id            string        `json:"id"`
	Name          string        `json:"name"`
	SourceType    SourceType    `json:"source_type"`
	SourceRef     string        `json:"source_ref"` //file path or page URL
	ContentType   string        `json:"content_type"`
	ContentHash   string        `json:"content_hash,omitempty"`
	ExtractedText string        `json:"extracted_text,omitempty"`
	Status        DocStatus     `json:"status"`
	Priority      TruthPriority `json:"truth_priority"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	CreatedTime   time.Time     `json:"created_time"`
	UpdatedTime   time.Time     `json:"updated_time"`
}

// Chunk is a contiguous slice of a document's extracted text. Chunks are
// immutable once embedded - a change to the document replaces the whole set.
type Chunk struct {
	ChunkId      string        `json:"chunk_id"`
	DocumentId   string        `json:"document_id"`
	Index        int           `json:"chunk_index"`
	SectionTitle string        `json:"section_title,omitempty"`
	TokenCount   int           `json:"token_count"`
	Content      string        `json:"content"`
	Priority     TruthPriority `json:"truth_priority"`
}

// ScoredChunk is a retrieval hit. Never persisted - computed per query.
type ScoredChunk struct {
	Chunk        Chunk   `json:"chunk"`
	DocumentName string  `json:"document_name"`
	Similarity   float32 `json:"similarity"`
}

// ValidPriority reports whether p is one of the three accepted labels.
func ValidPriority(p TruthPriority) bool {
	switch p {
	case PriorityStandard, PriorityHigh, PriorityAuthoritative:
		return true
	}
	return false
}

type DocumentStore interface {
	SaveDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, id string) (Document, bool)
	GetPendingDocuments(ctx context.Context, limit int) ([]Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status DocStatus, errMsg string) error
	UpdateDocumentExtractedText(ctx context.Context, id string, text string, hash string) error
	SaveEntityLinks(ctx context.Context, entityKey string, documentIds []string) error
	DeleteDocument(ctx context.Context, id string)
}
