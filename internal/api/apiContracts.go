package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

// CrawlSummary reports what a crawl or processing job actually did.
type CrawlSummary struct {
	PagesCrawled        int `json:"pages_crawled"`
	PagesFailed         int `json:"pages_failed"`
	DocumentsDiscovered int `json:"documents_discovered"`
	DocumentsIndexed    int `json:"documents_indexed"`
	DocumentsFailed     int `json:"documents_failed"`
}

type Result struct {
	Status      string        `json:"status"`
	CurrentStep string        `json:"current_step,omitempty"`
	Summary     *CrawlSummary `json:"summary,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
	//set for ingest and resync jobs so the caller can track the document too
	DocumentId string `json:"document_id,omitempty"`
}

type DocumentResponse struct {
	Id           string    `json:"id"`
	Name         string    `json:"name"`
	SourceType   string    `json:"source_type"`
	SourceRef    string    `json:"source_ref"`
	Status       string    `json:"status"`
	Priority     string    `json:"truth_priority"`
	ContentHash  string    `json:"content_hash,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedTime  time.Time `json:"created_time"`
	UpdatedTime  time.Time `json:"updated_time"`
}

type SearchResultItem struct {
	Content       string  `json:"content"`
	DocumentId    string  `json:"document_id"`
	DocumentName  string  `json:"document_name"`
	SectionTitle  string  `json:"section_title,omitempty"`
	ChunkIndex    int     `json:"chunk_index"`
	Similarity    float32 `json:"similarity"`
	PriorityBadge string  `json:"priority_badge,omitempty"`
}

type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
	Cached  bool               `json:"cached"`
}

type RelatedDocumentItem struct {
	DocumentId    string  `json:"document_id"`
	DocumentName  string  `json:"document_name"`
	Similarity    float32 `json:"similarity"`
	PriorityBadge string  `json:"priority_badge,omitempty"`
}

type RelatedResponse struct {
	Linked    []RelatedDocumentItem `json:"linked"`
	Suggested []RelatedDocumentItem `json:"suggested"`
}

// requests---------------------

type CrawlRequest struct {
	StartURL string `json:"start_url" validate:"required"`
	MaxDepth int    `json:"max_depth,omitempty"`
	MaxPages int    `json:"max_pages,omitempty"`
	Priority string `json:"truth_priority,omitempty"`
}

type SearchRequest struct {
	Query     string  `json:"query" validate:"required"`
	Limit     int     `json:"limit,omitempty"`
	Threshold float32 `json:"threshold,omitempty"`
}

type RelatedRequest struct {
	EntityText string `json:"entity_text" validate:"required"`
	AutoLink   bool   `json:"auto_link,omitempty"`
}
