package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	CrawlInit      InternalStatus = "CrawlInit"
	Crawling       InternalStatus = "Crawling"
	ProcessInit    InternalStatus = "ProcessInit"
	ExtractingText InternalStatus = "ExtractingText"
	Chunking       InternalStatus = "Chunking"
	Embedding      InternalStatus = "Embedding"
	Persisting     InternalStatus = "Persisting"
	Error          InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	//JobTypeCrawl walks a site and registers pending documents
	//JobTypeProcess drains pending documents through the pipeline
	JobTypeCrawl   JobType = "Crawl"
	JobTypeProcess JobType = "Process"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	//crawl jobs
	StartURL string `json:"start_url,omitempty"`
	MaxDepth int    `json:"max_depth,omitempty"`
	MaxPages int    `json:"max_pages,omitempty"`
	Priority string `json:"truth_priority,omitempty"`

	//process jobs target either one document or the whole pending backlog
	DocumentId string `json:"document_id,omitempty"`
	//Resync forces a refetch from the source before re-indexing
	Resync bool `json:"resync,omitempty"`

	//outcome counters surfaced on the status endpoint
	PagesCrawled        int `json:"pages_crawled,omitempty"`
	PagesFailed         int `json:"pages_failed,omitempty"`
	DocumentsDiscovered int `json:"documents_discovered,omitempty"`
	DocumentsIndexed    int `json:"documents_indexed,omitempty"`
	DocumentsFailed     int `json:"documents_failed,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
