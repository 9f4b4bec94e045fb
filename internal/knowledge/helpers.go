package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/jobModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/crawler"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/metrics"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "error", err)

	job.Error = jobModel.JobError{
		Code:    http.StatusInternalServerError,
		Message: "Internal Server Error",
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

func (s *service) executeCrawlStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job) ([]crawler.PageResult, error) {
	job.CurrentStep = jobModel.Crawling
	log.Debug("ProcessCrawl", "Current Status", job.CurrentStep)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("crawl", time.Since(start)) }()

	pages, err := s.crawler.Crawl(ctx, job.JobPayload.StartURL, job.JobPayload.MaxDepth, job.JobPayload.MaxPages)
	for _, p := range pages {
		metrics.CountPageCrawled(p.Success)
	}
	return pages, err
}

func (s *service) executeIndexStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, documentIds []string) {
	job.CurrentStep = jobModel.Embedding
	log.Debug("ProcessCrawl", "Current Status", job.CurrentStep)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("crawl_indexing", time.Since(start)) }()

	for _, id := range documentIds {
		if err := s.processor.ProcessDocument(ctx, id); err != nil {
			log.Error("crawled document failed to index", "documentId", id, "error", err)
			job.JobPayload.DocumentsFailed++
			continue
		}
		metrics.CountDocumentIndexed()
		job.JobPayload.DocumentsIndexed++
	}
}

func (s *service) executeQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.EmbedQuery(ctx, query)
}

func (s *service) executeCacheCheck(ctx context.Context, vector []float32) (SearchResult, bool) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	payload, found, _ := s.vectorDB.GetCachedSearch(ctx, vector)
	if !found {
		return SearchResult{}, false
	}

	var results []docModel.ScoredChunk
	if err := json.Unmarshal([]byte(payload), &results); err != nil {
		s.logger.Error("cached search payload unreadable, ignoring", "error", err)
		return SearchResult{}, false
	}
	return SearchResult{Results: results, Cached: true}, true
}

func (s *service) executeVectorSearch(ctx context.Context, vector []float32, limit uint64, threshold float32) ([]docModel.ScoredChunk, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.vectorDB.SearchChunks(ctx, vector, limit, threshold)
}

func metricsCaptureJob(label string, start time.Time) {
	metrics.CaptureJobMetrics(label, time.Since(start))
}
