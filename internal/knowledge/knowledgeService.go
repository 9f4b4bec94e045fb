package knowledge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/adapter/utils"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/jobModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/crawler"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/retrieval"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/vectorDB"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

// SiteCrawler walks a site and returns per-page outcomes.
type SiteCrawler interface {
	Crawl(ctx context.Context, startURL string, maxDepth int, maxPages int) ([]crawler.PageResult, error)
}

// DocumentProcessor drives documents through the indexing pipeline.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, id string) error
	ProcessPending(ctx context.Context, limit int) (indexed int, failed int, err error)
	Resync(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// QueryEmbedder embeds a single query string.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// SearchResult is a ranked chunk-level answer to a search query.
type SearchResult struct {
	Results []docModel.ScoredChunk `json:"results"`
	Cached  bool                   `json:"cached"`
}

// RelatedDocuments partitions candidates for entity linking. Linked holds
// what got auto-linked; Suggested always carries the full candidate set.
type RelatedDocuments struct {
	Linked    []retrieval.ScoredDocument `json:"linked"`
	Suggested []retrieval.ScoredDocument `json:"suggested"`
}

// Service is the contract the worker and the handlers call. It hides the
// crawler, the embedder and both stores behind job- and query-shaped
// operations.
type Service interface {
	ProcessCrawl(ctx context.Context, job jobModel.Job) jobModel.Job
	ProcessDocuments(ctx context.Context, job jobModel.Job) jobModel.Job
	Search(ctx context.Context, query string, limit int, threshold float32) (SearchResult, error)
	FindRelatedDocuments(ctx context.Context, entityText string, autoLink bool) (RelatedDocuments, error)
}

type service struct {
	crawler   SiteCrawler
	processor DocumentProcessor
	docs      docModel.DocumentStore
	vectorDB  vectorDB.DataProcessor
	embedder  QueryEmbedder
	logger    *logger_i.Logger
}

func NewService(c SiteCrawler, p DocumentProcessor, docs docModel.DocumentStore, vector vectorDB.DataProcessor, em QueryEmbedder) Service {
	return &service{
		crawler:   c,
		processor: p,
		docs:      docs,
		vectorDB:  vector,
		embedder:  em,
		logger:    logger_i.NewLogger("Knowledge Service :"),
	}
}

// ProcessCrawl walks the site, registers every substantial page as a pending
// document and then pushes those documents through the pipeline. Per-page
// failures are counted, not fatal.
func (s *service) ProcessCrawl(ctx context.Context, jobt jobModel.Job) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", jobt.TraceId, "JobId", jobt.Id)

	pages, err := s.executeCrawlStep(ctx, inMethodLogger, &jobt)
	if err != nil {
		return s.jobError(jobt, err, "CRAWL_FAILURE", true)
	}

	priority := docModel.TruthPriority(jobt.JobPayload.Priority)
	if !docModel.ValidPriority(priority) {
		priority = docModel.PriorityStandard
	}

	var created []string
	for _, page := range pages {
		if !page.Success {
			jobt.JobPayload.PagesFailed++
			continue
		}
		jobt.JobPayload.PagesCrawled++

		doc := newWebDocument(page, priority)
		if err := s.docs.SaveDocument(ctx, doc); err != nil {
			inMethodLogger.Error("could not register crawled page", "url", page.URL, "error", err)
			jobt.JobPayload.PagesFailed++
			continue
		}
		created = append(created, doc.Id)
	}
	jobt.JobPayload.DocumentsDiscovered = len(created)

	s.executeIndexStep(ctx, inMethodLogger, &jobt, created)

	jobt.Status = jobModel.JobStatusComplete
	jobt.CurrentStep = jobModel.Complete
	return jobt
}

// ProcessDocuments indexes one targeted document or drains a batch of the
// pending backlog.
func (s *service) ProcessDocuments(ctx context.Context, jobt jobModel.Job) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", jobt.TraceId, "JobId", jobt.Id)
	jobt.CurrentStep = jobModel.ProcessInit

	start := time.Now()
	defer func() { metricsCaptureJob("document_processing", start) }()

	if id := jobt.JobPayload.DocumentId; id != "" {
		var err error
		if jobt.JobPayload.Resync {
			err = s.processor.Resync(ctx, id)
		} else {
			err = s.processor.ProcessDocument(ctx, id)
		}
		if err != nil {
			jobt.JobPayload.DocumentsFailed = 1
			return s.jobError(jobt, err, "PROCESSING_FAILURE", true)
		}
		jobt.JobPayload.DocumentsIndexed = 1
	} else {
		indexed, failed, err := s.processor.ProcessPending(ctx, config.DocumentBatchSize)
		if err != nil {
			return s.jobError(jobt, err, "PROCESSING_FAILURE", true)
		}
		jobt.JobPayload.DocumentsIndexed = indexed
		jobt.JobPayload.DocumentsFailed = failed
	}

	inMethodLogger.Info("document processing finished",
		"indexed", jobt.JobPayload.DocumentsIndexed, "failed", jobt.JobPayload.DocumentsFailed)
	jobt.Status = jobModel.JobStatusComplete
	jobt.CurrentStep = jobModel.Complete
	return jobt
}

// Search embeds the query, consults the semantic cache, and falls through to
// a ranked vector search. Fresh results are cached in the background.
func (s *service) Search(ctx context.Context, query string, limit int, threshold float32) (SearchResult, error) {
	if limit <= 0 {
		limit = config.DefaultSearchLimit
	}
	if threshold <= 0 {
		threshold = config.SearchSimilarityThreshold
	}

	vector, err := s.executeQueryEmbedding(ctx, query)
	if err != nil {
		return SearchResult{}, err
	}

	if cached, found := s.executeCacheCheck(ctx, vector); found {
		return cached, nil
	}

	matches, err := s.executeVectorSearch(ctx, vector, uint64(limit), threshold)
	if err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{Results: retrieval.Rank(matches, limit, threshold)}

	//background cache save: a failed write only costs a future cache miss
	go func(v []float32, r SearchResult) {
		payload, err := json.Marshal(r.Results)
		if err != nil {
			return
		}
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.vectorDB.SaveSearchToCache(cctx, utils.GetNewUUID(), v, string(payload)); err != nil {
			s.logger.Error("Failed to save search to cache")
		}
	}(vector, result)

	return result, nil
}

// FindRelatedDocuments finds documents semantically close to a piece of
// entity text. Strong matches are persisted as links when autoLink is set;
// the full candidate list is always returned as suggestions.
func (s *service) FindRelatedDocuments(ctx context.Context, entityText string, autoLink bool) (RelatedDocuments, error) {
	vector, err := s.executeQueryEmbedding(ctx, entityText)
	if err != nil {
		return RelatedDocuments{}, err
	}

	matches, err := s.executeVectorSearch(ctx, vector,
		uint64(config.RelatedCandidateLimit), config.SearchSimilarityThreshold)
	if err != nil {
		return RelatedDocuments{}, err
	}

	docs := retrieval.GroupByDocument(matches)
	linked, suggested := retrieval.SplitAutoLink(docs, config.AutoLinkThreshold)

	if autoLink && len(linked) > 0 {
		ids := make([]string, len(linked))
		for i, d := range linked {
			ids[i] = d.DocumentId
		}
		if err := s.docs.SaveEntityLinks(ctx, entityText, ids); err != nil {
			s.logger.Error("could not persist entity links", "error", err)
		}
	}

	return RelatedDocuments{Linked: linked, Suggested: suggested}, nil
}

func newWebDocument(page crawler.PageResult, priority docModel.TruthPriority) docModel.Document {
	name := page.Title
	if name == "" {
		name = page.URL
	}
	now := time.Now()
	return docModel.Document{
		Id:            utils.GetNewUUID(),
		Name:          name,
		SourceType:    docModel.SourceWeb,
		SourceRef:     page.URL,
		ContentType:   "text/html",
		ExtractedText: page.Text,
		Status:        docModel.StatusPending,
		Priority:      priority,
		CreatedTime:   now,
		UpdatedTime:   now,
	}
}
