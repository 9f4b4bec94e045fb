package adapter

import (
	"github.com/kingcader/personal-assistant-ai-sub002/internal/api"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/jobModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/retrieval"
)

func ToInitJobResponse(jobId string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        jobId,
		StatusURL: "status/" + jobId,
	}
}

// ToAPIResponse converts the internal job record into the external contract.
// Counters are only attached once the job has actually moved something.
func ToAPIResponse(job jobModel.Job) api.JobResponse {
	response := api.JobResponse{
		Id: job.Id,
		Result: api.Result{
			Status:      string(job.Status),
			CurrentStep: string(job.CurrentStep),
		},
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
	}

	p := job.JobPayload
	if p.PagesCrawled+p.PagesFailed+p.DocumentsDiscovered+p.DocumentsIndexed+p.DocumentsFailed > 0 {
		response.Result.Summary = &api.CrawlSummary{
			PagesCrawled:        p.PagesCrawled,
			PagesFailed:         p.PagesFailed,
			DocumentsDiscovered: p.DocumentsDiscovered,
			DocumentsIndexed:    p.DocumentsIndexed,
			DocumentsFailed:     p.DocumentsFailed,
		}
	}

	if job.Error.Code != 0 {
		response.Error = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}
	return response
}

func BadRequest(jobId string, message string, code int) api.JobResponse {
	return api.JobResponse{
		Id: jobId,
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: message,
			Retry:   false,
		},
	}
}

func ToDocumentResponse(doc docModel.Document) api.DocumentResponse {
	return api.DocumentResponse{
		Id:           doc.Id,
		Name:         doc.Name,
		SourceType:   string(doc.SourceType),
		SourceRef:    doc.SourceRef,
		Status:       string(doc.Status),
		Priority:     string(doc.Priority),
		ContentHash:  doc.ContentHash,
		ErrorMessage: doc.ErrorMessage,
		CreatedTime:  doc.CreatedTime,
		UpdatedTime:  doc.UpdatedTime,
	}
}

func ToSearchResponse(result knowledge.SearchResult) api.SearchResponse {
	items := make([]api.SearchResultItem, 0, len(result.Results))
	for _, hit := range result.Results {
		items = append(items, api.SearchResultItem{
			Content:       hit.Chunk.Content,
			DocumentId:    hit.Chunk.DocumentId,
			DocumentName:  hit.DocumentName,
			SectionTitle:  hit.Chunk.SectionTitle,
			ChunkIndex:    hit.Chunk.Index,
			Similarity:    hit.Similarity,
			PriorityBadge: retrieval.PriorityBadge(hit.Chunk.Priority),
		})
	}
	return api.SearchResponse{Results: items, Cached: result.Cached}
}

func ToRelatedResponse(related knowledge.RelatedDocuments) api.RelatedResponse {
	return api.RelatedResponse{
		Linked:    toRelatedItems(related.Linked),
		Suggested: toRelatedItems(related.Suggested),
	}
}

func toRelatedItems(docs []retrieval.ScoredDocument) []api.RelatedDocumentItem {
	items := make([]api.RelatedDocumentItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, api.RelatedDocumentItem{
			DocumentId:    doc.DocumentId,
			DocumentName:  doc.DocumentName,
			Similarity:    doc.Similarity,
			PriorityBadge: retrieval.PriorityBadge(doc.Priority),
		})
	}
	return items
}
