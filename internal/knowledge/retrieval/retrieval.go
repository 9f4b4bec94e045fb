package retrieval

import (
	"sort"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
)

// ScoredDocument is a document-level view of chunk matches: the document
// scores as high as its best chunk.
type ScoredDocument struct {
	DocumentId   string
	DocumentName string
	Priority     docModel.TruthPriority
	Similarity   float32
	//BestChunk is the highest-scoring chunk, kept for display context
	BestChunk docModel.Chunk
}

// Rank filters out chunks under the threshold and returns at most limit
// results in descending similarity. The sort is stable so equal scores keep
// their incoming order.
func Rank(results []docModel.ScoredChunk, limit int, threshold float32) []docModel.ScoredChunk {
	kept := make([]docModel.ScoredChunk, 0, len(results))
	for _, r := range results {
		if r.Similarity >= threshold {
			kept = append(kept, r)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Similarity > kept[j].Similarity
	})

	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// GroupByDocument collapses chunk matches into one entry per document,
// scored by the document's best chunk. Output is ordered by score
// descending; documents with equal scores keep first-seen order.
func GroupByDocument(results []docModel.ScoredChunk) []ScoredDocument {
	byId := make(map[string]int)
	var docs []ScoredDocument

	for _, r := range results {
		if pos, seen := byId[r.Chunk.DocumentId]; seen {
			if r.Similarity > docs[pos].Similarity {
				docs[pos].Similarity = r.Similarity
				docs[pos].BestChunk = r.Chunk
			}
			continue
		}
		byId[r.Chunk.DocumentId] = len(docs)
		docs = append(docs, ScoredDocument{
			DocumentId:   r.Chunk.DocumentId,
			DocumentName: r.DocumentName,
			Priority:     r.Chunk.Priority,
			Similarity:   r.Similarity,
			BestChunk:    r.Chunk,
		})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Similarity > docs[j].Similarity
	})
	return docs
}

// SplitAutoLink partitions related documents for entity linking: everything
// above the auto-link threshold gets linked automatically, and the full
// candidate set is returned as suggestions for manual review.
func SplitAutoLink(docs []ScoredDocument, autoLinkThreshold float32) (linked []ScoredDocument, suggested []ScoredDocument) {
	for _, d := range docs {
		if d.Similarity >= autoLinkThreshold {
			linked = append(linked, d)
		}
	}
	return linked, docs
}

// PriorityBadge renders a document's truth priority for result display.
// Priority never changes ordering, only presentation.
func PriorityBadge(p docModel.TruthPriority) string {
	switch p {
	case docModel.PriorityAuthoritative:
		return "[authoritative]"
	case docModel.PriorityHigh:
		return "[high]"
	default:
		return ""
	}
}
