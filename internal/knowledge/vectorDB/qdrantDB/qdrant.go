package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)

type ClientHolder struct {
	QObj *qdrant.Client
}

// GetQdrantClient returns the process-wide qdrant client, creating the chunk
// and cache collections on first use. Returns nil when the database is
// unreachable.
func GetQdrantClient(ctx context.Context) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient(ctx)
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: qdrantInstance,
	}
}

func newClient(ctx context.Context) *qdrant.Client {
	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}

	holder := &ClientHolder{QObj: client}
	if err := holder.EnsureCollections(ctx); err != nil {
		logger.Error("could not create collections", "error:", err)
		return nil
	}

	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) EnsureCollections(ctx context.Context) error {
	if err := createCollection(ctx, db.QObj, config.ChunkCollectionName); err != nil {
		return err
	}
	return createCollection(ctx, db.QObj, config.CacheCollectionName)
}

func (db *ClientHolder) ReplaceDocumentChunks(ctx context.Context, doc docModel.Document, chunks []docModel.Chunk, vectors [][]float32) error {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	//old points go first so a shrinking document leaves nothing stale
	if err := db.DeleteDocumentChunks(ctx, doc.Id); err != nil {
		return err
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":        chunk.Content,
				"document_id":    doc.Id,
				"document_name":  doc.Name,
				"chunk_index":    chunk.Index,
				"section_title":  chunk.SectionTitle,
				"token_count":    chunk.TokenCount,
				"truth_priority": string(chunk.Priority),
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: config.ChunkCollectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}

	loggr.Debug("replaced document chunks", "documentId", doc.Id, "chunks", len(chunks))
	return nil
}

func (db *ClientHolder) DeleteDocumentChunks(ctx context.Context, documentId string) error {
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: config.ChunkCollectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentId),
			},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) SearchChunks(ctx context.Context, vector []float32, limit uint64, threshold float32) ([]docModel.ScoredChunk, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: config.ChunkCollectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(limit),
		ScoreThreshold: qdrant.PtrOf(threshold),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	matches := make([]docModel.ScoredChunk, 0, len(result))
	for _, hit := range result {
		matches = append(matches, docModel.ScoredChunk{
			Chunk: docModel.Chunk{
				ChunkId:      pointIdString(hit.Id),
				DocumentId:   hit.Payload["document_id"].GetStringValue(),
				Index:        int(hit.Payload["chunk_index"].GetIntegerValue()),
				SectionTitle: hit.Payload["section_title"].GetStringValue(),
				TokenCount:   int(hit.Payload["token_count"].GetIntegerValue()),
				Content:      hit.Payload["content"].GetStringValue(),
				Priority:     docModel.TruthPriority(hit.Payload["truth_priority"].GetStringValue()),
			},
			DocumentName: hit.Payload["document_name"].GetStringValue(),
			Similarity:   hit.Score,
		})
	}

	loggr.Debug("chunk search finished", "matches", len(matches))
	return matches, nil
}

func pointIdString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	return id.GetUuid()
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return err
}
