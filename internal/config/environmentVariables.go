package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//embeddings
	EmbeddingOutputDimensionality int32 = 1536
	GoogleEmbeddingModel                = "gemini-embedding-001"
	//provider hard cap on texts per EmbedContent call
	ProviderBatchLimit = 2048
	//progress-reporting variant works in smaller sub-batches with a pause
	//between them to smooth rate-limit pressure
	ProgressSubBatchSize = 100
	ProgressBatchDelay   = 500 * time.Millisecond

	//retrieval thresholds
	//searches return anything reasonably similar; auto-linking is a
	//side-effecting action and demands a stricter score
	SearchSimilarityThreshold float32 = 0.7
	AutoLinkThreshold         float32 = 0.8
	DefaultSearchLimit                = 10
	RelatedCandidateLimit             = 20
	CacheSimilarityCutoff             = 0.97

	//qdrant collections
	ChunkCollectionName = "kb-chunks"
	CacheCollectionName = "kb-search-cache"

	//chunker defaults
	MaxChunkTokens     = 1500
	MinChunkTokens     = 100
	OverlapChunkTokens = 100

	//crawler
	CrawlerUserAgent   = "AssistantKnowledgeBot/1.0 (+https://github.com/kingcader/personal-assistant-ai-sub002)"
	RobotsFetchTimeout = 5 * time.Second
	PageFetchTimeout   = 15 * time.Second
	DefaultCrawlDelay  = 1000 * time.Millisecond
	//floor applied regardless of a site's Crawl-delay directive
	MinCrawlDelay    = 1000 * time.Millisecond
	MinPageWordCount = 50
	DefaultMaxDepth  = 2
	DefaultMaxPages  = 25
	HardMaxPages     = 100

	//lifecycle controller processes a small fixed batch per job so a single
	//invocation stays inside the worker's execution budget
	DocumentBatchSize = 1

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	JobExecutionTimeout             = 5 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	QdrantHost     = ""
	QdrantGrpcPort = 6334
	QdrantUseTLS   = false
	QdrantPoolSize = 1

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore      = 0
	RedisDocumentStore = 1

	//redis timeouts
	RedisJobStoreTTL = 24 * time.Hour
	//document records stick around until deleted explicitly
	RedisDocumentTTL = time.Duration(0)
)

// Secrets and endpoints come from the environment so the binary can move
// between local and deployed setups without a rebuild.
var (
	GoogleEmbeddingAPIKey = os.Getenv("GOOGLE_API_KEY")
	AuthToken             = os.Getenv("API_AUTH_TOKEN")
	RedisPassword         = os.Getenv("REDIS_PASSWORD")
	NoAuthBypass          = os.Getenv("NO_AUTH_BYPASS") == "true"
)
