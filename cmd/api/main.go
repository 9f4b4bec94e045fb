// @title           Knowledge Base API
// @version         1.0
// @description     Asynchronous knowledge base ingestion and semantic retrieval
// @termsOfService  http://swagger.io/terms/

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/data/store"
	docmodel "github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
	jobmodel "github.com/kingcader/personal-assistant-ai-sub002/internal/domain/jobModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/handlers"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/job"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/chunker"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/crawler"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/embedding"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/embedding/googleEmbedding"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/extract"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/lifecycle"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/vectorDB/qdrantDB"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/server"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/worker"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//stores fall back to memory when redis is offline so local runs still work
	var jobStore jobmodel.JobStore
	if redisJobs := store.GetRedisJobStore(serviceContext); redisJobs != nil {
		jobStore = redisJobs
	} else {
		logger.Error("Redis job store is offline, using in-memory store")
		jobStore = store.InitInMemoryJobStore()
	}

	var documentStore docmodel.DocumentStore
	if redisDocs := store.GetRedisDocumentStore(serviceContext); redisDocs != nil {
		documentStore = redisDocs
	} else {
		logger.Error("Redis document store is offline, using in-memory store")
		documentStore = store.InitInMemoryDocumentStore()
	}

	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
	}
	logger.Info("Starting job service")
	service := job.InitJobService(serviceConfig)

	vectorDB := qdrantDB.GetQdrantClient(serviceContext)
	embeddingProvider := googleEmbedding.GetGoogleEmbeddingClient(serviceContext, config.GoogleEmbeddingModel, config.GoogleEmbeddingAPIKey)

	if vectorDB == nil || embeddingProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "VectorDB", vectorDB != nil, "EmbeddingService", embeddingProvider != nil)
		return
	}
	generator := embedding.NewGenerator(embeddingProvider)
	siteCrawler := crawler.NewCrawler()
	controller := lifecycle.NewController(documentStore, vectorDB, generator, siteCrawler, extract.Reader{}, chunker.DefaultConfig())

	knowledgeService := knowledge.NewService(siteCrawler, controller, documentStore, vectorDB, generator)

	handlers.InitHandlers(service, knowledgeService, documentStore, controller)

	//init worker pool
	worker.InitServices(service, knowledgeService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
