package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/jobModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/job"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/metrics"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger

	_knowledgeService  knowledge.Service
	_documentStore     docModel.DocumentStore
	_documentProcessor knowledge.DocumentProcessor
)

type JobHandler struct {
	service *job.Service
}

func InitHandlers(jobService *job.Service, knowledgeService knowledge.Service, documentStore docModel.DocumentStore, processor knowledge.DocumentProcessor) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService}
		_knowledgeService = knowledgeService
		_documentStore = documentStore
		_documentProcessor = processor

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

func CreateNewJob(newJob newJobData) {
	logJH.With("traceId", newJob.traceId, "job id", newJob.id)
	logJH.Info("To create new job", "type", newJob.jobType)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {

	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued
	_job.JobType = newJob.jobType

	if newJob.jobType == jobModel.JobTypeCrawl {
		_job.CurrentStep = jobModel.CrawlInit
		_job.JobPayload.StartURL = newJob.startURL
		_job.JobPayload.MaxDepth = newJob.maxDepth
		_job.JobPayload.MaxPages = newJob.maxPages
		_job.JobPayload.Priority = newJob.priority
	} else {
		_job.CurrentStep = jobModel.ProcessInit
		_job.JobPayload.DocumentId = newJob.documentId
		_job.JobPayload.Resync = newJob.resync
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new job")

	//a new worker is started every 10 requests, and always for a crawl job -
	//crawling walks an external site under a politeness delay so it can hold a
	//worker for minutes. idle workers retire on their own, so at quiet times the
	//pool settles back to one worker
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1) //after sending a request increment counter
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeCrawl {
		metrics.StartDispatcherSignalCount() //metrics
		logJH.Debug("Worker count ", accurateCount)
		h.service.DispatcherChannel <- true
	}
}
