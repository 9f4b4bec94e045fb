package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/adapter"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/adapter/utils"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/api"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/docModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/jobModel"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/knowledge/extract"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

var logRH *logger_i.Logger

type newJobData struct {
	id      string
	traceId string
	jobType jobModel.JobType

	//crawl
	startURL string
	maxDepth int
	maxPages int
	priority string

	//process
	documentId string
	resync     bool
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// CrawlHandler godoc
// @Summary      Start a site crawl
// @Description  Queues a background job that walks the site, extracts page text and registers pending documents.
// @Tags         Ingestion
// @Accept       json
// @Produce      json
// @Param        request  body      api.CrawlRequest     true  "Start URL with optional depth, page and priority limits"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data"
// @Router       /crawl [post]
func CrawlHandler(w http.ResponseWriter, request *http.Request) {

	if validateContext(request.Context()) {

		var requestData api.CrawlRequest
		defer func(Body io.ReadCloser) {
			err := Body.Close()
			if err != nil {
				logRH.Error("Couldn't close the crawl handler reader :", err)
			}
		}(request.Body)
		if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || !validCrawlRequest(requestData) {
			logRH.Warn("Bad Crawl Request: ", "error:", err, "request data:", requestData)
			WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
			return
		}

		newJob := newJobData{
			id:       utils.GetNewUUID(),
			traceId:  request.Context().Value(config.TRACE_ID_KEY).(string),
			jobType:  jobModel.JobTypeCrawl,
			startURL: requestData.StartURL,
			maxDepth: requestData.MaxDepth,
			maxPages: requestData.MaxPages,
			priority: requestData.Priority,
		}
		CreateNewJob(newJob)
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
		return
	}
	logRH.Warn("Invalid Context by request ", request.RemoteAddr)
}

func validCrawlRequest(req api.CrawlRequest) bool {
	parsed, err := url.ParseRequestURI(req.StartURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return false
	}
	if req.Priority != "" && !docModel.ValidPriority(docModel.TruthPriority(req.Priority)) {
		return false
	}
	return req.MaxDepth >= 0 && req.MaxPages >= 0
}

// IngestHandler handles the uploading of PDF or DOCX documents for ingestion.
// @Summary      Upload a document for ingestion
// @Description  Receives a file via multipart/form-data, saves it to a temporary directory, registers a pending document and queues a processing job.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name   formData  string  true   "The display name of the document"
// @Param        truth_priority  formData  string  false  "standard, high or authoritative"
// @Param        document        formData  file    true   "The PDF or DOCX file to upload"
// @Success      202  {object}  api.InitJobResponse "Accepted - returns job and document ids"
// @Failure      400  {object}  api.JobResponse "Bad Request - Missing fields or file too large"
// @Failure      500  {object}  api.JobResponse "Internal Server Error - Storage or Write Error"
// @Router       /documents [post]
func IngestHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {

		targetDir, errString := getTargetDirectory()
		if errString != "" {
			logRH.Error("Couldn't get target directory :", "err", errString)
			WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
			return
		}

		const maxUploadSize = 32 << 20 //32mb
		err := r.ParseMultipartForm(maxUploadSize)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
			return
		}

		docName := r.FormValue("document_name")
		if docName == "" {
			WriteErrorResponse(w, http.StatusBadRequest, "", "document_name is required")
			return
		}

		priority := docModel.TruthPriority(r.FormValue("truth_priority"))
		if priority == "" {
			priority = docModel.PriorityStandard
		}
		if !docModel.ValidPriority(priority) {
			WriteErrorResponse(w, http.StatusBadRequest, docName, "Unknown truth_priority")
			return
		}

		fileReader, fileMetadata, err := r.FormFile("document")
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, docName, "Could not retrieve file")
			return
		}
		defer fileReader.Close()

		if extract.DetectDocType(fileMetadata.Filename) == extract.ERR {
			WriteErrorResponse(w, http.StatusBadRequest, docName, "Unsupported file type")
			return
		}

		filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
		tempFilePath := filepath.Join(targetDir, filename)
		destinationFileWriter, err := os.Create(tempFilePath)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, docName, "Storage error")
			return
		}
		defer destinationFileWriter.Close()

		if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, docName, "Write error")
			return
		}

		now := time.Now()
		doc := docModel.Document{
			Id:          utils.GetNewUUID(),
			Name:        docName,
			SourceType:  docModel.SourceFile,
			SourceRef:   tempFilePath,
			ContentType: fileMetadata.Header.Get("Content-Type"),
			Status:      docModel.StatusPending,
			Priority:    priority,
			CreatedTime: now,
			UpdatedTime: now,
		}
		if err := _documentStore.SaveDocument(r.Context(), doc); err != nil {
			logRH.Error("Couldn't register uploaded document", "err", err)
			WriteErrorResponse(w, http.StatusInternalServerError, docName, "Storage error")
			return
		}

		newJob := newJobData{
			id:         utils.GetNewUUID(),
			traceId:    r.Context().Value(config.TRACE_ID_KEY).(string),
			jobType:    jobModel.JobTypeProcess,
			documentId: doc.Id,
		}
		CreateNewJob(newJob)

		res := adapter.ToInitJobResponse(newJob.id)
		res.DocumentId = doc.Id
		writeJsonResponse(w, http.StatusAccepted, res)
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}

// ResyncHandler godoc
// @Summary      Re-sync a document from its source
// @Description  Queues a job that re-fetches the document's source, and re-chunks and re-embeds only when the content changed.
// @Tags         Ingestion
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      202  {object}  api.InitJobResponse
// @Failure      404  {object}  api.JobResponse  "Document not found"
// @Router       /documents/{id}/resync [post]
func ResyncHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		id := utils.GetChiURLParam(r, "id")
		if _, found := _documentStore.GetDocument(r.Context(), id); !found {
			WriteErrorResponse(w, http.StatusNotFound, id, "Document not found")
			return
		}

		newJob := newJobData{
			id:         utils.GetNewUUID(),
			traceId:    r.Context().Value(config.TRACE_ID_KEY).(string),
			jobType:    jobModel.JobTypeProcess,
			documentId: id,
			resync:     true,
		}
		CreateNewJob(newJob)

		res := adapter.ToInitJobResponse(newJob.id)
		res.DocumentId = id
		writeJsonResponse(w, http.StatusAccepted, res)
	}
}

// GetDocumentHandler godoc
// @Summary      Get a document record
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.DocumentResponse
// @Failure      404  {object}  api.JobResponse  "Document not found"
// @Router       /documents/{id} [get]
func GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		id := utils.GetChiURLParam(r, "id")
		doc, found := _documentStore.GetDocument(r.Context(), id)
		if !found {
			WriteErrorResponse(w, http.StatusNotFound, id, "Document not found")
			return
		}
		writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc))
	}
}

// DeleteDocumentHandler godoc
// @Summary      Delete a document
// @Description  Removes the document's vectors first, then its record. Runs synchronously.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  api.JobResponse  "Document not found"
// @Router       /documents/{id} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		id := utils.GetChiURLParam(r, "id")
		if _, found := _documentStore.GetDocument(r.Context(), id); !found {
			WriteErrorResponse(w, http.StatusNotFound, id, "Document not found")
			return
		}
		if err := _documentProcessor.Delete(r.Context(), id); err != nil {
			logRH.Error("Couldn't delete document", "id", id, "err", err)
			WriteErrorResponse(w, http.StatusInternalServerError, id, "Delete failed")
			return
		}
		writeJsonResponse(w, http.StatusOK, map[string]string{
			"id":     id,
			"status": string(docModel.StatusDeleted),
		})
	}
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a specific job using its ID.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse  "The current status of the job"
// @Failure      404  {object}  api.JobResponse  "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")
		result, isFound := validateId(idString, r.Context().Value(config.TRACE_ID_KEY).(string))

		logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
	}
}

// SearchHandler godoc
// @Summary      Search the knowledge base
// @Description  Embeds the query and returns chunks above the similarity threshold, best match first. Served from the semantic cache when a near-identical query was answered recently.
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Param        request  body      api.SearchRequest  true  "Query with optional limit and threshold"
// @Success      200      {object}  api.SearchResponse
// @Failure      400      {object}  api.JobResponse  "Invalid request data"
// @Router       /search [post]
func SearchHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {

		var requestData api.SearchRequest
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil || requestData.Query == "" {
			logRH.Warn("Bad Search Request: ", "error:", err)
			WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
			return
		}

		result, err := _knowledgeService.Search(r.Context(), requestData.Query, requestData.Limit, requestData.Threshold)
		if err != nil {
			logRH.Error("Search failed", "err", err)
			WriteErrorResponse(w, http.StatusInternalServerError, "", "Search failed")
			return
		}
		writeJsonResponse(w, http.StatusOK, adapter.ToSearchResponse(result))
	}
}

// RelatedHandler godoc
// @Summary      Find documents related to an entity
// @Description  Scores indexed documents against the entity text. Matches above the auto-link threshold are persisted as links when auto_link is set.
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Param        request  body      api.RelatedRequest  true  "Entity text with optional auto-link flag"
// @Success      200      {object}  api.RelatedResponse
// @Failure      400      {object}  api.JobResponse  "Invalid request data"
// @Router       /related [post]
func RelatedHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {

		var requestData api.RelatedRequest
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil || requestData.EntityText == "" {
			logRH.Warn("Bad Related Request: ", "error:", err)
			WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
			return
		}

		related, err := _knowledgeService.FindRelatedDocuments(r.Context(), requestData.EntityText, requestData.AutoLink)
		if err != nil {
			logRH.Error("Related lookup failed", "err", err)
			WriteErrorResponse(w, http.StatusInternalServerError, "", "Related lookup failed")
			return
		}
		writeJsonResponse(w, http.StatusOK, adapter.ToRelatedResponse(related))
	}
}
