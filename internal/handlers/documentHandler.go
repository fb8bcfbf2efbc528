package handlers

import (
	"net/http"

	"github.com/clinicore/docrag/internal/adapter"
	"github.com/clinicore/docrag/internal/adapter/utils"
	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/internal/job"
	"github.com/clinicore/docrag/internal/rag"
)

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// PostDocumentHandler receives a file via multipart/form-data, records
// the document and queues ingestion. The response is 202: chunking and
// embedding happen on the worker pool.
func PostDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
		WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	req := rag.IngestRequest{
		TenantId:   tenantFromRequest(r),
		UploaderId: uploaderFromRequest(r),
		Category:   docModel.Category(r.FormValue("category")),
		FileName:   fileMetadata.Filename,
		MediaType:  fileMetadata.Header.Get("Content-Type"),
		Data:       fileReader,
		Size:       fileMetadata.Size,
	}

	documentId, err := handlerInstance.ragService.IngestDocument(r.Context(), req)
	if err != nil {
		logRH.Warn("Rejected upload", "fileName", req.FileName, "error", err)
		writeFaultResponse(w, err)
		return
	}

	EnqueueIngestTask(job.IngestTask{
		DocumentId: documentId,
		TenantId:   req.TenantId,
		TraceId:    traceFromRequest(r),
	})

	writeJsonResponse(w, http.StatusAccepted, adapter.ToIngestAcceptedResponse(documentId))
}

func GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	documentId := utils.GetChiURLParam(r, "id")
	doc, found, err := handlerInstance.ragService.GetDocument(r.Context(), tenantFromRequest(r), documentId)
	if err != nil {
		writeFaultResponse(w, err)
		return
	}
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc))
}

func ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	page, err := handlerInstance.ragService.ListDocuments(r.Context(), tenantFromRequest(r), filtersFromQuery(r), pageFromQuery(r))
	if err != nil {
		writeFaultResponse(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentListResponse(page))
}

func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	documentId := utils.GetChiURLParam(r, "id")
	deleted, err := handlerInstance.ragService.DeleteDocument(r.Context(), tenantFromRequest(r), documentId)
	if err != nil {
		writeFaultResponse(w, err)
		return
	}
	if !deleted {
		WriteErrorResponse(w, http.StatusNotFound, "Document not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReprocessDocumentHandler queues a fresh chunk+embed run. The check
// here is only existence; the pipeline validates the status when the
// task executes.
func ReprocessDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	tenantId := tenantFromRequest(r)
	documentId := utils.GetChiURLParam(r, "id")

	doc, found, err := handlerInstance.ragService.GetDocument(r.Context(), tenantId, documentId)
	if err != nil {
		writeFaultResponse(w, err)
		return
	}
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, "Document not found")
		return
	}
	if doc.Status == docModel.StatusPending || doc.Status == docModel.StatusProcessing {
		WriteErrorResponse(w, http.StatusConflict, "Document is still being processed")
		return
	}

	EnqueueIngestTask(job.IngestTask{
		DocumentId: documentId,
		TenantId:   tenantId,
		TraceId:    traceFromRequest(r),
		Reprocess:  true,
	})

	writeJsonResponse(w, http.StatusAccepted, adapter.ToIngestAcceptedResponse(documentId))
}
