package adapter

import (
	"fmt"
	"net/http"

	"github.com/clinicore/docrag/internal/api"
	"github.com/clinicore/docrag/internal/data/docStore"
	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/internal/rag/retrieval"
)

func ToDocumentResponse(doc docModel.Document) api.DocumentResponse {
	return api.DocumentResponse{
		Id:             doc.Id,
		TenantId:       doc.TenantId,
		Category:       string(doc.Category),
		FileName:       doc.FileName,
		FileSize:       doc.FileSize,
		MediaType:      doc.MediaType,
		Status:         string(doc.Status),
		ErrorMessage:   doc.ErrorMessage,
		ChunkCount:     doc.ChunkCount,
		AvgChunkSize:   doc.AvgChunkSize,
		EmbeddingModel: doc.EmbeddingModel,
		ProcessingMS:   doc.ProcessingMS,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

func ToIngestAcceptedResponse(documentId string) api.IngestAcceptedResponse {
	return api.IngestAcceptedResponse{
		Id:        documentId,
		StatusURL: fmt.Sprintf("documents/%s", documentId),
	}
}

func ToDocumentListResponse(page docStore.DocumentPage) api.DocumentListResponse {
	docs := make([]api.DocumentResponse, 0, len(page.Documents))
	for _, doc := range page.Documents {
		docs = append(docs, ToDocumentResponse(doc))
	}
	return api.DocumentListResponse{
		Documents:  docs,
		TotalCount: page.TotalCount,
		Page:       page.Page,
		PageSize:   page.PageSize,
	}
}

func ToSearchResponse(query string, matches []retrieval.Match) api.SearchResponse {
	out := make([]api.SearchMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, api.SearchMatch{
			Content:     m.Content,
			DocumentId:  m.DocumentId,
			ChunkIndex:  m.ChunkIndex,
			Score:       m.Score,
			Category:    string(m.Category),
			PageNum:     m.PageNum,
			StartOffset: m.StartOffset,
			EndOffset:   m.EndOffset,
		})
	}
	return api.SearchResponse{
		Query:   query,
		Matches: out,
		Count:   len(out),
	}
}

func ToStatsResponse(stats docStore.TenantStats) api.StatsResponse {
	byStatus := make(map[string]int, len(stats.ByStatus))
	for k, v := range stats.ByStatus {
		byStatus[string(k)] = v
	}
	byCategory := make(map[string]int, len(stats.ByCategory))
	for k, v := range stats.ByCategory {
		byCategory[string(k)] = v
	}
	return api.StatsResponse{
		TotalDocuments: stats.TotalDocuments,
		ByStatus:       byStatus,
		ByCategory:     byCategory,
		TotalChunks:    stats.TotalChunks,
	}
}

// HTTPStatusFor maps an error kind onto a status code. Unknown kinds
// are internal errors on purpose: leaking store details helps nobody.
func HTTPStatusFor(err error) int {
	switch faults.KindOf(err) {
	case faults.InvalidParameter, faults.InvalidConfiguration:
		return http.StatusBadRequest
	case faults.UnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case faults.FileTooLarge, faults.InputTooLarge:
		return http.StatusRequestEntityTooLarge
	case faults.DuplicateDocument:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func ToErrorResponse(err error, code int) api.ErrorResponse {
	return api.ErrorResponse{
		Code:    code,
		Kind:    string(faults.KindOf(err)),
		Message: err.Error(),
		Retry:   faults.IsRetryable(err),
	}
}

func BadRequest(message string, code int) api.ErrorResponse {
	return api.ErrorResponse{
		Code:    code,
		Message: message,
	}
}
