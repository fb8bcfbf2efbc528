package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/clinicore/docrag/internal/adapter"
	"github.com/clinicore/docrag/internal/api"
	"github.com/clinicore/docrag/internal/domain/docModel"
	"github.com/clinicore/docrag/internal/rag/retrieval"
)

// SearchHandler answers tenant-scoped similarity queries. Omitted
// limit and threshold get the documented defaults; present-but-bad
// values are rejected downstream.
func SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	var requestData api.SearchRequest
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logRH.Error("Couldn't close the search request reader :", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		logRH.Warn("Bad Search Request: ", "error:", err)
		WriteErrorResponse(w, http.StatusBadRequest, "Bad Request")
		return
	}

	opts := retrieval.DefaultOptions()
	opts.Category = docModel.Category(requestData.Category)
	if requestData.Limit != nil {
		opts.Limit = *requestData.Limit
	}
	if requestData.Threshold != nil {
		opts.Threshold = *requestData.Threshold
	}

	matches, err := handlerInstance.ragService.Search(r.Context(), tenantFromRequest(r), requestData.Query, opts)
	if err != nil {
		writeFaultResponse(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSearchResponse(requestData.Query, matches))
}

func StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	stats, err := handlerInstance.ragService.Stats(r.Context(), tenantFromRequest(r))
	if err != nil {
		writeFaultResponse(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToStatsResponse(stats))
}
