package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/clinicore/docrag/internal/adapter"
	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/data/docStore"
	"github.com/clinicore/docrag/internal/domain/docModel"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response: %v", err)
	}
}

func validateContext(ctx context.Context) bool {
	logRH.With("traceId:", ctx.Value(config.TRACE_ID_KEY))
	if ctx.Err() != nil {
		logRH.Warn("context error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.Warn("context cancelled")
		return false
	default:
		return true
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(message, httpCode))
}

// writeFaultResponse turns a service error into its HTTP shape.
func writeFaultResponse(w http.ResponseWriter, err error) {
	code := adapter.HTTPStatusFor(err)
	writeJsonResponse(w, code, adapter.ToErrorResponse(err, code))
}

// tenantFromRequest reads the caller's tenant. Uploading into the
// shared global tenant works by sending it explicitly; an absent
// header is always an error, never a fallback.
func tenantFromRequest(r *http.Request) string {
	return r.Header.Get("X-Tenant-Id")
}

func uploaderFromRequest(r *http.Request) string {
	return r.Header.Get("X-User-Id")
}

func traceFromRequest(r *http.Request) string {
	if v, ok := r.Context().Value(config.TRACE_ID_KEY).(string); ok {
		return v
	}
	return ""
}

func pageFromQuery(r *http.Request) docStore.PageRequest {
	page := docStore.PageRequest{Page: 1, PageSize: 20}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		page.PageSize = v
	}
	return page
}

func filtersFromQuery(r *http.Request) docStore.ListFilters {
	return docStore.ListFilters{
		Category: docModel.Category(r.URL.Query().Get("category")),
		Status:   docModel.Status(r.URL.Query().Get("status")),
	}
}
