package middleware

import (
	"net/http"
	"strconv"

	"github.com/clinicore/docrag/internal/handlers"
	"github.com/clinicore/docrag/internal/metrics"
	"github.com/clinicore/docrag/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var GetHandler = Wrap(handlers.GetHandler, false)

var PostDocumentHandler = Wrap(handlers.PostDocumentHandler, true)
var GetDocumentHandler = Wrap(handlers.GetDocumentHandler, true)
var ListDocumentsHandler = Wrap(handlers.ListDocumentsHandler, true)
var DeleteDocumentHandler = Wrap(handlers.DeleteDocumentHandler, true)
var ReprocessDocumentHandler = Wrap(handlers.ReprocessDocumentHandler, true)
var SearchHandler = Wrap(handlers.SearchHandler, true)
var StatsHandler = Wrap(handlers.StatsHandler, true)

func Wrap(next http.HandlerFunc, tenantScoped bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec}, tenantScoped)

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func processRequest(re requestResponseStruct, tenantScoped bool) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Info("New request received")

	re = injectTrace(re)
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re //stop if auth fails
	}
	re = rateLimiter(re)
	if re.badRequest.isBadRequest {
		return re //stop here if rate limit fails
	}
	if tenantScoped {
		re = requireTenant(re)
	}

	return re
}
