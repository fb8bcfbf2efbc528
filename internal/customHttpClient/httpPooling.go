package customHttpClient

import (
	"net/http"

	"github.com/clinicore/docrag/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// Pooled returns a client sharing one connection pool, so repeated
// embedding calls skip the TLS handshake.
func Pooled() *http.Client {
	return &http.Client{Transport: customTransport}
}
