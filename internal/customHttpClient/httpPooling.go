package customHttpClient

import (
	"net/http"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
)

var pooledTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewPooledClient returns a client sharing the process-wide connection pool.
// The crawler reuses connections to the site it is walking instead of
// re-dialing for every page.
func NewPooledClient() *http.Client {
	return &http.Client{Transport: pooledTransport}
}
