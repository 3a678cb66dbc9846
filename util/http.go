package util

import (
	"net/http"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
)

var (
	client *retryablehttp.Client
	once   sync.Once
)

// HTTPClient returns the shared HTTP client used for all catalog traffic.
// Throttling and transient server errors (429, 5xx) are retried by the
// client itself; anything else is handed back to the caller unchanged.
func HTTPClient() *http.Client {
	once.Do(func() {
		client = retryablehttp.NewClient()
		client.Logger = nil
		if log.GetLevel() >= log.DebugLevel {
			client.Logger = log.StandardLogger()
		}
		client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	})
	return client.StandardClient()
}
