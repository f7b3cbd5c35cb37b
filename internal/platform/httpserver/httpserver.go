package httpserver

import (
	"net/http"
	"time"
)

// New builds the service's HTTP server. Requests carry single FHIR
// documents or short result arrays, so the write timeout can be tight.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
