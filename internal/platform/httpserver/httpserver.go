package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with header and body timeouts. readTimeout of
// zero falls back to ten seconds.
func New(addr string, handler http.Handler, readTimeout time.Duration) *http.Server {
	if readTimeout == 0 {
		readTimeout = 10 * time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      2 * readTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
