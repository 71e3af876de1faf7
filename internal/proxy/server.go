package proxy

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Status is the read-only operational snapshot served at
// GET /_ccdump/status (SPEC_FULL.md D.1).
type Status struct {
	ActiveExchanges int64 `json:"active_exchanges"`
	EventsDropped   uint64 `json:"events_dropped"`
	Recording       bool  `json:"recording"`
}

// StatusSource supplies live values for the status endpoint without the
// proxy package depending on the router or recorder concrete types.
type StatusSource interface {
	EventsDropped() uint64
	Recording() bool
}

// activeExchanges tracks in-flight proxy requests for the status
// endpoint; NewServer's catch-all handler increments/decrements it around
// each Proxy.ServeHTTP call.
var activeExchanges atomic.Int64

// NewServer mounts the Proxy at the router root and a JSON status
// endpoint at /_ccdump/status, grounded on digitallysavvy-go-ai's
// chi.Router + go-chi/cors wiring. CORS is scoped to the status route
// only; the proxy route itself is never exposed to browser callers.
func NewServer(p *Proxy, status StatusSource) http.Handler {
	r := chi.NewRouter()

	r.Route("/_ccdump", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}))
		r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
			s := Status{ActiveExchanges: activeExchanges.Load()}
			if status != nil {
				s.EventsDropped = status.EventsDropped()
				s.Recording = status.Recording()
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(s)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		activeExchanges.Add(1)
		defer activeExchanges.Add(-1)
		p.ServeHTTP(w, req)
	})

	return r
}
