package middlewares

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewCorsMw allows browsers on the listed origins to reach the listener,
// for dashboards that probe it directly.  It should be first in the chain
// so preflight requests are answered before anything else runs.
func NewCorsMw(origins []string) mux.MiddlewareFunc {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", DefaultCorrelationHeader},
		ExposedHeaders: []string{TxnIDHeader, DefaultCorrelationHeader},
	})

	return c.Handler
}
