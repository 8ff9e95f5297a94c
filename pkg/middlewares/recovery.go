package middlewares

import (
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/jake-scott/gira-x1/internal/pkg/logging"
)

// NewRecoveryMw turns a panicking handler into a 500 so one bad callback
// cannot stop the listener
func NewRecoveryMw() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					logging.Logger(r.Context()).
						WithField("panic", p).
						Errorf("handler panicked: %s", debug.Stack())

					http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
