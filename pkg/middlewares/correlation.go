package middlewares

import (
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
	"github.com/jake-scott/gira-x1/internal/pkg/logging"
)

const DefaultCorrelationHeader = "X-Correlation-Id"

var correlationIDRegexp = regexp.MustCompile(`^[\w-]{3,64}$`)

// CorrelationMw adopts a caller supplied correlation ID as the transaction
// ID of the request and echoes it in the response.  It must run before
// LoggingMw for the ID to show up in the logs.
type CorrelationMw struct {
	headerName string
	next       http.Handler
}

func NewCorrelationMw(headerName string) mux.MiddlewareFunc {
	if headerName == "" {
		headerName = DefaultCorrelationHeader
	}

	return func(next http.Handler) http.Handler {
		return &CorrelationMw{headerName: http.CanonicalHeaderKey(headerName), next: next}
	}
}

func (mw *CorrelationMw) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if id := r.Header.Get(mw.headerName); id != "" {
		if correlationIDRegexp.MatchString(id) {
			rw.Header().Set(mw.headerName, id)
			r = r.WithContext(logging.WithTxnID(r.Context(), id))
		} else {
			logging.Logger(r.Context()).Debugf("ignoring malformed %s header", mw.headerName)
		}
	}

	mw.next.ServeHTTP(rw, r)
}
