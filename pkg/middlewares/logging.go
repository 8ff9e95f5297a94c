package middlewares

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jake-scott/gira-x1/internal/pkg/logging"
	"github.com/sirupsen/logrus"
)

const TxnIDHeader = "X-Txn-ID"

// statusRecorder remembers what was sent so it can be audited, and
// optionally logs the response body
type statusRecorder struct {
	http.ResponseWriter

	ctx      context.Context
	status   int
	size     int
	logBody  bool
	loggedHd bool
}

func (rw *statusRecorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if rw.logBody && !rw.loggedHd {
		logging.Logger(rw.ctx).Debugf("response headers: %+v", rw.Header())
		rw.loggedHd = true
	}

	n, err := rw.ResponseWriter.Write(b)
	rw.size += n

	if rw.logBody && err == nil {
		logging.Logger(rw.ctx).Debugf("response body (%d bytes): %s", n, b[:n])
	}
	return n, err
}

// bodyLogger logs request bodies as the handler reads them
type bodyLogger struct {
	io.ReadCloser
	ctx context.Context
}

func (bl bodyLogger) Read(b []byte) (int, error) {
	n, err := bl.ReadCloser.Read(b)
	if n > 0 {
		logging.Logger(bl.ctx).Debugf("request body (%d bytes): %s", n, b[:n])
	}

	return n, err
}

// NewLoggingMw gives every request a transaction ID and writes one audit
// entry per request.  With logBodies set the request and response bodies
// are logged at debug level too.
func NewLoggingMw(logBodies bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			start := time.Now()

			txnID, ok := logging.TxnID(r.Context())
			if !ok {
				txnID = uuid.New().String()
				r = r.WithContext(logging.WithTxnID(r.Context(), txnID))
			}
			rw.Header().Set(TxnIDHeader, txnID)

			if logBodies {
				logging.Logger(r.Context()).Debugf("request headers: %+v", r.Header)
				r.Body = bodyLogger{ReadCloser: r.Body, ctx: r.Context()}
			}

			rec := &statusRecorder{
				ResponseWriter: rw,
				ctx:            r.Context(),
				status:         http.StatusOK,
				logBody:        logBodies,
			}
			next.ServeHTTP(rec, r)

			logging.Logger(r.Context()).WithFields(logrus.Fields{
				"entrytype": "audit",
				"status":    rec.status,
				"method":    r.Method,
				"path":      r.URL.Path,
				"remote":    r.RemoteAddr,
				"duration":  time.Since(start),
				"size":      rec.size,
			}).Info(http.StatusText(rec.status))
		})
	}
}
