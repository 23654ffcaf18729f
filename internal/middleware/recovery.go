package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/2beens/smartnotes/internal/telemetry/metrics"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a handler panic into a 500 response. The panic is
// counted, logged with its stack and reported to sentry when it is set up.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					// net/http uses this one to abort the response on purpose
					panic(rec)
				}

				log.WithFields(log.Fields{
					"method": req.Method,
					"path":   req.URL.Path,
				}).Errorf("panic serving request: %v\n%s", rec, debug.Stack())
				sentry.CurrentHub().Recover(rec)

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				http.Error(respWriter, "internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(respWriter, req)
		})
	}
}
