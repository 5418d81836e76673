package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"go.uber.org/zap"

	"budgetpricing/metrics"
)

// statusWriter records the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// RequestMetrics logs every API request and records it in m.
func RequestMetrics(m *metrics.Metrics) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: e.Response}
		e.Response = sw

		err := e.Next()

		e.Response = sw.ResponseWriter
		status := sw.status
		if status == 0 {
			status = errorStatus(err)
		}
		route := routeLabel(e.Request)
		elapsed := time.Since(start)

		m.ObserveRequest(e.Request.Method, route, status, elapsed)
		zap.L().Debug("request",
			zap.String("method", e.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		)
		return err
	}
}

func errorStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var apiErr *router.ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

// routeLabel returns the matched route pattern without its method prefix.
func routeLabel(r *http.Request) string {
	p := r.Pattern
	if i := strings.IndexByte(p, ' '); i >= 0 {
		p = p[i+1:]
	}
	if p == "" {
		return "unmatched"
	}
	return p
}
