// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tutora/internal/platform/metrics"
)

// RequestMetrics records request latency labelled by the matched chi route
// pattern, which keeps label cardinality bounded (no raw paths or tokens).
func RequestMetrics(recorder *metrics.HTTP) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			startTime := time.Now()
			wrappedWriter := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

			next.ServeHTTP(wrappedWriter, request)

			route := ""
			if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
				route = routeContext.RoutePattern()
			}
			recorder.Observe(request.Method, route, wrappedWriter.status, time.Since(startTime).Seconds())
		})
	}
}
