/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"smm-panel-go/internal/metrics"
	"smm-panel-go/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	requestIdHeader    = "X-Request-Id"
	forwardedForHeader = "X-Forwarded-For"
	countryHeader      = "CF-IPCountry"
)

// withCORS answers preflight requests for every path, routed or not, and
// tags every other response with permissive CORS headers
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type, "+
			"x-paystack-signature, x-korapay-signature")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRequestMeta attaches the request id and caller address to the context
func withRequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get(requestIdHeader)
		if requestId == "" {
			requestId = uuid.New().String()
		}
		w.Header().Set(requestIdHeader, requestId)

		meta := &models.RequestMeta{
			RequestId: requestId,
			RemoteIp:  clientIp(r),
			Location:  strings.TrimSpace(r.Header.Get(countryHeader)),
		}
		next.ServeHTTP(w, r.WithContext(models.WithRequestMeta(r.Context(), meta)))
	})
}

// clientIp prefers the first X-Forwarded-For hop set by the edge proxy
func clientIp(r *http.Request) string {
	if forwarded := r.Header.Get(forwardedForHeader); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withLogging records status and latency per route template. It runs as
// router middleware so the matched route is known.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := routeName(r)
		elapsed := time.Since(start)
		m := metrics.Get()
		m.HttpRequestTotal.WithLabelValues(route, fmt.Sprintf("%d", rec.status)).Inc()
		m.HttpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		if route == "/healthz" || route == "/metrics" {
			return
		}
		zap.L().Info("HTTP request",
			zap.String("request_id", models.GetRequestMeta(r.Context()).RequestId),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("took", elapsed))
	})
}

// routeName keeps metric labels bounded to the registered templates
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// withRecover turns a handler panic into a 500
func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				zap.L().Error("Handler panic",
					zap.Any("panic", p),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()))
				WriteError(w, http.StatusInternalServerError, "internal_error", "internal error",
					models.GetRequestMeta(r.Context()).RequestId)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
