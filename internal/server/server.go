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
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"smm-panel-go/internal/api"
	"smm-panel-go/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Server exposes the panel service over HTTP
type Server struct {
	panel      *api.PanelService
	handler    http.Handler
	httpServer *http.Server
	cfg        models.ServerConfig
}

func NewServer(cfg models.ServerConfig, panel *api.PanelService) *Server {
	s := &Server{panel: panel, cfg: cfg}
	s.handler = withRecover(withRequestMeta(withCORS(s.routes())))
	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(withLogging)

	r.HandleFunc("/webhooks/paystack", s.paystackWebhookHandler).Methods(http.MethodPost)
	r.HandleFunc("/webhooks/korapay", s.korapayWebhookHandler).Methods(http.MethodPost)

	r.HandleFunc("/api/services", s.listServicesHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/orders", s.placeOrderHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/orders/status", s.orderStatusHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/orders/purchase", s.purchaseOrderHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/session", s.sessionHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/transactions", s.transactionsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/payments/reference", s.paymentReferenceHandler).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/deposit-codes", s.issueDepositCodeHandler).Methods(http.MethodPost)
	admin.HandleFunc("/deposit-codes/verify", s.verifyDepositCodeHandler).Methods(http.MethodPost)
	admin.HandleFunc("/deposit-codes/confirm", s.confirmDepositHandler).Methods(http.MethodPost)

	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// Handler returns the full middleware chain, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) ListenAndServe() error {
	zap.L().Info("HTTP server listening", zap.String("addr", s.cfg.ListenAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	zap.L().Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.panel.RequireAdmin(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeApiError(w, r, err)
			return
		}
		zap.L().Info("Admin request",
			zap.String("operator", claims.Subject),
			zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}
