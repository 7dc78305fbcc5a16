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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/payment"

	"github.com/shopspring/decimal"
)

type orderStatusRequest struct {
	ExternalOrderId string `json:"external_order_id"`
}

type paymentReferenceRequest struct {
	Gateway models.Gateway `json:"gateway"`
}

type issueDepositCodeRequest struct {
	UserId string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type depositCodeRequest struct {
	CodeKey string `json:"code_key"`
	Code    string `json:"code"`
}

// readBody reads a bounded raw body. Webhook signatures cover these exact bytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "validation_error", "request body too large",
				models.GetRequestMeta(r.Context()).RequestId)
			return nil, false
		}
		writeBadRequest(w, r, "unable to read request body")
		return nil, false
	}
	return body, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, ok := readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return false
	}
	return true
}

func (s *Server) paystackWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	result, err := s.panel.HandlePaystackWebhook(r.Context(), body, r.Header.Get(payment.PaystackSignatureHeader))
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, result)
}

func (s *Server) korapayWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	result, err := s.panel.HandleKorapayWebhook(r.Context(), body, r.Header.Get(payment.KorapaySignatureHeader))
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, result)
}

func (s *Server) listServicesHandler(w http.ResponseWriter, r *http.Request) {
	services, err := s.panel.ListServices(r.Context())
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]interface{}{"services": services})
}

func (s *Server) placeOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	placement, err := s.panel.PlaceOrder(r.Context(), r.Header.Get("Authorization"), req)
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, placement)
}

func (s *Server) orderStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.panel.SyncOrderStatus(r.Context(), r.Header.Get("Authorization"), req.ExternalOrderId)
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, result)
}

func (s *Server) purchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := s.panel.PurchaseOrder(r.Context(), r.Header.Get("Authorization"), req)
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, order)
}

func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.panel.RecordSession(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, session)
}

func (s *Server) transactionsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	history, err := s.panel.GetTransactionHistory(r.Context(), r.Header.Get("Authorization"), limit, offset)
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]interface{}{"transactions": history})
}

func (s *Server) paymentReferenceHandler(w http.ResponseWriter, r *http.Request) {
	var req paymentReferenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reference, err := s.panel.NewPaymentReference(r.Context(), r.Header.Get("Authorization"), req.Gateway)
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]string{"reference": reference})
}

func (s *Server) issueDepositCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req issueDepositCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	codeKey, err := s.panel.IssueDepositCode(r.Context(), req.UserId, req.Amount)
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, map[string]string{"code_key": codeKey})
}

func (s *Server) verifyDepositCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req depositCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	claim, err := s.panel.VerifyDepositCode(r.Context(), req.CodeKey, req.Code)
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, claim)
}

func (s *Server) confirmDepositHandler(w http.ResponseWriter, r *http.Request) {
	var req depositCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.panel.ConfirmDeposit(r.Context(), req.CodeKey, req.Code)
	if err != nil {
		writeApiError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, result)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.panel.HealthCheck(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "database unavailable",
			models.GetRequestMeta(r.Context()).RequestId)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
