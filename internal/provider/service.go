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

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"smm-panel-go/internal/metrics"
	"smm-panel-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

const maxResponseBytes = 10 << 20

// UpstreamError is a failure reported by a provider. When the provider
// answered with an error payload, Message is its text unchanged.
type UpstreamError struct {
	ProviderId string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// Service talks the common SMM panel API v2 dialect: form-encoded POSTs
// to a single endpoint, selected by the "action" field.
type Service struct {
	client *http.Client
}

func NewService(timeout time.Duration) (*Service, error) {
	httpClient, err := createCustomHttpClient(timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}
	return &Service{client: httpClient}, nil
}

func createCustomHttpClient(timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

type upstreamService struct {
	Service  flexString `json:"service"`
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Category string     `json:"category"`
	Rate     flexString `json:"rate"`
	Min      flexString `json:"min"`
	Max      flexString `json:"max"`
	Refill   flexBool   `json:"refill"`
	Cancel   flexBool   `json:"cancel"`
}

type upstreamOrder struct {
	Order flexString `json:"order"`
}

type upstreamStatus struct {
	Charge     flexString `json:"charge"`
	StartCount flexString `json:"start_count"`
	Status     string     `json:"status"`
	Remains    flexString `json:"remains"`
	Currency   string     `json:"currency"`
}

// ListServices fetches one provider's catalog and tags every item with the provider
func (s *Service) ListServices(ctx context.Context, p models.ApiProvider) ([]models.ServiceItem, error) {
	var raw []upstreamService
	if err := s.call(ctx, p, "services", nil, &raw); err != nil {
		return nil, err
	}

	items := make([]models.ServiceItem, 0, len(raw))
	for _, r := range raw {
		rate, err := decimal.NewFromString(r.Rate.String())
		if err != nil {
			zap.L().Warn("Skipping service with unparseable rate",
				zap.String("provider_id", p.ProviderId),
				zap.String("service", r.Service.String()),
				zap.String("rate", r.Rate.String()))
			continue
		}
		items = append(items, models.ServiceItem{
			Service:      r.Service.String(),
			Name:         r.Name,
			Type:         r.Type,
			Category:     r.Category,
			Rate:         rate,
			Min:          r.Min.Int64(),
			Max:          r.Max.Int64(),
			Refill:       bool(r.Refill),
			Cancel:       bool(r.Cancel),
			ProviderId:   p.ProviderId,
			ProviderName: p.Name,
		})
	}

	return items, nil
}

// AddOrder places one order upstream. It is not idempotent: every call is a new order.
func (s *Service) AddOrder(ctx context.Context, p models.ApiProvider, req models.OrderRequest) (*models.OrderPlacement, error) {
	form := url.Values{}
	form.Set("service", req.Service)
	form.Set("link", req.Link)
	form.Set("quantity", strconv.FormatInt(req.Quantity, 10))

	var resp upstreamOrder
	if err := s.call(ctx, p, "add", form, &resp); err != nil {
		return nil, err
	}
	if resp.Order.String() == "" {
		return nil, &UpstreamError{ProviderId: p.ProviderId, Message: "provider response missing order id"}
	}

	zap.L().Info("Upstream order placed",
		zap.String("provider_id", p.ProviderId),
		zap.String("service", req.Service),
		zap.String("external_order_id", resp.Order.String()))

	return &models.OrderPlacement{ExternalOrderId: resp.Order.String(), ProviderId: p.ProviderId}, nil
}

// OrderStatus reads one order's upstream status and maps it to the local vocabulary
func (s *Service) OrderStatus(ctx context.Context, p models.ApiProvider, externalOrderId string) (*models.OrderStatusResult, error) {
	form := url.Values{}
	form.Set("order", externalOrderId)

	var resp upstreamStatus
	if err := s.call(ctx, p, "status", form, &resp); err != nil {
		return nil, err
	}

	return &models.OrderStatusResult{
		ExternalOrderId: externalOrderId,
		Status:          MapStatus(resp.Status),
		UpstreamStatus:  resp.Status,
		Charge:          resp.Charge.String(),
		StartCount:      resp.StartCount.String(),
		Remains:         resp.Remains.String(),
		Currency:        resp.Currency,
	}, nil
}

func (s *Service) call(ctx context.Context, p models.ApiProvider, action string, form url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			if _, ok := err.(*UpstreamError); ok {
				result = "upstream_error"
			}
		}
		m := metrics.Get()
		m.UpstreamCallTotal.WithLabelValues(p.ProviderId, action, result).Inc()
		m.UpstreamCallDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	}()

	if form == nil {
		form = url.Values{}
	}
	form.Set("key", p.ApiKey)
	form.Set("action", action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.ApiUrl, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("unable to build %s request for provider %s: %w", action, p.ProviderId, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider %s %s request failed: %w", p.ProviderId, action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("unable to read provider %s response: %w", p.ProviderId, err)
	}

	// Providers put an error field in the body even on 200
	if msg, ok := errorPayload(body); ok {
		return &UpstreamError{ProviderId: p.ProviderId, StatusCode: resp.StatusCode, Message: msg}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{
			ProviderId: p.ProviderId,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("provider returned HTTP %d", resp.StatusCode),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unable to decode provider %s %s response: %w", p.ProviderId, action, err)
	}
	return nil
}

func errorPayload(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var payload struct {
		Error flexString `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return "", false
	}
	if payload.Error.String() == "" {
		return "", false
	}
	return payload.Error.String(), true
}
