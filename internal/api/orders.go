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

package api

import (
	"context"
	"errors"
	"strings"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/provider"
	"smm-panel-go/internal/store"

	"go.uber.org/zap"
)

// PlaceOrder forwards an order to the primary provider and returns its id.
// It moves no money and writes no local row; PurchaseOrder does both.
func (s *PanelService) PlaceOrder(ctx context.Context, authorization string, req models.OrderRequest) (*models.OrderPlacement, error) {
	profile, err := s.Authenticate(ctx, authorization)
	if err != nil {
		return nil, err
	}
	if err := validateOrderRequest(&req); err != nil {
		return nil, err
	}

	primary, err := s.primaryProvider(ctx)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Placing upstream order",
		zap.String("user_id", profile.Id),
		zap.String("provider_id", primary.ProviderId),
		zap.String("service", req.Service),
		zap.Int64("quantity", req.Quantity))

	placement, err := s.upstream.AddOrder(ctx, *primary, req)
	if err != nil {
		return nil, upstreamFailure(err)
	}
	return placement, nil
}

// SyncOrderStatus reads the upstream status of one order. Nothing is persisted.
func (s *PanelService) SyncOrderStatus(ctx context.Context, authorization, externalOrderId string) (*models.OrderStatusResult, error) {
	if _, err := s.Authenticate(ctx, authorization); err != nil {
		return nil, err
	}

	externalOrderId = strings.TrimSpace(externalOrderId)
	if externalOrderId == "" {
		return nil, validationError("external_order_id is required", nil)
	}

	primary, err := s.primaryProvider(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.upstream.OrderStatus(ctx, *primary, externalOrderId)
	if err != nil {
		return nil, upstreamFailure(err)
	}
	return result, nil
}

func (s *PanelService) primaryProvider(ctx context.Context) (*models.ApiProvider, error) {
	primary, err := s.db.GetPrimaryProvider(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoPrimaryProvider) {
			return nil, internalError("no order provider configured", err)
		}
		return nil, internalError("failed to load primary provider", err)
	}
	return primary, nil
}

func validateOrderRequest(req *models.OrderRequest) error {
	req.Service = strings.TrimSpace(req.Service)
	req.Link = strings.TrimSpace(req.Link)

	if req.Service == "" {
		return validationError("service is required", nil)
	}
	if req.Link == "" {
		return validationError("link is required", nil)
	}
	// Some services take a bare username instead of a URL
	if strings.ContainsAny(req.Link, " \t\r\n") {
		return validationError("link is invalid", nil)
	}
	if req.Quantity <= 0 {
		return validationError("quantity must be positive", nil)
	}
	return nil
}

// upstreamFailure keeps a provider's own error text, which callers rely on
func upstreamFailure(err error) *Error {
	var upstreamErr *provider.UpstreamError
	if errors.As(err, &upstreamErr) {
		return &Error{Kind: KindUpstream, Message: upstreamErr.Message, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUpstream, Message: "upstream provider timed out", Err: err}
	}
	return &Error{Kind: KindUpstream, Message: "upstream provider unavailable", Err: err}
}
