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
	"fmt"

	"smm-panel-go/internal/metrics"
	"smm-panel-go/internal/models"
	"smm-panel-go/internal/provider"
	"smm-panel-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var thousand = decimal.NewFromInt(1000)

// PurchaseOrder charges the wallet, places the order upstream and records
// it locally. If the upstream refuses, the charge is refunded.
func (s *PanelService) PurchaseOrder(ctx context.Context, authorization string, req models.OrderRequest) (*models.Order, error) {
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

	item, err := s.findService(ctx, *primary, req.Service)
	if err != nil {
		return nil, err
	}
	if req.Quantity < item.Min || (item.Max > 0 && req.Quantity > item.Max) {
		return nil, validationError(fmt.Sprintf("quantity must be between %d and %d", item.Min, item.Max), nil)
	}

	charge := s.priceOrder(item.Rate, req.Quantity)
	if !charge.IsPositive() {
		return nil, validationError("order amount is too small", nil)
	}

	operationId := uuid.New().String()
	_, err = s.db.ApplyTransaction(ctx, store.ApplyTransactionParams{
		UserId:      profile.Id,
		Type:        models.TransactionOrder,
		Amount:      charge.Neg(),
		ReferenceId: "ORDER-" + operationId,
		Gateway:     models.GatewayInternal,
		Description: fmt.Sprintf("Order: %s x%d", item.Name, req.Quantity),
	})
	if err != nil {
		metrics.Get().OrderTotal.WithLabelValues("rejected").Inc()
		if errors.Is(err, store.ErrInsufficientBalance) {
			return nil, validationError("insufficient balance", err)
		}
		return nil, internalError("failed to charge wallet", err)
	}

	placement, err := s.upstream.AddOrder(ctx, *primary, req)
	if err != nil {
		metrics.Get().OrderTotal.WithLabelValues("upstream_error").Inc()
		return nil, s.purchaseFailed(ctx, profile.Id, operationId, charge, err)
	}

	order, err := s.db.CreateOrder(ctx, store.CreateOrderParams{
		UserId:          profile.Id,
		ServiceId:       req.Service,
		ProviderId:      primary.ProviderId,
		Link:            req.Link,
		Quantity:        req.Quantity,
		ExternalOrderId: placement.ExternalOrderId,
		Charge:          charge,
	})
	if err != nil {
		// Charged and placed upstream but not recorded; needs an operator
		zap.L().Error("Failed to record placed order",
			zap.String("user_id", profile.Id),
			zap.String("operation_id", operationId),
			zap.String("external_order_id", placement.ExternalOrderId),
			zap.String("charge", charge.String()),
			zap.Error(err))
		return nil, internalError("failed to record order", err)
	}

	metrics.Get().OrderTotal.WithLabelValues("placed").Inc()
	return order, nil
}

// priceOrder applies the panel markup to the provider's per-1000 rate
func (s *PanelService) priceOrder(rate decimal.Decimal, quantity int64) decimal.Decimal {
	multiplier := decimal.NewFromInt(1).Add(s.cfg.PriceMarkupPercent.Div(decimal.NewFromInt(100)))
	return rate.Mul(decimal.NewFromInt(quantity)).Div(thousand).Mul(multiplier).Round(2)
}

// purchaseFailed refunds the charge when the provider definitely refused the
// order. Any other failure may have placed the order upstream, so the charge
// is held for an operator instead of being given back.
func (s *PanelService) purchaseFailed(ctx context.Context, userId, operationId string, charge decimal.Decimal, cause error) error {
	m := metrics.Get()
	fields := []zap.Field{
		zap.String("user_id", userId),
		zap.String("operation_id", operationId),
		zap.String("charge", charge.String()),
		zap.Error(cause),
	}

	var upstreamErr *provider.UpstreamError
	if !errors.As(cause, &upstreamErr) {
		m.OrderChargeHeld.WithLabelValues("outcome_unknown").Inc()
		zap.L().Error("Order outcome unknown, charge held for review", fields...)
		return &Error{Kind: KindUpstream, Message: "order status unknown, the charge is held until it is reviewed", Err: cause}
	}

	err := s.refund(ctx, userId, charge, "REFUND-"+operationId, "Refund: upstream rejected order", "upstream_error")
	if err != nil {
		m.OrderChargeHeld.WithLabelValues("refund_failed").Inc()
		zap.L().Error("Upstream rejected order and the refund failed, refund pending", fields...)
		return internalError("order rejected by provider, refund pending", fmt.Errorf("%s: %w", upstreamErr.Message, err))
	}
	return upstreamFailure(cause)
}

func (s *PanelService) findService(ctx context.Context, p models.ApiProvider, serviceId string) (*models.ServiceItem, error) {
	items, err := s.upstream.ListServices(ctx, p)
	if err != nil {
		return nil, upstreamFailure(err)
	}
	for i := range items {
		if items[i].Service == serviceId {
			return &items[i], nil
		}
	}
	return nil, validationError("unknown service", nil)
}

// refund credits amount back under a reference that can only be applied once
func (s *PanelService) refund(ctx context.Context, userId string, amount decimal.Decimal, reference, description, reason string) error {
	_, err := s.db.ApplyTransaction(ctx, store.ApplyTransactionParams{
		UserId:      userId,
		Type:        models.TransactionRefund,
		Amount:      amount,
		ReferenceId: reference,
		Gateway:     models.GatewayInternal,
		Description: description,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateReference) {
			return nil
		}
		zap.L().Error("Refund failed",
			zap.String("user_id", userId),
			zap.String("reference", reference),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return err
	}

	metrics.Get().OrderRefundTotal.WithLabelValues(reason).Inc()
	zap.L().Info("Refund applied",
		zap.String("user_id", userId),
		zap.String("reference", reference),
		zap.String("amount", amount.String()))
	return nil
}
