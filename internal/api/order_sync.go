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
	"fmt"
	"strconv"

	"smm-panel-go/internal/metrics"
	"smm-panel-go/internal/models"
	"smm-panel-go/internal/provider"
	"smm-panel-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OpenOrders lists local orders the poller still has to follow
func (s *PanelService) OpenOrders(ctx context.Context, limit int) ([]models.Order, error) {
	orders, err := s.db.ListOpenOrders(ctx, limit)
	if err != nil {
		return nil, internalError("failed to list open orders", err)
	}
	return orders, nil
}

// RefreshOrder pulls one order's upstream status into the local row and
// refunds undelivered work. Refunds are keyed on the order id, so a retry
// after a failed write never pays twice.
func (s *PanelService) RefreshOrder(ctx context.Context, order models.Order) (*models.OrderStatusResult, error) {
	p, err := s.db.GetProviderById(ctx, order.ProviderId)
	if err != nil {
		return nil, internalError("failed to load order provider", err)
	}

	result, err := s.upstream.OrderStatus(ctx, *p, order.ExternalOrderId)
	if err != nil {
		return nil, upstreamFailure(err)
	}

	switch {
	case result.Status == models.OrderCancelled:
		if err := s.refund(ctx, order.UserId, order.Charge, "CANCEL-"+order.Id,
			fmt.Sprintf("Refund: order %s cancelled", order.ExternalOrderId), "cancelled"); err != nil {
			return nil, internalError("failed to refund cancelled order", err)
		}
	case provider.IsPartial(result.UpstreamStatus):
		amount := partialRefund(order, result.Remains)
		if amount.IsPositive() {
			if err := s.refund(ctx, order.UserId, amount, "PARTIAL-"+order.Id,
				fmt.Sprintf("Refund: order %s partial, %s undelivered", order.ExternalOrderId, result.Remains), "partial"); err != nil {
				return nil, internalError("failed to refund partial order", err)
			}
		}
	}

	err = s.db.UpdateOrderStatus(ctx, store.UpdateOrderStatusParams{
		OrderId:    order.Id,
		Status:     result.Status,
		StartCount: result.StartCount,
		Remains:    result.Remains,
		SyncedAt:   s.now(),
	})
	if err != nil {
		return nil, internalError("failed to save order status", err)
	}

	metrics.Get().OrderSyncUpdated.WithLabelValues(string(result.Status)).Inc()
	if result.Status != order.Status {
		zap.L().Info("Order status changed",
			zap.String("order_id", order.Id),
			zap.String("external_order_id", order.ExternalOrderId),
			zap.String("from", string(order.Status)),
			zap.String("to", string(result.Status)),
			zap.String("upstream_status", result.UpstreamStatus))
	}
	return result, nil
}

// partialRefund is the charge share of the undelivered quantity
func partialRefund(order models.Order, remains string) decimal.Decimal {
	left, err := strconv.ParseInt(remains, 10, 64)
	if err != nil || left <= 0 || order.Quantity <= 0 {
		return decimal.Zero
	}
	if left > order.Quantity {
		left = order.Quantity
	}
	return order.Charge.Mul(decimal.NewFromInt(left)).Div(decimal.NewFromInt(order.Quantity)).Round(2)
}
