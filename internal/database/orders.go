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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) CreateOrder(ctx context.Context, params store.CreateOrderParams) (*models.Order, error) {
	if params.UserId == "" || params.ServiceId == "" || params.ProviderId == "" {
		return nil, fmt.Errorf("user, service and provider are required")
	}
	if params.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", params.Quantity)
	}

	now := nowUTC()
	order, err := scanOrder(s.db.QueryRowContext(ctx, queryInsertOrder,
		uuid.New().String(), params.UserId, params.ServiceId, params.ProviderId, params.Link,
		params.Quantity, params.ExternalOrderId, params.Charge.String(), now, now))
	if err != nil {
		return nil, fmt.Errorf("unable to insert order: %w", err)
	}

	zap.L().Info("Order recorded",
		zap.String("order_id", order.Id),
		zap.String("user_id", order.UserId),
		zap.String("external_order_id", order.ExternalOrderId),
		zap.String("charge", order.Charge.String()))
	return order, nil
}

func (s *Service) GetOrderById(ctx context.Context, orderId string) (*models.Order, error) {
	order, err := scanOrder(s.db.QueryRowContext(ctx, queryGetOrderById, orderId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderId)
		}
		return nil, fmt.Errorf("unable to query order: %w", err)
	}
	return order, nil
}

// ListOpenOrders returns non-terminal orders, least recently synced first
func (s *Service) ListOpenOrders(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, queryListOpenOrders, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query open orders: %w", err)
	}
	defer closeRows(rows)

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan order row: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, params store.UpdateOrderStatusParams) error {
	result, err := s.db.ExecContext(ctx, queryUpdateOrderStatus,
		string(params.Status), params.StartCount, params.Remains, params.SyncedAt.UTC(), nowUTC(), params.OrderId)
	if err != nil {
		return fmt.Errorf("unable to update order status: %w", err)
	}
	return expectOneRow(result, fmt.Errorf("%w: %s", store.ErrOrderNotFound, params.OrderId))
}

func scanOrder(row scanner) (*models.Order, error) {
	var o models.Order
	var status, chargeStr string
	var syncedAt sql.NullTime
	err := row.Scan(&o.Id, &o.UserId, &o.ServiceId, &o.ProviderId, &o.Link, &o.Quantity,
		&o.ExternalOrderId, &status, &chargeStr, &o.StartCount, &o.Remains,
		&o.CreatedAt, &o.UpdatedAt, &syncedAt)
	if err != nil {
		return nil, err
	}

	o.Status = models.OrderStatus(status)
	if syncedAt.Valid {
		t := syncedAt.Time
		o.SyncedAt = &t
	}
	if o.Charge, err = decimal.NewFromString(chargeStr); err != nil {
		return nil, fmt.Errorf("failed to parse charge '%s': %w", chargeStr, err)
	}
	return &o, nil
}
