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

package listener

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"smm-panel-go/internal/metrics"
	"smm-panel-go/internal/models"

	"go.uber.org/zap"
)

// PollResult summarizes one pass over the open orders
type PollResult struct {
	Checked int
	Changed int
	Failed  int
}

// pollOrders refreshes one batch of open orders with bounded concurrency
func (l *OrderStatusListener) pollOrders(ctx context.Context) PollResult {
	start := time.Now()
	m := metrics.Get()
	m.OrderSyncRuns.Inc()
	defer func() { m.OrderSyncDuration.Observe(time.Since(start).Seconds()) }()

	orders, err := l.refresher.OpenOrders(ctx, l.batchSize)
	if err != nil {
		zap.L().Error("Failed to load open orders", zap.Error(err))
		return PollResult{}
	}
	if len(orders) == 0 {
		zap.L().Debug("No open orders to sync")
		return PollResult{}
	}

	var changed, failed atomic.Int32
	sem := make(chan struct{}, l.concurrency)
	var wg sync.WaitGroup

	for _, order := range orders {
		select {
		case <-l.stopChan:
			wg.Wait()
			return PollResult{Checked: len(orders), Changed: int(changed.Load()), Failed: int(failed.Load())}
		case <-ctx.Done():
			wg.Wait()
			return PollResult{Checked: len(orders), Changed: int(changed.Load()), Failed: int(failed.Load())}
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(o models.Order) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := l.refresher.RefreshOrder(ctx, o)
			if err != nil {
				failed.Add(1)
				zap.L().Warn("Failed to sync order",
					zap.String("order_id", o.Id),
					zap.String("provider_id", o.ProviderId),
					zap.String("external_order_id", o.ExternalOrderId),
					zap.Error(err))
				return
			}
			if result.Status != o.Status {
				changed.Add(1)
			}
		}(order)
	}
	wg.Wait()

	result := PollResult{Checked: len(orders), Changed: int(changed.Load()), Failed: int(failed.Load())}
	zap.L().Info("Order sync pass complete",
		zap.Int("checked", result.Checked),
		zap.Int("changed", result.Changed),
		zap.Int("failed", result.Failed),
		zap.Duration("took", time.Since(start)))
	return result
}
