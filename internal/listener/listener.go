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
	"time"

	"smm-panel-go/internal/models"

	"go.uber.org/zap"
)

// OrderRefresher is the slice of the panel service the poller drives
type OrderRefresher interface {
	OpenOrders(ctx context.Context, limit int) ([]models.Order, error)
	RefreshOrder(ctx context.Context, order models.Order) (*models.OrderStatusResult, error)
}

// OrderStatusListenerConfig contains configuration for OrderStatusListener
type OrderStatusListenerConfig struct {
	Refresher       OrderRefresher
	PollingInterval time.Duration
	BatchSize       int
	Concurrency     int
}

// OrderStatusListener polls upstream providers for the status of open
// orders and writes it back through the panel service
type OrderStatusListener struct {
	refresher OrderRefresher

	pollingInterval time.Duration
	batchSize       int
	concurrency     int

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewOrderStatusListener creates a new order status poller
func NewOrderStatusListener(cfg OrderStatusListenerConfig) *OrderStatusListener {
	if cfg.PollingInterval <= 0 {
		cfg.PollingInterval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &OrderStatusListener{
		refresher:       cfg.Refresher,
		pollingInterval: cfg.PollingInterval,
		batchSize:       cfg.BatchSize,
		concurrency:     cfg.Concurrency,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start begins polling in the background
func (l *OrderStatusListener) Start(ctx context.Context) {
	zap.L().Info("Starting order status listener",
		zap.Duration("polling_interval", l.pollingInterval),
		zap.Int("batch_size", l.batchSize),
		zap.Int("concurrency", l.concurrency))

	go l.pollLoop(ctx)
}

// Stop gracefully stops the listener and waits for the current pass to end
func (l *OrderStatusListener) Stop() {
	zap.L().Info("Stopping order status listener")
	close(l.stopChan)
	<-l.doneChan
	zap.L().Info("Order status listener stopped")
}

func (l *OrderStatusListener) pollLoop(ctx context.Context) {
	defer close(l.doneChan)

	ticker := time.NewTicker(l.pollingInterval)
	defer ticker.Stop()

	l.pollOrders(ctx)

	for {
		select {
		case <-ticker.C:
			l.pollOrders(ctx)
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}
