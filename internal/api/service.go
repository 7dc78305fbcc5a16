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
	"time"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/notify"
	"smm-panel-go/internal/store"

	"github.com/shopspring/decimal"
)

// UpstreamClient is the SMM provider API as the panel uses it
type UpstreamClient interface {
	ListServices(ctx context.Context, p models.ApiProvider) ([]models.ServiceItem, error)
	AddOrder(ctx context.Context, p models.ApiProvider, req models.OrderRequest) (*models.OrderPlacement, error)
	OrderStatus(ctx context.Context, p models.ApiProvider, externalOrderId string) (*models.OrderStatusResult, error)
}

// Notifier hands operator messages off for background delivery
type Notifier interface {
	Dispatch(msg notify.Message)
}

type ServiceConfig struct {
	Gateways           models.GatewayConfig
	PriceMarkupPercent decimal.Decimal
	DepositCodeTTL     time.Duration
}

// PanelService implements the wallet, order and deposit operations behind
// the HTTP server, the order poller and the admin CLI.
type PanelService struct {
	db       store.PanelStore
	upstream UpstreamClient
	auth     *Authenticator
	notifier Notifier
	cfg      ServiceConfig
	now      func() time.Time
}

func NewPanelService(db store.PanelStore, upstream UpstreamClient, auth *Authenticator, notifier Notifier, cfg ServiceConfig) *PanelService {
	if cfg.DepositCodeTTL <= 0 {
		cfg.DepositCodeTTL = 10 * time.Minute
	}
	return &PanelService{
		db:       db,
		upstream: upstream,
		auth:     auth,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *PanelService) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

func (s *PanelService) notify(msg notify.Message) {
	if s.notifier != nil {
		s.notifier.Dispatch(msg)
	}
}
