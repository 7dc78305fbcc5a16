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
	"sync"

	"smm-panel-go/internal/models"

	"go.uber.org/zap"
)

// ListServices merges the catalogs of every enabled provider. A provider
// that fails is logged and left out; it never fails the whole listing.
func (s *PanelService) ListServices(ctx context.Context) ([]models.ServiceItem, error) {
	providers, err := s.db.ListEnabledProviders(ctx)
	if err != nil {
		return nil, internalError("failed to load providers", err)
	}

	results := make([][]models.ServiceItem, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p models.ApiProvider) {
			defer wg.Done()
			items, err := s.upstream.ListServices(ctx, p)
			if err != nil {
				zap.L().Warn("Skipping provider catalog",
					zap.String("provider_id", p.ProviderId),
					zap.String("provider_name", p.Name),
					zap.Error(err))
				return
			}
			results[i] = items
		}(i, p)
	}
	wg.Wait()

	// Keep display_order: merge in provider order, not completion order
	services := make([]models.ServiceItem, 0)
	for _, items := range results {
		services = append(services, items...)
	}

	zap.L().Debug("Aggregated service catalog",
		zap.Int("providers", len(providers)),
		zap.Int("services", len(services)))
	return services, nil
}
