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

	"go.uber.org/zap"
)

// ListEnabledProviders returns the enabled upstream providers in display order
func (s *Service) ListEnabledProviders(ctx context.Context) ([]models.ApiProvider, error) {
	rows, err := s.db.QueryContext(ctx, queryListEnabledProviders)
	if err != nil {
		return nil, fmt.Errorf("unable to query providers: %w", err)
	}
	defer closeRows(rows)

	var providers []models.ApiProvider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan provider row: %w", err)
		}
		providers = append(providers, *provider)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider rows: %w", err)
	}

	zap.L().Debug("Retrieved enabled providers", zap.Int("count", len(providers)))
	return providers, nil
}

func (s *Service) GetPrimaryProvider(ctx context.Context) (*models.ApiProvider, error) {
	provider, err := scanProvider(s.db.QueryRowContext(ctx, queryGetPrimaryProvider))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoPrimaryProvider
		}
		return nil, fmt.Errorf("unable to query primary provider: %w", err)
	}
	return provider, nil
}

func (s *Service) GetProviderById(ctx context.Context, providerId string) (*models.ApiProvider, error) {
	provider, err := scanProvider(s.db.QueryRowContext(ctx, queryGetProviderById, providerId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrProviderNotFound, providerId)
		}
		return nil, fmt.Errorf("unable to query provider: %w", err)
	}
	return provider, nil
}

func (s *Service) UpsertProvider(ctx context.Context, provider models.ApiProvider) error {
	if provider.ProviderId == "" || provider.ApiUrl == "" {
		return fmt.Errorf("provider id and api url are required")
	}

	_, err := s.db.ExecContext(ctx, queryUpsertProvider,
		provider.ProviderId, provider.Name, provider.ApiUrl, provider.ApiKey,
		provider.IsEnabled, provider.IsPrimary, provider.DisplayOrder)
	if err != nil {
		return fmt.Errorf("unable to upsert provider %s: %w", provider.ProviderId, err)
	}

	zap.L().Info("Provider saved",
		zap.String("provider_id", provider.ProviderId),
		zap.String("name", provider.Name),
		zap.Bool("enabled", provider.IsEnabled),
		zap.Bool("primary", provider.IsPrimary))
	return nil
}

func scanProvider(row scanner) (*models.ApiProvider, error) {
	var p models.ApiProvider
	err := row.Scan(&p.ProviderId, &p.Name, &p.ApiUrl, &p.ApiKey, &p.IsEnabled, &p.IsPrimary, &p.DisplayOrder)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
