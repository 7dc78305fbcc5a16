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

package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"smm-panel-go/internal/models"

	"gopkg.in/yaml.v2"
)

type ProvidersConfig struct {
	Providers []models.ApiProvider `yaml:"providers"`
}

// ProviderWriter is the store method used to seed providers
type ProviderWriter interface {
	UpsertProvider(ctx context.Context, provider models.ApiProvider) error
}

func LoadProviderConfig(providersFile string) ([]models.ApiProvider, error) {
	var providersPath string
	if filepath.IsAbs(providersFile) {
		providersPath = providersFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		providersPath = filepath.Join(wd, providersFile)
	}

	data, err := os.ReadFile(providersPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", providersFile, err)
	}

	var config ProvidersConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", providersFile, err)
	}

	seen := make(map[string]bool)
	primaries := 0
	for i, p := range config.Providers {
		if strings.TrimSpace(p.ProviderId) == "" {
			return nil, fmt.Errorf("provider at index %d missing provider_id", i)
		}
		if seen[p.ProviderId] {
			return nil, fmt.Errorf("provider %s listed twice", p.ProviderId)
		}
		seen[p.ProviderId] = true
		if p.ApiUrl == "" {
			return nil, fmt.Errorf("provider %s missing api_url", p.ProviderId)
		}
		if p.ApiKey == "" {
			return nil, fmt.Errorf("provider %s missing api_key", p.ProviderId)
		}
		if p.Name == "" {
			config.Providers[i].Name = p.ProviderId
		}
		if p.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return nil, fmt.Errorf("%d providers marked primary, at most one allowed", primaries)
	}

	return config.Providers, nil
}

// SeedProviders upserts every provider from the file, in file order
func SeedProviders(ctx context.Context, db ProviderWriter, providers []models.ApiProvider) error {
	for _, p := range providers {
		if err := db.UpsertProvider(ctx, p); err != nil {
			return fmt.Errorf("failed to upsert provider %s: %w", p.ProviderId, err)
		}
	}
	return nil
}
