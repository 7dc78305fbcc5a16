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

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetUserBalance returns the current wallet balance for a user
func (s *PanelService) GetUserBalance(ctx context.Context, userId string) (decimal.Decimal, error) {
	if userId == "" {
		return decimal.Zero, validationError("user_id is required", nil)
	}

	balance, err := s.db.GetBalance(ctx, userId)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return decimal.Zero, notFoundError("user not found", err)
		}
		zap.L().Error("Failed to get user balance", zap.String("user_id", userId), zap.Error(err))
		return decimal.Zero, internalError("failed to retrieve balance", err)
	}

	return balance, nil
}

// GetTransactionHistory returns paginated wallet history for the caller
func (s *PanelService) GetTransactionHistory(ctx context.Context, authorization string, limit, offset int) ([]models.TransactionRecord, error) {
	profile, err := s.Authenticate(ctx, authorization)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	transactions, err := s.db.GetTransactionHistory(ctx, profile.Id, limit, offset)
	if err != nil {
		zap.L().Error("Failed to get transaction history", zap.String("user_id", profile.Id), zap.Error(err))
		return nil, internalError("failed to retrieve transaction history", err)
	}

	result := make([]models.TransactionRecord, len(transactions))
	for i, tx := range transactions {
		result[i] = models.TransactionRecord{
			Id:          tx.Id,
			Type:        tx.Type,
			Amount:      tx.Amount,
			Status:      tx.Status,
			Reference:   tx.ReferenceId,
			Description: tx.Description,
			CreatedAt:   tx.CreatedAt,
		}
	}

	return result, nil
}

// ReconcileAllBalances checks every wallet against its ledger and returns
// the ids whose stored balance has drifted.
func (s *PanelService) ReconcileAllBalances(ctx context.Context) ([]string, error) {
	profiles, err := s.db.GetProfiles(ctx)
	if err != nil {
		return nil, internalError("failed to list profiles", err)
	}

	var drifted []string
	for _, p := range profiles {
		if err := s.db.ReconcileBalance(ctx, p.Id); err != nil {
			drifted = append(drifted, p.Id)
		}
	}

	if len(drifted) > 0 {
		zap.L().Error("Balance reconciliation found drift", zap.Strings("user_ids", drifted))
	} else {
		zap.L().Info("All balances reconciled", zap.Int("profiles", len(profiles)))
	}
	return drifted, nil
}
