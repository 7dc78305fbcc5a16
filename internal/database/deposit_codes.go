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
	"time"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) InsertDepositCode(ctx context.Context, code models.DepositConfirmationCode) error {
	_, err := s.db.ExecContext(ctx, queryInsertDepositCode,
		code.CodeKey, code.Code, code.UserId, code.Username, code.Amount.String(),
		code.CreatedAt.UnixMilli(), code.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("unable to insert deposit code: %w", err)
	}

	zap.L().Info("Deposit code stored",
		zap.String("code_key", code.CodeKey),
		zap.String("user_id", code.UserId),
		zap.Time("expires_at", code.ExpiresAt))
	return nil
}

func (s *Service) GetDepositCode(ctx context.Context, codeKey string) (*models.DepositConfirmationCode, error) {
	code, err := scanDepositCode(s.db.QueryRowContext(ctx, queryGetDepositCode, codeKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrCodeNotFound, codeKey)
		}
		return nil, fmt.Errorf("unable to query deposit code: %w", err)
	}
	return code, nil
}

func (s *Service) DeleteDepositCode(ctx context.Context, codeKey string) (bool, error) {
	result, err := s.db.ExecContext(ctx, queryDeleteDepositCode, codeKey)
	if err != nil {
		return false, fmt.Errorf("unable to delete deposit code: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ConsumeDepositCode deletes the record only if the code matches, returning
// what was deleted. Concurrent callers race on the delete and exactly one
// of them gets the row back.
func (s *Service) ConsumeDepositCode(ctx context.Context, codeKey, code string) (*models.DepositConfirmationCode, error) {
	consumed, err := scanDepositCode(s.db.QueryRowContext(ctx, queryConsumeDepositCode, codeKey, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrCodeNotFound, codeKey)
		}
		return nil, fmt.Errorf("unable to consume deposit code: %w", err)
	}
	return consumed, nil
}

// RedeemDepositCode consumes a matching code and credits the amount it
// guards in one transaction. If the credit fails the code is left in place.
func (s *Service) RedeemDepositCode(ctx context.Context, params store.RedeemDepositCodeParams) (*models.DepositConfirmationCode, *models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	consumed, err := scanDepositCode(tx.QueryRowContext(ctx, queryConsumeDepositCode, params.CodeKey, params.Code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %s", store.ErrCodeNotFound, params.CodeKey)
		}
		return nil, nil, fmt.Errorf("unable to consume deposit code: %w", err)
	}

	transaction, err := applyInTx(ctx, tx, store.ApplyTransactionParams{
		UserId:      consumed.UserId,
		Type:        models.TransactionDeposit,
		Amount:      consumed.Amount,
		ReferenceId: params.ReferenceId,
		Gateway:     params.Gateway,
		Description: params.Description,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := commitLedger(tx, params.ReferenceId); err != nil {
		return nil, nil, err
	}

	zap.L().Info("Deposit code redeemed",
		zap.String("code_key", params.CodeKey),
		zap.String("user_id", consumed.UserId),
		zap.String("new_balance", transaction.BalanceAfter.String()))
	return consumed, transaction, nil
}

func (s *Service) DeleteExpiredDepositCodes(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryDeleteExpiredDepositCodes, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("unable to delete expired deposit codes: %w", err)
	}
	return result.RowsAffected()
}

func scanDepositCode(row scanner) (*models.DepositConfirmationCode, error) {
	var c models.DepositConfirmationCode
	var amountStr string
	var createdAt, expiresAt int64
	err := row.Scan(&c.CodeKey, &c.Code, &c.UserId, &c.Username, &amountStr, &createdAt, &expiresAt)
	if err != nil {
		return nil, err
	}

	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	c.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	if c.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return &c, nil
}
