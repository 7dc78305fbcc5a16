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

const transactionStatusCompleted = "completed"

// ApplyTransaction atomically records a ledger entry and moves the user's
// balance by params.Amount. A non-empty ReferenceId may only ever be applied
// once; a replay returns store.ErrDuplicateReference with no side effects.
func (s *SubledgerService) ApplyTransaction(ctx context.Context, params store.ApplyTransactionParams) (*models.Transaction, error) {
	// Start database transaction for atomicity
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	transaction, err := applyInTx(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := commitLedger(tx, params.ReferenceId); err != nil {
		return nil, err
	}

	zap.L().Info("Transaction processed successfully",
		zap.String("transaction_id", transaction.Id),
		zap.String("user_id", params.UserId),
		zap.String("old_balance", transaction.BalanceBefore.String()),
		zap.String("new_balance", transaction.BalanceAfter.String()))

	return transaction, nil
}

// applyInTx writes the ledger entry and the balance update on tx. The caller
// owns the commit, so other writes can share the same unit of work.
func applyInTx(ctx context.Context, tx *sql.Tx, params store.ApplyTransactionParams) (*models.Transaction, error) {
	zap.L().Info("Processing transaction",
		zap.String("user_id", params.UserId),
		zap.String("type", string(params.Type)),
		zap.String("amount", params.Amount.String()),
		zap.String("reference_id", params.ReferenceId),
		zap.String("gateway", string(params.Gateway)))

	if params.UserId == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if params.Amount.IsZero() {
		return nil, fmt.Errorf("transaction amount cannot be zero")
	}

	// Check for duplicate reference inside the write lock
	if params.ReferenceId != "" {
		var existingTxId string
		err := tx.QueryRowContext(ctx, queryCheckDuplicateReference, params.ReferenceId).Scan(&existingTxId)
		if err == nil {
			zap.L().Warn("Duplicate reference detected, skipping",
				zap.String("reference_id", params.ReferenceId),
				zap.String("existing_internal_tx_id", existingTxId))
			return nil, fmt.Errorf("%w: reference %s already applied", store.ErrDuplicateReference, params.ReferenceId)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check for duplicate reference: %w", err)
		}
	}

	var currentBalanceStr string
	var version int64
	err := tx.QueryRowContext(ctx, queryGetProfileBalanceForUpdate, params.UserId).Scan(&currentBalanceStr, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, params.UserId)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get current balance: %w", err)
	}

	currentBalance, err := decimal.NewFromString(currentBalanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse current balance '%s': %w", currentBalanceStr, err)
	}

	newBalance := currentBalance.Add(params.Amount)
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s, requested %s", store.ErrInsufficientBalance, currentBalance.String(), params.Amount.Neg().String())
	}

	now := nowUTC()
	transaction, err := scanTransaction(tx.QueryRowContext(ctx, queryInsertTransaction,
		uuid.New().String(), params.UserId, string(params.Type),
		params.Amount.String(), currentBalance.String(), newBalance.String(),
		transactionStatusCompleted, params.ReferenceId, string(params.Gateway), params.Description, now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: reference %s already applied", store.ErrDuplicateReference, params.ReferenceId)
		}
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	// Update profile balance (with optimistic locking)
	result, err := tx.ExecContext(ctx, queryUpdateProfileBalance, newBalance.String(), now, params.UserId, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	return transaction, nil
}

func commitLedger(tx *sql.Tx, referenceId string) error {
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: reference %s already applied", store.ErrDuplicateReference, referenceId)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SubledgerService) GetTransactionByReference(ctx context.Context, referenceId string) (*models.Transaction, error) {
	transaction, err := scanTransaction(s.db.QueryRowContext(ctx, queryGetTransactionByReference, referenceId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}
	return transaction, nil
}

// GetTransactionHistory returns paginated transaction history for a user, newest first
func (s *SubledgerService) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer closeRows(rows)

	var transactions []models.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *transaction)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var t models.Transaction
	var txType, gateway string
	var amountStr, balanceBeforeStr, balanceAfterStr string
	err := row.Scan(&t.Id, &t.UserId, &txType,
		&amountStr, &balanceBeforeStr, &balanceAfterStr,
		&t.Status, &t.ReferenceId, &gateway, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = models.TransactionType(txType)
	t.Gateway = models.Gateway(gateway)

	if t.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if t.BalanceBefore, err = decimal.NewFromString(balanceBeforeStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance before '%s': %w", balanceBeforeStr, err)
	}
	if t.BalanceAfter, err = decimal.NewFromString(balanceAfterStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance after '%s': %w", balanceAfterStr, err)
	}
	return &t, nil
}
