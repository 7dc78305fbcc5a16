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
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"smm-panel-go/internal/metrics"
	"smm-panel-go/internal/models"
	"smm-panel-go/internal/notify"
	"smm-panel-go/internal/payment"
	"smm-panel-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var codeSpace = big.NewInt(900000)

// IssueDepositCode creates a single-use code guarding a manual deposit and
// sends it to the operator. Only the code key is returned to the caller.
func (s *PanelService) IssueDepositCode(ctx context.Context, userId string, amount decimal.Decimal) (string, error) {
	if strings.TrimSpace(userId) == "" {
		return "", validationError("user_id is required", nil)
	}
	if !amount.IsPositive() {
		return "", validationError("amount must be positive", nil)
	}

	profile, err := s.db.GetProfileById(ctx, userId)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", notFoundError("user not found", err)
		}
		return "", internalError("failed to load profile", err)
	}

	code, err := generateCode()
	if err != nil {
		return "", internalError("failed to generate code", err)
	}

	now := s.now().UTC()
	record := models.DepositConfirmationCode{
		CodeKey:   uuid.New().String(),
		Code:      code,
		UserId:    profile.Id,
		Username:  profile.Username,
		Amount:    amount,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.DepositCodeTTL),
	}
	if err := s.db.InsertDepositCode(ctx, record); err != nil {
		return "", internalError("failed to store deposit code", err)
	}

	metrics.Get().DepositCodeTotal.WithLabelValues("issued").Inc()
	s.notify(notify.DepositCodeIssued(profile.Username, profile.Id, amount.String(), code, record.ExpiresAt))

	return record.CodeKey, nil
}

// VerifyDepositCode redeems a code. Expired codes are removed; a wrong code
// leaves the record for another attempt. Of concurrent correct attempts
// exactly one succeeds.
func (s *PanelService) VerifyDepositCode(ctx context.Context, codeKey, code string) (*models.DepositCodeClaim, error) {
	codeKey, code, err := s.checkDepositCode(ctx, codeKey, code)
	if err != nil {
		return nil, err
	}

	consumed, err := s.db.ConsumeDepositCode(ctx, codeKey, code)
	if err != nil {
		return nil, consumeFailure(err)
	}

	metrics.Get().DepositCodeTotal.WithLabelValues("verified").Inc()
	zap.L().Info("Deposit code verified",
		zap.String("code_key", codeKey),
		zap.String("user_id", consumed.UserId),
		zap.String("amount", consumed.Amount.String()))

	return &models.DepositCodeClaim{
		UserId:   consumed.UserId,
		Username: consumed.Username,
		Amount:   consumed.Amount,
	}, nil
}

// ConfirmDeposit redeems a code and credits the amount it guards. The code
// is consumed in the same database transaction as the credit, so a failed
// credit leaves the code valid for a retry.
func (s *PanelService) ConfirmDeposit(ctx context.Context, codeKey, code string) (*models.DepositResult, error) {
	codeKey, code, err := s.checkDepositCode(ctx, codeKey, code)
	if err != nil {
		return nil, err
	}

	reference := payment.ManualPrefix + "-" + codeKey
	consumed, tx, err := s.db.RedeemDepositCode(ctx, store.RedeemDepositCodeParams{
		CodeKey:     codeKey,
		Code:        code,
		ReferenceId: reference,
		Gateway:     models.GatewayManual,
		Description: "Wallet funding confirmed by operator",
	})
	if err != nil {
		if errors.Is(err, store.ErrCodeNotFound) {
			return nil, consumeFailure(err)
		}
		return nil, depositFailure("", reference, err)
	}

	metrics.Get().DepositCodeTotal.WithLabelValues("verified").Inc()
	return s.depositCommitted(consumed.Username, tx, models.GatewayManual), nil
}

// checkDepositCode validates a code attempt without consuming it. Expired
// records are deleted on the way out.
func (s *PanelService) checkDepositCode(ctx context.Context, codeKey, code string) (string, string, error) {
	codeKey = strings.TrimSpace(codeKey)
	code = strings.TrimSpace(code)
	if codeKey == "" || code == "" {
		return "", "", validationError("code_key and code are required", nil)
	}

	m := metrics.Get()
	record, err := s.db.GetDepositCode(ctx, codeKey)
	if err != nil {
		if errors.Is(err, store.ErrCodeNotFound) {
			m.DepositCodeTotal.WithLabelValues("not_found").Inc()
			return "", "", notFoundError("deposit code not found", err)
		}
		return "", "", internalError("failed to load deposit code", err)
	}

	if record.Expired(s.now()) {
		if _, err := s.db.DeleteDepositCode(ctx, codeKey); err != nil {
			zap.L().Warn("Failed to delete expired deposit code", zap.String("code_key", codeKey), zap.Error(err))
		}
		m.DepositCodeTotal.WithLabelValues("expired").Inc()
		return "", "", validationError("deposit code expired", store.ErrCodeExpired)
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		m.DepositCodeTotal.WithLabelValues("invalid").Inc()
		return "", "", validationError("invalid deposit code", store.ErrCodeMismatch)
	}
	return codeKey, code, nil
}

func consumeFailure(err error) *Error {
	if errors.Is(err, store.ErrCodeNotFound) {
		// Another verifier got there first
		metrics.Get().DepositCodeTotal.WithLabelValues("not_found").Inc()
		return notFoundError("deposit code not found", err)
	}
	return internalError("failed to consume deposit code", err)
}

// SweepExpiredCodes deletes every code past its expiry
func (s *PanelService) SweepExpiredCodes(ctx context.Context) (int64, error) {
	removed, err := s.db.DeleteExpiredDepositCodes(ctx, s.now())
	if err != nil {
		return 0, internalError("failed to sweep deposit codes", err)
	}
	if removed > 0 {
		metrics.Get().DepositCodeSwept.Add(float64(removed))
		zap.L().Info("Swept expired deposit codes", zap.Int64("removed", removed))
	}
	return removed, nil
}

// generateCode returns a uniformly random six digit code
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
