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
	"fmt"
	"time"

	"smm-panel-go/internal/metrics"
	"smm-panel-go/internal/models"
	"smm-panel-go/internal/notify"
	"smm-panel-go/internal/payment"
	"smm-panel-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HandlePaystackWebhook credits a wallet for a successful Paystack charge.
// A missing signature is tolerated unless the gateway config requires it.
func (s *PanelService) HandlePaystackWebhook(ctx context.Context, body []byte, signature string) (result *models.WebhookResult, err error) {
	defer observeWebhook(models.GatewayPaystack, time.Now(), &result, &err)

	if signature == "" && !s.cfg.Gateways.PaystackRequireSignature {
		zap.L().Warn("Paystack webhook without signature accepted")
	} else if err := payment.VerifyPaystack(body, signature, s.cfg.Gateways.PaystackSecret); err != nil {
		return nil, signatureFailure(models.GatewayPaystack, err)
	}

	event, err := payment.ParsePaystack(body)
	if err != nil {
		return nil, validationError("malformed webhook payload", err)
	}
	if !event.IsSuccessfulCharge() {
		return ignored(event), nil
	}
	if result, err := s.alreadyCredited(ctx, event); result != nil || err != nil {
		return result, err
	}

	ref, err := payment.ParseReference(event.Reference, payment.PaystackPrefix)
	if err != nil {
		return nil, validationError("malformed payment reference", err)
	}

	return s.creditFromWebhook(ctx, event, ref.UserId)
}

// HandleKorapayWebhook credits a wallet for a successful Korapay charge.
// Korapay signs the data object; the signature is mandatory.
func (s *PanelService) HandleKorapayWebhook(ctx context.Context, body []byte, signature string) (result *models.WebhookResult, err error) {
	defer observeWebhook(models.GatewayKorapay, time.Now(), &result, &err)

	if signature == "" {
		return nil, signatureFailure(models.GatewayKorapay, payment.ErrMissingSignature)
	}

	signed, dataErr := payment.KorapaySignedData(body)
	if dataErr != nil {
		// No data object to check; verify the raw body so garbage is rejected as unsigned
		signed = body
	}
	if err := payment.VerifyKorapay(signed, signature, s.cfg.Gateways.KorapaySecret); err != nil {
		return nil, signatureFailure(models.GatewayKorapay, err)
	}

	event, _, err := payment.ParseKorapay(body)
	if err != nil {
		return nil, validationError("malformed webhook payload", err)
	}
	if !event.IsSuccessfulCharge() {
		return ignored(event), nil
	}
	if result, err := s.alreadyCredited(ctx, event); result != nil || err != nil {
		return result, err
	}

	ref, err := payment.ParseReference(event.Reference, payment.KorapayPrefix)
	if err != nil {
		return nil, validationError("malformed payment reference", err)
	}

	userId, err := s.resolveKorapayUser(ctx, ref.UserId)
	if err != nil {
		return nil, err
	}

	return s.creditFromWebhook(ctx, event, userId)
}

// alreadyCredited answers a replayed reference before the user is resolved,
// so a replay still succeeds after the profile is deleted or a legacy prefix
// stops being unique. The ledger insert remains the commit gate.
func (s *PanelService) alreadyCredited(ctx context.Context, event *payment.Event) (*models.WebhookResult, error) {
	if event.Reference == "" {
		return nil, nil
	}

	existing, err := s.db.GetTransactionByReference(ctx, event.Reference)
	if err != nil {
		return nil, internalError("failed to check payment reference", err)
	}
	if existing == nil {
		return nil, nil
	}

	zap.L().Info("Duplicate deposit reference, already processed",
		zap.String("gateway", string(event.Gateway)),
		zap.String("reference", event.Reference),
		zap.String("existing_transaction_id", existing.Id))
	return &models.WebhookResult{
		Outcome:   models.WebhookDuplicate,
		Reference: event.Reference,
		UserId:    existing.UserId,
		Amount:    existing.Amount,
	}, nil
}

// resolveKorapayUser accepts a full profile id, or the 8 character id
// prefix that older references carried. A prefix shared by several
// profiles cannot be credited safely and is rejected.
func (s *PanelService) resolveKorapayUser(ctx context.Context, id string) (string, error) {
	if !payment.IsLegacyShortId(id) {
		return id, nil
	}

	if _, err := s.db.GetProfileById(ctx, id); err == nil {
		return id, nil
	}

	matches, err := s.db.FindProfilesByIdPrefix(ctx, id)
	if err != nil {
		return "", internalError("failed to resolve payment reference", err)
	}
	switch len(matches) {
	case 0:
		return "", notFoundError("user not found", fmt.Errorf("%w: prefix %s", store.ErrUserNotFound, id))
	case 1:
		zap.L().Info("Resolved legacy Korapay reference by id prefix",
			zap.String("prefix", id),
			zap.String("user_id", matches[0].Id))
		return matches[0].Id, nil
	default:
		zap.L().Warn("Legacy Korapay reference matches several users",
			zap.String("prefix", id),
			zap.Int("matches", len(matches)))
		return "", validationError("ambiguous payment reference", store.ErrAmbiguousReference)
	}
}

func (s *PanelService) creditFromWebhook(ctx context.Context, event *payment.Event, userId string) (*models.WebhookResult, error) {
	if !event.Amount.IsPositive() {
		return nil, validationError("amount must be positive", nil)
	}

	deposit, err := s.creditDeposit(ctx, userId, event.Amount, event.Reference, event.Gateway)
	if err != nil {
		return nil, err
	}

	result := &models.WebhookResult{
		Outcome:   models.WebhookCredited,
		Reference: event.Reference,
		UserId:    userId,
		Amount:    event.Amount,
	}
	if deposit.Duplicate {
		result.Outcome = models.WebhookDuplicate
		return result, nil
	}
	result.NewBalance = deposit.NewBalance
	return result, nil
}

// creditDeposit is the only path that adds gateway money to a wallet. The
// reference check and the balance write are one database transaction, so
// a replayed reference reports Duplicate and changes nothing.
func (s *PanelService) creditDeposit(ctx context.Context, userId string, amount decimal.Decimal, reference string, gateway models.Gateway) (*models.DepositResult, error) {
	zap.L().Info("Processing deposit",
		zap.String("user_id", userId),
		zap.String("gateway", string(gateway)),
		zap.String("amount", amount.String()),
		zap.String("reference", reference))

	profile, err := s.db.GetProfileById(ctx, userId)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			zap.L().Warn("Deposit for unknown user",
				zap.String("user_id", userId),
				zap.String("reference", reference))
			return nil, notFoundError("user not found", err)
		}
		return nil, internalError("failed to load profile", err)
	}

	tx, err := s.db.ApplyTransaction(ctx, store.ApplyTransactionParams{
		UserId:      userId,
		Type:        models.TransactionDeposit,
		Amount:      amount,
		ReferenceId: reference,
		Gateway:     gateway,
		Description: fmt.Sprintf("Wallet funding via %s", gateway),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateReference) {
			zap.L().Info("Duplicate deposit reference, already processed",
				zap.String("user_id", userId),
				zap.String("reference", reference))
			return &models.DepositResult{Success: true, UserId: userId, Amount: amount, Duplicate: true}, nil
		}
		return nil, depositFailure(userId, reference, err)
	}

	return s.depositCommitted(profile.Username, tx, gateway), nil
}

// depositCommitted reports a committed deposit; nothing here can fail the deposit
func (s *PanelService) depositCommitted(username string, tx *models.Transaction, gateway models.Gateway) *models.DepositResult {
	zap.L().Info("Deposit processed successfully",
		zap.String("user_id", tx.UserId),
		zap.String("username", username),
		zap.String("amount", tx.Amount.String()),
		zap.String("new_balance", tx.BalanceAfter.String()))

	metrics.Get().WebhookCreditedAmount.WithLabelValues(string(gateway)).Add(tx.Amount.InexactFloat64())
	s.notify(notify.DepositCredited(string(gateway), username, tx.UserId,
		tx.Amount.String(), tx.ReferenceId, tx.BalanceAfter.String()))

	return &models.DepositResult{
		Success:    true,
		UserId:     tx.UserId,
		Amount:     tx.Amount,
		NewBalance: tx.BalanceAfter,
	}
}

func depositFailure(userId, reference string, err error) *Error {
	if errors.Is(err, store.ErrUserNotFound) {
		return notFoundError("user not found", err)
	}
	zap.L().Error("Deposit processing failed",
		zap.String("user_id", userId),
		zap.String("reference", reference),
		zap.Error(err))
	return internalError("failed to credit wallet", err)
}

func signatureFailure(gateway models.Gateway, err error) *Error {
	if errors.Is(err, payment.ErrMissingSecret) {
		return internalError("webhook secret not configured", err)
	}
	zap.L().Warn("Rejected webhook signature", zap.String("gateway", string(gateway)), zap.Error(err))
	return authorizationError("invalid signature", err)
}

func ignored(event *payment.Event) *models.WebhookResult {
	zap.L().Debug("Ignoring webhook event",
		zap.String("gateway", string(event.Gateway)),
		zap.String("event", event.Event),
		zap.String("status", event.Status))
	return &models.WebhookResult{Outcome: models.WebhookIgnored, Reference: event.Reference}
}

func observeWebhook(gateway models.Gateway, start time.Time, result **models.WebhookResult, err *error) {
	m := metrics.Get()
	m.WebhookDuration.WithLabelValues(string(gateway)).Observe(time.Since(start).Seconds())

	outcome := "failed"
	switch {
	case *err == nil && *result != nil:
		outcome = string((*result).Outcome)
	case KindOf(*err) == KindAuthorization:
		outcome = "rejected"
	case KindOf(*err) == KindValidation || KindOf(*err) == KindNotFound:
		outcome = "invalid"
	}
	m.WebhookTotal.WithLabelValues(string(gateway), outcome).Inc()
}
