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
	"strings"
	"time"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/payment"
	"smm-panel-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateUser provisions a profile with an empty wallet
func (s *PanelService) CreateUser(ctx context.Context, username, email string) (*models.Profile, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || !strings.Contains(email, "@") {
		return nil, validationError("username and a valid email are required", nil)
	}

	profile, err := s.db.CreateProfile(ctx, store.CreateProfileParams{
		Id:       uuid.New().String(),
		Username: username,
		Email:    email,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailBlocked):
			return nil, conflictError("email is not allowed to register", err)
		case errors.Is(err, store.ErrEmailTaken):
			return nil, conflictError("email already registered", err)
		default:
			return nil, internalError("failed to create user", err)
		}
	}
	return profile, nil
}

// DeleteUser removes a profile and blocks its email from coming back
func (s *PanelService) DeleteUser(ctx context.Context, userId, reason string) error {
	if err := s.db.DeleteProfile(ctx, userId, reason); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return notFoundError("user not found", err)
		}
		return internalError("failed to delete user", err)
	}
	return nil
}

func (s *PanelService) SetUserStatus(ctx context.Context, userId string, status models.ProfileStatus) error {
	if !status.Valid() {
		return validationError("status must be active, suspended or paused", nil)
	}
	if err := s.db.SetProfileStatus(ctx, userId, status); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return notFoundError("user not found", err)
		}
		return internalError("failed to update user status", err)
	}
	zap.L().Info("User status changed", zap.String("user_id", userId), zap.String("status", string(status)))
	return nil
}

// IssueUserToken mints a bearer token for an existing profile
func (s *PanelService) IssueUserToken(ctx context.Context, userId string) (string, time.Time, error) {
	profile, err := s.db.GetProfileById(ctx, userId)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", time.Time{}, notFoundError("user not found", err)
		}
		return "", time.Time{}, internalError("failed to load profile", err)
	}
	token, expiresAt, err := s.auth.IssueToken(profile.Id, RoleUser)
	if err != nil {
		return "", time.Time{}, internalError("failed to issue token", err)
	}
	return token, expiresAt, nil
}

// IssueAdminToken mints an operator token; the subject is only a label
func (s *PanelService) IssueAdminToken(operator string) (string, time.Time, error) {
	if strings.TrimSpace(operator) == "" {
		return "", time.Time{}, validationError("operator name is required", nil)
	}
	token, expiresAt, err := s.auth.IssueToken(operator, RoleAdmin)
	if err != nil {
		return "", time.Time{}, internalError("failed to issue token", err)
	}
	return token, expiresAt, nil
}

// RecordSession tracks the caller's address and location and returns their wallet summary
func (s *PanelService) RecordSession(ctx context.Context, authorization string) (*models.SessionInfo, error) {
	profile, err := s.Authenticate(ctx, authorization)
	if err != nil {
		return nil, err
	}

	meta := models.GetRequestMeta(ctx)
	if err := s.db.TouchLogin(ctx, profile.Id, meta.RemoteIp, meta.Location, s.now()); err != nil {
		zap.L().Warn("Failed to record login", zap.String("user_id", profile.Id), zap.Error(err))
	}

	return &models.SessionInfo{
		UserId:   profile.Id,
		Username: profile.Username,
		Balance:  profile.Balance,
		Status:   profile.Status,
	}, nil
}

// NewPaymentReference returns the reference the client passes to a gateway checkout
func (s *PanelService) NewPaymentReference(ctx context.Context, authorization string, gateway models.Gateway) (string, error) {
	profile, err := s.Authenticate(ctx, authorization)
	if err != nil {
		return "", err
	}

	switch gateway {
	case models.GatewayPaystack:
		return payment.NewReference(payment.PaystackPrefix, profile.Id, s.now()), nil
	case models.GatewayKorapay:
		return payment.NewReference(payment.KorapayPrefix, profile.Id, s.now()), nil
	default:
		return "", validationError("gateway must be paystack or korapay", nil)
	}
}
