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
	"strings"
	"time"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) GetProfiles(ctx context.Context) ([]models.Profile, error) {
	zap.L().Debug("Querying profiles")

	rows, err := s.db.QueryContext(ctx, queryGetProfiles)
	if err != nil {
		zap.L().Error("Failed to query profiles", zap.Error(err))
		return nil, fmt.Errorf("unable to query profiles: %w", err)
	}
	defer closeRows(rows)

	profiles, err := scanProfiles(rows)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Retrieved profiles", zap.Int("count", len(profiles)))
	return profiles, nil
}

func (s *Service) GetProfileById(ctx context.Context, userId string) (*models.Profile, error) {
	zap.L().Debug("Querying profile by ID", zap.String("user_id", userId))

	profile, err := scanProfile(s.db.QueryRowContext(ctx, queryGetProfileById, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
		}
		zap.L().Error("Failed to query profile by ID", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query profile by ID: %w", err)
	}

	return profile, nil
}

func (s *Service) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	email = normalizeEmail(email)
	zap.L().Debug("Querying profile by email", zap.String("email", email))

	profile, err := scanProfile(s.db.QueryRowContext(ctx, queryGetProfileByEmail, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, email)
		}
		zap.L().Error("Failed to query profile by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to query profile by email: %w", err)
	}

	return profile, nil
}

// FindProfilesByIdPrefix resolves the truncated ids carried by older payment references
func (s *Service) FindProfilesByIdPrefix(ctx context.Context, prefix string) ([]models.Profile, error) {
	if prefix == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, queryFindProfilesByIdPrefix, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("unable to query profiles by id prefix: %w", err)
	}
	defer closeRows(rows)

	return scanProfiles(rows)
}

// CreateProfile provisions a wallet-bearing profile. Blocked and already
// registered addresses are rejected.
func (s *Service) CreateProfile(ctx context.Context, params store.CreateProfileParams) (*models.Profile, error) {
	email := normalizeEmail(params.Email)
	zap.L().Info("Creating profile", zap.String("id", params.Id), zap.String("username", params.Username), zap.String("email", email))

	if params.Id == "" || params.Username == "" || email == "" {
		return nil, fmt.Errorf("id, username and email are required")
	}

	blocked, err := s.IsEmailBlocked(ctx, email)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, fmt.Errorf("%w: %s", store.ErrEmailBlocked, email)
	}

	now := nowUTC()
	if _, err := s.db.ExecContext(ctx, queryInsertProfile, params.Id, params.Username, email, now, now); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrEmailTaken, email)
		}
		zap.L().Error("Failed to insert profile", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to insert profile: %w", err)
	}

	zap.L().Info("Profile created successfully", zap.String("id", params.Id), zap.String("email", email))
	return s.GetProfileById(ctx, params.Id)
}

// DeleteProfile removes the profile and blocks its email from re-registering
func (s *Service) DeleteProfile(ctx context.Context, userId, reason string) error {
	zap.L().Info("Deleting profile", zap.String("user_id", userId), zap.String("reason", reason))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var email string
	if err := tx.QueryRowContext(ctx, queryGetProfileEmail, userId).Scan(&email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
		}
		return fmt.Errorf("unable to load profile email: %w", err)
	}

	if _, err := tx.ExecContext(ctx, queryInsertBlockedEmail, normalizeEmail(email), reason, nowUTC()); err != nil {
		return fmt.Errorf("unable to block email: %w", err)
	}
	if _, err := tx.ExecContext(ctx, queryDeleteProfile, userId); err != nil {
		return fmt.Errorf("unable to delete profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Profile deleted and email blocked", zap.String("user_id", userId), zap.String("email", email))
	return nil
}

func (s *Service) SetProfileStatus(ctx context.Context, userId string, status models.ProfileStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid profile status: %q", status)
	}

	result, err := s.db.ExecContext(ctx, querySetProfileStatus, string(status), nowUTC(), userId)
	if err != nil {
		return fmt.Errorf("unable to update profile status: %w", err)
	}
	return expectOneRow(result, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId))
}

// TouchLogin records the address and rough location of the latest authenticated request
func (s *Service) TouchLogin(ctx context.Context, userId, ip, location string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, queryTouchLogin, ip, location, at.UTC(), nowUTC(), userId)
	if err != nil {
		return fmt.Errorf("unable to record login: %w", err)
	}
	return expectOneRow(result, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId))
}

func (s *Service) IsEmailBlocked(ctx context.Context, email string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryIsEmailBlocked, normalizeEmail(email)).Scan(&count); err != nil {
		return false, fmt.Errorf("unable to check blocked email: %w", err)
	}
	return count > 0, nil
}

func scanProfile(row scanner) (*models.Profile, error) {
	var p models.Profile
	var balanceStr, status string
	var lastLogin sql.NullTime
	err := row.Scan(&p.Id, &p.Username, &p.Email, &balanceStr, &status,
		&p.LastIp, &p.LastLocation, &lastLogin, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Status = models.ProfileStatus(status)
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLoginAt = &t
	}
	if p.Balance, err = decimal.NewFromString(balanceStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	return &p, nil
}

func scanProfiles(rows *sql.Rows) ([]models.Profile, error) {
	var profiles []models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			zap.L().Error("Failed to scan profile row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan profile row: %w", err)
		}
		profiles = append(profiles, *profile)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during profile row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating profile rows: %w", err)
	}
	return profiles, nil
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
