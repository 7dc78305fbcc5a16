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
	"strings"
	"time"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	tokenIssuer = "smm-panel"
)

type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator mints and checks HS256 bearer tokens. The subject is the profile id.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthenticator(cfg models.AuthConfig) (*Authenticator, error) {
	if cfg.JwtSecret == "" {
		return nil, fmt.Errorf("jwt secret cannot be empty")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{secret: []byte(cfg.JwtSecret), ttl: ttl}, nil
}

func (a *Authenticator) IssueToken(subject, role string) (string, time.Time, error) {
	expiresAt := time.Now().Add(a.ttl)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("unable to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func bearerToken(authorization string) string {
	authorization = strings.TrimSpace(authorization)
	if len(authorization) > 7 && strings.EqualFold(authorization[:7], "Bearer ") {
		return strings.TrimSpace(authorization[7:])
	}
	return authorization
}

// Authenticate resolves an Authorization header to an active profile.
// Every failure is an authorization error so callers learn nothing about
// which check failed.
func (s *PanelService) Authenticate(ctx context.Context, authorization string) (*models.Profile, error) {
	tokenString := bearerToken(authorization)
	if tokenString == "" {
		return nil, authorizationError("missing bearer token", nil)
	}

	claims, err := s.auth.ParseToken(tokenString)
	if err != nil {
		zap.L().Debug("Rejected bearer token", zap.Error(err))
		return nil, authorizationError("invalid or expired token", err)
	}

	profile, err := s.db.GetProfileById(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, authorizationError("invalid or expired token", err)
		}
		return nil, internalError("failed to load profile", err)
	}

	if profile.Status != models.ProfileActive {
		zap.L().Info("Rejected request from inactive profile",
			zap.String("user_id", profile.Id),
			zap.String("status", string(profile.Status)))
		return nil, authorizationError("account is not active", nil)
	}

	return profile, nil
}

// RequireAdmin accepts only tokens carrying the admin role
func (s *PanelService) RequireAdmin(ctx context.Context, authorization string) (*Claims, error) {
	tokenString := bearerToken(authorization)
	if tokenString == "" {
		return nil, authorizationError("missing bearer token", nil)
	}

	claims, err := s.auth.ParseToken(tokenString)
	if err != nil {
		return nil, authorizationError("invalid or expired token", err)
	}
	if claims.Role != RoleAdmin {
		return nil, authorizationError("admin role required", nil)
	}
	return claims, nil
}
