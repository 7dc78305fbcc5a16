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
	"strings"

	"smm-panel-go/internal/store"

	"go.uber.org/zap"
)

// UserInfo represents simplified user information for command-line utilities
type UserInfo struct {
	Id       string
	Username string
	Email    string
	Status   string
}

// ResolveUsers looks users up by id or email. An empty filter returns every user.
func ResolveUsers(ctx context.Context, dbService store.PanelStore, filter string) ([]UserInfo, error) {
	var users []UserInfo
	filter = strings.TrimSpace(filter)

	switch {
	case filter == "":
		profiles, err := dbService.GetProfiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get users: %w", err)
		}
		for _, p := range profiles {
			users = append(users, UserInfo{Id: p.Id, Username: p.Username, Email: p.Email, Status: string(p.Status)})
		}
	case strings.Contains(filter, "@"):
		zap.L().Info("Looking up user by email", zap.String("email", filter))
		p, err := dbService.GetProfileByEmail(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		users = append(users, UserInfo{Id: p.Id, Username: p.Username, Email: p.Email, Status: string(p.Status)})
	default:
		p, err := dbService.GetProfileById(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		users = append(users, UserInfo{Id: p.Id, Username: p.Username, Email: p.Email, Status: string(p.Status)})
	}

	zap.L().Debug("Resolved users", zap.Int("count", len(users)))
	return users, nil
}
