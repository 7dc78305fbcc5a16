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

package main

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"smm-panel-go/internal/common"
	"smm-panel-go/internal/models"

	"github.com/spf13/cobra"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(username) < 2 {
		return fmt.Errorf("username must be at least 2 characters")
	}
	return nil
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Provision and manage panel users",
	}
	cmd.AddCommand(userCreateCmd(), userDeleteCmd(), userStatusCmd(), userTokenCmd(), userListCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var username, email string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with an empty wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateUsername(username); err != nil {
				return err
			}
			if err := validateEmail(email); err != nil {
				return err
			}
			return withServices(func(ctx context.Context, services *common.Services) error {
				profile, err := services.PanelService.CreateUser(ctx, username, email)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				common.PrintHeader(out, "USER CREATED", common.DefaultWidth)
				common.PrintField(out, "Id", profile.Id)
				common.PrintField(out, "Username", profile.Username)
				common.PrintField(out, "Email", profile.Email)
				common.PrintField(out, "Status", profile.Status)
				common.PrintFooter(out, "Mint a bearer token with: paneladmin user token "+profile.Id, common.DefaultWidth)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address, must not be blocked")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func userDeleteCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user and block their email from re-registering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(ctx context.Context, services *common.Services) error {
				if err := services.PanelService.DeleteUser(ctx, args[0], reason); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted user %s and blocked their email\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "deleted by operator", "Reason stored with the blocked email")
	return cmd
}

func userStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <user-id> <active|suspended|paused>",
		Short: "Change a user's account status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(ctx context.Context, services *common.Services) error {
				status := models.ProfileStatus(args[1])
				if err := services.PanelService.SetUserStatus(ctx, args[0], status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ User %s is now %s\n", args[0], status)
				return nil
			})
		},
	}
}

func userTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(ctx context.Context, services *common.Services) error {
				token, expiresAt, err := services.PanelService.IssueUserToken(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
				return nil
			})
		},
	}
}

func userListCmd() *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users, optionally filtered by id or email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(ctx context.Context, services *common.Services) error {
				users, err := common.ResolveUsers(ctx, services.DbService, filter)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				common.PrintHeader(out, fmt.Sprintf("USERS (%d)", len(users)), common.WideWidth)
				for i, u := range users {
					last := i == len(users)-1
					fmt.Fprintf(out, "%s%s <%s>\n", common.BoxPrefix(last), u.Username, u.Email)
					fmt.Fprintf(out, "%s  id=%s status=%s\n", common.BoxDetailPrefix(last), u.Id, u.Status)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "User id or email")
	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator credentials",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "token <operator-name>",
		Short: "Mint an admin bearer token for the /admin endpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(ctx context.Context, services *common.Services) error {
				token, expiresAt, err := services.PanelService.IssueAdminToken(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
				return nil
			})
		},
	})
	return cmd
}
