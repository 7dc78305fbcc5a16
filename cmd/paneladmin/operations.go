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

	"smm-panel-go/internal/common"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func providerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage upstream SMM providers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import [providers.yaml]",
		Short: "Upsert providers from a YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := "providers.yaml"
			if len(args) == 1 {
				file = args[0]
			}
			providers, err := common.LoadProviderConfig(file)
			if err != nil {
				return err
			}
			return withServices(func(ctx context.Context, services *common.Services) error {
				if err := common.SeedProviders(ctx, services.DbService, providers); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for i, p := range providers {
					flags := ""
					if p.IsPrimary {
						flags += " primary"
					}
					if !p.IsEnabled {
						flags += " disabled"
					}
					fmt.Fprintf(out, "%s%s (%s) order=%d%s\n", common.BoxPrefix(i == len(providers)-1), p.Name, p.ProviderId, p.DisplayOrder, flags)
				}
				fmt.Fprintf(out, "✓ Imported %d providers\n", len(providers))
				return nil
			})
		},
	})
	return cmd
}

func settingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Runtime settings such as telegram_bot_token and telegram_chat_id",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a runtime setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(ctx context.Context, services *common.Services) error {
				if err := services.DbService.SetSetting(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s updated\n", args[0])
				return nil
			})
		},
	})
	return cmd
}

func depositCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit-code",
		Short: "Manual deposit confirmation codes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "issue <user-id> <amount>",
		Short: "Issue a code; the code itself goes to the operator channels",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			return withServices(func(ctx context.Context, services *common.Services) error {
				codeKey, err := services.PanelService.IssueDepositCode(ctx, args[0], amount)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), codeKey)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <code-key> <code>",
		Short: "Redeem a code without crediting the wallet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(ctx context.Context, services *common.Services) error {
				claim, err := services.PanelService.VerifyDepositCode(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				common.PrintField(out, "User", fmt.Sprintf("%s (%s)", claim.Username, claim.UserId))
				common.PrintField(out, "Amount", claim.Amount.StringFixed(2))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "confirm <code-key> <code>",
		Short: "Redeem a code and credit the wallet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(ctx context.Context, services *common.Services) error {
				result, err := services.PanelService.ConfirmDeposit(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				common.PrintField(out, "User", result.UserId)
				common.PrintField(out, "Credited", result.Amount.StringFixed(2))
				common.PrintField(out, "Balance", result.NewBalance.StringFixed(2))
				return nil
			})
		},
	})

	return cmd
}
