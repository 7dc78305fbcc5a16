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

	"github.com/spf13/cobra"
)

func balanceCmd() *cobra.Command {
	var filter string
	var limit int
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show wallet balances, recent ledger entries and drift",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(ctx context.Context, services *common.Services) error {
				users, err := common.ResolveUsers(ctx, services.DbService, filter)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				common.PrintHeader(out, "WALLET BALANCES", common.WideWidth)

				drifted := 0
				for _, u := range users {
					balance, err := services.DbService.GetBalance(ctx, u.Id)
					if err != nil {
						fmt.Fprintf(out, "\n%s <%s>: error %v\n", u.Username, u.Email, err)
						continue
					}

					state := "reconciled"
					if err := services.DbService.ReconcileBalance(ctx, u.Id); err != nil {
						state = "DRIFT: " + err.Error()
						drifted++
					}
					fmt.Fprintf(out, "\n%s <%s> %s [%s]\n", u.Username, u.Email, balance.StringFixed(2), state)

					history, err := services.DbService.GetTransactionHistory(ctx, u.Id, limit, 0)
					if err != nil {
						fmt.Fprintf(out, "  history unavailable: %v\n", err)
						continue
					}
					for i, tx := range history {
						fmt.Fprintf(out, "%s%s %-10s %12s  %s\n",
							common.BoxPrefix(i == len(history)-1),
							tx.CreatedAt.Format("2006-01-02 15:04"), tx.Type, tx.Amount.StringFixed(2), tx.ReferenceId)
					}
				}

				common.PrintFooter(out, fmt.Sprintf("%d wallets, %d with drift", len(users), drifted), common.WideWidth)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filter, "user", "", "User id or email (default: all users)")
	cmd.Flags().IntVar(&limit, "history", 5, "Recent ledger entries to show per user")
	return cmd
}
