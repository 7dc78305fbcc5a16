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
	"os"

	"smm-panel-go/internal/common"
	"smm-panel-go/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "paneladmin",
		Short:         "Operator tooling for the SMM panel",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(providerCmd())
	rootCmd.AddCommand(settingCmd())
	rootCmd.AddCommand(depositCodeCmd())
	rootCmd.AddCommand(balanceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withServices runs fn against fully initialized services and tears them
// down afterwards, waiting for any queued operator notifications
func withServices(fn func(ctx context.Context, services *common.Services) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Close()

	if err := fn(ctx, services); err != nil {
		zap.L().Error("Command failed", zap.Error(err))
		return err
	}
	return nil
}
