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
	"log"
	"strings"

	"smm-panel-go/internal/api"
	"smm-panel-go/internal/database"
	"smm-panel-go/internal/models"
	"smm-panel-go/internal/notify"
	"smm-panel-go/internal/provider"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// A missing .env is fine; variables may come from the shell or the container
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services is everything a binary needs to run panel operations
type Services struct {
	DbService       *database.Service
	ProviderService *provider.Service
	Dispatcher      *notify.Dispatcher
	PanelService    *api.PanelService
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	providerService, err := provider.NewService(cfg.Orders.UpstreamTimeout)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	auth, err := api.NewAuthenticator(cfg.Auth)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}

	dispatcher, err := initializeDispatcher(dbService, cfg.Notify)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	panel := api.NewPanelService(dbService, providerService, auth, dispatcher, api.ServiceConfig{
		Gateways:           cfg.Gateways,
		PriceMarkupPercent: cfg.Orders.PriceMarkupPercent,
		DepositCodeTTL:     cfg.Orders.DepositCodeTTL,
	})

	if cfg.Gateways.PaystackSecret == "" {
		zap.L().Warn("PAYSTACK_SECRET_KEY not set, signed Paystack webhooks will fail")
	}
	if cfg.Gateways.KorapaySecret == "" {
		zap.L().Warn("KORAPAY_SECRET_KEY not set, Korapay webhooks will fail")
	}

	return &Services{
		DbService:       dbService,
		ProviderService: providerService,
		Dispatcher:      dispatcher,
		PanelService:    panel,
	}, nil
}

// initializeDispatcher wires Telegram always and email only when SMTP is configured
func initializeDispatcher(settings notify.SettingsReader, cfg models.NotifyConfig) (*notify.Dispatcher, error) {
	telegram, err := notify.NewTelegramNotifier(settings, cfg.TelegramApiBase, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram notifier: %w", err)
	}
	notifiers := []notify.Notifier{telegram}

	if cfg.SMTPHost != "" && cfg.OperatorEmail != "" {
		sender := notify.NewSMTPEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
		notifiers = append(notifiers, notify.NewEmailNotifier(sender, cfg.OperatorEmail))
		zap.L().Info("Email operator notifications enabled", zap.String("to", cfg.OperatorEmail))
	}

	return notify.NewDispatcher(cfg.Timeout, notifiers...), nil
}

// InitializeDatabaseOnly opens the store without the upstream or notification stack.
// Useful for read-only operations like balance reports.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

// Close waits for pending notifications and then closes the database
func (cs *Services) Close() {
	if cs.Dispatcher != nil {
		cs.Dispatcher.Wait()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
