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
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smm-panel-go/internal/common"
	"smm-panel-go/internal/config"
	"smm-panel-go/internal/listener"
	"smm-panel-go/internal/metrics"
	"smm-panel-go/internal/server"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	noPoller := flag.Bool("no-poller", false, "Serve HTTP only; do not poll upstream order status")
	reconcileSpec := flag.String("reconcile", "0 3 * * *", "Cron schedule for the ledger reconciliation report")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting SMM panel server")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	seedProviders(ctx, services, cfg.Orders.ProvidersFile)

	var poller *listener.OrderStatusListener
	if !*noPoller {
		poller = listener.NewOrderStatusListener(listener.OrderStatusListenerConfig{
			Refresher:       services.PanelService,
			PollingInterval: cfg.Orders.SyncInterval,
			BatchSize:       cfg.Orders.SyncBatchSize,
			Concurrency:     cfg.Orders.SyncConcurrency,
		})
		poller.Start(ctx)
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc("@every 1m", func() {
		jobCtx, jobCancel := context.WithTimeout(ctx, 30*time.Second)
		defer jobCancel()
		if _, err := services.PanelService.SweepExpiredCodes(jobCtx); err != nil {
			zap.L().Error("Deposit code sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		zap.L().Fatal("Failed to schedule deposit code sweeper", zap.Error(err))
	}
	_, err = scheduler.AddFunc(*reconcileSpec, func() {
		jobCtx, jobCancel := context.WithTimeout(ctx, 10*time.Minute)
		defer jobCancel()
		if _, err := services.PanelService.ReconcileAllBalances(jobCtx); err != nil {
			zap.L().Error("Balance reconciliation failed", zap.Error(err))
		}
	})
	if err != nil {
		zap.L().Fatal("Failed to schedule balance reconciliation", zap.String("schedule", *reconcileSpec), zap.Error(err))
	}
	scheduler.Start()

	// Register collectors before the first scrape
	metrics.Get()

	srv := server.NewServer(cfg.Server, services.PanelService)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	zap.L().Info("Panel server running",
		zap.String("addr", cfg.Server.ListenAddr),
		zap.Bool("order_poller", poller != nil))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			zap.L().Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		zap.L().Error("HTTP server shutdown failed", zap.Error(err))
	}

	cronDone := scheduler.Stop()

	done := make(chan struct{})
	go func() {
		if poller != nil {
			poller.Stop()
		}
		<-cronDone.Done()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Panel server stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}

// seedProviders loads providers.yaml when present. The database stays the
// source of truth; the file only upserts what it lists.
func seedProviders(ctx context.Context, services *common.Services, providersFile string) {
	if providersFile == "" {
		return
	}
	if _, err := os.Stat(providersFile); err != nil {
		zap.L().Info("No providers file, using providers already in the database", zap.String("file", providersFile))
		return
	}

	providers, err := common.LoadProviderConfig(providersFile)
	if err != nil {
		zap.L().Fatal("Failed to load providers file", zap.String("file", providersFile), zap.Error(err))
	}
	if err := common.SeedProviders(ctx, services.DbService, providers); err != nil {
		zap.L().Fatal("Failed to seed providers", zap.Error(err))
	}
	zap.L().Info("Seeded upstream providers", zap.String("file", providersFile), zap.Int("count", len(providers)))
}
