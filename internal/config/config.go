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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"smm-panel-go/internal/models"

	"github.com/shopspring/decimal"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	busyTimeout, err := getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	notifyTimeout, err := getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := getEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	syncInterval, err := getEnvDuration("ORDER_SYNC_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	depositCodeTTL, err := getEnvDuration("DEPOSIT_CODE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	markup, err := getEnvDecimal("PRICE_MARKUP_PERCENT", decimal.Zero)
	if err != nil {
		return nil, err
	}
	if markup.IsNegative() {
		return nil, fmt.Errorf("PRICE_MARKUP_PERCENT cannot be negative, got %s", markup)
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "panel.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			BusyTimeout:     busyTimeout,
		},
		Server: models.ServerConfig{
			ListenAddr:      getEnvString("HTTP_LISTEN_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Auth: models.AuthConfig{
			JwtSecret: os.Getenv("AUTH_JWT_SECRET"),
			TokenTTL:  tokenTTL,
		},
		Gateways: models.GatewayConfig{
			PaystackSecret:           os.Getenv("PAYSTACK_SECRET_KEY"),
			PaystackRequireSignature: getEnvBool("PAYSTACK_REQUIRE_SIGNATURE", false),
			KorapaySecret:            os.Getenv("KORAPAY_SECRET_KEY"),
		},
		Notify: models.NotifyConfig{
			TelegramApiBase: getEnvString("TELEGRAM_API_BASE", "https://api.telegram.org"),
			Timeout:         notifyTimeout,
			SMTPHost:        os.Getenv("SMTP_HOST"),
			SMTPPort:        getEnvString("SMTP_PORT", "587"),
			SMTPUser:        os.Getenv("SMTP_USER"),
			SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
			MailFrom:        os.Getenv("MAIL_FROM"),
			OperatorEmail:   os.Getenv("OPERATOR_EMAIL"),
		},
		Orders: models.OrdersConfig{
			PriceMarkupPercent: markup,
			UpstreamTimeout:    upstreamTimeout,
			SyncInterval:       syncInterval,
			SyncBatchSize:      getEnvInt("ORDER_SYNC_BATCH_SIZE", 100),
			SyncConcurrency:    getEnvInt("ORDER_SYNC_CONCURRENCY", 5),
			DepositCodeTTL:     depositCodeTTL,
			ProvidersFile:      getEnvString("PROVIDERS_FILE", "providers.yaml"),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
