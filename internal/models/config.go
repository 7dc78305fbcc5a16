package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Gateways GatewayConfig
	Notify   NotifyConfig
	Orders   OrdersConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JwtSecret string
	TokenTTL  time.Duration
}

// GatewayConfig holds payment gateway webhook secrets
type GatewayConfig struct {
	PaystackSecret           string
	PaystackRequireSignature bool
	KorapaySecret            string
}

// NotifyConfig holds operator notification settings. Telegram credentials
// are not here: they are read from the settings table on every send.
type NotifyConfig struct {
	TelegramApiBase string
	Timeout         time.Duration
	SMTPHost        string
	SMTPPort        string
	SMTPUser        string
	SMTPPassword    string
	MailFrom        string
	OperatorEmail   string
}

// OrdersConfig holds order, pricing and deposit code settings
type OrdersConfig struct {
	PriceMarkupPercent decimal.Decimal
	UpstreamTimeout    time.Duration
	SyncInterval       time.Duration
	SyncBatchSize      int
	SyncConcurrency    int
	DepositCodeTTL     time.Duration
	ProvidersFile      string
}
