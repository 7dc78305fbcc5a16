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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfileStatus is the account state of a panel user
type ProfileStatus string

const (
	ProfileActive    ProfileStatus = "active"
	ProfileSuspended ProfileStatus = "suspended"
	ProfilePaused    ProfileStatus = "paused"
)

// Valid reports whether s is one of the known profile states
func (s ProfileStatus) Valid() bool {
	switch s {
	case ProfileActive, ProfileSuspended, ProfilePaused:
		return true
	}
	return false
}

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionOrder      TransactionType = "order"
	TransactionRefund     TransactionType = "refund"
	TransactionAdjustment TransactionType = "adjustment"
)

// OrderStatus is the local view of an upstream order
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// Terminal reports whether no further upstream polling is needed
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// Gateway names the source of a wallet credit
type Gateway string

const (
	GatewayPaystack Gateway = "paystack"
	GatewayKorapay  Gateway = "korapay"
	GatewayManual   Gateway = "manual"
	GatewayInternal Gateway = "internal"
)

// Profile represents a panel user and their wallet balance
type Profile struct {
	Id           string          `db:"id"`
	Username     string          `db:"username"`
	Email        string          `db:"email"`
	Balance      decimal.Decimal `db:"balance"`
	Status       ProfileStatus   `db:"status"`
	LastIp       string          `db:"last_ip"`
	LastLocation string          `db:"last_location"`
	LastLoginAt  *time.Time      `db:"last_login_at"`
	Version      int64           `db:"version"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// Transaction represents an immutable wallet ledger entry
type Transaction struct {
	Id            string          `db:"id"`
	UserId        string          `db:"user_id"`
	Type          TransactionType `db:"type"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	Status        string          `db:"status"`
	ReferenceId   string          `db:"reference_id"`
	Gateway       Gateway         `db:"gateway"`
	Description   string          `db:"description"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Order is the local record of an order placed with an upstream provider
type Order struct {
	Id              string          `db:"id"`
	UserId          string          `db:"user_id"`
	ServiceId       string          `db:"service_id"`
	ProviderId      string          `db:"provider_id"`
	Link            string          `db:"link"`
	Quantity        int64           `db:"quantity"`
	ExternalOrderId string          `db:"external_order_id"`
	Status          OrderStatus     `db:"status"`
	Charge          decimal.Decimal `db:"charge"`
	StartCount      string          `db:"start_count"`
	Remains         string          `db:"remains"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
	SyncedAt        *time.Time      `db:"synced_at"`
}

// ApiProvider is an upstream SMM provider whose catalog and order API we use
type ApiProvider struct {
	ProviderId   string `db:"provider_id" yaml:"provider_id"`
	Name         string `db:"name" yaml:"name"`
	ApiUrl       string `db:"api_url" yaml:"api_url"`
	ApiKey       string `db:"api_key" yaml:"api_key"`
	IsEnabled    bool   `db:"is_enabled" yaml:"is_enabled"`
	IsPrimary    bool   `db:"is_primary" yaml:"is_primary"`
	DisplayOrder int    `db:"display_order" yaml:"display_order"`
}

// DepositConfirmationCode is a single-use, time-boxed token guarding a manual deposit
type DepositConfirmationCode struct {
	CodeKey   string          `db:"code_key"`
	Code      string          `db:"code"`
	UserId    string          `db:"user_id"`
	Username  string          `db:"username"`
	Amount    decimal.Decimal `db:"amount"`
	CreatedAt time.Time       `db:"created_at"`
	ExpiresAt time.Time       `db:"expires_at"`
}

// Expired reports whether the code can no longer be redeemed at now
func (c DepositConfirmationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// BlockedEmail prevents re-registration of a deleted account's address
type BlockedEmail struct {
	Email     string    `db:"email"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}
