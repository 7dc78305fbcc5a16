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

// ServiceItem is one sellable service from an upstream catalog, tagged with its origin
type ServiceItem struct {
	Service      string          `json:"service"`
	Name         string          `json:"name"`
	Type         string          `json:"type,omitempty"`
	Category     string          `json:"category,omitempty"`
	Rate         decimal.Decimal `json:"rate"`
	Min          int64           `json:"min"`
	Max          int64           `json:"max"`
	Refill       bool            `json:"refill"`
	Cancel       bool            `json:"cancel"`
	ProviderId   string          `json:"provider_id"`
	ProviderName string          `json:"provider_name"`
}

// OrderRequest is the body of an order placement call
type OrderRequest struct {
	Service  string `json:"service"`
	Link     string `json:"link"`
	Quantity int64  `json:"quantity"`
}

// OrderPlacement is returned when the upstream accepts an order
type OrderPlacement struct {
	ExternalOrderId string `json:"order"`
	ProviderId      string `json:"provider_id,omitempty"`
}

// OrderStatusResult is the mapped upstream status of one order
type OrderStatusResult struct {
	ExternalOrderId string      `json:"external_order_id"`
	Status          OrderStatus `json:"status"`
	UpstreamStatus  string      `json:"upstream_status,omitempty"`
	Charge          string      `json:"charge"`
	StartCount      string      `json:"start_count"`
	Remains         string      `json:"remains"`
	Currency        string      `json:"currency,omitempty"`
}

// WebhookOutcome describes what a webhook delivery did
type WebhookOutcome string

const (
	WebhookCredited  WebhookOutcome = "credited"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookIgnored   WebhookOutcome = "ignored"
)

// WebhookResult is the acknowledgement body returned to a payment gateway
type WebhookResult struct {
	Outcome    WebhookOutcome  `json:"outcome"`
	Reference  string          `json:"reference,omitempty"`
	UserId     string          `json:"user_id,omitempty"`
	Amount     decimal.Decimal `json:"amount,omitempty"`
	NewBalance decimal.Decimal `json:"new_balance,omitempty"`
}

// DepositResult represents the result of crediting a wallet
type DepositResult struct {
	Success    bool            `json:"success"`
	UserId     string          `json:"user_id,omitempty"`
	Amount     decimal.Decimal `json:"amount,omitempty"`
	NewBalance decimal.Decimal `json:"new_balance,omitempty"`
	Duplicate  bool            `json:"duplicate,omitempty"`
}

// DepositCodeClaim is what a successful deposit code verification hands back
type DepositCodeClaim struct {
	UserId   string          `json:"user_id"`
	Username string          `json:"username"`
	Amount   decimal.Decimal `json:"amount"`
}

// TransactionRecord represents a transaction in the user's history
type TransactionRecord struct {
	Id          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Reference   string          `json:"reference,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SessionInfo is returned to an authenticated caller after login tracking
type SessionInfo struct {
	UserId   string          `json:"user_id"`
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
	Status   ProfileStatus   `json:"status"`
}
