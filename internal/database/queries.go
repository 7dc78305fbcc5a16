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

package database

const (
	profileColumns = `id, username, email, balance, status, last_ip, last_location, last_login_at, version, created_at, updated_at`

	// Profile queries
	queryGetProfiles = `
		SELECT ` + profileColumns + `
		FROM profiles
		ORDER BY created_at`

	queryGetProfileById = `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE id = ?`

	queryGetProfileByEmail = `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE email = ?`

	queryFindProfilesByIdPrefix = `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE substr(id, 1, ?) = ?
		ORDER BY created_at
		LIMIT 10`

	queryInsertProfile = `
		INSERT INTO profiles (id, username, email, balance, status, version, created_at, updated_at)
		VALUES (?, ?, ?, '0', 'active', 1, ?, ?)`

	querySetProfileStatus = `
		UPDATE profiles
		SET status = ?, updated_at = ?
		WHERE id = ?`

	queryTouchLogin = `
		UPDATE profiles
		SET last_ip = ?, last_location = ?, last_login_at = ?, updated_at = ?
		WHERE id = ?`

	queryGetProfileEmail = `
		SELECT email FROM profiles WHERE id = ?`

	queryDeleteProfile = `
		DELETE FROM profiles WHERE id = ?`

	queryInsertBlockedEmail = `
		INSERT OR IGNORE INTO blocked_emails (email, reason, created_at) VALUES (?, ?, ?)`

	queryIsEmailBlocked = `
		SELECT COUNT(1) FROM blocked_emails WHERE email = ?`

	// Balance queries
	queryGetBalance = `
		SELECT balance
		FROM profiles
		WHERE id = ?`

	queryGetProfileBalanceForUpdate = `
		SELECT balance, version
		FROM profiles
		WHERE id = ?`

	queryUpdateProfileBalance = `
		UPDATE profiles
		SET balance = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	queryGetTransactionAmounts = `
		SELECT amount
		FROM transactions
		WHERE user_id = ? AND status = 'completed'`

	// Transaction queries
	transactionColumns = `id, user_id, type, amount, balance_before, balance_after, status, reference_id, gateway, description, created_at`

	queryCheckDuplicateReference = `
		SELECT id FROM transactions WHERE reference_id = ? LIMIT 1`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, user_id, type, amount, balance_before, balance_after,
			status, reference_id, gateway, description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + transactionColumns

	queryGetTransactionByReference = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE reference_id = ?`

	queryGetTransactionHistory = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	// Provider queries
	providerColumns = `provider_id, name, api_url, api_key, is_enabled, is_primary, display_order`

	queryListEnabledProviders = `
		SELECT ` + providerColumns + `
		FROM api_providers
		WHERE is_enabled = 1
		ORDER BY display_order, name`

	queryGetPrimaryProvider = `
		SELECT ` + providerColumns + `
		FROM api_providers
		WHERE is_enabled = 1 AND is_primary = 1
		ORDER BY display_order
		LIMIT 1`

	queryGetProviderById = `
		SELECT ` + providerColumns + `
		FROM api_providers
		WHERE provider_id = ?`

	queryUpsertProvider = `
		INSERT INTO api_providers (provider_id, name, api_url, api_key, is_enabled, is_primary, display_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider_id) DO UPDATE SET
			name = excluded.name,
			api_url = excluded.api_url,
			api_key = excluded.api_key,
			is_enabled = excluded.is_enabled,
			is_primary = excluded.is_primary,
			display_order = excluded.display_order`

	// Order queries
	orderColumns = `id, user_id, service_id, provider_id, link, quantity, external_order_id, status, charge, start_count, remains, created_at, updated_at, synced_at`

	queryInsertOrder = `
		INSERT INTO orders (
			id, user_id, service_id, provider_id, link, quantity, external_order_id,
			status, charge, start_count, remains, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', ?, '', '', ?, ?)
		RETURNING ` + orderColumns

	queryGetOrderById = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = ?`

	queryListOpenOrders = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status IN ('pending', 'processing') AND external_order_id != ''
		ORDER BY COALESCE(synced_at, created_at)
		LIMIT ?`

	queryUpdateOrderStatus = `
		UPDATE orders
		SET status = ?, start_count = ?, remains = ?, synced_at = ?, updated_at = ?
		WHERE id = ?`

	// Deposit code queries
	depositCodeColumns = `code_key, code, user_id, username, amount, created_at, expires_at`

	queryInsertDepositCode = `
		INSERT INTO deposit_codes (` + depositCodeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetDepositCode = `
		SELECT ` + depositCodeColumns + `
		FROM deposit_codes
		WHERE code_key = ?`

	queryDeleteDepositCode = `
		DELETE FROM deposit_codes WHERE code_key = ?`

	queryConsumeDepositCode = `
		DELETE FROM deposit_codes
		WHERE code_key = ? AND code = ?
		RETURNING ` + depositCodeColumns

	queryDeleteExpiredDepositCodes = `
		DELETE FROM deposit_codes WHERE expires_at < ?`

	// Setting queries
	queryGetSetting = `
		SELECT value FROM settings WHERE key = ?`

	queryUpsertSetting = `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)
