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

package provider

import (
	"strings"

	"smm-panel-go/internal/models"
)

var statusMap = map[string]models.OrderStatus{
	"completed":   models.OrderCompleted,
	"partial":     models.OrderCompleted,
	"cancelled":   models.OrderCancelled,
	"canceled":    models.OrderCancelled,
	"in progress": models.OrderProcessing,
	"processing":  models.OrderProcessing,
	"pending":     models.OrderPending,
}

// MapStatus translates an upstream status word to the local vocabulary.
// Unknown words map to pending.
func MapStatus(upstream string) models.OrderStatus {
	if status, ok := statusMap[normalize(upstream)]; ok {
		return status
	}
	return models.OrderPending
}

// IsPartial reports whether the upstream delivered only part of the order
func IsPartial(upstream string) bool {
	return normalize(upstream) == "partial"
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
