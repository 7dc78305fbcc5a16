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

package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	PaystackPrefix = "PS"
	KorapayPrefix  = "KP"
	ManualPrefix   = "MANUAL"

	legacyShortIdLength = 8
)

var ErrMalformedReference = errors.New("malformed payment reference")

// Reference is a decoded {prefix}-{userId}-{unixMillis} payment reference
type Reference struct {
	Prefix    string
	UserId    string
	Timestamp int64
}

// NewReference builds the reference handed to a gateway at checkout. The
// full user id is embedded so the webhook can be correlated without guessing.
func NewReference(prefix, userId string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d", prefix, userId, at.UnixMilli())
}

// ParseReference recovers the user id from a reference. The user id is
// everything between the first and last segment, so hyphenated ids survive.
func ParseReference(reference, prefix string) (*Reference, error) {
	parts := strings.Split(strings.TrimSpace(reference), "-")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: %q has fewer than 3 segments", ErrMalformedReference, reference)
	}
	if parts[0] != prefix {
		return nil, fmt.Errorf("%w: %q does not start with %s", ErrMalformedReference, reference, prefix)
	}

	last := parts[len(parts)-1]
	ts, err := strconv.ParseInt(last, 10, 64)
	if err != nil || ts <= 0 {
		return nil, fmt.Errorf("%w: %q has a non-numeric timestamp", ErrMalformedReference, reference)
	}

	userId := strings.Join(parts[1:len(parts)-1], "-")
	if userId == "" {
		return nil, fmt.Errorf("%w: %q has an empty user segment", ErrMalformedReference, reference)
	}

	return &Reference{Prefix: prefix, UserId: userId, Timestamp: ts}, nil
}

// IsLegacyShortId reports whether id looks like the 8 hex character user id
// prefix that older Korapay references carried instead of the full id.
func IsLegacyShortId(id string) bool {
	if len(id) != legacyShortIdLength {
		return false
	}
	for _, c := range id {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
