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
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
	"strings"
)

const (
	PaystackSignatureHeader = "x-paystack-signature"
	KorapaySignatureHeader  = "x-korapay-signature"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMissingSecret    = errors.New("webhook secret not configured")
)

// SignPaystack returns the hex HMAC-SHA512 of the raw request body
func SignPaystack(body []byte, secret string) string {
	return sign(sha512.New, body, secret)
}

// SignKorapay returns the hex HMAC-SHA256 of the webhook's data object
func SignKorapay(data []byte, secret string) string {
	return sign(sha256.New, data, secret)
}

func VerifyPaystack(body []byte, signature, secret string) error {
	return verify(sha512.New, body, signature, secret)
}

func VerifyKorapay(data []byte, signature, secret string) error {
	return verify(sha256.New, data, signature, secret)
}

func sign(h func() hash.Hash, payload []byte, secret string) string {
	mac := hmac.New(h, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verify(h func() hash.Hash, payload []byte, signature, secret string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}
	if secret == "" {
		return ErrMissingSecret
	}

	got, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(h, []byte(secret))
	mac.Write(payload)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
