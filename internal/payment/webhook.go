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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"smm-panel-go/internal/models"

	"github.com/shopspring/decimal"
)

const EventChargeSuccess = "charge.success"

var ErrMalformedPayload = errors.New("malformed webhook payload")

// Event is the gateway-neutral view of a payment webhook
type Event struct {
	Gateway   models.Gateway
	Event     string
	Status    string
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Email     string
}

// IsSuccessfulCharge reports whether the event should credit a wallet
func (e *Event) IsSuccessfulCharge() bool {
	return e.Event == EventChargeSuccess && strings.EqualFold(e.Status, "success")
}

type paystackPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		Amount    decimal.Decimal `json:"amount"`
		Status    string          `json:"status"`
		Currency  string          `json:"currency"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

type korapayEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type korapayData struct {
	Reference        string          `json:"reference"`
	PaymentReference string          `json:"payment_reference"`
	Amount           decimal.Decimal `json:"amount"`
	Status           string          `json:"status"`
	Currency         string          `json:"currency"`
	Customer         struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// ParsePaystack decodes a Paystack webhook. Paystack reports amounts in
// the minor unit (kobo), so the amount is shifted two places.
func ParsePaystack(body []byte) (*Event, error) {
	var payload paystackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return &Event{
		Gateway:   models.GatewayPaystack,
		Event:     payload.Event,
		Status:    payload.Data.Status,
		Reference: payload.Data.Reference,
		Amount:    payload.Data.Amount.Shift(-2),
		Currency:  payload.Data.Currency,
		Email:     payload.Data.Customer.Email,
	}, nil
}

// KorapaySignedData returns the compacted data object of a Korapay webhook,
// which is what Korapay signs. It needs only the envelope to be valid JSON.
func KorapaySignedData(body []byte) ([]byte, error) {
	var envelope korapayEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data object", ErrMalformedPayload)
	}

	var signed bytes.Buffer
	if err := json.Compact(&signed, envelope.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return signed.Bytes(), nil
}

// ParseKorapay decodes a Korapay webhook and also returns the compacted
// data object that the signature covers.
func ParseKorapay(body []byte) (*Event, []byte, error) {
	signed, err := KorapaySignedData(body)
	if err != nil {
		return nil, nil, err
	}

	var envelope korapayEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var data korapayData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	// Our reference travels as payment_reference; reference is Korapay's own
	reference := data.PaymentReference
	if reference == "" {
		reference = data.Reference
	}

	return &Event{
		Gateway:   models.GatewayKorapay,
		Event:     envelope.Event,
		Status:    data.Status,
		Reference: reference,
		Amount:    data.Amount,
		Currency:  data.Currency,
		Email:     data.Customer.Email,
	}, signed, nil
}
