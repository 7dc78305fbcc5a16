package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestReferenceRoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		userId := uuid.New().String()
		ref := NewReference(PaystackPrefix, userId, time.Now())

		parsed, err := ParseReference(ref, PaystackPrefix)
		if err != nil {
			t.Fatalf("ParseReference(%q) failed: %v", ref, err)
		}
		if parsed.UserId != userId {
			t.Fatalf("Expected user %s, got %s", userId, parsed.UserId)
		}
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		prefix    string
		wantUser  string
		wantErr   bool
	}{
		{name: "simple id", reference: "PS-user1-1700000000000", prefix: PaystackPrefix, wantUser: "user1"},
		{name: "hyphenated id", reference: "KP-a-b-c-1700000000000", prefix: KorapayPrefix, wantUser: "a-b-c"},
		{name: "too few segments", reference: "PS-1700000000000", prefix: PaystackPrefix, wantErr: true},
		{name: "wrong prefix", reference: "KP-user1-1700000000000", prefix: PaystackPrefix, wantErr: true},
		{name: "non numeric timestamp", reference: "PS-user1-abc", prefix: PaystackPrefix, wantErr: true},
		{name: "empty user", reference: "PS--1700000000000", prefix: PaystackPrefix, wantErr: true},
		{name: "empty", reference: "", prefix: PaystackPrefix, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseReference(tt.reference, tt.prefix)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedReference) {
					t.Errorf("Expected malformed reference error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReference failed: %v", err)
			}
			if parsed.UserId != tt.wantUser {
				t.Errorf("Expected user %s, got %s", tt.wantUser, parsed.UserId)
			}
		})
	}
}

func TestIsLegacyShortId(t *testing.T) {
	if !IsLegacyShortId("3fa85f64") {
		t.Error("Expected 8 hex chars to be a legacy id")
	}
	if IsLegacyShortId(uuid.New().String()) {
		t.Error("A full uuid is not a legacy id")
	}
	if IsLegacyShortId("zzzzzzzz") {
		t.Error("Non-hex is not a legacy id")
	}
}
