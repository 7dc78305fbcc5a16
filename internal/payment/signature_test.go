package payment

import (
	"errors"
	"testing"
)

func TestVerifyPaystack(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"PS-u-1","amount":500000,"status":"success"}}`)
	sig := SignPaystack(body, "sk_test")

	if err := VerifyPaystack(body, sig, "sk_test"); err != nil {
		t.Fatalf("Expected valid signature, got %v", err)
	}

	tampered := []byte(`{"event":"charge.success","data":{"reference":"PS-u-1","amount":900000,"status":"success"}}`)
	if err := VerifyPaystack(tampered, sig, "sk_test"); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Expected invalid signature for tampered body, got %v", err)
	}
	if err := VerifyPaystack(body, "", "sk_test"); !errors.Is(err, ErrMissingSignature) {
		t.Errorf("Expected missing signature, got %v", err)
	}
	if err := VerifyPaystack(body, "not-hex", "sk_test"); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Expected invalid signature for garbage, got %v", err)
	}
	if err := VerifyPaystack(body, sig, ""); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("Expected missing secret, got %v", err)
	}
}

func TestVerifyKorapay(t *testing.T) {
	data := []byte(`{"reference":"KPY-1","payment_reference":"KP-u-1","amount":5000,"status":"success"}`)
	sig := SignKorapay(data, "kp_secret")

	if err := VerifyKorapay(data, sig, "kp_secret"); err != nil {
		t.Fatalf("Expected valid signature, got %v", err)
	}
	if err := VerifyKorapay(data, sig, "other"); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Expected invalid signature with wrong secret, got %v", err)
	}
}
