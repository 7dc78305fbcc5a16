package store

import (
	"errors"
	"fmt"
	"testing"
)

// Compile-time checks that the interface is importable and usable.
func TestPanelStoreInterfaceExists(t *testing.T) {
	_ = ApplyTransactionParams{}
	_ = CreateOrderParams{}

	var _ PanelStore
}

func TestSentinelErrorsSurviveWrapping(t *testing.T) {
	sentinels := []error{
		ErrDuplicateReference,
		ErrConcurrentModification,
		ErrUserNotFound,
		ErrInsufficientBalance,
		ErrCodeNotFound,
	}

	for _, sentinel := range sentinels {
		wrapped := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", sentinel))
		if !errors.Is(wrapped, sentinel) {
			t.Errorf("Expected wrapped error to match %v", sentinel)
		}
	}
}
