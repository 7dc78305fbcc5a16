package provider

import (
	"testing"

	"smm-panel-go/internal/models"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		upstream string
		want     models.OrderStatus
	}{
		{"Completed", models.OrderCompleted},
		{"completed", models.OrderCompleted},
		{"Partial", models.OrderCompleted},
		{"Canceled", models.OrderCancelled},
		{"CANCELLED", models.OrderCancelled},
		{"In progress", models.OrderProcessing},
		{"Processing", models.OrderProcessing},
		{"Pending", models.OrderPending},
		{" pending ", models.OrderPending},
		{"", models.OrderPending},
		{"Refunded", models.OrderPending},
		{"something new", models.OrderPending},
	}

	for _, tt := range tests {
		t.Run(tt.upstream, func(t *testing.T) {
			if got := MapStatus(tt.upstream); got != tt.want {
				t.Errorf("MapStatus(%q) = %s, want %s", tt.upstream, got, tt.want)
			}
		})
	}
}

func TestMapStatus_AlwaysKnownValue(t *testing.T) {
	inputs := []string{"x", "Completed!", "in  progress", "0", "partially", "\t"}
	for _, in := range inputs {
		switch MapStatus(in) {
		case models.OrderPending, models.OrderProcessing, models.OrderCompleted, models.OrderCancelled:
		default:
			t.Errorf("MapStatus(%q) returned an unknown status", in)
		}
	}
}

func TestIsPartial(t *testing.T) {
	if !IsPartial("Partial") {
		t.Error("Expected Partial to be partial")
	}
	if IsPartial("Completed") {
		t.Error("Expected Completed not to be partial")
	}
}
