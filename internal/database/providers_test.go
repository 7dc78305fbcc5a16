package database

import (
	"context"
	"errors"
	"testing"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/store"
)

func TestProviders_OrderingAndPrimary(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.GetPrimaryProvider(ctx); !errors.Is(err, store.ErrNoPrimaryProvider) {
		t.Fatalf("Expected no primary provider, got %v", err)
	}

	providers := []models.ApiProvider{
		{ProviderId: "p3", Name: "Third", ApiUrl: "https://three.example/api/v2", IsEnabled: true, DisplayOrder: 3},
		{ProviderId: "p1", Name: "First", ApiUrl: "https://one.example/api/v2", IsEnabled: true, IsPrimary: true, DisplayOrder: 1},
		{ProviderId: "p2", Name: "Disabled", ApiUrl: "https://two.example/api/v2", IsEnabled: false, DisplayOrder: 2},
	}
	for _, p := range providers {
		if err := service.UpsertProvider(ctx, p); err != nil {
			t.Fatalf("UpsertProvider %s failed: %v", p.ProviderId, err)
		}
	}

	enabled, err := service.ListEnabledProviders(ctx)
	if err != nil {
		t.Fatalf("ListEnabledProviders failed: %v", err)
	}
	if len(enabled) != 2 || enabled[0].ProviderId != "p1" || enabled[1].ProviderId != "p3" {
		t.Fatalf("Unexpected provider order: %+v", enabled)
	}

	primary, err := service.GetPrimaryProvider(ctx)
	if err != nil {
		t.Fatalf("GetPrimaryProvider failed: %v", err)
	}
	if primary.ProviderId != "p1" {
		t.Errorf("Expected p1 primary, got %s", primary.ProviderId)
	}

	// Upsert replaces in place
	updated := providers[1]
	updated.ApiKey = "rotated"
	if err := service.UpsertProvider(ctx, updated); err != nil {
		t.Fatalf("UpsertProvider update failed: %v", err)
	}
	got, err := service.GetProviderById(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProviderById failed: %v", err)
	}
	if got.ApiKey != "rotated" {
		t.Errorf("Expected rotated key, got %q", got.ApiKey)
	}

	if _, err := service.GetProviderById(ctx, "nope"); !errors.Is(err, store.ErrProviderNotFound) {
		t.Errorf("Expected provider not found, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.GetSetting(ctx, "telegram_chat_id"); !errors.Is(err, store.ErrSettingNotFound) {
		t.Fatalf("Expected setting not found, got %v", err)
	}
	if err := service.SetSetting(ctx, "telegram_chat_id", "111"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := service.SetSetting(ctx, "telegram_chat_id", "222"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}
	value, err := service.GetSetting(ctx, "telegram_chat_id")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if value != "222" {
		t.Errorf("Expected 222, got %q", value)
	}
}
