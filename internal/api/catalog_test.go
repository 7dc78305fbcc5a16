package api

import (
	"context"
	"errors"
	"testing"

	"smm-panel-go/internal/models"

	"github.com/shopspring/decimal"
)

func TestListServices_SkipsFailingProvider(t *testing.T) {
	p := setupPanel(t)
	p.addProvider(t, "alpha", 1, true)
	p.addProvider(t, "beta", 2, false)
	p.addProvider(t, "gamma", 3, false)

	p.upstream.services["alpha"] = []models.ServiceItem{
		{Service: "1", Name: "Followers", Rate: decimal.RequireFromString("1.5"), Min: 10, Max: 1000},
		{Service: "2", Name: "Likes", Rate: decimal.RequireFromString("0.8"), Min: 10, Max: 5000},
	}
	p.upstream.services["beta"] = []models.ServiceItem{{Service: "9", Name: "Views"}}
	p.upstream.listErr["beta"] = errors.New("connection refused")
	p.upstream.services["gamma"] = []models.ServiceItem{
		{Service: "1", Name: "Subscribers", Rate: decimal.RequireFromString("4"), Min: 50, Max: 500},
	}

	services, err := p.svc.ListServices(context.Background())
	if err != nil {
		t.Fatalf("ListServices failed: %v", err)
	}
	if len(services) != 3 {
		t.Fatalf("Expected 3 services, got %d: %+v", len(services), services)
	}

	wantProviders := []string{"alpha", "alpha", "gamma"}
	for i, item := range services {
		if item.ProviderId != wantProviders[i] {
			t.Errorf("services[%d] provider = %s, want %s", i, item.ProviderId, wantProviders[i])
		}
		if item.ProviderName != "Provider "+item.ProviderId {
			t.Errorf("services[%d] not tagged with provider name: %q", i, item.ProviderName)
		}
	}
	if services[2].Name != "Subscribers" {
		t.Errorf("Expected gamma's item last, got %s", services[2].Name)
	}
}

func TestListServices_DisabledProviderIgnored(t *testing.T) {
	p := setupPanel(t)
	p.addProvider(t, "alpha", 1, true)
	err := p.db.UpsertProvider(context.Background(), models.ApiProvider{
		ProviderId: "off", Name: "Off", ApiUrl: "https://off.example", ApiKey: "k", IsEnabled: false, DisplayOrder: 0,
	})
	if err != nil {
		t.Fatalf("UpsertProvider failed: %v", err)
	}
	p.upstream.services["alpha"] = []models.ServiceItem{{Service: "1", Name: "Followers"}}
	p.upstream.services["off"] = []models.ServiceItem{{Service: "2", Name: "Hidden"}}

	services, err := p.svc.ListServices(context.Background())
	if err != nil {
		t.Fatalf("ListServices failed: %v", err)
	}
	if len(services) != 1 || services[0].ProviderId != "alpha" {
		t.Errorf("Expected only the enabled provider's catalog, got %+v", services)
	}
}

func TestListServices_Empty(t *testing.T) {
	p := setupPanel(t)

	services, err := p.svc.ListServices(context.Background())
	if err != nil {
		t.Fatalf("ListServices failed: %v", err)
	}
	if services == nil || len(services) != 0 {
		t.Errorf("Expected empty non-nil list, got %#v", services)
	}
}
