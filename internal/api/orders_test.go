package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/provider"
	"smm-panel-go/internal/store"

	"github.com/shopspring/decimal"
)

func setupOrderPanel(t *testing.T) (*testPanel, *models.Profile) {
	p := setupPanel(t)
	p.addProvider(t, "main", 1, true)
	p.upstream.services["main"] = []models.ServiceItem{
		{Service: "101", Name: "Instagram Followers", Rate: decimal.RequireFromString("1000"), Min: 100, Max: 10000},
	}
	return p, p.createUser(t, "alice")
}

func TestPlaceOrder(t *testing.T) {
	p, user := setupOrderPanel(t)

	placement, err := p.svc.PlaceOrder(context.Background(), p.bearer(t, user.Id),
		models.OrderRequest{Service: "101", Link: "https://instagram.com/alice", Quantity: 500})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if placement.ExternalOrderId == "" {
		t.Error("Expected external order id")
	}
	if p.upstream.addCalls.Load() != 1 {
		t.Errorf("Expected exactly one upstream call, got %d", p.upstream.addCalls.Load())
	}
	if got := p.balance(t, user.Id); !got.IsZero() {
		t.Errorf("PlaceOrder must not move money, balance %s", got.String())
	}
}

func TestPlaceOrder_AuthorizationBeforeUpstream(t *testing.T) {
	p, user := setupOrderPanel(t)
	ctx := context.Background()
	req := models.OrderRequest{Service: "101", Link: "l", Quantity: 500}

	for _, bearer := range []string{"", "Bearer nonsense", "Bearer "} {
		_, err := p.svc.PlaceOrder(ctx, bearer, req)
		assertKind(t, err, KindAuthorization)
	}

	if err := p.svc.SetUserStatus(ctx, user.Id, models.ProfileSuspended); err != nil {
		t.Fatalf("SetUserStatus failed: %v", err)
	}
	_, err := p.svc.PlaceOrder(ctx, p.bearer(t, user.Id), req)
	assertKind(t, err, KindAuthorization)

	if p.upstream.addCalls.Load() != 0 {
		t.Errorf("Unauthorized calls reached upstream %d times", p.upstream.addCalls.Load())
	}
}

func TestPlaceOrder_UpstreamErrorVerbatim(t *testing.T) {
	p, user := setupOrderPanel(t)
	p.upstream.addErr = &provider.UpstreamError{ProviderId: "main", Message: "Incorrect service ID"}

	_, err := p.svc.PlaceOrder(context.Background(), p.bearer(t, user.Id), models.OrderRequest{Service: "999", Link: "l", Quantity: 5})
	assertKind(t, err, KindUpstream)
	if PublicMessage(err) != "Incorrect service ID" {
		t.Errorf("Expected verbatim upstream message, got %q", PublicMessage(err))
	}
}

func TestPlaceOrder_Validation(t *testing.T) {
	p, user := setupOrderPanel(t)
	bearer := p.bearer(t, user.Id)

	for _, req := range []models.OrderRequest{
		{Link: "l", Quantity: 1},
		{Service: "1", Quantity: 1},
		{Service: "1", Link: "l", Quantity: 0},
		{Service: "1", Link: "two words", Quantity: 1},
	} {
		_, err := p.svc.PlaceOrder(context.Background(), bearer, req)
		assertKind(t, err, KindValidation)
	}
}

func TestSyncOrderStatus(t *testing.T) {
	p, user := setupOrderPanel(t)
	p.upstream.statuses["777"] = &models.OrderStatusResult{
		ExternalOrderId: "777", Status: models.OrderProcessing, UpstreamStatus: "In progress",
		Charge: "1.2", StartCount: "10", Remains: "90",
	}

	result, err := p.svc.SyncOrderStatus(context.Background(), p.bearer(t, user.Id), "777")
	if err != nil {
		t.Fatalf("SyncOrderStatus failed: %v", err)
	}
	if result.Status != models.OrderProcessing || result.Remains != "90" || result.StartCount != "10" || result.Charge != "1.2" {
		t.Errorf("Unexpected status result: %+v", result)
	}

	_, err = p.svc.SyncOrderStatus(context.Background(), p.bearer(t, user.Id), " ")
	assertKind(t, err, KindValidation)

	p.upstream.statusErr = &provider.UpstreamError{Message: "Incorrect order ID"}
	_, err = p.svc.SyncOrderStatus(context.Background(), p.bearer(t, user.Id), "777")
	assertKind(t, err, KindUpstream)
	if PublicMessage(err) != "Incorrect order ID" {
		t.Errorf("Expected verbatim upstream message, got %q", PublicMessage(err))
	}
}

func TestPurchaseOrder_ChargesAndRecords(t *testing.T) {
	p, user := setupOrderPanel(t)
	p.fund(t, user.Id, "1000")

	// 1000 per 1000 units, 500 units, 20% markup = 600
	order, err := p.svc.PurchaseOrder(context.Background(), p.bearer(t, user.Id),
		models.OrderRequest{Service: "101", Link: "https://instagram.com/alice", Quantity: 500})
	if err != nil {
		t.Fatalf("PurchaseOrder failed: %v", err)
	}
	if !order.Charge.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected charge 600, got %s", order.Charge.String())
	}
	if order.Status != models.OrderPending || order.ExternalOrderId == "" || order.ProviderId != "main" {
		t.Errorf("Unexpected order: %+v", order)
	}
	if got := p.balance(t, user.Id); !got.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected balance 400, got %s", got.String())
	}
}

func TestPurchaseOrder_RefundsOnUpstreamError(t *testing.T) {
	p, user := setupOrderPanel(t)
	p.fund(t, user.Id, "1000")
	p.upstream.addErr = &provider.UpstreamError{Message: "Not enough funds on balance"}

	_, err := p.svc.PurchaseOrder(context.Background(), p.bearer(t, user.Id),
		models.OrderRequest{Service: "101", Link: "https://instagram.com/alice", Quantity: 500})
	assertKind(t, err, KindUpstream)

	if got := p.balance(t, user.Id); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected balance restored to 1000, got %s", got.String())
	}
	open, _ := p.db.ListOpenOrders(context.Background(), 10)
	if len(open) != 0 {
		t.Errorf("Failed purchase must not record an order, got %d", len(open))
	}
	if err := p.db.ReconcileBalance(context.Background(), user.Id); err != nil {
		t.Errorf("Ledger out of balance after refund: %v", err)
	}
}

// refundFailingStore fails every refund write and passes everything else through
type refundFailingStore struct {
	store.PanelStore
}

func (r refundFailingStore) ApplyTransaction(ctx context.Context, params store.ApplyTransactionParams) (*models.Transaction, error) {
	if strings.HasPrefix(params.ReferenceId, "REFUND-") {
		return nil, errors.New("disk I/O error")
	}
	return r.PanelStore.ApplyTransaction(ctx, params)
}

func TestPurchaseOrder_RefundFailureReported(t *testing.T) {
	p, user := setupOrderPanel(t)
	p.fund(t, user.Id, "1000")
	p.upstream.addErr = &provider.UpstreamError{Message: "Not enough funds on balance"}
	svc := NewPanelService(refundFailingStore{p.db}, p.upstream, p.svc.auth, p.notifier, p.svc.cfg)

	_, err := svc.PurchaseOrder(context.Background(), p.bearer(t, user.Id),
		models.OrderRequest{Service: "101", Link: "https://instagram.com/alice", Quantity: 500})
	assertKind(t, err, KindInternal)
	if msg := PublicMessage(err); !strings.Contains(msg, "refund pending") {
		t.Errorf("Expected refund pending message, got %q", msg)
	}
	if got := p.balance(t, user.Id); !got.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected the charge to remain debited (400), got %s", got.String())
	}
}

func TestPurchaseOrder_UnknownOutcomeHoldsCharge(t *testing.T) {
	p, user := setupOrderPanel(t)
	p.fund(t, user.Id, "1000")
	p.upstream.addErr = fmt.Errorf("provider main add request failed: %w", context.DeadlineExceeded)

	_, err := p.svc.PurchaseOrder(context.Background(), p.bearer(t, user.Id),
		models.OrderRequest{Service: "101", Link: "https://instagram.com/alice", Quantity: 500})
	assertKind(t, err, KindUpstream)
	if msg := PublicMessage(err); !strings.Contains(msg, "held") {
		t.Errorf("Expected held charge message, got %q", msg)
	}

	if got := p.balance(t, user.Id); !got.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Charge must not be refunded when the order may exist upstream, got %s", got.String())
	}
	history, err := p.db.GetTransactionHistory(context.Background(), user.Id, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	for _, tx := range history {
		if tx.Type == models.TransactionRefund {
			t.Errorf("Unexpected refund %s", tx.ReferenceId)
		}
	}
}

func TestPurchaseOrder_Rejections(t *testing.T) {
	p, user := setupOrderPanel(t)
	bearer := p.bearer(t, user.Id)
	ctx := context.Background()

	_, err := p.svc.PurchaseOrder(ctx, bearer, models.OrderRequest{Service: "101", Link: "l", Quantity: 500})
	assertKind(t, err, KindValidation) // insufficient balance

	_, err = p.svc.PurchaseOrder(ctx, bearer, models.OrderRequest{Service: "101", Link: "l", Quantity: 50})
	assertKind(t, err, KindValidation) // below min

	_, err = p.svc.PurchaseOrder(ctx, bearer, models.OrderRequest{Service: "404", Link: "l", Quantity: 500})
	assertKind(t, err, KindValidation) // unknown service

	if p.upstream.addCalls.Load() != 0 {
		t.Errorf("Rejected purchases reached upstream %d times", p.upstream.addCalls.Load())
	}
}

func placeTestOrder(t *testing.T, p *testPanel, user *models.Profile) *models.Order {
	t.Helper()
	p.fund(t, user.Id, "1000")
	// 500 units at 1000 per 1000 with 20% markup
	order, err := p.svc.PurchaseOrder(context.Background(), p.bearer(t, user.Id),
		models.OrderRequest{Service: "101", Link: "https://instagram.com/alice", Quantity: 500})
	if err != nil {
		t.Fatalf("PurchaseOrder failed: %v", err)
	}
	return order
}

func TestRefreshOrder_CancelledRefundsOnce(t *testing.T) {
	p, user := setupOrderPanel(t)
	order := placeTestOrder(t, p, user)
	p.upstream.statuses[order.ExternalOrderId] = &models.OrderStatusResult{
		ExternalOrderId: order.ExternalOrderId, Status: models.OrderCancelled, UpstreamStatus: "Canceled",
		StartCount: "0", Remains: "500",
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := p.svc.RefreshOrder(ctx, *order); err != nil {
			t.Fatalf("RefreshOrder #%d failed: %v", i+1, err)
		}
	}

	if got := p.balance(t, user.Id); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected one full refund to 1000, got %s", got.String())
	}

	stored, err := p.db.GetOrderById(ctx, order.Id)
	if err != nil {
		t.Fatalf("GetOrderById failed: %v", err)
	}
	if stored.Status != models.OrderCancelled || stored.SyncedAt == nil {
		t.Errorf("Expected synced cancelled order, got %+v", stored)
	}

	tx, err := p.db.GetTransactionByReference(ctx, "CANCEL-"+order.Id)
	if err != nil || tx == nil {
		t.Fatalf("Expected cancel refund transaction, got %v (%v)", tx, err)
	}
	if tx.Type != models.TransactionRefund {
		t.Errorf("Expected refund type, got %s", tx.Type)
	}
}

func TestRefreshOrder_PartialRefundsRemains(t *testing.T) {
	p, user := setupOrderPanel(t)
	order := placeTestOrder(t, p, user)
	p.upstream.statuses[order.ExternalOrderId] = &models.OrderStatusResult{
		ExternalOrderId: order.ExternalOrderId, Status: models.OrderCompleted, UpstreamStatus: "Partial",
		StartCount: "40", Remains: "100",
	}

	if _, err := p.svc.RefreshOrder(context.Background(), *order); err != nil {
		t.Fatalf("RefreshOrder failed: %v", err)
	}

	// 100 of 500 undelivered: 600 * 100 / 500 = 120 back
	if got := p.balance(t, user.Id); !got.Equal(decimal.NewFromInt(520)) {
		t.Errorf("Expected balance 520 after partial refund, got %s", got.String())
	}
	open, _ := p.db.ListOpenOrders(context.Background(), 10)
	if len(open) != 0 {
		t.Errorf("Partial order should be terminal, %d still open", len(open))
	}
}

func TestRefreshOrder_ProcessingMovesNoMoney(t *testing.T) {
	p, user := setupOrderPanel(t)
	order := placeTestOrder(t, p, user)
	p.upstream.statuses[order.ExternalOrderId] = &models.OrderStatusResult{
		ExternalOrderId: order.ExternalOrderId, Status: models.OrderProcessing, UpstreamStatus: "In progress",
		StartCount: "40", Remains: "300",
	}

	result, err := p.svc.RefreshOrder(context.Background(), *order)
	if err != nil {
		t.Fatalf("RefreshOrder failed: %v", err)
	}
	if result.Status != models.OrderProcessing {
		t.Errorf("Expected processing, got %s", result.Status)
	}
	if got := p.balance(t, user.Id); !got.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected balance unchanged at 400, got %s", got.String())
	}

	open, _ := p.db.ListOpenOrders(context.Background(), 10)
	if len(open) != 1 || open[0].Remains != "300" {
		t.Errorf("Expected order still open with remains 300, got %+v", open)
	}
}

func TestPartialRefund(t *testing.T) {
	order := models.Order{Quantity: 1000, Charge: decimal.RequireFromString("12.50")}
	tests := []struct {
		remains string
		want    string
	}{
		{"0", "0"},
		{"", "0"},
		{"abc", "0"},
		{"200", "2.5"},
		{"1000", "12.5"},
		{"5000", "12.5"},
		{"333", "4.16"},
	}
	for _, tt := range tests {
		got := partialRefund(order, tt.remains)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("partialRefund(%q) = %s, want %s", tt.remains, got.String(), tt.want)
		}
	}
}
