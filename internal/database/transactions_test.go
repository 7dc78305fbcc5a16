package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Every connection to :memory: is a fresh database, so pin one
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	service := newServiceFromDB(db)

	// Use the actual schema initialization
	if err := service.initSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	if err := service.subledger.InitSchema(); err != nil {
		t.Fatalf("Failed to create subledger schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func createTestProfile(t *testing.T, service *Service, id, email string) *models.Profile {
	t.Helper()
	profile, err := service.CreateProfile(context.Background(), store.CreateProfileParams{
		Id:       id,
		Username: "user-" + id,
		Email:    email,
	})
	if err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	return profile
}

func TestApplyTransaction_Deposit(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestProfile(t, service, "user1", "user1@example.com")
	amount := decimal.RequireFromString("5000")

	result, err := service.ApplyTransaction(ctx, store.ApplyTransactionParams{
		UserId:      "user1",
		Type:        models.TransactionDeposit,
		Amount:      amount,
		ReferenceId: "PS-user1-1700000000000",
		Gateway:     models.GatewayPaystack,
	})
	if err != nil {
		t.Fatalf("ApplyTransaction failed: %v", err)
	}

	if result.UserId != "user1" {
		t.Errorf("Expected userId user1, got %s", result.UserId)
	}
	if result.Type != models.TransactionDeposit {
		t.Errorf("Expected type deposit, got %s", result.Type)
	}
	if !result.Amount.Equal(amount) {
		t.Errorf("Expected amount %s, got %s", amount.String(), result.Amount.String())
	}
	if !result.BalanceBefore.IsZero() {
		t.Errorf("Expected balance before 0, got %s", result.BalanceBefore.String())
	}
	if !result.BalanceAfter.Equal(amount) {
		t.Errorf("Expected balance %s, got %s", amount.String(), result.BalanceAfter.String())
	}

	balance, err := service.GetBalance(ctx, "user1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.Equal(amount) {
		t.Errorf("Expected stored balance %s, got %s", amount.String(), balance.String())
	}
}

func TestApplyTransaction_Debit(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestProfile(t, service, "user1", "user1@example.com")

	_, err := service.ApplyTransaction(ctx, store.ApplyTransactionParams{
		UserId: "user1", Type: models.TransactionDeposit, Amount: decimal.RequireFromString("2000"), ReferenceId: "dep-1",
	})
	if err != nil {
		t.Fatalf("Initial deposit failed: %v", err)
	}

	result, err := service.ApplyTransaction(ctx, store.ApplyTransactionParams{
		UserId: "user1", Type: models.TransactionOrder, Amount: decimal.RequireFromString("-750.50"), ReferenceId: "ORDER-1",
	})
	if err != nil {
		t.Fatalf("Debit failed: %v", err)
	}

	expectedBalance := decimal.RequireFromString("1249.50")
	if !result.BalanceAfter.Equal(expectedBalance) {
		t.Errorf("Expected balance %s, got %s", expectedBalance.String(), result.BalanceAfter.String())
	}
}

func TestApplyTransaction_DuplicateReference(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestProfile(t, service, "user1", "user1@example.com")
	params := store.ApplyTransactionParams{
		UserId: "user1", Type: models.TransactionDeposit, Amount: decimal.RequireFromString("100"), ReferenceId: "KP-user1-1",
	}

	if _, err := service.ApplyTransaction(ctx, params); err != nil {
		t.Fatalf("First ApplyTransaction failed: %v", err)
	}

	_, err := service.ApplyTransaction(ctx, params)
	if !errors.Is(err, store.ErrDuplicateReference) {
		t.Fatalf("Expected duplicate reference error, got: %v", err)
	}

	balance, _ := service.GetBalance(ctx, "user1")
	if !balance.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Replay must not move the balance, got %s", balance.String())
	}
}

func TestApplyTransaction_InsufficientBalance(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestProfile(t, service, "user1", "user1@example.com")

	_, err := service.ApplyTransaction(ctx, store.ApplyTransactionParams{
		UserId: "user1", Type: models.TransactionOrder, Amount: decimal.RequireFromString("-1"), ReferenceId: "ORDER-x",
	})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Expected insufficient balance error, got: %v", err)
	}

	// The failed debit must not burn its reference
	if tx, err := service.GetTransactionByReference(ctx, "ORDER-x"); err != nil || tx != nil {
		t.Errorf("Expected no transaction for failed debit, got %+v (err %v)", tx, err)
	}
}

func TestApplyTransaction_UnknownUser(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.ApplyTransaction(context.Background(), store.ApplyTransactionParams{
		UserId: "ghost", Type: models.TransactionDeposit, Amount: decimal.RequireFromString("10"), ReferenceId: "r1",
	})
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("Expected user not found, got: %v", err)
	}
}

func TestApplyTransaction_ConcurrentDuplicatesCreditOnce(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestProfile(t, service, "user1", "user1@example.com")

	const deliveries = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	credited, duplicates := 0, 0

	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.ApplyTransaction(ctx, store.ApplyTransactionParams{
				UserId: "user1", Type: models.TransactionDeposit, Amount: decimal.RequireFromString("250"), ReferenceId: "PS-user1-42",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				credited++
			case errors.Is(err, store.ErrDuplicateReference):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if credited != 1 || duplicates != deliveries-1 {
		t.Errorf("Expected 1 credit and %d duplicates, got %d and %d", deliveries-1, credited, duplicates)
	}

	balance, _ := service.GetBalance(ctx, "user1")
	if !balance.Equal(decimal.RequireFromString("250")) {
		t.Errorf("Expected balance 250, got %s", balance.String())
	}
}

func TestGetTransactionHistory(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestProfile(t, service, "user1", "user1@example.com")

	for _, ref := range []string{"a", "b", "c"} {
		_, err := service.ApplyTransaction(ctx, store.ApplyTransactionParams{
			UserId: "user1", Type: models.TransactionDeposit, Amount: decimal.RequireFromString("1"), ReferenceId: ref,
		})
		if err != nil {
			t.Fatalf("ApplyTransaction %s failed: %v", ref, err)
		}
	}

	history, err := service.GetTransactionHistory(ctx, "user1", 2, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(history))
	}

	all, err := service.GetTransactionHistory(ctx, "user1", 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 transactions, got %d", len(all))
	}
}
