package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/store"

	"github.com/shopspring/decimal"
)

func newTestCode(key string, now time.Time, ttl time.Duration) models.DepositConfirmationCode {
	return models.DepositConfirmationCode{
		CodeKey:   key,
		Code:      "123456",
		UserId:    "user1",
		Username:  "alice",
		Amount:    decimal.RequireFromString("15000"),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestDepositCode_InsertAndGet(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := service.InsertDepositCode(ctx, newTestCode("key1", now, 10*time.Minute)); err != nil {
		t.Fatalf("InsertDepositCode failed: %v", err)
	}

	code, err := service.GetDepositCode(ctx, "key1")
	if err != nil {
		t.Fatalf("GetDepositCode failed: %v", err)
	}
	if code.Code != "123456" || code.Username != "alice" {
		t.Errorf("Unexpected code record: %+v", code)
	}
	if !code.Amount.Equal(decimal.RequireFromString("15000")) {
		t.Errorf("Expected amount 15000, got %s", code.Amount.String())
	}
	if !code.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Errorf("Expected expiry %v, got %v", now.Add(10*time.Minute), code.ExpiresAt)
	}

	if _, err := service.GetDepositCode(ctx, "nope"); !errors.Is(err, store.ErrCodeNotFound) {
		t.Errorf("Expected code not found, got %v", err)
	}
}

func TestConsumeDepositCode_SingleUse(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.InsertDepositCode(ctx, newTestCode("key1", time.Now(), time.Minute)); err != nil {
		t.Fatalf("InsertDepositCode failed: %v", err)
	}

	if _, err := service.ConsumeDepositCode(ctx, "key1", "000000"); !errors.Is(err, store.ErrCodeNotFound) {
		t.Fatalf("Expected mismatch to leave nothing consumed, got %v", err)
	}
	if _, err := service.GetDepositCode(ctx, "key1"); err != nil {
		t.Fatalf("Mismatched code must keep the record: %v", err)
	}

	consumed, err := service.ConsumeDepositCode(ctx, "key1", "123456")
	if err != nil {
		t.Fatalf("ConsumeDepositCode failed: %v", err)
	}
	if consumed.UserId != "user1" {
		t.Errorf("Expected user1, got %s", consumed.UserId)
	}

	if _, err := service.ConsumeDepositCode(ctx, "key1", "123456"); !errors.Is(err, store.ErrCodeNotFound) {
		t.Errorf("Expected second consume to fail, got %v", err)
	}
}

func TestConsumeDepositCode_ConcurrentSingleWinner(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.InsertDepositCode(ctx, newTestCode("key1", time.Now(), time.Minute)); err != nil {
		t.Fatalf("InsertDepositCode failed: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.ConsumeDepositCode(ctx, "key1", "123456"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("Expected exactly one winner, got %d", winners)
	}
}

func TestDeleteExpiredDepositCodes(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()
	if err := service.InsertDepositCode(ctx, newTestCode("old", now.Add(-20*time.Minute), 10*time.Minute)); err != nil {
		t.Fatalf("InsertDepositCode failed: %v", err)
	}
	if err := service.InsertDepositCode(ctx, newTestCode("fresh", now, 10*time.Minute)); err != nil {
		t.Fatalf("InsertDepositCode failed: %v", err)
	}

	removed, err := service.DeleteExpiredDepositCodes(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredDepositCodes failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 expired code removed, got %d", removed)
	}
	if _, err := service.GetDepositCode(ctx, "fresh"); err != nil {
		t.Errorf("Fresh code should survive the sweep: %v", err)
	}

	deleted, err := service.DeleteDepositCode(ctx, "fresh")
	if err != nil || !deleted {
		t.Errorf("Expected fresh code deleted, got %v (err %v)", deleted, err)
	}
	deleted, err = service.DeleteDepositCode(ctx, "fresh")
	if err != nil || deleted {
		t.Errorf("Expected nothing to delete, got %v (err %v)", deleted, err)
	}
}

func TestRedeemDepositCode_CreditAndConsumeTogether(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.InsertDepositCode(ctx, newTestCode("key1", time.Now(), 10*time.Minute)); err != nil {
		t.Fatalf("InsertDepositCode failed: %v", err)
	}
	params := store.RedeemDepositCodeParams{
		CodeKey:     "key1",
		Code:        "123456",
		ReferenceId: "MANUAL-key1",
		Gateway:     models.GatewayManual,
		Description: "manual",
	}

	// No profile yet: the credit fails and the delete is rolled back with it
	if _, _, err := service.RedeemDepositCode(ctx, params); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("Expected user not found, got %v", err)
	}
	if _, err := service.GetDepositCode(ctx, "key1"); err != nil {
		t.Fatalf("Code must survive a failed credit, got %v", err)
	}

	createTestProfile(t, service, "user1", "alice@example.com")

	wrong := params
	wrong.Code = "000000"
	if _, _, err := service.RedeemDepositCode(ctx, wrong); !errors.Is(err, store.ErrCodeNotFound) {
		t.Errorf("Expected code not found for wrong code, got %v", err)
	}

	consumed, tx, err := service.RedeemDepositCode(ctx, params)
	if err != nil {
		t.Fatalf("RedeemDepositCode failed: %v", err)
	}
	if consumed.UserId != "user1" || tx.ReferenceId != "MANUAL-key1" || tx.Type != models.TransactionDeposit {
		t.Errorf("Unexpected redeem result: %+v %+v", consumed, tx)
	}
	if !tx.BalanceAfter.Equal(decimal.RequireFromString("15000")) {
		t.Errorf("Expected balance 15000, got %s", tx.BalanceAfter.String())
	}

	if _, _, err := service.RedeemDepositCode(ctx, params); !errors.Is(err, store.ErrCodeNotFound) {
		t.Errorf("Expected code not found on second redeem, got %v", err)
	}
}
