package api

import (
	"context"
	"strings"
	"testing"

	"smm-panel-go/internal/models"
	"smm-panel-go/internal/payment"
)

func TestCreateUser(t *testing.T) {
	p := setupPanel(t)
	ctx := context.Background()

	user := p.createUser(t, "alice")
	if user.Status != models.ProfileActive || !user.Balance.IsZero() {
		t.Errorf("Expected active empty wallet, got %+v", user)
	}

	_, err := p.svc.CreateUser(ctx, "alice2", "alice@example.com")
	assertKind(t, err, KindConflict)

	_, err = p.svc.CreateUser(ctx, "bob", "not-an-email")
	assertKind(t, err, KindValidation)

	_, err = p.svc.CreateUser(ctx, " ", "bob@example.com")
	assertKind(t, err, KindValidation)
}

func TestDeleteUser_BlocksEmail(t *testing.T) {
	p := setupPanel(t)
	ctx := context.Background()
	user := p.createUser(t, "mallory")

	if err := p.svc.DeleteUser(ctx, user.Id, "chargeback"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	_, err := p.svc.CreateUser(ctx, "mallory", "Mallory@Example.com")
	assertKind(t, err, KindConflict)

	err = p.svc.DeleteUser(ctx, user.Id, "again")
	assertKind(t, err, KindNotFound)
}

func TestSetUserStatus(t *testing.T) {
	p := setupPanel(t)
	ctx := context.Background()
	user := p.createUser(t, "alice")

	err := p.svc.SetUserStatus(ctx, user.Id, models.ProfileStatus("banned"))
	assertKind(t, err, KindValidation)

	err = p.svc.SetUserStatus(ctx, "missing", models.ProfilePaused)
	assertKind(t, err, KindNotFound)

	if err := p.svc.SetUserStatus(ctx, user.Id, models.ProfilePaused); err != nil {
		t.Fatalf("SetUserStatus failed: %v", err)
	}
	profile, _ := p.db.GetProfileById(ctx, user.Id)
	if profile.Status != models.ProfilePaused {
		t.Errorf("Expected paused, got %s", profile.Status)
	}
}

func TestIssueUserToken_UnknownUser(t *testing.T) {
	p := setupPanel(t)
	_, _, err := p.svc.IssueUserToken(context.Background(), "missing")
	assertKind(t, err, KindNotFound)
}

func TestRecordSession(t *testing.T) {
	p := setupPanel(t)
	user := p.createUser(t, "alice")
	p.fund(t, user.Id, "42.50")

	ctx := models.WithRequestMeta(context.Background(), &models.RequestMeta{RemoteIp: "203.0.113.7", Location: "NG"})
	session, err := p.svc.RecordSession(ctx, p.bearer(t, user.Id))
	if err != nil {
		t.Fatalf("RecordSession failed: %v", err)
	}
	if session.UserId != user.Id || session.Balance.String() != "42.5" {
		t.Errorf("Unexpected session: %+v", session)
	}

	profile, _ := p.db.GetProfileById(context.Background(), user.Id)
	if profile.LastIp != "203.0.113.7" || profile.LastLocation != "NG" || profile.LastLoginAt == nil {
		t.Errorf("Login not recorded: %+v", profile)
	}

	_, err = p.svc.RecordSession(ctx, "")
	assertKind(t, err, KindAuthorization)
}

func TestNewPaymentReference(t *testing.T) {
	p := setupPanel(t)
	user := p.createUser(t, "alice")
	ctx := context.Background()
	bearer := p.bearer(t, user.Id)

	ref, err := p.svc.NewPaymentReference(ctx, bearer, models.GatewayPaystack)
	if err != nil {
		t.Fatalf("NewPaymentReference failed: %v", err)
	}
	if !strings.HasPrefix(ref, "PS-") {
		t.Errorf("Expected PS- reference, got %s", ref)
	}
	parsed, err := payment.ParseReference(ref, payment.PaystackPrefix)
	if err != nil || parsed.UserId != user.Id {
		t.Errorf("Reference does not round-trip to user: %+v (%v)", parsed, err)
	}

	ref, err = p.svc.NewPaymentReference(ctx, bearer, models.GatewayKorapay)
	if err != nil || !strings.HasPrefix(ref, "KP-"+user.Id+"-") {
		t.Errorf("Expected full-id KP reference, got %s (%v)", ref, err)
	}

	_, err = p.svc.NewPaymentReference(ctx, bearer, models.GatewayManual)
	assertKind(t, err, KindValidation)
}

func TestTransactionHistoryAndReconcile(t *testing.T) {
	p := setupPanel(t)
	user := p.createUser(t, "alice")
	p.fund(t, user.Id, "10")
	p.fund(t, user.Id, "5")

	history, err := p.svc.GetTransactionHistory(context.Background(), p.bearer(t, user.Id), 0, -1)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(history))
	}

	drifted, err := p.svc.ReconcileAllBalances(context.Background())
	if err != nil {
		t.Fatalf("ReconcileAllBalances failed: %v", err)
	}
	if len(drifted) != 0 {
		t.Errorf("Expected no drift, got %v", drifted)
	}

	balance, err := p.svc.GetUserBalance(context.Background(), user.Id)
	if err != nil || balance.String() != "15" {
		t.Errorf("Expected balance 15, got %s (%v)", balance.String(), err)
	}
	_, err = p.svc.GetUserBalance(context.Background(), "missing")
	assertKind(t, err, KindNotFound)
}
