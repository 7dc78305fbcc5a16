package store

import (
	"context"
	"errors"
	"time"

	"smm-panel-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrDuplicateReference     = errors.New("duplicate reference")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrUserNotFound           = errors.New("user not found")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrEmailBlocked           = errors.New("email is blocked")
	ErrEmailTaken             = errors.New("email already registered")
	ErrProviderNotFound       = errors.New("provider not found")
	ErrNoPrimaryProvider      = errors.New("no enabled primary provider")
	ErrOrderNotFound          = errors.New("order not found")
	ErrCodeNotFound           = errors.New("deposit code not found")
	ErrCodeExpired            = errors.New("deposit code expired")
	ErrCodeMismatch           = errors.New("deposit code mismatch")
	ErrAmbiguousReference     = errors.New("reference matches more than one user")
	ErrSettingNotFound        = errors.New("setting not found")
)

// CreateProfileParams contains the parameters for provisioning a user.
type CreateProfileParams struct {
	Id       string
	Username string
	Email    string
}

// ApplyTransactionParams describes one balance mutation. Amount is signed:
// deposits and refunds are positive, order debits are negative.
type ApplyTransactionParams struct {
	UserId      string
	Type        models.TransactionType
	Amount      decimal.Decimal
	ReferenceId string
	Gateway     models.Gateway
	Description string
}

// CreateOrderParams contains the parameters for recording a placed order.
type CreateOrderParams struct {
	UserId          string
	ServiceId       string
	ProviderId      string
	Link            string
	Quantity        int64
	ExternalOrderId string
	Charge          decimal.Decimal
}

// RedeemDepositCodeParams identifies a code to redeem and the ledger entry
// its amount is credited under.
type RedeemDepositCodeParams struct {
	CodeKey     string
	Code        string
	ReferenceId string
	Gateway     models.Gateway
	Description string
}

// UpdateOrderStatusParams carries a synced upstream status back to the local order.
type UpdateOrderStatusParams struct {
	OrderId    string
	Status     models.OrderStatus
	StartCount string
	Remains    string
	SyncedAt   time.Time
}

// PanelStore defines the contract that every storage backend must satisfy.
type PanelStore interface {
	// --- Profiles ---
	GetProfiles(ctx context.Context) ([]models.Profile, error)
	GetProfileById(ctx context.Context, userId string) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	FindProfilesByIdPrefix(ctx context.Context, prefix string) ([]models.Profile, error)
	CreateProfile(ctx context.Context, params CreateProfileParams) (*models.Profile, error)
	DeleteProfile(ctx context.Context, userId, reason string) error
	SetProfileStatus(ctx context.Context, userId string, status models.ProfileStatus) error
	TouchLogin(ctx context.Context, userId, ip, location string, at time.Time) error
	IsEmailBlocked(ctx context.Context, email string) (bool, error)

	// --- Ledger ---
	ApplyTransaction(ctx context.Context, params ApplyTransactionParams) (*models.Transaction, error)
	GetTransactionByReference(ctx context.Context, referenceId string) (*models.Transaction, error)
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
	GetBalance(ctx context.Context, userId string) (decimal.Decimal, error)
	ReconcileBalance(ctx context.Context, userId string) error

	// --- Providers ---
	ListEnabledProviders(ctx context.Context) ([]models.ApiProvider, error)
	GetPrimaryProvider(ctx context.Context) (*models.ApiProvider, error)
	GetProviderById(ctx context.Context, providerId string) (*models.ApiProvider, error)
	UpsertProvider(ctx context.Context, provider models.ApiProvider) error

	// --- Orders ---
	CreateOrder(ctx context.Context, params CreateOrderParams) (*models.Order, error)
	GetOrderById(ctx context.Context, orderId string) (*models.Order, error)
	ListOpenOrders(ctx context.Context, limit int) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, params UpdateOrderStatusParams) error

	// --- Deposit confirmation codes ---
	InsertDepositCode(ctx context.Context, code models.DepositConfirmationCode) error
	GetDepositCode(ctx context.Context, codeKey string) (*models.DepositConfirmationCode, error)
	DeleteDepositCode(ctx context.Context, codeKey string) (bool, error)
	ConsumeDepositCode(ctx context.Context, codeKey, code string) (*models.DepositConfirmationCode, error)
	RedeemDepositCode(ctx context.Context, params RedeemDepositCodeParams) (*models.DepositConfirmationCode, *models.Transaction, error)
	DeleteExpiredDepositCodes(ctx context.Context, now time.Time) (int64, error)

	// --- Settings ---
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
