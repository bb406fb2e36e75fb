package repository

import (
	"context"
	"time"

	"github.com/moogmodular/asksats-sub000/internal/models"
	"github.com/moogmodular/asksats-sub000/internal/money"
)

// Repository interface defines the methods that any repository implementation
// must satisfy. The money-moving operations are atomic: every precondition is
// re-validated inside the implementation's own transaction scope, and either
// all sub-steps apply or none do.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Space operations
	CreateSpace(ctx context.Context, space *models.Space) error
	GetSpaceByName(ctx context.Context, name string) (*models.Space, error)
	GetSpaceByID(ctx context.Context, id string) (*models.Space, error)
	ListSpaces(ctx context.Context) ([]models.Space, error)

	// Ask reads
	GetAsk(ctx context.Context, id string) (*models.Ask, error)
	ListAsks(ctx context.Context, spaceID string) ([]models.Ask, error)
	BumpSum(ctx context.Context, askID string) (money.Msat, error)
	ListBumps(ctx context.Context, askID string) ([]models.Bump, error)
	HasBumped(ctx context.Context, askID, userID string) (bool, error)
	CountOffers(ctx context.Context, askID string) (int, error)

	// Offer operations
	CreateOffer(ctx context.Context, offer *models.Offer, now time.Time) error
	GetOffer(ctx context.Context, id string) (*models.Offer, error)
	ListOffers(ctx context.Context, askID string) ([]models.Offer, error)

	// Atomic ledger operations
	CreateAskWithStake(ctx context.Context, ask *models.Ask, firstBump *models.Bump) error
	AddBump(ctx context.Context, bump *models.Bump, now time.Time) (money.Msat, error)
	CancelAskAndRefund(ctx context.Context, askID string) error
	SettleAskAndPayout(ctx context.Context, askID, offerID string, now time.Time) (money.Msat, error)

	// Transaction log
	CreateTransaction(ctx context.Context, txn *models.Transaction, now time.Time) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	GetTransactionByHash(ctx context.Context, hash string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	SettleInvoiceTransaction(ctx context.Context, id string, amount money.Msat, now time.Time) error
	CancelTransaction(ctx context.Context, id string) error
	SettleWithdrawalTransaction(ctx context.Context, k1 string, confirmed, fee money.Msat, now time.Time) (money.Msat, error)
}
