package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/moogmodular/asksats-sub000/internal/money"
)

// Role distinguishes regular users from admins.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AskKind controls who may bump an ask and who sees the winning deliverable.
type AskKind string

const (
	AskKindPublic     AskKind = "PUBLIC"
	AskKindPrivate    AskKind = "PRIVATE"
	AskKindBumpPublic AskKind = "BUMP_PUBLIC"
)

// AskStatus tracks owner-driven terminal actions only. The time-derived
// status is computed by TemporalStatus and never stored.
type AskStatus string

const (
	AskStatusOpen     AskStatus = "OPEN"
	AskStatusSettled  AskStatus = "SETTLED"
	AskStatusCanceled AskStatus = "CANCELED"
)

// TransactionKind marks the direction of an external money movement.
type TransactionKind string

const (
	TransactionKindInvoice    TransactionKind = "INVOICE"
	TransactionKindWithdrawal TransactionKind = "WITHDRAWAL"
)

// TransactionStatus transitions are monotone PENDING -> SETTLED|CANCELED.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusSettled  TransactionStatus = "SETTLED"
	TransactionStatusCanceled TransactionStatus = "CANCELED"
)

// User represents a user with a custodial balance. Balance fields are
// mutated only by the repository's atomic ledger operations.
type User struct {
	ID            string     `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	Name          string     `db:"name" json:"name"`
	Password      string     `db:"password" json:"-"` // Password hash, not returned in JSON
	Role          Role       `db:"role" json:"role"`
	AvailableMsat money.Msat `db:"available_msat" json:"-"`
	LockedMsat    money.Msat `db:"locked_msat" json:"-"`
	NotifyAddress *string    `db:"notify_address" json:"notifyAddress,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// Space groups asks under a topic; its owner earns a share of settled
// bounties.
type Space struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	OwnerID     *string   `db:"owner_id" json:"ownerId,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Ask is a bounty for an image. Its bumps form an append-only stake ledger;
// the favourite offer, once set, is the winner and terminal.
type Ask struct {
	ID                 string         `db:"id" json:"id"`
	OwnerID            string         `db:"owner_id" json:"ownerId"`
	SpaceID            string         `db:"space_id" json:"spaceId"`
	Kind               AskKind        `db:"kind" json:"kind"`
	Status             AskStatus      `db:"status" json:"status"`
	Title              string         `db:"title" json:"title"`
	Content            string         `db:"content" json:"content"`
	Tags               pq.StringArray `db:"tags" json:"tags"`
	FavouriteOfferID   *string        `db:"favourite_offer_id" json:"favouriteOfferId,omitempty"`
	DeadlineAt         time.Time      `db:"deadline_at" json:"deadlineAt"`
	AcceptedDeadlineAt time.Time      `db:"accepted_deadline_at" json:"acceptedDeadlineAt"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
}

// Bump is an immutable stake contribution to an ask's bounty.
type Bump struct {
	ID         string     `db:"id" json:"id"`
	AskID      string     `db:"ask_id" json:"askId"`
	BidderID   string     `db:"bidder_id" json:"bidderId"`
	AmountMsat money.Msat `db:"amount_msat" json:"amountMsat"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// Offer is a deliverable for an ask: an obscured preview plus a clear
// variant, both stored as opaque blob keys. One per author per ask.
type Offer struct {
	ID          string    `db:"id" json:"id"`
	AskID       string    `db:"ask_id" json:"askId"`
	AuthorID    string    `db:"author_id" json:"authorId"`
	Content     string    `db:"content" json:"content"`
	ObscuredKey string    `db:"obscured_key" json:"-"`
	ClearKey    string    `db:"clear_key" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Transaction records an external money movement attempt (deposit via
// invoice, or withdrawal). Hash holds the external reference: the payment
// hash for invoices, the k1 secret for withdrawals.
type Transaction struct {
	ID            string            `db:"id" json:"id"`
	UserID        *string           `db:"user_id" json:"userId,omitempty"`
	Kind          TransactionKind   `db:"kind" json:"kind"`
	Status        TransactionStatus `db:"status" json:"status"`
	TargetMsat    money.Msat        `db:"target_msat" json:"targetMsat"`
	SettledMsat   money.Msat        `db:"settled_msat" json:"settledMsat"`
	Hash          string            `db:"hash" json:"hash"`
	PayRequest    string            `db:"pay_request" json:"payRequest,omitempty"`
	MaxAgeSeconds int64             `db:"max_age_seconds" json:"maxAgeSeconds"`
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
	ConfirmedAt   *time.Time        `db:"confirmed_at" json:"confirmedAt,omitempty"`
}
