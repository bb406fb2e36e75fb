// Package lightning defines the payment-node port the settlement flows are
// driven by, plus an LND REST client and a deterministic fake for tests.
package lightning

import (
	"context"
	"time"

	"github.com/moogmodular/asksats-sub000/internal/money"
)

// Invoice is a freshly created deposit invoice.
type Invoice struct {
	ID         string
	Hash       string
	PayRequest string
}

// Decoded is the result of decoding a payment request.
type Decoded struct {
	AmountMsat money.Msat
	Hash       string
}

// InvoiceState is the terminal fate of a watched invoice.
type InvoiceState string

const (
	InvoiceConfirmed InvoiceState = "CONFIRMED"
	InvoiceCanceled  InvoiceState = "CANCELED"
)

// InvoiceUpdate is delivered on the subscription stream once the node
// resolves an invoice.
type InvoiceUpdate struct {
	State      InvoiceState
	AmountMsat money.Msat
}

// PayState is the terminal fate of an outgoing payment.
type PayState string

const (
	PayConfirmed PayState = "CONFIRMED"
	PayFailed    PayState = "FAILED"
)

// PayUpdate is delivered on the payment stream.
type PayUpdate struct {
	State      PayState
	AmountMsat money.Msat
	FeeMsat    money.Msat
	Err        error
}

// Node is the payment-channel node the wallet flows talk to. Streams close
// after delivering a terminal update or when the context is done.
type Node interface {
	CreateInvoice(ctx context.Context, amount money.Msat, memo string, expiry time.Duration) (*Invoice, error)
	DecodePayRequest(ctx context.Context, payRequest string) (*Decoded, error)
	SubscribeInvoice(ctx context.Context, hash string) (<-chan InvoiceUpdate, error)
	Pay(ctx context.Context, payRequest string, maxFee money.Msat) (<-chan PayUpdate, error)
}
