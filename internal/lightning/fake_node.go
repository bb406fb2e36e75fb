package lightning

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moogmodular/asksats-sub000/internal/money"
)

// FakeNode is an in-process Node for tests and dev mode. Invoices settle when
// the test calls ConfirmInvoice; payments resolve immediately with a fixed
// fee unless the pay request is marked to fail.
type FakeNode struct {
	mu          sync.Mutex
	invoices    map[string]chan InvoiceUpdate
	decoded     map[string]Decoded
	PaymentFee  money.Msat
	FailPayment bool
}

// NewFakeNode creates an empty fake node with a 1 sat payment fee.
func NewFakeNode() *FakeNode {
	return &FakeNode{
		invoices:   make(map[string]chan InvoiceUpdate),
		decoded:    make(map[string]Decoded),
		PaymentFee: money.FromSat(1),
	}
}

func (n *FakeNode) CreateInvoice(ctx context.Context, amount money.Msat, memo string, expiry time.Duration) (*Invoice, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	hash := strings.ReplaceAll(uuid.New().String(), "-", "")
	n.invoices[hash] = make(chan InvoiceUpdate, 1)

	return &Invoice{
		ID:         hash,
		Hash:       hash,
		PayRequest: fmt.Sprintf("lnfake1%s", hash),
	}, nil
}

// RegisterPayRequest seeds a decodable pay request, as a wallet would have
// produced one.
func (n *FakeNode) RegisterPayRequest(payRequest string, amount money.Msat) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.decoded[payRequest] = Decoded{
		AmountMsat: amount,
		Hash:       strings.ReplaceAll(uuid.New().String(), "-", ""),
	}
}

func (n *FakeNode) DecodePayRequest(ctx context.Context, payRequest string) (*Decoded, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	d, ok := n.decoded[payRequest]
	if !ok {
		return nil, fmt.Errorf("unknown payment request")
	}
	return &d, nil
}

func (n *FakeNode) SubscribeInvoice(ctx context.Context, hash string) (<-chan InvoiceUpdate, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.invoices[hash]
	if !ok {
		return nil, fmt.Errorf("unknown invoice")
	}
	return ch, nil
}

// ConfirmInvoice settles a fake invoice and notifies the subscriber.
func (n *FakeNode) ConfirmInvoice(hash string, amount money.Msat) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.invoices[hash]
	if !ok {
		return fmt.Errorf("unknown invoice")
	}
	// The update channel is buffered and stays registered, so a subscriber
	// arriving after the confirmation still receives it.
	ch <- InvoiceUpdate{State: InvoiceConfirmed, AmountMsat: amount}
	close(ch)
	return nil
}

// CancelInvoice expires a fake invoice and notifies the subscriber.
func (n *FakeNode) CancelInvoice(hash string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.invoices[hash]
	if !ok {
		return fmt.Errorf("unknown invoice")
	}
	ch <- InvoiceUpdate{State: InvoiceCanceled}
	close(ch)
	return nil
}

func (n *FakeNode) Pay(ctx context.Context, payRequest string, maxFee money.Msat) (<-chan PayUpdate, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	d, ok := n.decoded[payRequest]
	if !ok {
		return nil, fmt.Errorf("unknown payment request")
	}

	updates := make(chan PayUpdate, 1)
	if n.FailPayment {
		updates <- PayUpdate{State: PayFailed, Err: fmt.Errorf("payment failed: no route")}
	} else {
		updates <- PayUpdate{
			State:      PayConfirmed,
			AmountMsat: d.AmountMsat,
			FeeMsat:    n.PaymentFee,
		}
	}
	close(updates)
	return updates, nil
}
