// Package notify carries post-commit side effects out of the ledger path.
// Services emit events onto a channel after their transaction commits; the
// worker forwards them to the relay best-effort. A relay failure is logged
// and dropped, never retried, and can never fail a committed operation.
package notify

import "context"

// Kind names a notification-worthy ledger event.
type Kind string

const (
	KindAskCreated  Kind = "ask.created"
	KindAskBumped   Kind = "ask.bumped"
	KindAskCanceled Kind = "ask.canceled"
	KindAskSettled  Kind = "ask.settled"
	KindNewOffer    Kind = "offer.created"
)

// Event is a single fire-and-forget notification. Recipient is the direct
// delivery address; when empty the event is public-only.
type Event struct {
	Kind      Kind
	Recipient string
	Message   string
}

// Relay delivers notifications to the outside world, best-effort.
type Relay interface {
	SendDirect(ctx context.Context, recipient, message string) error
	PublishPublic(ctx context.Context, message string) error
}

// NopRelay discards everything; used when no relay is configured.
type NopRelay struct{}

func (NopRelay) SendDirect(ctx context.Context, recipient, message string) error { return nil }
func (NopRelay) PublishPublic(ctx context.Context, message string) error         { return nil }
