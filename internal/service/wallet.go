package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moogmodular/asksats-sub000/internal/errs"
	"github.com/moogmodular/asksats-sub000/internal/lightning"
	"github.com/moogmodular/asksats-sub000/internal/models"
	"github.com/moogmodular/asksats-sub000/internal/money"
)

// CreateInvoice starts a deposit: an invoice at the node plus a PENDING
// transaction row. The rate limits are evaluated by the repository inside
// the same transaction that inserts the row. A watcher goroutine drives the
// transaction to SETTLED or CANCELED from the node's subscription stream.
func (s *DefaultService) CreateInvoice(ctx context.Context, userID string, amountSat int64) (*models.InvoiceResponse, error) {
	if amountSat > money.SingleTransactionCapSat {
		return nil, errs.Newf(errs.CodeInvalidState, "amount exceeds the cap of %d sat", money.SingleTransactionCapSat)
	}

	amount := money.FromSat(amountSat)
	invoice, err := s.node.CreateInvoice(ctx, amount, "deposit", money.TransactionMaxAge)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidState, "payment node rejected the invoice", err)
	}

	// A node handing out a payment hash we already track would corrupt the
	// settlement bookkeeping.
	if existing, err := s.repo.GetTransactionByHash(ctx, invoice.Hash); err != nil {
		return nil, fmt.Errorf("error checking invoice hash: %w", err)
	} else if existing != nil {
		return nil, errs.Conflict("an invoice with this payment hash already exists")
	}

	txn := &models.Transaction{
		ID:            uuid.New().String(),
		UserID:        &userID,
		Kind:          models.TransactionKindInvoice,
		TargetMsat:    amount,
		Hash:          invoice.Hash,
		PayRequest:    invoice.PayRequest,
		MaxAgeSeconds: int64(money.TransactionMaxAge.Seconds()),
	}

	if err := s.repo.CreateTransaction(ctx, txn, s.now()); err != nil {
		return nil, err
	}

	go s.watchInvoice(txn.ID, invoice.Hash)

	return &models.InvoiceResponse{
		Status:        "success",
		TransactionID: txn.ID,
		PayRequest:    invoice.PayRequest,
		ExpiresIn:     txn.MaxAgeSeconds,
	}, nil
}

// watchInvoice follows the node's invoice stream and resolves the pending
// transaction. It runs detached from the request: a client disconnect must
// not orphan a deposit that the node later confirms.
func (s *DefaultService) watchInvoice(transactionID, hash string) {
	ctx, cancel := context.WithTimeout(context.Background(), money.TransactionMaxAge+30*time.Second)
	defer cancel()

	updates, err := s.node.SubscribeInvoice(ctx, hash)
	if err != nil {
		s.logger.Error("failed to subscribe to invoice %s: %v", transactionID, err)
		return
	}

	select {
	case <-ctx.Done():
		if err := s.CancelInvoice(context.Background(), transactionID); err != nil {
			s.logger.Error("failed to expire invoice %s: %v", transactionID, err)
		}
	case update, ok := <-updates:
		if !ok {
			return
		}
		switch update.State {
		case lightning.InvoiceConfirmed:
			if err := s.SettleInvoice(context.Background(), transactionID, update.AmountMsat); err != nil {
				s.logger.Error("failed to settle invoice %s: %v", transactionID, err)
			}
		case lightning.InvoiceCanceled:
			if err := s.CancelInvoice(context.Background(), transactionID); err != nil {
				s.logger.Error("failed to cancel invoice %s: %v", transactionID, err)
			}
		}
	}
}

// SettleInvoice credits the confirmed amount to the owner. This is the only
// path by which external funds enter a balance; the repository's PENDING
// guard makes a duplicate callback fail without a double credit.
func (s *DefaultService) SettleInvoice(ctx context.Context, transactionID string, amount money.Msat) error {
	return s.repo.SettleInvoiceTransaction(ctx, transactionID, amount, s.now())
}

// CancelInvoice marks a pending deposit as abandoned.
func (s *DefaultService) CancelInvoice(ctx context.Context, transactionID string) error {
	return s.repo.CancelTransaction(ctx, transactionID)
}

// CreateWithdrawal starts an outgoing payment for the decoded pay request.
// The ledger is untouched until the node confirms; a payment failure only
// cancels the pending row.
func (s *DefaultService) CreateWithdrawal(ctx context.Context, userID, payRequest string) (*models.WithdrawalResponse, error) {
	decoded, err := s.node.DecodePayRequest(ctx, payRequest)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidState, "could not decode the payment request", err)
	}

	if decoded.AmountMsat <= 0 {
		return nil, errs.InvalidState("payment request carries no amount")
	}
	if decoded.AmountMsat.Sat() > money.SingleTransactionCapSat {
		return nil, errs.Newf(errs.CodeInvalidState, "amount exceeds the cap of %d sat", money.SingleTransactionCapSat)
	}

	feeCap := money.FromSat(money.WithdrawalFeeCapSat)
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("user not found")
	}
	if user.AvailableMsat < decoded.AmountMsat+feeCap {
		return nil, errs.InsufficientBalance("available balance below the withdrawal amount plus fee reserve")
	}

	k1 := strings.ReplaceAll(uuid.New().String(), "-", "")
	txn := &models.Transaction{
		ID:            uuid.New().String(),
		UserID:        &userID,
		Kind:          models.TransactionKindWithdrawal,
		TargetMsat:    decoded.AmountMsat,
		Hash:          k1,
		PayRequest:    payRequest,
		MaxAgeSeconds: int64(money.TransactionMaxAge.Seconds()),
	}

	if err := s.repo.CreateTransaction(ctx, txn, s.now()); err != nil {
		return nil, err
	}

	go s.executeWithdrawal(txn.ID, k1, payRequest, feeCap)

	return &models.WithdrawalResponse{
		Status:        "success",
		TransactionID: txn.ID,
		AmountSat:     decoded.AmountMsat.Sat(),
	}, nil
}

// executeWithdrawal drives the payment stream to a terminal state.
func (s *DefaultService) executeWithdrawal(transactionID, k1, payRequest string, maxFee money.Msat) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	updates, err := s.node.Pay(ctx, payRequest, maxFee)
	if err != nil {
		s.logger.Error("failed to start payment for withdrawal %s: %v", transactionID, err)
		if cancelErr := s.repo.CancelTransaction(context.Background(), transactionID); cancelErr != nil {
			s.logger.Error("failed to cancel withdrawal %s: %v", transactionID, cancelErr)
		}
		return
	}

	for update := range updates {
		switch update.State {
		case lightning.PayConfirmed:
			// The node reports invoice value and routing fee separately;
			// the confirmed outflow is their sum.
			confirmed := update.AmountMsat + update.FeeMsat
			if err := s.SettleWithdrawal(context.Background(), k1, confirmed, update.FeeMsat); err != nil {
				s.logger.Error("failed to settle withdrawal %s: %v", transactionID, err)
			}
			return
		case lightning.PayFailed:
			s.logger.Error("payment for withdrawal %s failed: %v", transactionID, update.Err)
			if err := s.repo.CancelTransaction(context.Background(), transactionID); err != nil {
				s.logger.Error("failed to cancel withdrawal %s: %v", transactionID, err)
			}
			return
		}
	}
}

// SettleWithdrawal resolves a pending withdrawal by its k1 reference.
func (s *DefaultService) SettleWithdrawal(ctx context.Context, k1 string, confirmed, fee money.Msat) error {
	_, err := s.repo.SettleWithdrawalTransaction(ctx, k1, confirmed, fee, s.now())
	return err
}
