package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/moogmodular/asksats-sub000/internal/errs"
	"github.com/moogmodular/asksats-sub000/internal/models"
	"github.com/moogmodular/asksats-sub000/internal/money"
	"github.com/moogmodular/asksats-sub000/internal/notify"
)

// CreateAsk opens a new ask and stakes the initial bounty: the ask row, its
// first bump and the owner's available-to-locked move commit together.
func (s *DefaultService) CreateAsk(ctx context.Context, userID string, req models.CreateAskRequest) (*models.AskResponse, error) {
	untilClosed, acceptedAfterClosed, ok := req.DeadlinePolicy.Durations()
	if !ok {
		return nil, errs.InvalidState("unknown deadline policy")
	}

	space, err := s.repo.GetSpaceByName(ctx, req.Space)
	if err != nil {
		return nil, fmt.Errorf("error getting space: %w", err)
	}
	if space == nil {
		return nil, errs.NotFound("space not found")
	}

	now := s.now()
	amount := money.FromSat(req.AmountSat)

	ask := &models.Ask{
		ID:                 uuid.New().String(),
		OwnerID:            userID,
		SpaceID:            space.ID,
		Kind:               req.Kind,
		Title:              req.Title,
		Content:            req.Content,
		Tags:               req.Tags,
		DeadlineAt:         now.Add(untilClosed),
		AcceptedDeadlineAt: now.Add(untilClosed + acceptedAfterClosed),
		CreatedAt:          now,
	}
	firstBump := &models.Bump{
		ID:         uuid.New().String(),
		BidderID:   userID,
		AmountMsat: amount,
		CreatedAt:  now,
	}

	if err := s.repo.CreateAskWithStake(ctx, ask, firstBump); err != nil {
		return nil, err
	}

	s.emit(notify.Event{
		Kind:    notify.KindAskCreated,
		Message: fmt.Sprintf("new ask %q in %s with a bounty of %d sat", ask.Title, space.Name, amount.Sat()),
	})

	view, err := s.askView(ctx, ask)
	if err != nil {
		return nil, err
	}
	return &models.AskResponse{Status: "success", Ask: *view}, nil
}

func (s *DefaultService) GetAsk(ctx context.Context, askID string) (*models.AskResponse, error) {
	ask, err := s.repo.GetAsk(ctx, askID)
	if err != nil {
		return nil, fmt.Errorf("error getting ask: %w", err)
	}
	if ask == nil {
		return nil, errs.NotFound("ask not found")
	}

	view, err := s.askView(ctx, ask)
	if err != nil {
		return nil, err
	}
	return &models.AskResponse{Status: "success", Ask: *view}, nil
}

func (s *DefaultService) ListAsks(ctx context.Context, spaceName string) (*models.AskListResponse, error) {
	spaceID := ""
	if spaceName != "" {
		space, err := s.repo.GetSpaceByName(ctx, spaceName)
		if err != nil {
			return nil, fmt.Errorf("error getting space: %w", err)
		}
		if space == nil {
			return nil, errs.NotFound("space not found")
		}
		spaceID = space.ID
	}

	asks, err := s.repo.ListAsks(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("error listing asks: %w", err)
	}

	views := make([]models.AskView, 0, len(asks))
	for i := range asks {
		view, err := s.askView(ctx, &asks[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	return &models.AskListResponse{Status: "success", Asks: views}, nil
}

// BumpAsk appends a stake to the ask's bounty. Every precondition (ask still
// open and active, kind bumpable, amount above the policy floor, bidder
// balance sufficient) is re-validated by the repository inside its own
// transaction; the checks here would be stale by commit time.
func (s *DefaultService) BumpAsk(ctx context.Context, userID, askID string, amountSat int64) (*models.BumpResponse, error) {
	bump := &models.Bump{
		ID:         uuid.New().String(),
		AskID:      askID,
		BidderID:   userID,
		AmountMsat: money.FromSat(amountSat),
	}

	sum, err := s.repo.AddBump(ctx, bump, s.now())
	if err != nil {
		return nil, err
	}

	if ask, getErr := s.repo.GetAsk(ctx, askID); getErr == nil && ask != nil {
		s.emit(notify.Event{
			Kind:      notify.KindAskBumped,
			Recipient: s.notifyAddressOf(ctx, ask.OwnerID),
			Message:   fmt.Sprintf("ask %q was bumped by %d sat to %d sat", ask.Title, amountSat, sum.Sat()),
		})
	}

	return &models.BumpResponse{
		Status:     "success",
		BumpID:     bump.ID,
		BumpSumSat: sum.Sat(),
	}, nil
}

// ListBumps returns the ask's stake ledger in insertion order.
func (s *DefaultService) ListBumps(ctx context.Context, askID string) (*models.BumpListResponse, error) {
	ask, err := s.repo.GetAsk(ctx, askID)
	if err != nil {
		return nil, fmt.Errorf("error getting ask: %w", err)
	}
	if ask == nil {
		return nil, errs.NotFound("ask not found")
	}

	bumps, err := s.repo.ListBumps(ctx, askID)
	if err != nil {
		return nil, fmt.Errorf("error listing bumps: %w", err)
	}

	return &models.BumpListResponse{Status: "success", Bumps: bumps}, nil
}

// CancelAsk is the owner's explicit terminal action: every bump is refunded
// in full, the owner's own initial stake included.
func (s *DefaultService) CancelAsk(ctx context.Context, userID, askID string) error {
	ask, err := s.repo.GetAsk(ctx, askID)
	if err != nil {
		return fmt.Errorf("error getting ask: %w", err)
	}
	if ask == nil {
		return errs.NotFound("ask not found")
	}
	if ask.OwnerID != userID {
		return errs.Forbidden("only the owner may cancel an ask")
	}

	if err := s.repo.CancelAskAndRefund(ctx, askID); err != nil {
		return err
	}

	s.emit(notify.Event{
		Kind:    notify.KindAskCanceled,
		Message: fmt.Sprintf("ask %q was canceled, all bumps refunded", ask.Title),
	})
	return nil
}

// SettleAsk picks the winning offer. Stakes are consumed, the offerer is
// credited with the bounty after the platform cut, and the space owner
// receives the additive share.
func (s *DefaultService) SettleAsk(ctx context.Context, userID, askID, offerID string) error {
	ask, err := s.repo.GetAsk(ctx, askID)
	if err != nil {
		return fmt.Errorf("error getting ask: %w", err)
	}
	if ask == nil {
		return errs.NotFound("ask not found")
	}
	if ask.OwnerID != userID {
		return errs.Forbidden("only the owner may settle an ask")
	}

	payout, err := s.repo.SettleAskAndPayout(ctx, askID, offerID, s.now())
	if err != nil {
		return err
	}

	recipient := ""
	if offer, getErr := s.repo.GetOffer(ctx, offerID); getErr == nil && offer != nil {
		recipient = s.notifyAddressOf(ctx, offer.AuthorID)
	}
	s.emit(notify.Event{
		Kind:      notify.KindAskSettled,
		Recipient: recipient,
		Message:   fmt.Sprintf("ask %q settled, %d sat paid out", ask.Title, payout.Sat()),
	})
	return nil
}

// CreateOffer records a deliverable for the ask: one per author, only while
// the ask accepts offers.
func (s *DefaultService) CreateOffer(ctx context.Context, userID, askID string, req models.CreateOfferRequest) (*models.OfferResponse, error) {
	offer := &models.Offer{
		ID:          uuid.New().String(),
		AskID:       askID,
		AuthorID:    userID,
		Content:     req.Content,
		ObscuredKey: req.ObscuredKey,
		ClearKey:    req.ClearKey,
	}

	if err := s.repo.CreateOffer(ctx, offer, s.now()); err != nil {
		return nil, err
	}

	if ask, getErr := s.repo.GetAsk(ctx, askID); getErr == nil && ask != nil {
		s.emit(notify.Event{
			Kind:      notify.KindNewOffer,
			Recipient: s.notifyAddressOf(ctx, ask.OwnerID),
			Message:   fmt.Sprintf("new offer on ask %q", ask.Title),
		})
	}

	return &models.OfferResponse{Status: "success", OfferID: offer.ID}, nil
}

func (s *DefaultService) ListOffers(ctx context.Context, viewerID, askID string) (*models.OfferListResponse, error) {
	ask, err := s.repo.GetAsk(ctx, askID)
	if err != nil {
		return nil, fmt.Errorf("error getting ask: %w", err)
	}
	if ask == nil {
		return nil, errs.NotFound("ask not found")
	}

	offers, err := s.repo.ListOffers(ctx, askID)
	if err != nil {
		return nil, fmt.Errorf("error listing offers: %w", err)
	}

	views := make([]models.OfferViewResponse, 0, len(offers))
	for i := range offers {
		view, err := s.offerView(ctx, viewerID, ask, &offers[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	return &models.OfferListResponse{Status: "success", Offers: views}, nil
}

func (s *DefaultService) ViewOffer(ctx context.Context, viewerID, offerID string) (*models.OfferViewResponse, error) {
	offer, err := s.repo.GetOffer(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("error getting offer: %w", err)
	}
	if offer == nil {
		return nil, errs.NotFound("offer not found")
	}

	ask, err := s.repo.GetAsk(ctx, offer.AskID)
	if err != nil {
		return nil, fmt.Errorf("error getting ask: %w", err)
	}
	if ask == nil {
		return nil, errs.NotFound("ask not found")
	}

	return s.offerView(ctx, viewerID, ask, offer)
}

// offerView resolves the visibility policy into presigned URLs. The obscured
// file is always visible to anyone who can see the offer; only the clear
// file is gated.
func (s *DefaultService) offerView(ctx context.Context, viewerID string, ask *models.Ask, offer *models.Offer) (*models.OfferViewResponse, error) {
	hasBumped, err := s.repo.HasBumped(ctx, ask.ID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("error checking bumps: %w", err)
	}

	now := s.now()
	view := &models.OfferViewResponse{
		Status:      "success",
		Offer:       *offer,
		ObscuredURL: s.presigner.DownloadURL(offer.ObscuredKey, now),
	}
	if RevealClear(ask, offer, viewerID, hasBumped) {
		view.ClearURL = s.presigner.DownloadURL(offer.ClearKey, now)
	}
	return view, nil
}

// askView joins the ask with its derived facts: temporal status, bump sum
// and the current minimum bump.
func (s *DefaultService) askView(ctx context.Context, ask *models.Ask) (*models.AskView, error) {
	sum, err := s.repo.BumpSum(ctx, ask.ID)
	if err != nil {
		return nil, fmt.Errorf("error summing bumps: %w", err)
	}
	offerCount, err := s.repo.CountOffers(ctx, ask.ID)
	if err != nil {
		return nil, fmt.Errorf("error counting offers: %w", err)
	}

	status := models.EffectiveStatus(ask.Status, ask.DeadlineAt, ask.AcceptedDeadlineAt,
		offerCount > 0, ask.FavouriteOfferID != nil, s.now())

	return &models.AskView{
		Ask:            *ask,
		TemporalStatus: status,
		BumpSumSat:     sum.Sat(),
		MinBumpSat:     models.MinBump(ask.Kind, sum).Sat(),
		OfferCount:     offerCount,
	}, nil
}
