package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moogmodular/asksats-sub000/internal/errs"
	"github.com/moogmodular/asksats-sub000/internal/models"
	"github.com/moogmodular/asksats-sub000/internal/money"
)

// MemoryRepository implements the Repository interface in process memory.
// A single mutex stands in for the database transaction scope: every
// money-moving operation validates its preconditions and applies all of its
// mutations while holding the lock, so partial application is never
// observable. Used by tests and dev mode.
type MemoryRepository struct {
	mu     sync.Mutex
	users  map[string]*models.User
	spaces map[string]*models.Space
	asks   map[string]*models.Ask
	bumps  map[string][]*models.Bump
	offers map[string]*models.Offer
	txns   map[string]*models.Transaction
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[string]*models.User),
		spaces: make(map[string]*models.Space),
		asks:   make(map[string]*models.Ask),
		bumps:  make(map[string][]*models.Bump),
		offers: make(map[string]*models.Offer),
		txns:   make(map[string]*models.Transaction),
	}
}

// User operations

func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return errs.Conflict("user with this email already exists")
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

// Space operations

func (r *MemoryRepository) CreateSpace(ctx context.Context, space *models.Space) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.spaces {
		if s.Name == space.Name {
			return errs.Conflict("space with this name already exists")
		}
	}

	if space.ID == "" {
		space.ID = uuid.New().String()
	}
	space.CreatedAt = time.Now().UTC()

	stored := *space
	r.spaces[space.ID] = &stored
	return nil
}

func (r *MemoryRepository) GetSpaceByName(ctx context.Context, name string) (*models.Space, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.spaces {
		if s.Name == name {
			out := *s
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetSpaceByID(ctx context.Context, id string) (*models.Space, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.spaces[id]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

func (r *MemoryRepository) ListSpaces(ctx context.Context) ([]models.Space, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	spaces := make([]models.Space, 0, len(r.spaces))
	for _, s := range r.spaces {
		spaces = append(spaces, *s)
	}
	return spaces, nil
}

// Ask reads

func (r *MemoryRepository) GetAsk(ctx context.Context, id string) (*models.Ask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.asks[id]
	if !ok {
		return nil, nil
	}
	return copyAsk(a), nil
}

func (r *MemoryRepository) ListAsks(ctx context.Context, spaceID string) ([]models.Ask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asks := make([]models.Ask, 0, len(r.asks))
	for _, a := range r.asks {
		if spaceID != "" && a.SpaceID != spaceID {
			continue
		}
		asks = append(asks, *copyAsk(a))
	}
	return asks, nil
}

func (r *MemoryRepository) BumpSum(ctx context.Context, askID string) (money.Msat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bumpSumLocked(askID), nil
}

func (r *MemoryRepository) ListBumps(ctx context.Context, askID string) ([]models.Bump, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bumps := make([]models.Bump, 0, len(r.bumps[askID]))
	for _, b := range r.bumps[askID] {
		bumps = append(bumps, *b)
	}
	return bumps, nil
}

func (r *MemoryRepository) HasBumped(ctx context.Context, askID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bumps[askID] {
		if b.BidderID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) CountOffers(ctx context.Context, askID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countOffersLocked(askID), nil
}

// Offer operations

func (r *MemoryRepository) CreateOffer(ctx context.Context, offer *models.Offer, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ask, ok := r.asks[offer.AskID]
	if !ok {
		return errs.NotFound("ask not found")
	}
	if ask.Status != models.AskStatusOpen {
		return errs.Conflict("ask is no longer open")
	}

	status := models.EffectiveStatus(ask.Status, ask.DeadlineAt, ask.AcceptedDeadlineAt,
		r.countOffersLocked(ask.ID) > 0, ask.FavouriteOfferID != nil, now)
	if status != models.TemporalActive && status != models.TemporalPendingAcceptance {
		return errs.Conflict("ask is not accepting offers")
	}

	for _, o := range r.offers {
		if o.AskID == offer.AskID && o.AuthorID == offer.AuthorID {
			return errs.Conflict("author already made an offer on this ask")
		}
	}

	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}
	offer.CreatedAt = now

	stored := *offer
	r.offers[offer.ID] = &stored
	return nil
}

func (r *MemoryRepository) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.offers[id]
	if !ok {
		return nil, nil
	}
	out := *o
	return &out, nil
}

func (r *MemoryRepository) ListOffers(ctx context.Context, askID string) ([]models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var offers []models.Offer
	for _, o := range r.offers {
		if o.AskID == askID {
			offers = append(offers, *o)
		}
	}
	return offers, nil
}

// Atomic ledger operations

func (r *MemoryRepository) CreateAskWithStake(ctx context.Context, ask *models.Ask, firstBump *models.Bump) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.users[ask.OwnerID]
	if !ok {
		return errs.NotFound("user not found")
	}
	if owner.AvailableMsat < firstBump.AmountMsat {
		return errs.InsufficientBalance("insufficient available balance")
	}

	if ask.ID == "" {
		ask.ID = uuid.New().String()
	}
	ask.Status = models.AskStatusOpen
	firstBump.AskID = ask.ID
	if firstBump.ID == "" {
		firstBump.ID = uuid.New().String()
	}

	owner.AvailableMsat -= firstBump.AmountMsat
	owner.LockedMsat += firstBump.AmountMsat

	storedAsk := *copyAsk(ask)
	r.asks[ask.ID] = &storedAsk
	storedBump := *firstBump
	r.bumps[ask.ID] = append(r.bumps[ask.ID], &storedBump)
	return nil
}

func (r *MemoryRepository) AddBump(ctx context.Context, bump *models.Bump, now time.Time) (money.Msat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ask, ok := r.asks[bump.AskID]
	if !ok {
		return 0, errs.NotFound("ask not found")
	}
	if ask.Kind == models.AskKindPrivate {
		return 0, errs.Forbidden("private asks cannot be bumped")
	}
	if ask.Status != models.AskStatusOpen {
		return 0, errs.Conflict("ask is no longer open")
	}

	status := models.EffectiveStatus(ask.Status, ask.DeadlineAt, ask.AcceptedDeadlineAt,
		r.countOffersLocked(ask.ID) > 0, ask.FavouriteOfferID != nil, now)
	if status != models.TemporalActive {
		return 0, errs.Conflict("ask is not active")
	}

	sum := r.bumpSumLocked(ask.ID)
	if min := models.MinBump(ask.Kind, sum); bump.AmountMsat < min {
		return 0, errs.Newf(errs.CodeBelowMinimum, "bump below the minimum of %d sat", min.Sat())
	}

	bidder, ok := r.users[bump.BidderID]
	if !ok {
		return 0, errs.NotFound("user not found")
	}
	if bidder.AvailableMsat < bump.AmountMsat {
		return 0, errs.InsufficientBalance("insufficient available balance")
	}

	bidder.AvailableMsat -= bump.AmountMsat
	bidder.LockedMsat += bump.AmountMsat

	if bump.ID == "" {
		bump.ID = uuid.New().String()
	}
	bump.CreatedAt = now
	stored := *bump
	r.bumps[ask.ID] = append(r.bumps[ask.ID], &stored)
	return sum + bump.AmountMsat, nil
}

func (r *MemoryRepository) CancelAskAndRefund(ctx context.Context, askID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ask, ok := r.asks[askID]
	if !ok {
		return errs.NotFound("ask not found")
	}
	if ask.Status != models.AskStatusOpen {
		return errs.InvalidState("ask is not open")
	}

	for bidderID, total := range r.bidderStakesLocked(askID) {
		bidder := r.users[bidderID]
		if bidder == nil || bidder.LockedMsat < total {
			return errs.Internal("locked balance does not cover the bump sum")
		}
		bidder.LockedMsat -= total
		bidder.AvailableMsat += total
	}

	ask.Status = models.AskStatusCanceled
	return nil
}

func (r *MemoryRepository) SettleAskAndPayout(ctx context.Context, askID, offerID string, now time.Time) (money.Msat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ask, ok := r.asks[askID]
	if !ok {
		return 0, errs.NotFound("ask not found")
	}
	if ask.Status != models.AskStatusOpen {
		return 0, errs.InvalidState("ask is not open")
	}

	offer, ok := r.offers[offerID]
	if !ok {
		return 0, errs.NotFound("offer not found")
	}
	if offer.AskID != askID {
		return 0, errs.Conflict("offer does not belong to this ask")
	}

	status := models.EffectiveStatus(ask.Status, ask.DeadlineAt, ask.AcceptedDeadlineAt,
		true, ask.FavouriteOfferID != nil, now)
	if status != models.TemporalPendingAcceptance {
		return 0, errs.Conflict("ask is not awaiting acceptance")
	}

	sum := r.bumpSumLocked(askID)
	payout := money.Payout(sum)

	for bidderID, total := range r.bidderStakesLocked(askID) {
		bidder := r.users[bidderID]
		if bidder == nil || bidder.LockedMsat < total {
			return 0, errs.Internal("locked balance does not cover the bump sum")
		}
		bidder.LockedMsat -= total
	}

	offerer, ok := r.users[offer.AuthorID]
	if !ok {
		return 0, errs.NotFound("user not found")
	}
	offerer.AvailableMsat += payout

	if space := r.spaces[ask.SpaceID]; space != nil && space.OwnerID != nil {
		if cut := money.SpaceOwnerCut(payout); cut > 0 {
			if owner := r.users[*space.OwnerID]; owner != nil {
				owner.AvailableMsat += cut
			}
		}
	}

	fav := offerID
	ask.Status = models.AskStatusSettled
	ask.FavouriteOfferID = &fav
	return payout, nil
}

// Transaction log

func (r *MemoryRepository) CreateTransaction(ctx context.Context, txn *models.Transaction, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if txn.UserID != nil {
		if _, ok := r.users[*txn.UserID]; !ok {
			return errs.NotFound("user not found")
		}

		pending := 0
		var lastSettled time.Time
		for _, t := range r.txns {
			if t.UserID == nil || *t.UserID != *txn.UserID || t.Kind != txn.Kind {
				continue
			}
			if t.Status != models.TransactionStatusSettled && t.CreatedAt.After(now.Add(-money.TransactionMaxAge)) {
				pending++
			}
			if t.Status == models.TransactionStatusSettled && t.ConfirmedAt != nil && t.ConfirmedAt.After(lastSettled) {
				lastSettled = *t.ConfirmedAt
			}
		}
		if pending >= money.MaxPendingTransactions {
			return errs.RateLimited("too many pending transactions, retry once they settle or expire")
		}
		if !lastSettled.IsZero() && now.Sub(lastSettled) < money.SettledCooldown {
			return errs.RateLimited("a transaction settled moments ago, wait before starting another")
		}
	}

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	txn.Status = models.TransactionStatusPending
	txn.CreatedAt = now

	stored := *copyTransaction(txn)
	r.txns[txn.ID] = &stored
	return nil
}

func (r *MemoryRepository) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.txns[id]
	if !ok {
		return nil, nil
	}
	return copyTransaction(t), nil
}

func (r *MemoryRepository) GetTransactionByHash(ctx context.Context, hash string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.txns {
		if t.Hash == hash {
			return copyTransaction(t), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var txns []models.Transaction
	for _, t := range r.txns {
		if t.UserID != nil && *t.UserID == userID {
			txns = append(txns, *copyTransaction(t))
		}
	}
	return txns, nil
}

func (r *MemoryRepository) SettleInvoiceTransaction(ctx context.Context, id string, amount money.Msat, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.txns[id]
	if !ok {
		return errs.NotFound("transaction not found")
	}
	if txn.Status != models.TransactionStatusPending {
		return errs.InvalidState("transaction is not pending")
	}

	txn.Status = models.TransactionStatusSettled
	txn.SettledMsat = amount
	confirmed := now
	txn.ConfirmedAt = &confirmed

	if txn.UserID != nil {
		if user := r.users[*txn.UserID]; user != nil {
			user.AvailableMsat += amount
		}
	}
	return nil
}

func (r *MemoryRepository) CancelTransaction(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.txns[id]
	if !ok {
		return errs.NotFound("transaction not found")
	}
	if txn.Status != models.TransactionStatusPending {
		return errs.InvalidState("transaction is not pending")
	}

	txn.Status = models.TransactionStatusCanceled
	return nil
}

func (r *MemoryRepository) SettleWithdrawalTransaction(ctx context.Context, k1 string, confirmed, fee money.Msat, now time.Time) (money.Msat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var txn *models.Transaction
	for _, t := range r.txns {
		if t.Hash == k1 && t.Kind == models.TransactionKindWithdrawal {
			txn = t
			break
		}
	}
	if txn == nil {
		return 0, errs.NotFound("transaction not found")
	}
	if txn.Status != models.TransactionStatusPending {
		return 0, errs.InvalidState("transaction is not pending")
	}

	settled := confirmed - fee
	if settled < 0 {
		return 0, errs.InvalidState("fee exceeds the confirmed amount")
	}

	if txn.UserID != nil {
		user := r.users[*txn.UserID]
		if user == nil {
			return 0, errs.NotFound("user not found")
		}
		if user.AvailableMsat < confirmed {
			return 0, errs.InsufficientBalance("available balance below the confirmed withdrawal amount")
		}
		// The full outflow including the routing fee comes out of the
		// user's balance.
		user.AvailableMsat -= confirmed
	}

	txn.Status = models.TransactionStatusSettled
	txn.SettledMsat = settled
	confirmedAt := now
	txn.ConfirmedAt = &confirmedAt
	return settled, nil
}

// Helpers, callers must hold the mutex.

func (r *MemoryRepository) bumpSumLocked(askID string) money.Msat {
	var sum money.Msat
	for _, b := range r.bumps[askID] {
		sum += b.AmountMsat
	}
	return sum
}

func (r *MemoryRepository) bidderStakesLocked(askID string) map[string]money.Msat {
	stakes := make(map[string]money.Msat)
	for _, b := range r.bumps[askID] {
		stakes[b.BidderID] += b.AmountMsat
	}
	return stakes
}

func (r *MemoryRepository) countOffersLocked(askID string) int {
	count := 0
	for _, o := range r.offers {
		if o.AskID == askID {
			count++
		}
	}
	return count
}

func copyUser(u *models.User) *models.User {
	out := *u
	if u.NotifyAddress != nil {
		addr := *u.NotifyAddress
		out.NotifyAddress = &addr
	}
	return &out
}

func copyAsk(a *models.Ask) *models.Ask {
	out := *a
	if a.FavouriteOfferID != nil {
		fav := *a.FavouriteOfferID
		out.FavouriteOfferID = &fav
	}
	out.Tags = append(out.Tags[:0:0], a.Tags...)
	return &out
}

func copyTransaction(t *models.Transaction) *models.Transaction {
	out := *t
	if t.UserID != nil {
		id := *t.UserID
		out.UserID = &id
	}
	if t.ConfirmedAt != nil {
		at := *t.ConfirmedAt
		out.ConfirmedAt = &at
	}
	return &out
}
