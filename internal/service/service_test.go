package service_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moogmodular/asksats-sub000/internal/blob"
	"github.com/moogmodular/asksats-sub000/internal/errs"
	"github.com/moogmodular/asksats-sub000/internal/lightning"
	"github.com/moogmodular/asksats-sub000/internal/models"
	"github.com/moogmodular/asksats-sub000/internal/money"
	"github.com/moogmodular/asksats-sub000/internal/notify"
	"github.com/moogmodular/asksats-sub000/internal/repository"
	"github.com/moogmodular/asksats-sub000/internal/service"
	"github.com/moogmodular/asksats-sub000/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock is a mutable clock shared between a test and the service.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*service.DefaultService, *repository.MemoryRepository, *lightning.FakeNode, *testClock) {
	t.Helper()

	repo := repository.NewMemoryRepository()
	node := lightning.NewFakeNode()
	presigner := blob.NewPresigner("test-secret", "http://store.local/blobs", 15*time.Minute)
	events := make(chan notify.Event, 64)

	svc := service.NewDefaultService(repo, node, presigner, events, utils.NewLogger(), "test-jwt-secret")
	clock := newTestClock()
	svc.SetClock(clock.Now)
	return svc, repo, node, clock
}

func seedUser(t *testing.T, repo *repository.MemoryRepository, availableSat int64) *models.User {
	t.Helper()

	user := &models.User{
		ID:            uuid.New().String(),
		Email:         uuid.New().String() + "@example.com",
		Name:          "Test User",
		Password:      "irrelevant",
		AvailableMsat: money.FromSat(availableSat),
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func seedSpace(t *testing.T, repo *repository.MemoryRepository, name string, ownerID *string) *models.Space {
	t.Helper()

	space := &models.Space{
		ID:      uuid.New().String(),
		Name:    name,
		OwnerID: ownerID,
	}
	require.NoError(t, repo.CreateSpace(context.Background(), space))
	return space
}

func balances(t *testing.T, repo *repository.MemoryRepository, userID string) (available, locked int64) {
	t.Helper()

	user, err := repo.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.AvailableMsat.Sat(), user.LockedMsat.Sat()
}

func createAsk(t *testing.T, svc *service.DefaultService, ownerID string, kind models.AskKind, amountSat int64, space string) string {
	t.Helper()

	resp, err := svc.CreateAsk(context.Background(), ownerID, models.CreateAskRequest{
		Kind:           kind,
		AmountSat:      amountSat,
		Title:          "wanted: a picture",
		Space:          space,
		DeadlinePolicy: models.DeadlineOneDay,
	})
	require.NoError(t, err)
	return resp.Ask.ID
}

func createOffer(t *testing.T, svc *service.DefaultService, authorID, askID string) string {
	t.Helper()

	resp, err := svc.CreateOffer(context.Background(), authorID, askID, models.CreateOfferRequest{
		Content:     "here you go",
		ObscuredKey: "offers/" + askID + "/obscured.png",
		ClearKey:    "offers/" + askID + "/clear.png",
	})
	require.NoError(t, err)
	return resp.OfferID
}

func TestCreateAskStakesInitialBounty(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	seedSpace(t, repo, "art", nil)

	resp, err := svc.CreateAsk(ctx, owner.ID, models.CreateAskRequest{
		Kind:           models.AskKindBumpPublic,
		AmountSat:      1100,
		Title:          "wanted: a picture",
		Space:          "art",
		DeadlinePolicy: models.DeadlineOneDay,
	})
	require.NoError(t, err)

	available, locked := balances(t, repo, owner.ID)
	assert.Equal(t, int64(3900), available)
	assert.Equal(t, int64(1100), locked)

	assert.Equal(t, models.TemporalActive, resp.Ask.TemporalStatus)
	assert.Equal(t, int64(1100), resp.Ask.BumpSumSat)
	assert.Equal(t, int64(110), resp.Ask.MinBumpSat)
}

func TestBumpSequenceMovesBalancesExactly(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindBumpPublic, 1100, "art")

	var sum int64
	for _, amount := range []int64{120, 260, 360} {
		resp, err := svc.BumpAsk(ctx, owner.ID, askID, amount)
		require.NoError(t, err)
		sum = resp.BumpSumSat
	}

	available, locked := balances(t, repo, owner.ID)
	assert.Equal(t, int64(3160), available)
	assert.Equal(t, int64(1840), locked)
	assert.Equal(t, int64(1840), sum)

	// Initial stake plus three bumps in the ledger
	bumps, err := svc.ListBumps(ctx, askID)
	require.NoError(t, err)
	assert.Len(t, bumps.Bumps, 4)
}

func TestGetSpace(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	space := seedSpace(t, repo, "art", nil)

	resp, err := svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, "art", resp.Space.Name)

	_, err = svc.GetSpace(ctx, "no-such-space")
	assert.True(t, errs.HasCode(err, errs.CodeNotFound))
}

func TestCancelRefundsEveryBump(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	bidder := seedUser(t, repo, 1000)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindPublic, 1100, "art")

	for _, amount := range []int64{200, 300} {
		_, err := svc.BumpAsk(ctx, bidder.ID, askID, amount)
		require.NoError(t, err)
	}

	require.NoError(t, svc.CancelAsk(ctx, owner.ID, askID))

	available, locked := balances(t, repo, owner.ID)
	assert.Equal(t, int64(5000), available)
	assert.Equal(t, int64(0), locked)

	available, locked = balances(t, repo, bidder.ID)
	assert.Equal(t, int64(1000), available)
	assert.Equal(t, int64(0), locked)
}

func TestSettlePaysOutAfterPlatformCut(t *testing.T) {
	svc, repo, _, clock := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	offerer := seedUser(t, repo, 0)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindPublic, 1100, "art")

	offerID := createOffer(t, svc, offerer.ID, askID)

	// Settling while the ask is still active is rejected
	err := svc.SettleAsk(ctx, owner.ID, askID, offerID)
	assert.True(t, errs.HasCode(err, errs.CodeConflict))

	// Move into the acceptance window
	clock.Advance(25 * time.Hour)
	require.NoError(t, svc.SettleAsk(ctx, owner.ID, askID, offerID))

	available, locked := balances(t, repo, offerer.ID)
	assert.Equal(t, int64(1001), available)
	assert.Equal(t, int64(0), locked)

	// The owner's stake is consumed, not refunded
	available, locked = balances(t, repo, owner.ID)
	assert.Equal(t, int64(3900), available)
	assert.Equal(t, int64(0), locked)

	// The ask is terminal: settling again or canceling both fail
	err = svc.SettleAsk(ctx, owner.ID, askID, offerID)
	assert.True(t, errs.HasCode(err, errs.CodeInvalidState))
	err = svc.CancelAsk(ctx, owner.ID, askID)
	assert.True(t, errs.HasCode(err, errs.CodeInvalidState))
}

func TestSettleCreditsSpaceOwnerShare(t *testing.T) {
	svc, repo, _, clock := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	offerer := seedUser(t, repo, 0)
	spaceOwner := seedUser(t, repo, 0)
	seedSpace(t, repo, "art", &spaceOwner.ID)
	askID := createAsk(t, svc, owner.ID, models.AskKindPublic, 1100, "art")
	offerID := createOffer(t, svc, offerer.ID, askID)

	clock.Advance(25 * time.Hour)
	require.NoError(t, svc.SettleAsk(ctx, owner.ID, askID, offerID))

	payout := money.Payout(money.FromSat(1100))
	available, _ := balances(t, repo, offerer.ID)
	assert.Equal(t, payout.Sat(), available)

	spaceOwnerUser, err := repo.GetUserByID(ctx, spaceOwner.ID)
	require.NoError(t, err)
	assert.Equal(t, money.SpaceOwnerCut(payout), spaceOwnerUser.AvailableMsat)
}

func TestBumpBelowMinimumLeavesBalanceUntouched(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	bidder := seedUser(t, repo, 1000)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindPublic, 1100, "art")

	_, err := svc.BumpAsk(ctx, bidder.ID, askID, 5)
	assert.True(t, errs.HasCode(err, errs.CodeBelowMinimum))

	available, locked := balances(t, repo, bidder.ID)
	assert.Equal(t, int64(1000), available)
	assert.Equal(t, int64(0), locked)
}

func TestBumpPublicMinimumScalesWithSum(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 10_000)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindBumpPublic, 1000, "art")

	// sum 1000, floor 100: a 99 sat bump is rejected
	_, err := svc.BumpAsk(ctx, owner.ID, askID, 99)
	assert.True(t, errs.HasCode(err, errs.CodeBelowMinimum))

	// exactly the floor passes
	resp, err := svc.BumpAsk(ctx, owner.ID, askID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), resp.BumpSumSat)
}

func TestPrivateAskCannotBeBumped(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	bidder := seedUser(t, repo, 1000)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindPrivate, 1100, "art")

	_, err := svc.BumpAsk(ctx, bidder.ID, askID, 100)
	assert.True(t, errs.HasCode(err, errs.CodeForbidden))
}

func TestOnlyOwnerMayCancelOrSettle(t *testing.T) {
	svc, repo, _, clock := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	other := seedUser(t, repo, 1000)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindPublic, 1100, "art")
	offerID := createOffer(t, svc, other.ID, askID)

	err := svc.CancelAsk(ctx, other.ID, askID)
	assert.True(t, errs.HasCode(err, errs.CodeForbidden))

	clock.Advance(25 * time.Hour)
	err = svc.SettleAsk(ctx, other.ID, askID, offerID)
	assert.True(t, errs.HasCode(err, errs.CodeForbidden))
}

func TestOneOfferPerAuthor(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	author := seedUser(t, repo, 0)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindPublic, 1100, "art")

	createOffer(t, svc, author.ID, askID)
	_, err := svc.CreateOffer(ctx, author.ID, askID, models.CreateOfferRequest{
		ObscuredKey: "again/obscured.png",
		ClearKey:    "again/clear.png",
	})
	assert.True(t, errs.HasCode(err, errs.CodeConflict))
}

func TestOfferOnCanceledAskRejected(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	author := seedUser(t, repo, 0)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindPublic, 1100, "art")
	require.NoError(t, svc.CancelAsk(ctx, owner.ID, askID))

	_, err := svc.CreateOffer(ctx, author.ID, askID, models.CreateOfferRequest{
		ObscuredKey: "late/obscured.png",
		ClearKey:    "late/clear.png",
	})
	assert.True(t, errs.HasCode(err, errs.CodeConflict))
}

func TestRevealClear(t *testing.T) {
	ownerID := "owner"
	authorID := "author"
	bumperID := "bumper"
	strangerID := "stranger"

	fav := "offer-1"
	offer := &models.Offer{ID: fav, AuthorID: authorID}
	otherOffer := &models.Offer{ID: "offer-2", AuthorID: "someone-else"}

	newAsk := func(kind models.AskKind, settled bool, favourite *string) *models.Ask {
		status := models.AskStatusOpen
		if settled {
			status = models.AskStatusSettled
		}
		return &models.Ask{OwnerID: ownerID, Kind: kind, Status: status, FavouriteOfferID: favourite}
	}

	// The author always sees their own clear file
	assert.True(t, service.RevealClear(newAsk(models.AskKindPrivate, false, nil), offer, authorID, false))

	// Nothing is revealed before settlement
	assert.False(t, service.RevealClear(newAsk(models.AskKindPublic, false, nil), offer, strangerID, false))

	// A settled non-favourite offer stays hidden
	assert.False(t, service.RevealClear(newAsk(models.AskKindPublic, true, &fav), otherOffer, strangerID, false))

	settled := newAsk(models.AskKindPublic, true, &fav)
	assert.True(t, service.RevealClear(settled, offer, strangerID, false))

	private := newAsk(models.AskKindPrivate, true, &fav)
	assert.True(t, service.RevealClear(private, offer, ownerID, false))
	assert.False(t, service.RevealClear(private, offer, strangerID, false))

	bumpPublic := newAsk(models.AskKindBumpPublic, true, &fav)
	assert.True(t, service.RevealClear(bumpPublic, offer, bumperID, true))
	assert.False(t, service.RevealClear(bumpPublic, offer, strangerID, false))
}

func TestInvoiceConfirmationCreditsBalance(t *testing.T) {
	svc, repo, node, _ := newTestService(t)
	ctx := context.Background()

	user := seedUser(t, repo, 0)

	resp, err := svc.CreateInvoice(ctx, user.ID, 500)
	require.NoError(t, err)

	hash := strings.TrimPrefix(resp.PayRequest, "lnfake1")
	require.NoError(t, node.ConfirmInvoice(hash, money.FromSat(500)))

	assert.Eventually(t, func() bool {
		available, _ := balances(t, repo, user.ID)
		return available == 500
	}, 2*time.Second, 10*time.Millisecond)

	txn, err := repo.GetTransaction(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSettled, txn.Status)
	assert.Equal(t, money.FromSat(500), txn.SettledMsat)
}

func TestInvoiceSettleIsNotRepeatable(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	user := seedUser(t, repo, 0)
	resp, err := svc.CreateInvoice(ctx, user.ID, 500)
	require.NoError(t, err)

	require.NoError(t, svc.SettleInvoice(ctx, resp.TransactionID, money.FromSat(500)))

	err = svc.SettleInvoice(ctx, resp.TransactionID, money.FromSat(500))
	assert.True(t, errs.HasCode(err, errs.CodeInvalidState))

	// No double credit
	available, _ := balances(t, repo, user.ID)
	assert.Equal(t, int64(500), available)
}

func TestInvoiceCapAndPendingLimit(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	user := seedUser(t, repo, 0)

	_, err := svc.CreateInvoice(ctx, user.ID, money.SingleTransactionCapSat+1)
	assert.True(t, errs.HasCode(err, errs.CodeInvalidState))

	for i := 0; i < money.MaxPendingTransactions; i++ {
		_, err := svc.CreateInvoice(ctx, user.ID, 100)
		require.NoError(t, err)
	}

	_, err = svc.CreateInvoice(ctx, user.ID, 100)
	assert.True(t, errs.HasCode(err, errs.CodeRateLimited))
}

func TestConcurrentInvoiceCreationsRespectPendingLimit(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	user := seedUser(t, repo, 0)

	const attempts = 10
	var wg sync.WaitGroup
	var successes int64
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CreateInvoice(ctx, user.ID, 100); err == nil {
				atomic.AddInt64(&successes, 1)
			} else {
				assert.True(t, errs.HasCode(err, errs.CodeRateLimited))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(money.MaxPendingTransactions), successes)
}

func TestSettledCooldownThrottlesNextInvoice(t *testing.T) {
	svc, repo, _, clock := newTestService(t)
	ctx := context.Background()

	user := seedUser(t, repo, 0)

	resp, err := svc.CreateInvoice(ctx, user.ID, 100)
	require.NoError(t, err)
	require.NoError(t, svc.SettleInvoice(ctx, resp.TransactionID, money.FromSat(100)))

	_, err = svc.CreateInvoice(ctx, user.ID, 100)
	assert.True(t, errs.HasCode(err, errs.CodeRateLimited))

	clock.Advance(money.SettledCooldown + time.Second)
	_, err = svc.CreateInvoice(ctx, user.ID, 100)
	assert.NoError(t, err)
}

func TestWithdrawalDebitsAmountPlusFee(t *testing.T) {
	svc, repo, node, _ := newTestService(t)
	ctx := context.Background()

	user := seedUser(t, repo, 2000)
	node.RegisterPayRequest("lnbc500", money.FromSat(500))

	resp, err := svc.CreateWithdrawal(ctx, user.ID, "lnbc500")
	require.NoError(t, err)
	assert.Equal(t, int64(500), resp.AmountSat)

	// The fake node charges a 1 sat routing fee
	assert.Eventually(t, func() bool {
		available, _ := balances(t, repo, user.ID)
		return available == 2000-501
	}, 2*time.Second, 10*time.Millisecond)

	txn, err := repo.GetTransaction(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSettled, txn.Status)
	assert.Equal(t, money.FromSat(500), txn.SettledMsat)
}

func TestFailedWithdrawalLeavesBalanceUntouched(t *testing.T) {
	svc, repo, node, _ := newTestService(t)
	ctx := context.Background()

	user := seedUser(t, repo, 2000)
	node.RegisterPayRequest("lnbc500", money.FromSat(500))
	node.FailPayment = true

	resp, err := svc.CreateWithdrawal(ctx, user.ID, "lnbc500")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		txn, err := repo.GetTransaction(ctx, resp.TransactionID)
		return err == nil && txn != nil && txn.Status == models.TransactionStatusCanceled
	}, 2*time.Second, 10*time.Millisecond)

	available, _ := balances(t, repo, user.ID)
	assert.Equal(t, int64(2000), available)
}

func TestWithdrawalRequiresFeeReserve(t *testing.T) {
	svc, repo, node, _ := newTestService(t)
	ctx := context.Background()

	// 520 sat available cannot cover 500 plus the 50 sat fee reserve
	user := seedUser(t, repo, 520)
	node.RegisterPayRequest("lnbc500", money.FromSat(500))

	_, err := svc.CreateWithdrawal(ctx, user.ID, "lnbc500")
	assert.True(t, errs.HasCode(err, errs.CodeInsufficientBalance))
}

func TestConcurrentBumpsAgainstCancel(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindPublic, 1100, "art")

	const numBidders = 4
	const bumpsPerBidder = 10

	bidders := make([]*models.User, numBidders)
	for i := range bidders {
		bidders[i] = seedUser(t, repo, 10_000)
	}

	var wg sync.WaitGroup
	for _, bidder := range bidders {
		wg.Add(1)
		go func(bidderID string) {
			defer wg.Done()
			for j := 0; j < bumpsPerBidder; j++ {
				// Rejections after the cancel are expected, money must
				// still balance either way.
				_, _ = svc.BumpAsk(ctx, bidderID, askID, 10)
			}
		}(bidder.ID)
	}

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.CancelAsk(ctx, owner.ID, askID))
	wg.Wait()

	// Every successful bump was refunded by the cancel and every late bump
	// was rejected, so all balances are exactly where they started.
	available, locked := balances(t, repo, owner.ID)
	assert.Equal(t, int64(5000), available)
	assert.Equal(t, int64(0), locked)

	for _, bidder := range bidders {
		available, locked := balances(t, repo, bidder.ID)
		assert.Equal(t, int64(10_000), available)
		assert.Equal(t, int64(0), locked)
	}
}

func TestAskStatusDerivesFromClock(t *testing.T) {
	svc, repo, _, clock := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	offerer := seedUser(t, repo, 0)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindPublic, 1100, "art")
	createOffer(t, svc, offerer.ID, askID)

	resp, err := svc.GetAsk(ctx, askID)
	require.NoError(t, err)
	assert.Equal(t, models.TemporalActive, resp.Ask.TemporalStatus)

	clock.Advance(25 * time.Hour)
	resp, err = svc.GetAsk(ctx, askID)
	require.NoError(t, err)
	assert.Equal(t, models.TemporalPendingAcceptance, resp.Ask.TemporalStatus)

	clock.Advance(24 * time.Hour)
	resp, err = svc.GetAsk(ctx, askID)
	require.NoError(t, err)
	assert.Equal(t, models.TemporalExpired, resp.Ask.TemporalStatus)
}

func TestViewOfferGatesClearURL(t *testing.T) {
	svc, repo, _, clock := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, repo, 5000)
	offerer := seedUser(t, repo, 0)
	bumper := seedUser(t, repo, 1000)
	stranger := seedUser(t, repo, 0)
	seedSpace(t, repo, "art", nil)
	askID := createAsk(t, svc, owner.ID, models.AskKindBumpPublic, 1100, "art")

	_, err := svc.BumpAsk(ctx, bumper.ID, askID, 200)
	require.NoError(t, err)
	offerID := createOffer(t, svc, offerer.ID, askID)

	// Before settlement the obscured URL is present and the clear one is not
	view, err := svc.ViewOffer(ctx, stranger.ID, offerID)
	require.NoError(t, err)
	assert.NotEmpty(t, view.ObscuredURL)
	assert.Empty(t, view.ClearURL)

	clock.Advance(25 * time.Hour)
	require.NoError(t, svc.SettleAsk(ctx, owner.ID, askID, offerID))

	// BUMP_PUBLIC reveals to contributors only
	view, err = svc.ViewOffer(ctx, bumper.ID, offerID)
	require.NoError(t, err)
	assert.NotEmpty(t, view.ClearURL)

	view, err = svc.ViewOffer(ctx, stranger.ID, offerID)
	require.NoError(t, err)
	assert.Empty(t, view.ClearURL)

	// The author sees their own clear file regardless
	view, err = svc.ViewOffer(ctx, offerer.ID, offerID)
	require.NoError(t, err)
	assert.NotEmpty(t, view.ClearURL)
}
