package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/moogmodular/asksats-sub000/internal/api/testutils"
	"github.com/moogmodular/asksats-sub000/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAskLifecycleOverHTTP(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	testutils.FundUser(t, testCtx, testCtx.TestUserID, 5000)

	// Pin the service clock so deadline windows are deterministic
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	testCtx.Service.SetClock(func() time.Time { return now })

	// Create a space to post into
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/spaces",
		models.CreateSpaceRequest{Name: "art", Description: "image bounties"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	// Create a PUBLIC ask with a 1100 sat bounty
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/asks",
		models.CreateAskRequest{
			Kind:           models.AskKindPublic,
			AmountSat:      1100,
			Title:          "wanted: a picture of a lighthouse",
			Space:          "art",
			DeadlinePolicy: models.DeadlineOneDay,
		},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var askResponse models.AskResponse
	err := json.Unmarshal(w.Body.Bytes(), &askResponse)
	assert.NoError(t, err)
	assert.NotEmpty(t, askResponse.Ask.ID)
	assert.Equal(t, models.TemporalActive, askResponse.Ask.TemporalStatus)
	askID := askResponse.Ask.ID

	// The stake moved from available to locked
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/balance",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var balance models.BalanceResponse
	err = json.Unmarshal(w.Body.Bytes(), &balance)
	assert.NoError(t, err)
	assert.Equal(t, int64(3900), balance.AvailableSat)
	assert.Equal(t, int64(1100), balance.LockedSat)

	// A second user bumps and then makes an offer
	bidderID, bidderJWT := testutils.CreateUser(t, testCtx, "bidder@example.com")
	testutils.FundUser(t, testCtx, bidderID, 1000)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/asks/%s/bump", askID),
		models.BumpRequest{AmountSat: 200},
		testutils.AuthHeaders(bidderJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var bumpResponse models.BumpResponse
	err = json.Unmarshal(w.Body.Bytes(), &bumpResponse)
	assert.NoError(t, err)
	assert.Equal(t, int64(1300), bumpResponse.BumpSumSat)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/asks/%s/offers", askID),
		models.CreateOfferRequest{
			Content:     "lighthouse at dusk",
			ObscuredKey: "offers/lighthouse/obscured.png",
			ClearKey:    "offers/lighthouse/clear.png",
		},
		testutils.AuthHeaders(bidderJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var offerResponse models.OfferResponse
	err = json.Unmarshal(w.Body.Bytes(), &offerResponse)
	assert.NoError(t, err)
	offerID := offerResponse.OfferID

	// A non-owner cannot settle
	now = base.Add(25 * time.Hour)
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/asks/%s/settle", askID),
		models.SettleAskRequest{OfferID: offerID},
		testutils.AuthHeaders(bidderJWT),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owner settles inside the acceptance window
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/asks/%s/settle", askID),
		models.SettleAskRequest{OfferID: offerID},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	// The offerer received the bounty after the platform cut: 1300 * 0.91
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/balance",
		nil,
		testutils.AuthHeaders(bidderJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &balance)
	assert.NoError(t, err)
	assert.Equal(t, int64(800+1183), balance.AvailableSat)
	assert.Equal(t, int64(0), balance.LockedSat)

	// Settling again is a conflict
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/asks/%s/settle", askID),
		models.SettleAskRequest{OfferID: offerID},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBumpErrorMapping(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	testutils.FundUser(t, testCtx, testCtx.TestUserID, 5000)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/spaces",
		models.CreateSpaceRequest{Name: "art"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/asks",
		models.CreateAskRequest{
			Kind:           models.AskKindPrivate,
			AmountSat:      1100,
			Title:          "private bounty",
			Space:          "art",
			DeadlinePolicy: models.DeadlineOneDay,
		},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var askResponse models.AskResponse
	err := json.Unmarshal(w.Body.Bytes(), &askResponse)
	assert.NoError(t, err)

	bidderID, bidderJWT := testutils.CreateUser(t, testCtx, "bidder@example.com")
	testutils.FundUser(t, testCtx, bidderID, 1000)

	// PRIVATE asks cannot be bumped at all
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/asks/%s/bump", askResponse.Ask.ID),
		models.BumpRequest{AmountSat: 100},
		testutils.AuthHeaders(bidderJWT),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An unknown ask is a 404
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/asks/no-such-ask/bump",
		models.BumpRequest{AmountSat: 100},
		testutils.AuthHeaders(bidderJWT),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// A below-minimum bump on a PUBLIC ask is a 400
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/asks",
		models.CreateAskRequest{
			Kind:           models.AskKindPublic,
			AmountSat:      1100,
			Title:          "public bounty",
			Space:          "art",
			DeadlinePolicy: models.DeadlineOneDay,
		},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)
	err = json.Unmarshal(w.Body.Bytes(), &askResponse)
	assert.NoError(t, err)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/asks/%s/bump", askResponse.Ask.ID),
		models.BumpRequest{AmountSat: 5},
		testutils.AuthHeaders(bidderJWT),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A bump the bidder cannot afford is a 400 as well
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/asks/%s/bump", askResponse.Ask.ID),
		models.BumpRequest{AmountSat: 5000},
		testutils.AuthHeaders(bidderJWT),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAsksFiltersBySpace(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	testutils.FundUser(t, testCtx, testCtx.TestUserID, 5000)

	for _, name := range []string{"art", "maps"} {
		w := testutils.PerformRequest(
			testCtx.Router,
			http.MethodPost,
			"/api/spaces",
			models.CreateSpaceRequest{Name: name},
			testutils.AuthHeaders(testCtx.TestUserJWT),
		)
		assert.Equal(t, http.StatusOK, w.Code)

		w = testutils.PerformRequest(
			testCtx.Router,
			http.MethodPost,
			"/api/asks",
			models.CreateAskRequest{
				Kind:           models.AskKindPublic,
				AmountSat:      100,
				Title:          "bounty in " + name,
				Space:          name,
				DeadlinePolicy: models.DeadlineOneDay,
			},
			testutils.AuthHeaders(testCtx.TestUserJWT),
		)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/asks?space=art",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var listResponse models.AskListResponse
	err := json.Unmarshal(w.Body.Bytes(), &listResponse)
	assert.NoError(t, err)
	assert.Len(t, listResponse.Asks, 1)
	assert.Equal(t, "bounty in art", listResponse.Asks[0].Title)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/asks",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &listResponse)
	assert.NoError(t, err)
	assert.Len(t, listResponse.Asks, 2)
}
