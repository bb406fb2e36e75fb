package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/moogmodular/asksats-sub000/internal/api/testutils"
	"github.com/moogmodular/asksats-sub000/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSignup(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	req := models.SignUpRequest{
		Email:    "bidder@example.com",
		Password: "longenoughpassword",
		Name:     "bidder",
	}
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/signup", req, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.AuthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "bidder@example.com", resp.Email)

	// Same email again is a conflict
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/signup", req, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing password and name fail binding
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/signup",
		models.SignUpRequest{Email: "incomplete@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Email: "testuser@example.com", Password: "testpassword"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.AuthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Email: "testuser@example.com", Password: "wrongpassword"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Email: "nobody@example.com", Password: "testpassword"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticatedRoutesRejectMissingToken(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/balance", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/balance", nil,
		testutils.AuthHeaders("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
