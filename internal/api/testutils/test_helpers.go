package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/moogmodular/asksats-sub000/internal/api"
	"github.com/moogmodular/asksats-sub000/internal/blob"
	"github.com/moogmodular/asksats-sub000/internal/lightning"
	"github.com/moogmodular/asksats-sub000/internal/models"
	"github.com/moogmodular/asksats-sub000/internal/money"
	"github.com/moogmodular/asksats-sub000/internal/notify"
	"github.com/moogmodular/asksats-sub000/internal/repository"
	"github.com/moogmodular/asksats-sub000/internal/service"
	"github.com/moogmodular/asksats-sub000/internal/utils"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key"

// TestContext holds all dependencies for tests
type TestContext struct {
	Router      *gin.Engine
	Repository  *repository.MemoryRepository
	Service     *service.DefaultService
	Node        *lightning.FakeNode
	JWTSecret   []byte
	TestUserID  string
	TestUserJWT string
}

// SetupTestContext creates a new test context with initialized dependencies.
// The whole stack runs in process: an in-memory repository stands in for
// Postgres and a fake node for LND.
func SetupTestContext(t *testing.T) *TestContext {
	repo := repository.NewMemoryRepository()
	node := lightning.NewFakeNode()
	presigner := blob.NewPresigner("test-blob-secret", "http://store.local/blobs", 15*time.Minute)
	events := make(chan notify.Event, 64)

	// Create service
	svc := service.NewDefaultService(repo, node, presigner, events, utils.NewLogger(), testJWTSecret)

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(testJWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	testUserID, token := createTestUser(t, repo)

	return &TestContext{
		Router:      router,
		Repository:  repo,
		Service:     svc,
		Node:        node,
		JWTSecret:   []byte(testJWTSecret),
		TestUserID:  testUserID,
		TestUserJWT: token,
	}
}

// fundSeq spaces funding transactions out in the past so repeated FundUser
// calls never trip the settled-transaction cooldown.
var fundSeq int64

// FundUser seeds a user with an available balance through the ledger's
// normal deposit path: a pending invoice transaction that settles at once.
func FundUser(t *testing.T, ctx *TestContext, userID string, amountSat int64) {
	txn := &models.Transaction{
		ID:     uuid.New().String(),
		UserID: &userID,
		Kind:   models.TransactionKindInvoice,
		Hash:   uuid.New().String(),
	}
	seq := atomic.AddInt64(&fundSeq, 1)
	now := time.Now().UTC().Add(-24*time.Hour + time.Duration(seq)*2*money.SettledCooldown)
	err := ctx.Repository.CreateTransaction(context.Background(), txn, now)
	assert.NoError(t, err, "Failed to create funding transaction")

	err = ctx.Repository.SettleInvoiceTransaction(context.Background(), txn.ID, money.FromSat(amountSat), now)
	assert.NoError(t, err, "Failed to settle funding transaction")
}

// CreateUser registers an extra user and returns its ID and a valid JWT.
func CreateUser(t *testing.T, ctx *TestContext, email string) (string, string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     "Extra User",
		Password: string(hashedPassword),
	}
	err := ctx.Repository.CreateUser(context.Background(), user)
	assert.NoError(t, err, "Failed to create user")

	return user.ID, signToken(t, user.ID)
}

// Helper functions
func createTestUser(t *testing.T, repo *repository.MemoryRepository) (string, string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    "testuser@example.com",
		Name:     "Test User",
		Password: string(hashedPassword),
	}

	err := repo.CreateUser(context.Background(), user)
	assert.NoError(t, err, "Failed to create test user")

	return user.ID, signToken(t, user.ID)
}

func signToken(t *testing.T, userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(testJWTSecret))
	assert.NoError(t, err, "Failed to generate JWT token")
	return tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
