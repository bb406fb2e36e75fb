package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/moogmodular/asksats-sub000/internal/blob"
	"github.com/moogmodular/asksats-sub000/internal/errs"
	"github.com/moogmodular/asksats-sub000/internal/lightning"
	"github.com/moogmodular/asksats-sub000/internal/models"
	"github.com/moogmodular/asksats-sub000/internal/money"
	"github.com/moogmodular/asksats-sub000/internal/notify"
	"github.com/moogmodular/asksats-sub000/internal/repository"
	"github.com/moogmodular/asksats-sub000/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Balance and transaction log
	Balance(ctx context.Context, userID string) (*models.BalanceResponse, error)
	ListTransactions(ctx context.Context, userID string) (*models.TransactionListResponse, error)

	// Spaces
	CreateSpace(ctx context.Context, userID string, req models.CreateSpaceRequest) (*models.SpaceResponse, error)
	GetSpace(ctx context.Context, spaceID string) (*models.SpaceResponse, error)
	ListSpaces(ctx context.Context) (*models.SpaceListResponse, error)

	// Ask lifecycle
	CreateAsk(ctx context.Context, userID string, req models.CreateAskRequest) (*models.AskResponse, error)
	GetAsk(ctx context.Context, askID string) (*models.AskResponse, error)
	ListAsks(ctx context.Context, spaceName string) (*models.AskListResponse, error)
	BumpAsk(ctx context.Context, userID, askID string, amountSat int64) (*models.BumpResponse, error)
	ListBumps(ctx context.Context, askID string) (*models.BumpListResponse, error)
	CancelAsk(ctx context.Context, userID, askID string) error
	SettleAsk(ctx context.Context, userID, askID, offerID string) error

	// Offers
	CreateOffer(ctx context.Context, userID, askID string, req models.CreateOfferRequest) (*models.OfferResponse, error)
	ListOffers(ctx context.Context, viewerID, askID string) (*models.OfferListResponse, error)
	ViewOffer(ctx context.Context, viewerID, offerID string) (*models.OfferViewResponse, error)

	// Wallet
	CreateInvoice(ctx context.Context, userID string, amountSat int64) (*models.InvoiceResponse, error)
	CreateWithdrawal(ctx context.Context, userID, payRequest string) (*models.WithdrawalResponse, error)
	SettleInvoice(ctx context.Context, transactionID string, amount money.Msat) error
	CancelInvoice(ctx context.Context, transactionID string) error
	SettleWithdrawal(ctx context.Context, k1 string, confirmed, fee money.Msat) error

	// Uploads
	UploadURL(ctx context.Context, userID, key string) (*models.UploadURLResponse, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	node          lightning.Node
	presigner     *blob.Presigner
	events        chan notify.Event
	logger        *utils.Logger
	jwtSecret     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewDefaultService creates a new DefaultService. The events channel carries
// post-commit notification side effects to the notify worker.
func NewDefaultService(
	repo repository.Repository,
	node lightning.Node,
	presigner *blob.Presigner,
	events chan notify.Event,
	logger *utils.Logger,
	jwtSecret string,
) *DefaultService {
	return &DefaultService{
		repo:          repo,
		node:          node,
		presigner:     presigner,
		events:        events,
		logger:        logger,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the service clock; tests use this to pin time.
func (s *DefaultService) SetClock(now func() time.Time) {
	s.now = now
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	existingUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}

	if existingUser != nil {
		return nil, errs.Conflict("user with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// The custodial balance starts at zero; funds only enter through a
	// settled invoice.
	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return &models.AuthResponse{
		Status: "success",
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, errs.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errs.Unauthorized("invalid email or password")
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// Balance is a pure read of the custodial balance, converted to whole
// satoshi with floor rounding.
func (s *DefaultService) Balance(ctx context.Context, userID string) (*models.BalanceResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("user not found")
	}

	return &models.BalanceResponse{
		Status:       "success",
		AvailableSat: user.AvailableMsat.Sat(),
		LockedSat:    user.LockedMsat.Sat(),
	}, nil
}

func (s *DefaultService) ListTransactions(ctx context.Context, userID string) (*models.TransactionListResponse, error) {
	txns, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}

	return &models.TransactionListResponse{
		Status:       "success",
		Transactions: txns,
	}, nil
}

// Spaces
func (s *DefaultService) CreateSpace(ctx context.Context, userID string, req models.CreateSpaceRequest) (*models.SpaceResponse, error) {
	existing, err := s.repo.GetSpaceByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("error checking space existence: %w", err)
	}
	if existing != nil {
		return nil, errs.Conflict("space with this name already exists")
	}

	space := &models.Space{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     &userID,
	}

	if err := s.repo.CreateSpace(ctx, space); err != nil {
		return nil, fmt.Errorf("error creating space: %w", err)
	}

	return &models.SpaceResponse{Status: "success", Space: *space}, nil
}

func (s *DefaultService) GetSpace(ctx context.Context, spaceID string) (*models.SpaceResponse, error) {
	space, err := s.repo.GetSpaceByID(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("error getting space: %w", err)
	}
	if space == nil {
		return nil, errs.NotFound("space not found")
	}
	return &models.SpaceResponse{Status: "success", Space: *space}, nil
}

func (s *DefaultService) ListSpaces(ctx context.Context) (*models.SpaceListResponse, error) {
	spaces, err := s.repo.ListSpaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing spaces: %w", err)
	}
	return &models.SpaceListResponse{Status: "success", Spaces: spaces}, nil
}

// UploadURL issues a presigned upload URL for an opaque blob key.
func (s *DefaultService) UploadURL(ctx context.Context, userID, key string) (*models.UploadURLResponse, error) {
	if key == "" {
		return nil, errs.InvalidState("upload key must not be empty")
	}

	return &models.UploadURLResponse{
		Status: "success",
		Key:    key,
		URL:    s.presigner.UploadURL(key, s.now()),
	}, nil
}

// emit queues a post-commit notification without ever blocking the calling
// request. A full channel drops the event; delivery is best-effort only.
func (s *DefaultService) emit(ev notify.Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Error("notification queue full, dropping %s", ev.Kind)
	}
}

func (s *DefaultService) notifyAddressOf(ctx context.Context, userID string) string {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil || user == nil || user.NotifyAddress == nil {
		return ""
	}
	return *user.NotifyAddress
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := s.now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": user.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": s.now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
