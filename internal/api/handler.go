package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moogmodular/asksats-sub000/internal/errs"
	"github.com/moogmodular/asksats-sub000/internal/models"
	"github.com/moogmodular/asksats-sub000/internal/service"
)

// Handler wires HTTP routes to the service layer
type Handler struct {
	svc service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
	}

	authed := router.Group("/api")
	authed.Use(AuthMiddleware())
	{
		authed.GET("/balance", h.Balance)
		authed.GET("/wallet/transactions", h.ListTransactions)
		authed.POST("/wallet/invoice", h.CreateInvoice)
		authed.POST("/wallet/withdraw", h.CreateWithdrawal)

		authed.POST("/spaces", h.CreateSpace)
		authed.GET("/spaces", h.ListSpaces)
		authed.GET("/spaces/:id", h.GetSpace)

		authed.POST("/asks", h.CreateAsk)
		authed.GET("/asks", h.ListAsks)
		authed.GET("/asks/:id", h.GetAsk)
		authed.POST("/asks/:id/bump", h.BumpAsk)
		authed.GET("/asks/:id/bumps", h.ListBumps)
		authed.POST("/asks/:id/cancel", h.CancelAsk)
		authed.POST("/asks/:id/settle", h.SettleAsk)

		authed.POST("/asks/:id/offers", h.CreateOffer)
		authed.GET("/asks/:id/offers", h.ListOffers)
		authed.GET("/offers/:id", h.ViewOffer)

		authed.POST("/uploads", h.UploadURL)
	}
}

// Authentication handlers

func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Wallet handlers

func (h *Handler) Balance(c *gin.Context) {
	resp, err := h.svc.Balance(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	resp, err := h.svc.ListTransactions(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateInvoice(c *gin.Context) {
	var req models.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.CreateInvoice(c.Request.Context(), userID(c), req.AmountSat)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateWithdrawal(c *gin.Context) {
	var req models.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.CreateWithdrawal(c.Request.Context(), userID(c), req.PayRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Space handlers

func (h *Handler) CreateSpace(c *gin.Context) {
	var req models.CreateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.CreateSpace(c.Request.Context(), userID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetSpace(c *gin.Context) {
	resp, err := h.svc.GetSpace(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListSpaces(c *gin.Context) {
	resp, err := h.svc.ListSpaces(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ask handlers

func (h *Handler) CreateAsk(c *gin.Context) {
	var req models.CreateAskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.CreateAsk(c.Request.Context(), userID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListAsks(c *gin.Context) {
	resp, err := h.svc.ListAsks(c.Request.Context(), c.Query("space"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetAsk(c *gin.Context) {
	resp, err := h.svc.GetAsk(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) BumpAsk(c *gin.Context) {
	var req models.BumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.BumpAsk(c.Request.Context(), userID(c), c.Param("id"), req.AmountSat)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListBumps(c *gin.Context) {
	resp, err := h.svc.ListBumps(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CancelAsk(c *gin.Context) {
	if err := h.svc.CancelAsk(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) SettleAsk(c *gin.Context) {
	var req models.SettleAskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.SettleAsk(c.Request.Context(), userID(c), c.Param("id"), req.OfferID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Offer handlers

func (h *Handler) CreateOffer(c *gin.Context) {
	var req models.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.CreateOffer(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListOffers(c *gin.Context) {
	resp, err := h.svc.ListOffers(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ViewOffer(c *gin.Context) {
	resp, err := h.svc.ViewOffer(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Upload handlers

func (h *Handler) UploadURL(c *gin.Context) {
	var req models.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.UploadURL(c.Request.Context(), userID(c), req.Key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Helpers

func userID(c *gin.Context) string {
	return c.GetString("userId")
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "BAD_REQUEST",
		Message: err.Error(),
	})
}

// writeError maps the closed error-code set onto HTTP statuses. Anything
// without a code is an internal failure and stays opaque to the client.
func writeError(c *gin.Context, err error) {
	code := errs.CodeOf(err)

	status := http.StatusInternalServerError
	message := err.Error()
	switch code {
	case errs.CodeInsufficientBalance, errs.CodeBelowMinimum:
		status = http.StatusBadRequest
	case errs.CodeUnauthorized:
		status = http.StatusUnauthorized
	case errs.CodeForbidden:
		status = http.StatusForbidden
	case errs.CodeNotFound:
		status = http.StatusNotFound
	case errs.CodeInvalidState, errs.CodeConflict:
		status = http.StatusConflict
	case errs.CodeRateLimited:
		status = http.StatusTooManyRequests
	default:
		message = "internal error"
	}

	c.JSON(status, models.ErrorResponse{
		Status:  "error",
		Code:    string(code),
		Message: message,
	})
}
