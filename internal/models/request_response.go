package models

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateSpaceRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateAskRequest struct {
	Kind           AskKind        `json:"kind" binding:"required,oneof=PUBLIC PRIVATE BUMP_PUBLIC"`
	AmountSat      int64          `json:"amountSat" binding:"required,gt=0"`
	Title          string         `json:"title" binding:"required"`
	Content        string         `json:"content"`
	Tags           []string       `json:"tags"`
	Space          string         `json:"space" binding:"required"`
	DeadlinePolicy DeadlinePolicy `json:"deadlinePolicy" binding:"required,oneof=ONE_DAY THREE_DAYS SEVEN_DAYS"`
}

type BumpRequest struct {
	AmountSat int64 `json:"amountSat" binding:"required,gt=0"`
}

type SettleAskRequest struct {
	OfferID string `json:"offerId" binding:"required"`
}

type CreateOfferRequest struct {
	Content     string `json:"content"`
	ObscuredKey string `json:"obscuredKey" binding:"required"`
	ClearKey    string `json:"clearKey" binding:"required"`
}

type CreateInvoiceRequest struct {
	AmountSat int64 `json:"amountSat" binding:"required,gt=0"`
}

type CreateWithdrawalRequest struct {
	PayRequest string `json:"payRequest" binding:"required"`
}

type UploadURLRequest struct {
	Key string `json:"key" binding:"required"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type BalanceResponse struct {
	Status       string `json:"status"`
	AvailableSat int64  `json:"availableSat"`
	LockedSat    int64  `json:"lockedSat"`
}

type AskResponse struct {
	Status string `json:"status"`
	Ask    AskView `json:"ask"`
}

// AskView is an Ask plus its derived facts.
type AskView struct {
	Ask
	TemporalStatus TemporalAskStatus `json:"temporalStatus"`
	BumpSumSat     int64             `json:"bumpSumSat"`
	MinBumpSat     int64             `json:"minBumpSat"`
	OfferCount     int               `json:"offerCount"`
}

type AskListResponse struct {
	Status string    `json:"status"`
	Asks   []AskView `json:"asks"`
}

type BumpListResponse struct {
	Status string `json:"status"`
	Bumps  []Bump `json:"bumps"`
}

type BumpResponse struct {
	Status     string `json:"status"`
	BumpID     string `json:"bumpId"`
	BumpSumSat int64  `json:"bumpSumSat"`
}

type OfferResponse struct {
	Status  string `json:"status"`
	OfferID string `json:"offerId"`
}

// OfferViewResponse carries the presigned file URLs the viewer is allowed
// to see. ClearURL is empty when the clear file is not revealed.
type OfferViewResponse struct {
	Status      string `json:"status"`
	Offer       Offer  `json:"offer"`
	ObscuredURL string `json:"obscuredUrl"`
	ClearURL    string `json:"clearUrl,omitempty"`
}

type OfferListResponse struct {
	Status string              `json:"status"`
	Offers []OfferViewResponse `json:"offers"`
}

type InvoiceResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	PayRequest    string `json:"payRequest"`
	ExpiresIn     int64  `json:"expiresIn"`
}

type WithdrawalResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	AmountSat     int64  `json:"amountSat"`
}

type TransactionListResponse struct {
	Status       string        `json:"status"`
	Transactions []Transaction `json:"transactions"`
}

type SpaceResponse struct {
	Status string `json:"status"`
	Space  Space  `json:"space"`
}

type SpaceListResponse struct {
	Status string  `json:"status"`
	Spaces []Space `json:"spaces"`
}

type UploadURLResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	URL    string `json:"url"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
