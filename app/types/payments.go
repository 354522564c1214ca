package types

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type InitiatePaymentRequest struct {
	BookId uint64 `json:"book_id"`
}

func (r *InitiatePaymentRequest) GetBookId() uint64 {
	if r == nil {
		return 0
	}
	return r.BookId
}

// NewInitiatePaymentRequestFromContext accepts the book id either in the path
// or in the body, so the storefront can post a bare form.
func NewInitiatePaymentRequestFromContext(ctx echo.Context) (*InitiatePaymentRequest, error) {
	var body InitiatePaymentRequest
	if raw := strings.TrimSpace(ctx.Param("book_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		body.BookId = id
		return &body, nil
	}
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &body, nil
}

func (r *InitiatePaymentRequest) Validate() error {
	if r.GetBookId() == 0 {
		return errors.New("book_id is required")
	}
	return nil
}

type PaymentIDRequest struct {
	Id string `json:"payment_id"`
}

func (r *PaymentIDRequest) GetId() string {
	if r == nil {
		return ""
	}
	return r.Id
}

func NewPaymentIDRequestFromContext(ctx echo.Context) (*PaymentIDRequest, error) {
	return &PaymentIDRequest{Id: strings.TrimSpace(ctx.Param("id"))}, nil
}

func (r *PaymentIDRequest) Validate() error {
	if strings.TrimSpace(r.GetId()) == "" {
		return errors.New("invalid payment id")
	}
	return nil
}

type ListPaymentsRequest struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (r *ListPaymentsRequest) GetLimit() int32 {
	if r == nil {
		return 0
	}
	return r.Limit
}

func (r *ListPaymentsRequest) GetOffset() int32 {
	if r == nil {
		return 0
	}
	return r.Offset
}

func NewListPaymentsRequestFromContext(ctx echo.Context) (*ListPaymentsRequest, error) {
	req := &ListPaymentsRequest{Limit: 50}

	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	if offsetRaw := strings.TrimSpace(ctx.QueryParam("offset")); offsetRaw != "" {
		offset, err := strconv.ParseInt(offsetRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *ListPaymentsRequest) Validate() error {
	if r.GetLimit() <= 0 || r.GetLimit() > 100 {
		return errors.New("limit must be between 1 and 100")
	}
	if r.GetOffset() < 0 {
		return errors.New("offset must be >= 0")
	}
	return nil
}

type RefundPaymentRequest struct {
	PaymentId string `json:"payment_id"`
	// Amount is a decimal string; empty means a full refund.
	Amount string `json:"amount"`
}

func (r *RefundPaymentRequest) GetPaymentId() string {
	if r == nil {
		return ""
	}
	return r.PaymentId
}

func (r *RefundPaymentRequest) GetAmount() string {
	if r == nil {
		return ""
	}
	return r.Amount
}

func NewRefundPaymentRequestFromContext(ctx echo.Context) (*RefundPaymentRequest, error) {
	var body RefundPaymentRequest
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.PaymentId = strings.TrimSpace(ctx.Param("id"))
	body.Amount = strings.TrimSpace(body.Amount)
	return &body, nil
}

func (r *RefundPaymentRequest) Validate() error {
	if strings.TrimSpace(r.GetPaymentId()) == "" {
		return errors.New("invalid payment id")
	}
	_, err := r.RefundAmount()
	return err
}

// RefundAmount returns nil for a full refund.
func (r *RefundPaymentRequest) RefundAmount() (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.GetAmount())
	if raw == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errors.New("amount must be a decimal number")
	}
	if !amount.IsPositive() {
		return nil, errors.New("amount must be > 0")
	}
	if amount.Exponent() < -2 && !amount.Equal(amount.Round(2)) {
		return nil, errors.New("amount must have at most two decimals")
	}
	return &amount, nil
}

type SaveCredentialsRequest struct {
	Id            uint64 `json:"id"`
	Mode          string `json:"mode"`
	ProjectId     string `json:"project_id"`
	ProjectSecret string `json:"project_secret"`
	SignatureKey  string `json:"signature_key"`
	ApiBaseUrl    string `json:"api_base_url"`
	IsActive      bool   `json:"is_active"`
}

func (r *SaveCredentialsRequest) GetId() uint64 {
	if r == nil {
		return 0
	}
	return r.Id
}

func (r *SaveCredentialsRequest) GetMode() string {
	if r == nil {
		return ""
	}
	return r.Mode
}

func (r *SaveCredentialsRequest) GetProjectId() string {
	if r == nil {
		return ""
	}
	return r.ProjectId
}

func (r *SaveCredentialsRequest) GetProjectSecret() string {
	if r == nil {
		return ""
	}
	return r.ProjectSecret
}

func (r *SaveCredentialsRequest) GetSignatureKey() string {
	if r == nil {
		return ""
	}
	return r.SignatureKey
}

func (r *SaveCredentialsRequest) GetApiBaseUrl() string {
	if r == nil {
		return ""
	}
	return r.ApiBaseUrl
}

func (r *SaveCredentialsRequest) GetIsActive() bool {
	if r == nil {
		return false
	}
	return r.IsActive
}

// NewSaveCredentialsRequestFromContext serves both create and update; the id
// comes from the path on update and is never taken from the body.
func NewSaveCredentialsRequestFromContext(ctx echo.Context) (*SaveCredentialsRequest, error) {
	var body SaveCredentialsRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Id = 0
	if raw := strings.TrimSpace(ctx.Param("id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		body.Id = id
	}
	body.Mode = strings.ToLower(strings.TrimSpace(body.Mode))
	body.ProjectId = strings.TrimSpace(body.ProjectId)
	body.ApiBaseUrl = strings.TrimSpace(body.ApiBaseUrl)
	return &body, nil
}

func (r *SaveCredentialsRequest) Validate() error {
	if r.GetMode() != "test" && r.GetMode() != "production" {
		return errors.New("mode must be test or production")
	}
	if strings.TrimSpace(r.GetProjectId()) == "" {
		return errors.New("project_id is required")
	}
	if r.GetId() == 0 && (strings.TrimSpace(r.GetProjectSecret()) == "" || strings.TrimSpace(r.GetSignatureKey()) == "") {
		return errors.New("project_secret and signature_key are required")
	}
	return nil
}

type CredentialIDRequest struct {
	Id uint64 `json:"id"`
}

func (r *CredentialIDRequest) GetId() uint64 {
	if r == nil {
		return 0
	}
	return r.Id
}

func NewCredentialIDRequestFromContext(ctx echo.Context) (*CredentialIDRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &CredentialIDRequest{Id: id}, nil
}

func (r *CredentialIDRequest) Validate() error {
	if r.GetId() == 0 {
		return errors.New("invalid credential id")
	}
	return nil
}

type HasPurchasedRequest struct {
	BookId uint64 `json:"book_id"`
	// UserId zero asks on behalf of an anonymous visitor.
	UserId uint64 `json:"user_id"`
}

func (r *HasPurchasedRequest) GetBookId() uint64 {
	if r == nil {
		return 0
	}
	return r.BookId
}

func (r *HasPurchasedRequest) GetUserId() uint64 {
	if r == nil {
		return 0
	}
	return r.UserId
}

func NewHasPurchasedRequestFromContext(ctx echo.Context) (*HasPurchasedRequest, error) {
	bookID, err := strconv.ParseUint(ctx.Param("book_id"), 10, 64)
	if err != nil {
		return nil, err
	}
	req := &HasPurchasedRequest{BookId: bookID}
	if raw := strings.TrimSpace(ctx.QueryParam("user_id")); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		req.UserId = userID
	}
	return req, nil
}

func (r *HasPurchasedRequest) Validate() error {
	if r.GetBookId() == 0 {
		return errors.New("book_id is required")
	}
	return nil
}
