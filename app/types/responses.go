package types

import "encoding/json"

type HealthRequest struct{}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// CallbackAckResponse is what the gateway sees; anything but "success" makes
// it retry.
type CallbackAckResponse struct {
	Status string `json:"status"`
}

type InitiatePaymentResponse struct {
	PaymentId         string `json:"payment_id,omitempty"`
	RedirectUrl       string `json:"redirect_url,omitempty"`
	AlreadyAccessible bool   `json:"already_accessible"`
	Reason            string `json:"reason,omitempty"`
	Reused            bool   `json:"reused,omitempty"`
}

type PaymentStatusResponse struct {
	PaymentId    string `json:"payment_id"`
	Status       string `json:"status"`
	IsSuccessful bool   `json:"is_successful"`
}

func (r *PaymentStatusResponse) GetStatus() string {
	if r == nil {
		return ""
	}
	return r.Status
}

type Payment struct {
	Id               string `json:"id"`
	UserId           uint64 `json:"user_id"`
	BookId           uint64 `json:"book_id"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	PayId            string `json:"pay_id,omitempty"`
	OrderId          string `json:"order_id,omitempty"`
	PayUrl           string `json:"pay_url,omitempty"`
	StatusCode       string `json:"status_code,omitempty"`
	StatusMessage    string `json:"status_message,omitempty"`
	Rrn              string `json:"rrn,omitempty"`
	ApprovalCode     string `json:"approval_code,omitempty"`
	CardNumber       string `json:"card_number,omitempty"`
	ThreeDs          string `json:"three_ds,omitempty"`
	RefundAmount     string `json:"refund_amount,omitempty"`
	RefundDate       string `json:"refund_date,omitempty"`
	Description      string `json:"description"`
	CallbackReceived bool   `json:"callback_received"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	PaidAt           string `json:"paid_at,omitempty"`
}

// PaymentAdmin adds the fields only operators may see.
type PaymentAdmin struct {
	Payment
	ClientIp     string          `json:"client_ip"`
	CallbackData json.RawMessage `json:"callback_data,omitempty"`
}

type PaymentLog struct {
	Id        uint64          `json:"id"`
	Kind      string          `json:"kind"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt string          `json:"created_at"`
}

type PaymentEnvelopeResponse struct {
	Payment *Payment `json:"payment"`
}

func (r *PaymentEnvelopeResponse) GetPayment() *Payment {
	if r == nil {
		return nil
	}
	return r.Payment
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type PaymentDetailsResponse struct {
	Payment *PaymentAdmin `json:"payment"`
	Logs    []*PaymentLog `json:"logs"`
}

type CredentialSet struct {
	Id            uint64 `json:"id"`
	Mode          string `json:"mode"`
	ProjectId     string `json:"project_id"`
	ProjectSecret string `json:"project_secret"`
	SignatureKey  string `json:"signature_key"`
	ApiBaseUrl    string `json:"api_base_url"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type CredentialEnvelopeResponse struct {
	Credentials *CredentialSet `json:"credentials"`
}

type ListCredentialsResponse struct {
	Credentials []*CredentialSet `json:"credentials"`
}

type CredentialTestResponse struct {
	Credentials *CredentialSet `json:"credentials"`
	Ok          bool           `json:"ok"`
	Message     string         `json:"message"`
}

type HasPurchasedResponse struct {
	BookId       uint64 `json:"book_id"`
	UserId       uint64 `json:"user_id"`
	HasPurchased bool   `json:"has_purchased"`
}

func (r *HasPurchasedResponse) GetHasPurchased() bool {
	if r == nil {
		return false
	}
	return r.HasPurchased
}
