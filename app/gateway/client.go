package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

// Client talks to the gateway with one credential set. The access token is
// cached for the lifetime of the Client only.
type Client struct {
	creds  entity.CredentialSet
	cfg    Config
	http   *resty.Client
	logs   LogWriter
	logger logrus.FieldLogger
	token  string
}

type tokenRequest struct {
	ProjectID     string `json:"projectId"`
	ProjectSecret string `json:"projectSecret"`
}

type payItem struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

type payRequest struct {
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	ClientIP    string      `json:"clientIp"`
	Language    string      `json:"language"`
	Description string      `json:"description"`
	OrderID     string      `json:"orderId"`
	CallbackURL string      `json:"callbackUrl"`
	OkURL       string      `json:"okUrl"`
	FailURL     string      `json:"failUrl"`
	Items       []payItem   `json:"items"`
	Email       string      `json:"email,omitempty"`
	ClientName  string      `json:"clientName,omitempty"`
}

type refundRequest struct {
	PayID        string       `json:"payId"`
	RefundAmount *json.Number `json:"refundAmount,omitempty"`
}

type payInfoRequest struct {
	PayID string `json:"payId"`
}

type envelope struct {
	OK     bool                     `json:"ok"`
	Result map[string]interface{}   `json:"result"`
	Errors []map[string]interface{} `json:"errors"`

	httpStatus int
	raw        interface{}
}

func (c *Client) SignatureKey() string {
	return c.creds.SignatureKey
}

func (c *Client) Credentials() entity.CredentialSet {
	return c.creds
}

func (c *Client) AcquireToken(ctx context.Context) (string, error) {
	if c.token != "" {
		return c.token, nil
	}

	env, err := c.post(ctx, "generate-token", "/generate-token", tokenRequest{
		ProjectID:     c.creds.ProjectID,
		ProjectSecret: c.creds.ProjectSecret,
	}, false)
	if err == nil {
		if token := parseStringish(env.Result["accessToken"]); token != "" {
			c.token = token
			c.log(ctx, nil, entity.PaymentLogInfo, "Access token generated successfully", nil)
			return c.token, nil
		}
		err = &Error{Op: "generate-token", HTTPStatus: env.httpStatus, Message: "response carried no access token"}
	}

	c.log(ctx, nil, entity.PaymentLogError, "Failed to generate access token", errorData(err, env))
	return "", fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
}

// InitiatePayment opens a hosted payment session. On success the gateway
// identifiers are copied onto payment; on failure payment is left as is and
// the caller decides what to persist.
func (c *Client) InitiatePayment(ctx context.Context, payment *entity.Payment, order Order) (*InitiateResult, error) {
	paymentID := payment.ID
	if _, err := c.AcquireToken(ctx); err != nil {
		c.log(ctx, &paymentID, entity.PaymentLogError, "Payment initiation aborted: "+err.Error(), nil)
		return nil, err
	}

	base := order.Origin.BaseURL()
	pagePrefix := base + strings.TrimRight(c.cfg.PaymentsPath, "/") + "/" + payment.ID
	clientIP := strings.TrimSpace(order.Origin.ClientIP)
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}
	amount := json.Number(payment.Amount.StringFixed(2))

	body := payRequest{
		Amount:      amount,
		Currency:    payment.Currency,
		ClientIP:    clientIP,
		Language:    c.cfg.Language,
		Description: order.Description,
		OrderID:     payment.ID,
		CallbackURL: base + c.cfg.CallbackPath,
		OkURL:       pagePrefix + "/success",
		FailURL:     pagePrefix + "/fail",
		Items: []payItem{{
			ID:       order.ItemID,
			Name:     order.ItemName,
			Price:    amount,
			Quantity: 1,
		}},
		Email:      strings.TrimSpace(order.Email),
		ClientName: strings.TrimSpace(order.ClientName),
	}

	c.log(ctx, &paymentID, entity.PaymentLogRequest, "Initiating payment", body)
	env, err := c.post(ctx, "pay", "/pay", body, true)
	if env != nil {
		c.log(ctx, &paymentID, entity.PaymentLogResponse, fmt.Sprintf("Payment initiation response: %d", env.httpStatus), env.raw)
	}
	if err != nil {
		c.log(ctx, &paymentID, entity.PaymentLogError, "Payment initiation failed", errorData(err, nil))
		return nil, err
	}

	result := &InitiateResult{
		PayID:   parseStringish(env.Result["payId"]),
		OrderID: parseStringish(env.Result["orderId"]),
		PayURL:  parseStringish(env.Result["payUrl"]),
	}
	if result.PayID == "" || result.PayURL == "" {
		err := &Error{Op: "pay", HTTPStatus: env.httpStatus, Message: "response carried no payment url"}
		c.log(ctx, &paymentID, entity.PaymentLogError, "Payment initiation failed", errorData(err, nil))
		return nil, err
	}
	if result.OrderID == "" {
		result.OrderID = payment.ID
	}

	payment.PayID = &result.PayID
	payment.OrderID = &result.OrderID
	payment.PayURL = &result.PayURL

	return result, nil
}

// Refund returns the payment's money, fully when amount is nil. Ineligible
// payments are rejected before any network call.
func (c *Client) Refund(ctx context.Context, payment *entity.Payment, amount *decimal.Decimal) error {
	paymentID := payment.ID
	if err := payment.RefundEligibility(); err != nil {
		c.log(ctx, &paymentID, entity.PaymentLogError, "Refund rejected: "+err.Error(), map[string]interface{}{
			"status":     payment.Status,
			"refundDate": payment.RefundDate,
		})
		return err
	}
	if payment.PayID == nil || strings.TrimSpace(*payment.PayID) == "" {
		err := &Error{Op: "refund", Message: "payment has no gateway transaction id"}
		c.log(ctx, &paymentID, entity.PaymentLogError, "Refund rejected: "+err.Message, nil)
		return err
	}
	if _, err := c.AcquireToken(ctx); err != nil {
		c.log(ctx, &paymentID, entity.PaymentLogError, "Refund aborted: "+err.Error(), nil)
		return err
	}

	body := refundRequest{PayID: *payment.PayID}
	if amount != nil {
		n := json.Number(amount.StringFixed(2))
		body.RefundAmount = &n
	}

	c.log(ctx, &paymentID, entity.PaymentLogRequest, "Initiating refund", body)
	env, err := c.post(ctx, "refund", "/refund", body, true)
	if env != nil {
		c.log(ctx, &paymentID, entity.PaymentLogResponse, fmt.Sprintf("Refund response: %d", env.httpStatus), env.raw)
	}
	if err != nil {
		c.log(ctx, &paymentID, entity.PaymentLogError, "Refund failed", errorData(err, nil))
		return err
	}

	if err := payment.TransitionTo(entity.PaymentStatusRefunded); err != nil {
		return err
	}
	refunded := payment.Amount
	if amount != nil {
		refunded = *amount
	}
	now := time.Now().UTC()
	payment.RefundAmount = &refunded
	payment.RefundDate = &now

	result := ResultFromMap(env.Result)
	if result.StatusCode != "" {
		payment.StatusCode = &result.StatusCode
	}
	if result.StatusMessage != "" {
		payment.StatusMessage = &result.StatusMessage
	}

	return nil
}

// PollStatus asks the gateway for the transaction state. It never mutates
// payment; a nil result means there is nothing to ask about yet.
func (c *Client) PollStatus(ctx context.Context, payment *entity.Payment) (*Result, error) {
	if payment.PayID == nil || strings.TrimSpace(*payment.PayID) == "" {
		return nil, nil
	}
	paymentID := payment.ID
	if _, err := c.AcquireToken(ctx); err != nil {
		return nil, err
	}

	body := payInfoRequest{PayID: *payment.PayID}
	c.log(ctx, &paymentID, entity.PaymentLogRequest, "Polling payment status", body)
	env, err := c.post(ctx, "pay-info", "/pay-info", body, true)
	if env != nil {
		c.log(ctx, &paymentID, entity.PaymentLogResponse, fmt.Sprintf("Payment status response: %d", env.httpStatus), env.raw)
	}
	if err != nil {
		c.log(ctx, &paymentID, entity.PaymentLogError, "Payment status poll failed", errorData(err, nil))
		return nil, err
	}

	return ResultFromMap(env.Result), nil
}

func (c *Client) post(ctx context.Context, op, path string, body interface{}, withAuth bool) (*envelope, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if withAuth {
		req.SetAuthToken(c.token)
	}

	resp, err := req.Post(c.creds.BaseURL() + path)
	if err != nil {
		return nil, &Error{Op: op, Message: err.Error()}
	}

	env := &envelope{httpStatus: resp.StatusCode()}
	decoder := json.NewDecoder(bytes.NewReader(resp.Body()))
	decoder.UseNumber()
	var raw interface{}
	if err := decoder.Decode(&raw); err != nil {
		env.raw = map[string]interface{}{"body": truncate(string(resp.Body()), 1024)}
		return env, &Error{Op: op, HTTPStatus: resp.StatusCode(), Message: fmt.Sprintf("unexpected response status %d", resp.StatusCode())}
	}
	env.raw = raw
	if obj, ok := raw.(map[string]interface{}); ok {
		env.OK, _ = obj["ok"].(bool)
		env.Result, _ = obj["result"].(map[string]interface{})
		if list, ok := obj["errors"].([]interface{}); ok {
			for _, item := range list {
				if m, ok := item.(map[string]interface{}); ok {
					env.Errors = append(env.Errors, m)
				}
			}
		}
	}

	if resp.StatusCode() != http.StatusOK || !env.OK {
		return env, env.failure(op)
	}
	return env, nil
}

func (e *envelope) failure(op string) *Error {
	out := &Error{Op: op, HTTPStatus: e.httpStatus, Message: "unknown error"}
	if len(e.Errors) > 0 {
		out.Code = parseStringish(e.Errors[0]["errorCode"])
		if msg := parseStringish(e.Errors[0]["errorMessage"]); msg != "" {
			out.Message = msg
		}
	} else if e.httpStatus != http.StatusOK {
		out.Message = fmt.Sprintf("unexpected response status %d", e.httpStatus)
	}
	return out
}

func (c *Client) log(ctx context.Context, paymentID *string, kind entity.PaymentLogKind, message string, data interface{}) {
	writeLog(ctx, c.logs, c.logger, paymentID, kind, message, data)
}

// writeLog appends an audit entry. A failed write is reported to the process
// log and never fails the gateway operation.
func writeLog(ctx context.Context, logs LogWriter, logger logrus.FieldLogger, paymentID *string, kind entity.PaymentLogKind, message string, data interface{}) {
	if logs == nil {
		return
	}

	entry := &entity.PaymentLog{
		PaymentID: paymentID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if data != nil {
		encoded, err := json.Marshal(data)
		if err == nil {
			s := string(encoded)
			entry.DataJSON = &s
		}
	}

	if err := logs.Create(context.WithoutCancel(ctx), entry); err != nil {
		logger.WithError(err).WithField("kind", kind).Warn("Failed to write payment log")
	}
}

func errorData(err error, env *envelope) map[string]interface{} {
	data := map[string]interface{}{"error": err.Error()}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		data["op"] = gwErr.Op
		data["httpStatus"] = gwErr.HTTPStatus
		if gwErr.Code != "" {
			data["errorCode"] = gwErr.Code
		}
	}
	if env != nil && env.raw != nil {
		data["response"] = env.raw
	}
	return data
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
