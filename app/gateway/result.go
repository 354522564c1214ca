package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

var (
	ErrNoActiveCredentials = errors.New("no active gateway credentials")
	ErrTokenUnavailable    = errors.New("failed to obtain access token")
	ErrMalformedCallback   = errors.New("malformed callback payload")
)

// Error is a failed gateway call. Message is the first error the gateway
// reported, or a transport description when it reported none.
type Error struct {
	Op         string
	HTTPStatus int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway %s failed: %s (%s)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("gateway %s failed: %s", e.Op, e.Message)
}

// Result is the gateway's view of one transaction, as delivered by a
// callback or a pay-info poll.
type Result struct {
	PayID         string
	OrderID       string
	Status        string
	StatusCode    string
	StatusMessage string
	ThreeDS       string
	RRN           string
	Approval      string
	CardNumber    string
	Amount        *decimal.Decimal
	RefundAmount  *decimal.Decimal
	Raw           map[string]interface{}
}

func ResultFromMap(m map[string]interface{}) *Result {
	if m == nil {
		m = map[string]interface{}{}
	}
	return &Result{
		PayID:         parseStringish(m["payId"]),
		OrderID:       parseStringish(m["orderId"]),
		Status:        parseStringish(m["status"]),
		StatusCode:    parseStringish(m["statusCode"]),
		StatusMessage: parseStringish(m["statusMessage"]),
		ThreeDS:       parseStringish(m["threeDs"]),
		RRN:           parseStringish(m["rrn"]),
		Approval:      parseStringish(m["approval"]),
		CardNumber:    parseStringish(m["cardNumber"]),
		Amount:        parseDecimalish(m["amount"]),
		RefundAmount:  parseDecimalish(m["refundAmount"]),
		Raw:           m,
	}
}

// PaymentStatus maps the gateway's transaction status onto the ledger's
// status set. The gateway reports a few intermediate and decline states
// that have no ledger counterpart of their own.
func (r *Result) PaymentStatus() (entity.PaymentStatus, bool) {
	switch strings.ToUpper(r.Status) {
	case "OK":
		return entity.PaymentStatusOK, true
	case "FAIL", "DECLINED":
		return entity.PaymentStatusFail, true
	case "CANCELLED", "TIMEOUT":
		return entity.PaymentStatusCancelled, true
	case "PENDING", "CREATED":
		return entity.PaymentStatusPending, true
	case "REFUNDED", "REVERSED":
		return entity.PaymentStatusRefunded, true
	default:
		return "", false
	}
}

type InitiateResult struct {
	PayID   string
	OrderID string
	PayURL  string
}

// Order carries what the gateway needs besides the payment itself.
type Order struct {
	Origin      Origin
	ItemID      string
	ItemName    string
	Description string
	Email       string
	ClientName  string
}

// Origin is the serving host the purchase request arrived on.
type Origin struct {
	Host     string
	ClientIP string
}

// Scheme is http only for loopback or local hosts. The gateway checks that
// callback URLs are reachable, so public hosts always get https.
func (o Origin) Scheme() string {
	if IsLocalHost(o.Host) {
		return "http"
	}
	return "https"
}

func (o Origin) BaseURL() string {
	return o.Scheme() + "://" + strings.TrimRight(strings.TrimSpace(o.Host), "/")
}

func IsLocalHost(hostport string) bool {
	host := strings.TrimSpace(hostport)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(strings.ToLower(host), "[]")
	if host == "" {
		return false
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

func parseStringish(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func parseDecimalish(v interface{}) *decimal.Decimal {
	raw := parseStringish(v)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}
