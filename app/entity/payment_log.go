package entity

import "time"

type PaymentLogKind string

const (
	PaymentLogRequest  PaymentLogKind = "request"
	PaymentLogResponse PaymentLogKind = "response"
	PaymentLogCallback PaymentLogKind = "callback"
	PaymentLogError    PaymentLogKind = "error"
	PaymentLogInfo     PaymentLogKind = "info"
)

// PaymentLog is an append-only audit entry. PaymentID is nil for entries
// that are not tied to a payment, such as token failures.
type PaymentLog struct {
	ID uint64

	PaymentID *string

	Kind     PaymentLogKind
	Message  string
	DataJSON *string

	CreatedAt time.Time
}
