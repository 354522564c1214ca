package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusOK        PaymentStatus = "OK"
	PaymentStatusFail      PaymentStatus = "FAIL"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

var (
	ErrInvalidTransition   = errors.New("invalid payment status transition")
	ErrRefundNotSuccessful = errors.New("can only refund successful payments")
	ErrAlreadyRefunded     = errors.New("payment already refunded")
)

var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusOK, PaymentStatusFail, PaymentStatusCancelled},
	PaymentStatusOK:      {PaymentStatusRefunded},
}

// ParsePaymentStatus accepts the gateway spelling of a status, case-insensitively.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch PaymentStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case PaymentStatusPending:
		return PaymentStatusPending, true
	case PaymentStatusOK:
		return PaymentStatusOK, true
	case PaymentStatusFail:
		return PaymentStatusFail, true
	case PaymentStatusCancelled:
		return PaymentStatusCancelled, true
	case PaymentStatusRefunded:
		return PaymentStatusRefunded, true
	default:
		return "", false
	}
}

// IsSettled reports whether the status counts as a completed sale.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusOK || s == PaymentStatusRefunded
}

type Payment struct {
	ID string

	UserID uint64
	BookID uint64

	Amount   decimal.Decimal
	Currency string
	Status   PaymentStatus

	PayID   *string
	OrderID *string
	PayURL  *string

	StatusCode    *string
	StatusMessage *string
	RRN           *string
	ApprovalCode  *string
	CardNumber    *string
	ThreeDS       *string

	RefundAmount *decimal.Decimal
	RefundDate   *time.Time

	ClientIP         string
	Description      string
	CallbackData     *string
	CallbackReceived bool

	CreatedAt time.Time
	UpdatedAt time.Time
	PaidAt    *time.Time
}

func (p *Payment) CanTransitionTo(next PaymentStatus) bool {
	for _, candidate := range allowedTransitions[p.Status] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (p *Payment) TransitionTo(next PaymentStatus) error {
	if !p.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, next)
	}
	p.Status = next
	return nil
}

func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentStatusOK
}

// RefundEligibility returns nil when a refund may be attempted. A refunded
// payment reports ErrAlreadyRefunded rather than the generic status error.
func (p *Payment) RefundEligibility() error {
	if p.RefundDate != nil || p.Status == PaymentStatusRefunded {
		return ErrAlreadyRefunded
	}
	if p.Status != PaymentStatusOK {
		return ErrRefundNotSuccessful
	}
	return nil
}

func (p *Payment) CanRefund() bool {
	return p.RefundEligibility() == nil
}
