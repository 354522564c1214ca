package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
	"github.com/vibast-solutions/ms-go-book-payments/app/repository"
)

// Refund returns money for a successful payment, fully when amount is nil.
// The gateway call runs while the row is locked so a concurrent callback
// cannot interleave with the refund transition.
func (s *PaymentService) Refund(ctx context.Context, admin *entity.User, paymentID string, amount *decimal.Decimal) (*entity.Payment, error) {
	if admin == nil {
		return nil, ErrUnauthenticated
	}
	if !admin.IsAdmin {
		return nil, ErrForbidden
	}
	if amount != nil && !amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be positive", ErrInvalidRequest)
	}
	if _, err := s.findPayment(ctx, paymentID); err != nil {
		return nil, err
	}

	client, err := s.gateway.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	var refundErr error
	payment, err := s.paymentRepo.UpdateLockedByID(ctx, paymentID, func(p *entity.Payment) error {
		if p.RefundEligibility() == nil && amount != nil && amount.GreaterThan(p.Amount) {
			refundErr = fmt.Errorf("%w: refund amount exceeds payment amount", ErrInvalidRequest)
			s.writeLog(ctx, &p.ID, entity.PaymentLogError, "Refund rejected: "+refundErr.Error(), map[string]interface{}{
				"amount":       p.Amount.StringFixed(2),
				"refundAmount": amount.StringFixed(2),
			})
			return repository.ErrSkipUpdate
		}
		if err := client.Refund(ctx, p, amount); err != nil {
			refundErr = err
			return repository.ErrSkipUpdate
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if refundErr != nil {
		switch {
		case errors.Is(refundErr, ErrRefundNotSuccessful), errors.Is(refundErr, ErrAlreadyRefunded), errors.Is(refundErr, ErrInvalidRequest):
			return nil, refundErr
		default:
			s.logger.WithError(refundErr).WithField("payment_id", paymentID).Error("Refund failed")
			return nil, fmt.Errorf("%w: %s", ErrRefundFailed, gatewayMessage(refundErr))
		}
	}

	s.logger.WithField("payment_id", payment.ID).WithField("admin_id", admin.ID).Info("Payment refunded")
	s.publishSettlement(ctx, payment)
	return payment, nil
}
