package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
	"github.com/vibast-solutions/ms-go-book-payments/app/gateway"
	"github.com/vibast-solutions/ms-go-book-payments/app/repository"
)

// HandleCallback authenticates a gateway notification and applies it to the
// ledger. It returns only after the write has committed. Anything that cannot
// be authenticated or matched is logged and reported as ErrCallbackRejected
// without touching the ledger.
func (s *PaymentService) HandleCallback(ctx context.Context, body []byte, contentType string) (*entity.Payment, error) {
	cb, err := gateway.ParseCallback(body, contentType)
	if err != nil {
		s.rejectCallback(ctx, err.Error(), map[string]interface{}{"body": truncate(string(body), 4096)})
		return nil, ErrCallbackRejected
	}

	creds, err := s.gateway.ActiveCredentials(ctx)
	if err != nil {
		s.rejectCallback(ctx, err.Error(), cb.Payload)
		return nil, ErrCallbackRejected
	}
	if cb.Signature == "" {
		s.rejectCallback(ctx, "missing signature", cb.Payload)
		return nil, ErrCallbackRejected
	}
	if !gateway.Verify(creds.SignatureKey, cb.Result, cb.Signature) {
		s.rejectCallback(ctx, "invalid signature", cb.Payload)
		return nil, ErrCallbackRejected
	}

	fields := cb.Fields()
	if fields.PayID == "" {
		s.rejectCallback(ctx, "missing payId", cb.Payload)
		return nil, ErrCallbackRejected
	}

	var (
		anomaly    error
		transition bool
	)
	payload := cb.PayloadJSON()
	now := time.Now().UTC()
	payment, err := s.paymentRepo.UpdateLockedByPayID(ctx, fields.PayID, func(p *entity.Payment) error {
		before := p.Status
		changed, err := applyGatewayResult(p, fields, entity.PaymentStatusFail, now)
		if err != nil {
			anomaly = err
			return repository.ErrSkipUpdate
		}
		if !p.CallbackReceived || p.CallbackData == nil || *p.CallbackData != payload {
			changed = true
		}
		p.CallbackReceived = true
		p.CallbackData = &payload
		if !changed {
			return repository.ErrSkipUpdate
		}
		transition = before != p.Status
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			s.rejectCallback(ctx, "unknown payId "+fields.PayID, cb.Payload)
			return nil, ErrCallbackRejected
		}
		return nil, err
	}

	if anomaly != nil {
		// Authentic but out of order. The ledger stays as is and the gateway
		// still gets an ack so it stops retrying.
		s.writeLog(ctx, &payment.ID, entity.PaymentLogError, "Callback anomaly: "+anomaly.Error(), cb.Payload)
		s.logger.WithField("payment_id", payment.ID).WithError(anomaly).Warn("Callback ignored")
		return payment, nil
	}

	s.writeLog(ctx, &payment.ID, entity.PaymentLogCallback, fmt.Sprintf("Callback processed: %s", payment.Status), cb.Payload)
	if transition {
		s.publishSettlement(ctx, payment)
	}
	return payment, nil
}

func (s *PaymentService) rejectCallback(ctx context.Context, reason string, data interface{}) {
	s.writeLog(ctx, nil, entity.PaymentLogError, "Callback rejected: "+reason, data)
	s.logger.WithField("reason", reason).Warn("Callback rejected")
}
