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

// RunReconcileBatch polls the gateway for PENDING payments that have not
// changed for a while, covering callbacks the gateway never delivered.
func (s *PaymentService) RunReconcileBatch(ctx context.Context) error {
	before := time.Now().UTC().Add(-s.paymentsCfg.ReconcileStaleAfter)
	items, err := s.paymentRepo.ListForReconcile(ctx, before, s.batchSize())
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	client, err := s.gateway.Open(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	for _, payment := range items {
		if payment == nil || payment.PayID == nil {
			continue
		}
		if _, err := s.reconcile(ctx, client, payment); err != nil {
			firstErr = keepFirstErr(firstErr, err)
		}
	}

	return firstErr
}

// RunExpirePendingBatch cancels PENDING payments older than the pending
// timeout. Payments that reached the gateway are polled first and are left
// alone when the poll fails, so a late success is never cancelled blindly.
func (s *PaymentService) RunExpirePendingBatch(ctx context.Context) error {
	if s.paymentsCfg.PendingTimeout <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-s.paymentsCfg.PendingTimeout)
	items, err := s.paymentRepo.ListStalePending(ctx, cutoff, s.batchSize())
	if err != nil {
		return err
	}

	var (
		firstErr error
		client   *gateway.Client
		openErr  error
		opened   bool
	)
	for _, payment := range items {
		if payment == nil || payment.Status != entity.PaymentStatusPending {
			continue
		}

		if payment.PayID != nil {
			if !opened {
				client, openErr = s.gateway.Open(ctx)
				opened = true
			}
			if openErr != nil {
				firstErr = keepFirstErr(firstErr, openErr)
				continue
			}
			updated, err := s.reconcile(ctx, client, payment)
			if err != nil {
				firstErr = keepFirstErr(firstErr, err)
				continue
			}
			if updated.Status != entity.PaymentStatusPending {
				continue
			}
		}

		if err := s.expire(ctx, payment.ID); err != nil {
			firstErr = keepFirstErr(firstErr, err)
		}
	}

	return firstErr
}

func (s *PaymentService) expire(ctx context.Context, paymentID string) error {
	message := fmt.Sprintf("expired after %s without a result", s.paymentsCfg.PendingTimeout)
	expired := false
	_, err := s.paymentRepo.UpdateLockedByID(ctx, paymentID, func(p *entity.Payment) error {
		if p.Status != entity.PaymentStatusPending {
			return repository.ErrSkipUpdate
		}
		if err := p.TransitionTo(entity.PaymentStatusCancelled); err != nil {
			return err
		}
		p.StatusMessage = &message
		expired = true
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil
		}
		return err
	}
	if expired {
		s.writeLog(ctx, &paymentID, entity.PaymentLogInfo, "Payment cancelled: "+message, nil)
	}
	return nil
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
