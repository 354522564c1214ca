package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPaymentTransitionsFollowLifecycle(t *testing.T) {
	all := []PaymentStatus{PaymentStatusPending, PaymentStatusOK, PaymentStatusFail, PaymentStatusCancelled, PaymentStatusRefunded}
	allowed := map[PaymentStatus]map[PaymentStatus]bool{
		PaymentStatusPending: {PaymentStatusOK: true, PaymentStatusFail: true, PaymentStatusCancelled: true},
		PaymentStatusOK:      {PaymentStatusRefunded: true},
	}

	for _, from := range all {
		for _, to := range all {
			p := &Payment{Status: from}
			err := p.TransitionTo(to)
			if allowed[from][to] {
				if err != nil {
					t.Fatalf("%s -> %s should be allowed, got %v", from, to, err)
				}
				if p.Status != to {
					t.Fatalf("expected status %s after transition, got %s", to, p.Status)
				}
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s -> %s should be rejected, got %v", from, to, err)
			}
			if p.Status != from {
				t.Fatalf("rejected transition mutated status to %s", p.Status)
			}
		}
	}
}

func TestRefundEligibility(t *testing.T) {
	pending := &Payment{Status: PaymentStatusPending}
	if !errors.Is(pending.RefundEligibility(), ErrRefundNotSuccessful) {
		t.Fatal("pending payment must not be refundable")
	}

	now := time.Now()
	refunded := &Payment{Status: PaymentStatusOK, RefundDate: &now}
	if !errors.Is(refunded.RefundEligibility(), ErrAlreadyRefunded) {
		t.Fatal("payment with refund date must report already refunded")
	}

	afterRefund := &Payment{Status: PaymentStatusRefunded, RefundDate: &now}
	if !errors.Is(afterRefund.RefundEligibility(), ErrAlreadyRefunded) {
		t.Fatal("refunded payment must report already refunded")
	}

	ok := &Payment{Status: PaymentStatusOK, Amount: decimal.RequireFromString("150.00")}
	if !ok.CanRefund() {
		t.Fatal("successful payment should be refundable")
	}
}

func TestParsePaymentStatus(t *testing.T) {
	status, ok := ParsePaymentStatus(" ok ")
	if !ok || status != PaymentStatusOK {
		t.Fatalf("expected OK, got %q ok=%v", status, ok)
	}
	if _, ok := ParsePaymentStatus("SETTLED"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("Production")
	if err != nil || mode != ModeProduction {
		t.Fatalf("expected production mode, got %q err=%v", mode, err)
	}
	if _, err := ParseMode("sandbox"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestBookRequiresPurchase(t *testing.T) {
	free := &Book{IsPaid: false, Price: decimal.RequireFromString("150.00")}
	if free.RequiresPurchase() {
		t.Fatal("unflagged book should be free")
	}
	zero := &Book{IsPaid: true, Price: decimal.Zero}
	if zero.RequiresPurchase() {
		t.Fatal("zero-priced book should be free")
	}
	paid := &Book{IsPaid: true, Price: decimal.RequireFromString("150.00")}
	if !paid.RequiresPurchase() {
		t.Fatal("paid book should require purchase")
	}
}

func TestCredentialSetBaseURLFallsBackToDefault(t *testing.T) {
	set := &CredentialSet{}
	if set.BaseURL() != DefaultGatewayBaseURL {
		t.Fatalf("unexpected base url: %s", set.BaseURL())
	}
	set.APIBaseURL = "http://localhost:9000/v1/"
	if set.BaseURL() != "http://localhost:9000/v1" {
		t.Fatalf("expected trailing slash trimmed, got %s", set.BaseURL())
	}
}
