package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

func TestRunReconcileBatchAppliesGatewayOutcome(t *testing.T) {
	env := newTestEnv(t)
	seedPayment(env, "p-1", entity.PaymentStatusPending, "pay-1")
	env.maib.on("/pay-info", http.StatusOK, `{"ok":true,"result":{"payId":"pay-1","status":"DECLINED","statusMessage":"Insufficient funds"}}`)

	if err := env.svc.RunReconcileBatch(context.Background()); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	stored := env.payments.get("p-1")
	if stored.Status != entity.PaymentStatusFail || stored.StatusMessage == nil || *stored.StatusMessage != "Insufficient funds" {
		t.Fatalf("expected FAIL from gateway, got %+v", stored)
	}
	if len(env.publisher.statuses()) != 0 {
		t.Fatal("FAIL is not a settlement")
	}
}

func TestRunReconcileBatchNothingToDo(t *testing.T) {
	env := newTestEnv(t)
	env.credentials.sets[1].IsActive = false

	if err := env.svc.RunReconcileBatch(context.Background()); err != nil {
		t.Fatalf("empty batch must not need credentials, got %v", err)
	}
}

func TestRunReconcileBatchReportsGatewayErrors(t *testing.T) {
	env := newTestEnv(t)
	seedPayment(env, "p-1", entity.PaymentStatusPending, "pay-1")
	env.maib.on("/pay-info", http.StatusBadGateway, `{"ok":false}`)

	if err := env.svc.RunReconcileBatch(context.Background()); err == nil {
		t.Fatal("expected gateway error to be reported")
	}
	if env.payments.get("p-1").Status != entity.PaymentStatusPending {
		t.Fatal("payment must stay pending")
	}
}

func TestRunExpirePendingBatch(t *testing.T) {
	env := newTestEnv(t)
	seedPayment(env, "p-abandoned", entity.PaymentStatusPending, "")
	seedPayment(env, "p-paid-late", entity.PaymentStatusPending, "pay-2")
	env.maib.on("/pay-info", http.StatusOK, `{"ok":true,"result":{"payId":"pay-2","status":"OK"}}`)

	if err := env.svc.RunExpirePendingBatch(context.Background()); err != nil {
		t.Fatalf("expire failed: %v", err)
	}

	abandoned := env.payments.get("p-abandoned")
	if abandoned.Status != entity.PaymentStatusCancelled || abandoned.StatusMessage == nil {
		t.Fatalf("expected abandoned payment cancelled, got %+v", abandoned)
	}
	if late := env.payments.get("p-paid-late"); late.Status != entity.PaymentStatusOK {
		t.Fatalf("late success must be kept, got %s", late.Status)
	}
	if !env.logs.has(entity.PaymentLogInfo, "Payment cancelled") {
		t.Fatal("expected expiry to be logged")
	}
}

func TestRunExpirePendingBatchLeavesPaymentWhenPollFails(t *testing.T) {
	env := newTestEnv(t)
	seedPayment(env, "p-1", entity.PaymentStatusPending, "pay-1")
	env.maib.on("/pay-info", http.StatusInternalServerError, `{"ok":false}`)

	if err := env.svc.RunExpirePendingBatch(context.Background()); err == nil {
		t.Fatal("expected poll error")
	}
	if env.payments.get("p-1").Status != entity.PaymentStatusPending {
		t.Fatal("payment must not be cancelled blindly")
	}
}

func TestRunExpirePendingBatchSkipsFreshPayments(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.Initiate(context.Background(), reader(), 20, publicOrigin()); err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	if err := env.svc.RunExpirePendingBatch(context.Background()); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if env.maib.count("/pay-info") != 0 {
		t.Fatal("fresh payments must not be touched")
	}
}
