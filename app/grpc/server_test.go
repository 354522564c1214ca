package grpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
	"github.com/vibast-solutions/ms-go-book-payments/app/gateway"
	"github.com/vibast-solutions/ms-go-book-payments/app/repository"
	"github.com/vibast-solutions/ms-go-book-payments/app/service"
	"github.com/vibast-solutions/ms-go-book-payments/app/types"
	"github.com/vibast-solutions/ms-go-book-payments/config"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type grpcPaymentRepo struct {
	findByIDFn         func(ctx context.Context, id string) (*entity.Payment, error)
	existsWithStatusFn func(ctx context.Context, userID, bookID uint64, status entity.PaymentStatus) (bool, error)
	updateLockedFn     func(ctx context.Context, id string, fn func(*entity.Payment) error) (*entity.Payment, error)
}

func (r *grpcPaymentRepo) Create(context.Context, *entity.Payment) error { return nil }
func (r *grpcPaymentRepo) Update(context.Context, *entity.Payment) error { return nil }

func (r *grpcPaymentRepo) UpdateLockedByID(ctx context.Context, id string, fn func(*entity.Payment) error) (*entity.Payment, error) {
	if r.updateLockedFn != nil {
		return r.updateLockedFn(ctx, id, fn)
	}
	return nil, repository.ErrPaymentNotFound
}

func (r *grpcPaymentRepo) UpdateLockedByPayID(context.Context, string, func(*entity.Payment) error) (*entity.Payment, error) {
	return nil, repository.ErrPaymentNotFound
}

func (r *grpcPaymentRepo) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (r *grpcPaymentRepo) FindLatestPending(context.Context, uint64, uint64, time.Time) (*entity.Payment, error) {
	return nil, nil
}

func (r *grpcPaymentRepo) ExistsWithStatus(ctx context.Context, userID, bookID uint64, status entity.PaymentStatus) (bool, error) {
	if r.existsWithStatusFn != nil {
		return r.existsWithStatusFn(ctx, userID, bookID, status)
	}
	return false, nil
}

func (r *grpcPaymentRepo) ListByUser(context.Context, uint64, int32, int32) ([]*entity.Payment, error) {
	return []*entity.Payment{}, nil
}

func (r *grpcPaymentRepo) ListForReconcile(context.Context, time.Time, int32) ([]*entity.Payment, error) {
	return []*entity.Payment{}, nil
}

func (r *grpcPaymentRepo) ListStalePending(context.Context, time.Time, int32) ([]*entity.Payment, error) {
	return []*entity.Payment{}, nil
}

type grpcLogRepo struct{}

func (r *grpcLogRepo) Create(context.Context, *entity.PaymentLog) error { return nil }
func (r *grpcLogRepo) ListByPayment(context.Context, string) ([]*entity.PaymentLog, error) {
	return []*entity.PaymentLog{}, nil
}

type grpcBookRepo struct {
	books map[uint64]*entity.Book
}

func (r *grpcBookRepo) FindByID(_ context.Context, id uint64) (*entity.Book, error) {
	return r.books[id], nil
}

type grpcCredentialRepo struct {
	active *entity.CredentialSet
}

func (r *grpcCredentialRepo) FindActive(context.Context, entity.Mode) (*entity.CredentialSet, error) {
	return r.active, nil
}

func (r *grpcCredentialRepo) FindByID(context.Context, uint64) (*entity.CredentialSet, error) {
	return r.active, nil
}

func (r *grpcCredentialRepo) List(context.Context) ([]*entity.CredentialSet, error) {
	return []*entity.CredentialSet{r.active}, nil
}

func (r *grpcCredentialRepo) Save(context.Context, *entity.CredentialSet) error { return nil }

func newGRPCServerForTest(t *testing.T, repo *grpcPaymentRepo, gatewayHandler http.HandlerFunc) *Server {
	t.Helper()
	if gatewayHandler == nil {
		gatewayHandler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
	maib := httptest.NewServer(gatewayHandler)
	t.Cleanup(maib.Close)

	credentials := &grpcCredentialRepo{active: &entity.CredentialSet{
		ID:            1,
		Mode:          entity.ModeTest,
		ProjectID:     "project-1",
		ProjectSecret: "secret-1",
		SignatureKey:  "sig-key",
		APIBaseURL:    maib.URL,
		IsActive:      true,
	}}
	books := &grpcBookRepo{books: map[uint64]*entity.Book{
		20: {ID: 20, Title: "Drept civil", Price: decimal.RequireFromString("150.00"), IsPaid: true},
		21: {ID: 21, Title: "Constitutia", IsPaid: false},
	}}
	logs := &grpcLogRepo{}
	factory := gateway.NewFactory(credentials, logs, gateway.Config{Mode: entity.ModeTest, HTTPTimeout: 2 * time.Second})
	paymentService := service.NewPaymentService(repo, logs, books, credentials, factory, config.PaymentsConfig{
		Currency:     "MDL",
		JobBatchSize: 100,
	})
	return NewServer(paymentService)
}

func paidPayment(id string) *entity.Payment {
	payID := "pay-" + id
	return &entity.Payment{
		ID:       id,
		UserID:   10,
		BookID:   20,
		Amount:   decimal.RequireFromString("150.00"),
		Currency: "MDL",
		Status:   entity.PaymentStatusOK,
		PayID:    &payID,
	}
}

func TestHealth(t *testing.T) {
	srv := newGRPCServerForTest(t, &grpcPaymentRepo{}, nil)
	resp, err := srv.Health(context.Background(), &types.HealthRequest{})
	if err != nil || resp.Status != "ok" {
		t.Fatalf("unexpected health response: %+v err=%v", resp, err)
	}
}

func TestHasPurchasedInvalidArgument(t *testing.T) {
	srv := newGRPCServerForTest(t, &grpcPaymentRepo{}, nil)

	_, err := srv.HasPurchased(context.Background(), &types.HasPurchasedRequest{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestHasPurchased(t *testing.T) {
	repo := &grpcPaymentRepo{existsWithStatusFn: func(_ context.Context, userID, bookID uint64, st entity.PaymentStatus) (bool, error) {
		return userID == 10 && bookID == 20 && st == entity.PaymentStatusOK, nil
	}}
	srv := newGRPCServerForTest(t, repo, nil)

	resp, err := srv.HasPurchased(context.Background(), &types.HasPurchasedRequest{BookId: 20, UserId: 10})
	if err != nil || !resp.GetHasPurchased() {
		t.Fatalf("expected purchase, got %+v err=%v", resp, err)
	}

	resp, err = srv.HasPurchased(context.Background(), &types.HasPurchasedRequest{BookId: 20})
	if err != nil || resp.GetHasPurchased() {
		t.Fatalf("anonymous user must not have access, got %+v err=%v", resp, err)
	}

	resp, err = srv.HasPurchased(context.Background(), &types.HasPurchasedRequest{BookId: 21})
	if err != nil || !resp.GetHasPurchased() {
		t.Fatalf("free book must be accessible, got %+v err=%v", resp, err)
	}

	_, err = srv.HasPurchased(context.Background(), &types.HasPurchasedRequest{BookId: 99, UserId: 10})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestGetPaymentStatus(t *testing.T) {
	repo := &grpcPaymentRepo{findByIDFn: func(_ context.Context, id string) (*entity.Payment, error) {
		if id == "p-1" {
			return paidPayment(id), nil
		}
		return nil, nil
	}}
	srv := newGRPCServerForTest(t, repo, nil)

	resp, err := srv.GetPaymentStatus(context.Background(), &types.PaymentIDRequest{Id: "p-1"})
	if err != nil || resp.GetStatus() != "OK" || !resp.IsSuccessful {
		t.Fatalf("unexpected status: %+v err=%v", resp, err)
	}

	_, err = srv.GetPaymentStatus(context.Background(), &types.PaymentIDRequest{Id: "missing"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	_, err = srv.GetPaymentStatus(context.Background(), &types.PaymentIDRequest{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestRefundPaymentAlreadyRefunded(t *testing.T) {
	refunded := paidPayment("p-1")
	refunded.Status = entity.PaymentStatusRefunded
	now := time.Now().UTC()
	refunded.RefundDate = &now

	repo := &grpcPaymentRepo{
		findByIDFn: func(context.Context, string) (*entity.Payment, error) { return refunded, nil },
		updateLockedFn: func(_ context.Context, _ string, fn func(*entity.Payment) error) (*entity.Payment, error) {
			working := *refunded
			if err := fn(&working); err != nil && err != repository.ErrSkipUpdate {
				return nil, err
			}
			return &working, nil
		},
	}
	srv := newGRPCServerForTest(t, repo, nil)

	_, err := srv.RefundPayment(context.Background(), &types.RefundPaymentRequest{PaymentId: "p-1"})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
}

func TestRefundPaymentSuccess(t *testing.T) {
	stored := paidPayment("p-1")
	repo := &grpcPaymentRepo{
		findByIDFn: func(context.Context, string) (*entity.Payment, error) { return stored, nil },
		updateLockedFn: func(_ context.Context, _ string, fn func(*entity.Payment) error) (*entity.Payment, error) {
			working := *stored
			if err := fn(&working); err != nil {
				if err == repository.ErrSkipUpdate {
					return &working, nil
				}
				return nil, err
			}
			stored = &working
			return &working, nil
		},
	}
	srv := newGRPCServerForTest(t, repo, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/generate-token":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"accessToken":"tok-1"}}`))
		case "/refund":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"payId":"pay-p-1","status":"OK"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	resp, err := srv.RefundPayment(context.Background(), &types.RefundPaymentRequest{PaymentId: "p-1", Amount: "50.00"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.GetPayment().Status != "REFUNDED" || resp.GetPayment().RefundAmount != "50.00" {
		t.Fatalf("unexpected refund response: %+v", resp.GetPayment())
	}
}

func TestRefundPaymentInvalidAmount(t *testing.T) {
	srv := newGRPCServerForTest(t, &grpcPaymentRepo{}, nil)

	_, err := srv.RefundPayment(context.Background(), &types.RefundPaymentRequest{PaymentId: "p-1", Amount: "-5"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
