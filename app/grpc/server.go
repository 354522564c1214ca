package grpc

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
	"github.com/vibast-solutions/ms-go-book-payments/app/mapper"
	"github.com/vibast-solutions/ms-go-book-payments/app/service"
	"github.com/vibast-solutions/ms-go-book-payments/app/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// internalOperator acts for callers that passed internal service auth. Those
// are trusted back-office services, so they carry administrator rights.
var internalOperator = &entity.User{IsAdmin: true, DisplayName: "internal"}

type Server struct {
	types.UnimplementedPaymentsServiceServer
	paymentService *service.PaymentService
}

func NewServer(paymentService *service.PaymentService) *Server {
	return &Server{paymentService: paymentService}
}

func (s *Server) Health(_ context.Context, _ *types.HealthRequest) (*types.HealthResponse, error) {
	return &types.HealthResponse{Status: "ok"}, nil
}

func (s *Server) HasPurchased(ctx context.Context, req *types.HasPurchasedRequest) (*types.HasPurchasedResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	purchased, err := s.paymentService.HasPurchasedByUserID(ctx, req.GetBookId(), req.GetUserId())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, service.ErrBookNotFound):
			return nil, status.Error(codes.NotFound, "book not found")
		default:
			loggerWithContext(ctx).WithError(err).Error("Access check failed")
			return nil, status.Error(codes.Internal, "internal server error")
		}
	}

	return &types.HasPurchasedResponse{BookId: req.GetBookId(), UserId: req.GetUserId(), HasPurchased: purchased}, nil
}

func (s *Server) GetPaymentStatus(ctx context.Context, req *types.PaymentIDRequest) (*types.PaymentStatusResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	item, err := s.paymentService.LookupStatus(ctx, req.GetId())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, service.ErrPaymentNotFound):
			return nil, status.Error(codes.NotFound, "payment not found")
		default:
			loggerWithContext(ctx).WithError(err).Error("Get payment status failed")
			return nil, status.Error(codes.Internal, "internal server error")
		}
	}

	return mapper.PaymentStatusToDTO(item), nil
}

func (s *Server) RefundPayment(ctx context.Context, req *types.RefundPaymentRequest) (*types.PaymentEnvelopeResponse, error) {
	l := loggerWithContext(ctx)
	if err := req.Validate(); err != nil {
		l.WithError(err).Debug("Refund validation failed")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	amount, _ := req.RefundAmount()

	item, err := s.paymentService.Refund(ctx, internalOperator, req.GetPaymentId(), amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, service.ErrPaymentNotFound):
			return nil, status.Error(codes.NotFound, "payment not found")
		case errors.Is(err, service.ErrRefundNotSuccessful), errors.Is(err, service.ErrAlreadyRefunded):
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		case errors.Is(err, service.ErrGatewayUnavailable):
			return nil, status.Error(codes.Unavailable, err.Error())
		case errors.Is(err, service.ErrRefundFailed):
			return nil, status.Error(codes.Aborted, err.Error())
		default:
			l.WithError(err).Error("Refund failed")
			return nil, status.Error(codes.Internal, "internal server error")
		}
	}

	return &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToDTO(item)}, nil
}
