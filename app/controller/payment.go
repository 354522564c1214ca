package controller

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-book-payments/app/auth"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
	"github.com/vibast-solutions/ms-go-book-payments/app/factory"
	"github.com/vibast-solutions/ms-go-book-payments/app/gateway"
	"github.com/vibast-solutions/ms-go-book-payments/app/mapper"
	"github.com/vibast-solutions/ms-go-book-payments/app/service"
	"github.com/vibast-solutions/ms-go-book-payments/app/types"
)

const maxCallbackBody = 64 << 10

type PaymentController struct {
	paymentService *service.PaymentService
	logger         logrus.FieldLogger
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         factory.NewModuleLogger("payments-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) Initiate(ctx echo.Context) error {
	req, err := types.NewInitiatePaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	origin := gateway.Origin{Host: ctx.Request().Host, ClientIP: ctx.RealIP()}
	result, err := c.paymentService.Initiate(ctx.Request().Context(), auth.UserFromContext(ctx), req.GetBookId(), origin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			return c.writeError(ctx, http.StatusUnauthorized, "authentication required")
		case errors.Is(err, service.ErrBookNotFound):
			return c.writeError(ctx, http.StatusNotFound, "book not found")
		case errors.Is(err, service.ErrPurchaseInProgress):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInitiationFailed), errors.Is(err, service.ErrGatewayUnavailable):
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Warn("Payment initiation failed")
			return c.writeError(ctx, http.StatusBadGateway, "payment could not be initiated")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Initiate payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	resp := &types.InitiatePaymentResponse{
		RedirectUrl:       result.RedirectURL,
		AlreadyAccessible: result.AlreadyAccessible,
		Reason:            result.Reason,
		Reused:            result.Reused,
	}
	if result.Payment != nil {
		resp.PaymentId = result.Payment.ID
	}
	if result.AlreadyAccessible {
		return ctx.JSON(http.StatusOK, resp)
	}
	return ctx.JSON(http.StatusCreated, resp)
}

// Callback is the gateway's notification endpoint. It answers only after the
// ledger write, and a 5xx on storage failures makes the gateway retry.
func (c *PaymentController) Callback(ctx echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxCallbackBody))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, &types.CallbackAckResponse{Status: "error"})
	}

	_, err = c.paymentService.HandleCallback(ctx.Request().Context(), body, ctx.Request().Header.Get(echo.HeaderContentType))
	if err != nil {
		if errors.Is(err, service.ErrCallbackRejected) {
			return ctx.JSON(http.StatusBadRequest, &types.CallbackAckResponse{Status: "error"})
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Handle callback failed")
		return ctx.JSON(http.StatusInternalServerError, &types.CallbackAckResponse{Status: "error"})
	}

	return ctx.JSON(http.StatusOK, &types.CallbackAckResponse{Status: "success"})
}

func (c *PaymentController) Status(ctx echo.Context) error {
	item, ok, err := c.runOwned(ctx, "Check status failed", c.paymentService.CheckStatus)
	if !ok {
		return err
	}
	return ctx.JSON(http.StatusOK, mapper.PaymentStatusToDTO(item))
}

// Success is where the hosted page sends the buyer after paying.
func (c *PaymentController) Success(ctx echo.Context) error {
	item, ok, err := c.runOwned(ctx, "Confirm return failed", c.paymentService.ConfirmReturn)
	if !ok {
		return err
	}
	return ctx.JSON(http.StatusOK, &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToDTO(item)})
}

func (c *PaymentController) Fail(ctx echo.Context) error {
	item, ok, err := c.runOwned(ctx, "Mark return failed failed", c.paymentService.MarkReturnFailed)
	if !ok {
		return err
	}
	return ctx.JSON(http.StatusOK, &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToDTO(item)})
}

type ownedAction func(ctx context.Context, user *entity.User, paymentID string) (*entity.Payment, error)

// runOwned runs a per-payment action for the caller. When ok is false the
// error response has already been written and err is what the handler returns.
func (c *PaymentController) runOwned(ctx echo.Context, op string, action ownedAction) (*entity.Payment, bool, error) {
	req, err := types.NewPaymentIDRequestFromContext(ctx)
	if err != nil {
		return nil, false, c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return nil, false, c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := action(ctx.Request().Context(), auth.UserFromContext(ctx), req.GetId())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			return nil, false, c.writeError(ctx, http.StatusUnauthorized, "authentication required")
		case errors.Is(err, service.ErrInvalidRequest):
			return nil, false, c.writeError(ctx, http.StatusBadRequest, "invalid payment id")
		case errors.Is(err, service.ErrPaymentNotFound):
			return nil, false, c.writeError(ctx, http.StatusNotFound, "payment not found")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error(op)
			return nil, false, c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}
	return item, true, nil
}

func (c *PaymentController) History(ctx echo.Context) error {
	req, err := types.NewListPaymentsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.paymentService.History(ctx.Request().Context(), auth.UserFromContext(ctx), req)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			return c.writeError(ctx, http.StatusUnauthorized, "authentication required")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List payments failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ListPaymentsResponse{Payments: mapper.PaymentsToDTO(items)})
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
