package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-book-payments/app/auth"
	"github.com/vibast-solutions/ms-go-book-payments/app/factory"
	"github.com/vibast-solutions/ms-go-book-payments/app/mapper"
	"github.com/vibast-solutions/ms-go-book-payments/app/service"
	"github.com/vibast-solutions/ms-go-book-payments/app/types"
)

// Refund failures carry the gateway's message; only administrators reach
// these handlers.
func (c *PaymentController) Refund(ctx echo.Context) error {
	req, err := types.NewRefundPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}
	amount, _ := req.RefundAmount()

	item, err := c.paymentService.Refund(ctx.Request().Context(), auth.UserFromContext(ctx), req.GetPaymentId(), amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			return c.writeError(ctx, http.StatusUnauthorized, "authentication required")
		case errors.Is(err, service.ErrForbidden):
			return c.writeError(ctx, http.StatusForbidden, "forbidden")
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPaymentNotFound):
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		case errors.Is(err, service.ErrRefundNotSuccessful), errors.Is(err, service.ErrAlreadyRefunded):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrRefundFailed), errors.Is(err, service.ErrGatewayUnavailable):
			return c.writeError(ctx, http.StatusBadGateway, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Refund failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToDTO(item)})
}

func (c *PaymentController) PaymentDetails(ctx echo.Context) error {
	req, err := types.NewPaymentIDRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, logs, err := c.paymentService.GetPaymentDetails(ctx.Request().Context(), req.GetId())
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get payment details failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.PaymentDetailsResponse{
		Payment: mapper.PaymentToAdminDTO(item),
		Logs:    mapper.PaymentLogsToDTO(logs),
	})
}

func (c *PaymentController) ListCredentials(ctx echo.Context) error {
	items, err := c.paymentService.ListCredentials(ctx.Request().Context())
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List credentials failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
	return ctx.JSON(http.StatusOK, &types.ListCredentialsResponse{Credentials: mapper.CredentialSetsToDTO(items)})
}

// SaveCredentials serves POST (create) and PUT /:id (update).
func (c *PaymentController) SaveCredentials(ctx echo.Context) error {
	req, err := types.NewSaveCredentialsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.SaveCredentials(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCredentialNotFound):
			return c.writeError(ctx, http.StatusNotFound, "credential set not found")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Save credentials failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	statusCode := http.StatusOK
	if req.GetId() == 0 {
		statusCode = http.StatusCreated
	}
	return ctx.JSON(statusCode, &types.CredentialEnvelopeResponse{Credentials: mapper.CredentialSetToDTO(item)})
}

// TestCredentials reports a failed token request in the body; the request
// itself succeeded.
func (c *PaymentController) TestCredentials(ctx echo.Context) error {
	req, err := types.NewCredentialIDRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.TestCredentials(ctx.Request().Context(), req.GetId())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCredentialNotFound):
			return c.writeError(ctx, http.StatusNotFound, "credential set not found")
		case errors.Is(err, service.ErrGatewayUnavailable):
			return ctx.JSON(http.StatusOK, &types.CredentialTestResponse{
				Credentials: mapper.CredentialSetToDTO(item),
				Ok:          false,
				Message:     err.Error(),
			})
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Test credentials failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.CredentialTestResponse{
		Credentials: mapper.CredentialSetToDTO(item),
		Ok:          true,
		Message:     "access token acquired",
	})
}
