package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-book-payments/app/factory"
	"github.com/vibast-solutions/ms-go-book-payments/app/service"
	"github.com/vibast-solutions/ms-go-book-payments/app/types"
)

// HasPurchased is the internal access check used by the catalogue before it
// serves a paid book.
func (c *PaymentController) HasPurchased(ctx echo.Context) error {
	req, err := types.NewHasPurchasedRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	purchased, err := c.paymentService.HasPurchasedByUserID(ctx.Request().Context(), req.GetBookId(), req.GetUserId())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrBookNotFound):
			return c.writeError(ctx, http.StatusNotFound, "book not found")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Access check failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.HasPurchasedResponse{
		BookId:       req.GetBookId(),
		UserId:       req.GetUserId(),
		HasPurchased: purchased,
	})
}
