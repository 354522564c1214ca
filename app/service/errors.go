package service

import (
	"errors"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrForbidden           = errors.New("forbidden")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrBookNotFound        = errors.New("book not found")
	ErrCredentialNotFound  = errors.New("credential set not found")
	ErrPurchaseInProgress  = errors.New("a purchase for this book is already in progress")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrInitiationFailed    = errors.New("payment could not be initiated")
	ErrCallbackRejected    = errors.New("callback rejected")
	ErrRefundFailed        = errors.New("refund failed")
	ErrRefundNotSuccessful = entity.ErrRefundNotSuccessful
	ErrAlreadyRefunded     = entity.ErrAlreadyRefunded
)
