package service

import (
	"context"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

// HasPurchased reports whether user may read book. Free books are open to
// everyone; paid books need an OK payment by an authenticated user.
func (s *PaymentService) HasPurchased(ctx context.Context, bookID uint64, user *entity.User) (bool, error) {
	if bookID == 0 {
		return false, ErrInvalidRequest
	}
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return false, err
	}
	if book == nil {
		return false, ErrBookNotFound
	}
	if !book.RequiresPurchase() {
		return true, nil
	}
	if user == nil {
		return false, nil
	}
	return s.paymentRepo.ExistsWithStatus(ctx, user.ID, book.ID, entity.PaymentStatusOK)
}

// HasPurchasedByUserID is HasPurchased for internal callers that only know
// the user id. Zero means anonymous.
func (s *PaymentService) HasPurchasedByUserID(ctx context.Context, bookID, userID uint64) (bool, error) {
	var user *entity.User
	if userID > 0 {
		user = &entity.User{ID: userID}
	}
	return s.HasPurchased(ctx, bookID, user)
}
