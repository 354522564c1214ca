package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

// BookRepository reads the catalogue table owned by the content side.
type BookRepository struct {
	db DBTX
}

func NewBookRepository(db DBTX) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) FindByID(ctx context.Context, id uint64) (*entity.Book, error) {
	query := `SELECT id, title, price, is_paid FROM books WHERE id = ?`

	book := &entity.Book{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&book.ID, &book.Title, &book.Price, &book.IsPaid)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return book, nil
}
