package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

// PaymentLogRepository writes audit entries outside of any payment
// transaction. payment_logs has no foreign key to payments, so inserts never
// wait on a row lock held by the payment being audited.
type PaymentLogRepository struct {
	db DBTX
}

func NewPaymentLogRepository(db DBTX) *PaymentLogRepository {
	return &PaymentLogRepository{db: db}
}

func (r *PaymentLogRepository) Create(ctx context.Context, entry *entity.PaymentLog) error {
	query := `
		INSERT INTO payment_logs (payment_id, kind, message, data_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableStringValue(entry.PaymentID),
		string(entry.Kind),
		entry.Message,
		nullableStringValue(entry.DataJSON),
		entry.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = uint64(id)

	return nil
}

func (r *PaymentLogRepository) ListByPayment(ctx context.Context, paymentID string) ([]*entity.PaymentLog, error) {
	query := `
		SELECT id, payment_id, kind, message, data_json, created_at
		FROM payment_logs
		WHERE payment_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*entity.PaymentLog, 0)
	for rows.Next() {
		var kind string
		var pid, data sql.NullString
		entry := &entity.PaymentLog{}
		if err := rows.Scan(&entry.ID, &pid, &kind, &entry.Message, &data, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.PaymentID = stringPtrFromNull(pid)
		entry.Kind = entity.PaymentLogKind(kind)
		entry.DataJSON = stringPtrFromNull(data)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
