package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAlreadyExists = errors.New("payment already exists")
	// ErrSkipUpdate is returned from a locked update callback to release the
	// lock without writing.
	ErrSkipUpdate = errors.New("skip payment update")
)

const paymentColumns = `id, user_id, book_id, amount, currency, status,
	pay_id, order_id, pay_url,
	status_code, status_message, rrn, approval_code, card_number, three_ds,
	refund_amount, refund_date,
	client_ip, description, callback_data, callback_received,
	created_at, updated_at, paid_at`

type PaymentRepository struct {
	db TxDB
}

func NewPaymentRepository(db TxDB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.UserID,
		payment.BookID,
		payment.Amount,
		payment.Currency,
		string(payment.Status),
		nullableStringValue(payment.PayID),
		nullableStringValue(payment.OrderID),
		nullableStringValue(payment.PayURL),
		nullableStringValue(payment.StatusCode),
		nullableStringValue(payment.StatusMessage),
		nullableStringValue(payment.RRN),
		nullableStringValue(payment.ApprovalCode),
		nullableStringValue(payment.CardNumber),
		nullableStringValue(payment.ThreeDS),
		nullableDecimalValue(payment.RefundAmount),
		nullableTimeValue(payment.RefundDate),
		payment.ClientIP,
		payment.Description,
		nullableStringValue(payment.CallbackData),
		payment.CallbackReceived,
		payment.CreatedAt,
		payment.UpdatedAt,
		nullableTimeValue(payment.PaidAt),
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	return updatePayment(ctx, r.db, payment)
}

func updatePayment(ctx context.Context, db DBTX, payment *entity.Payment) error {
	query := `
		UPDATE payments SET
			amount = ?,
			currency = ?,
			status = ?,
			pay_id = ?,
			order_id = ?,
			pay_url = ?,
			status_code = ?,
			status_message = ?,
			rrn = ?,
			approval_code = ?,
			card_number = ?,
			three_ds = ?,
			refund_amount = ?,
			refund_date = ?,
			callback_data = ?,
			callback_received = ?,
			updated_at = ?,
			paid_at = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query,
		payment.Amount,
		payment.Currency,
		string(payment.Status),
		nullableStringValue(payment.PayID),
		nullableStringValue(payment.OrderID),
		nullableStringValue(payment.PayURL),
		nullableStringValue(payment.StatusCode),
		nullableStringValue(payment.StatusMessage),
		nullableStringValue(payment.RRN),
		nullableStringValue(payment.ApprovalCode),
		nullableStringValue(payment.CardNumber),
		nullableStringValue(payment.ThreeDS),
		nullableDecimalValue(payment.RefundAmount),
		nullableTimeValue(payment.RefundDate),
		nullableStringValue(payment.CallbackData),
		payment.CallbackReceived,
		payment.UpdatedAt,
		nullableTimeValue(payment.PaidAt),
		payment.ID,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

// UpdateLockedByID loads the payment with SELECT ... FOR UPDATE, hands it to
// fn and writes it back in the same transaction. The lock serialises
// concurrent callbacks, polls and refunds against the same row.
func (r *PaymentRepository) UpdateLockedByID(ctx context.Context, id string, fn func(*entity.Payment) error) (*entity.Payment, error) {
	return r.updateLocked(ctx, "id = ?", id, fn)
}

func (r *PaymentRepository) UpdateLockedByPayID(ctx context.Context, payID string, fn func(*entity.Payment) error) (*entity.Payment, error) {
	return r.updateLocked(ctx, "pay_id = ?", payID, fn)
}

func (r *PaymentRepository) updateLocked(ctx context.Context, where string, arg interface{}, fn func(*entity.Payment) error) (*entity.Payment, error) {
	var payment *entity.Payment
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + where + ` LIMIT 1 FOR UPDATE`

		item := &entity.Payment{}
		if err := scanPayment(tx.QueryRowContext(ctx, query, arg), item); err == sql.ErrNoRows {
			return ErrPaymentNotFound
		} else if err != nil {
			return err
		}
		payment = item

		if err := fn(item); err != nil {
			return err
		}
		item.UpdatedAt = time.Now().UTC()
		return updatePayment(ctx, tx, item)
	})
	if errors.Is(err, ErrSkipUpdate) {
		return payment, nil
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
}

func (r *PaymentRepository) FindByPayID(ctx context.Context, payID string) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE pay_id = ? LIMIT 1`, payID)
}

// FindLatestPending returns the newest PENDING payment for the pair that
// already has a hosted-page URL and was created after since.
func (r *PaymentRepository) FindLatestPending(ctx context.Context, userID, bookID uint64, since time.Time) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = ? AND book_id = ? AND status = ?
		  AND pay_url IS NOT NULL
		  AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.findOne(ctx, query, userID, bookID, string(entity.PaymentStatusPending), since)
}

func (r *PaymentRepository) ExistsWithStatus(ctx context.Context, userID, bookID uint64, status entity.PaymentStatus) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM payments WHERE user_id = ? AND book_id = ? AND status = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, bookID, string(status)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID uint64, limit, offset int32) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	return r.findMany(ctx, query, userID, limit, offset)
}

func (r *PaymentRepository) ListForReconcile(ctx context.Context, before time.Time, limit int32) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = ?
		  AND pay_id IS NOT NULL
		  AND updated_at <= ?
		ORDER BY updated_at ASC
		LIMIT ?
	`
	return r.findMany(ctx, query, string(entity.PaymentStatusPending), before, limit)
}

func (r *PaymentRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = ?
		  AND created_at <= ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	return r.findMany(ctx, query, string(entity.PaymentStatusPending), cutoff, limit)
}

func (r *PaymentRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Payment, error) {
	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, args...), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *PaymentRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.Payment, 0)
	for rows.Next() {
		item := &entity.Payment{}
		if err := scanPayment(rows, item); err != nil {
			return nil, err
		}
		payments = append(payments, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

func scanPayment(scan rowScanner, payment *entity.Payment) error {
	var status string
	var payID, orderID, payURL sql.NullString
	var statusCode, statusMessage, rrn, approvalCode, cardNumber, threeDS sql.NullString
	var refundAmount decimal.NullDecimal
	var refundDate, paidAt sql.NullTime
	var callbackData sql.NullString

	err := scan.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.BookID,
		&payment.Amount,
		&payment.Currency,
		&status,
		&payID,
		&orderID,
		&payURL,
		&statusCode,
		&statusMessage,
		&rrn,
		&approvalCode,
		&cardNumber,
		&threeDS,
		&refundAmount,
		&refundDate,
		&payment.ClientIP,
		&payment.Description,
		&callbackData,
		&payment.CallbackReceived,
		&payment.CreatedAt,
		&payment.UpdatedAt,
		&paidAt,
	)
	if err != nil {
		return err
	}

	payment.Status = entity.PaymentStatus(status)
	payment.PayID = stringPtrFromNull(payID)
	payment.OrderID = stringPtrFromNull(orderID)
	payment.PayURL = stringPtrFromNull(payURL)
	payment.StatusCode = stringPtrFromNull(statusCode)
	payment.StatusMessage = stringPtrFromNull(statusMessage)
	payment.RRN = stringPtrFromNull(rrn)
	payment.ApprovalCode = stringPtrFromNull(approvalCode)
	payment.CardNumber = stringPtrFromNull(cardNumber)
	payment.ThreeDS = stringPtrFromNull(threeDS)
	payment.RefundDate = timePtrFromNull(refundDate)
	payment.CallbackData = stringPtrFromNull(callbackData)
	payment.PaidAt = timePtrFromNull(paidAt)
	if refundAmount.Valid {
		amount := refundAmount.Decimal
		payment.RefundAmount = &amount
	}

	return nil
}

func nullableDecimalValue(v *decimal.Decimal) interface{} {
	if v == nil {
		return nil
	}
	return v.StringFixed(2)
}
