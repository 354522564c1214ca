package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

// Settlement is published whenever a payment reaches OK or REFUNDED so that
// the catalogue side can grant or revoke access without polling.
type Settlement struct {
	PaymentID    string    `json:"payment_id"`
	UserID       uint64    `json:"user_id"`
	BookID       uint64    `json:"book_id"`
	Status       string    `json:"status"`
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency"`
	RefundAmount string    `json:"refund_amount,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func NewSettlement(payment *entity.Payment) Settlement {
	event := Settlement{
		PaymentID:  payment.ID,
		UserID:     payment.UserID,
		BookID:     payment.BookID,
		Status:     string(payment.Status),
		Amount:     payment.Amount.StringFixed(2),
		Currency:   payment.Currency,
		OccurredAt: payment.UpdatedAt.UTC(),
	}
	if payment.RefundAmount != nil {
		event.RefundAmount = payment.RefundAmount.StringFixed(2)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return event
}

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn  *amqp.Connection
	chn   channel
	queue string
}

// NewPublisher dials the broker and declares the durable settlement queue.
func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	p := &Publisher{conn: conn, chn: chn, queue: queue}
	if err := p.declare(); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Publisher) declare() error {
	_, err := p.chn.QueueDeclare(
		p.queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	return err
}

func (p *Publisher) PublishSettlement(ctx context.Context, event Settlement) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.chn.PublishWithContext(
		ctx,
		"",      // default exchange
		p.queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.PaymentID + ":" + event.Status,
			Timestamp:    event.OccurredAt,
			Type:         "payment.settlement",
			Body:         body,
		},
	)
}

func (p *Publisher) Close() error {
	if p.chn != nil {
		if err := p.chn.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
