package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
	"github.com/vibast-solutions/ms-go-book-payments/app/events"
	"github.com/vibast-solutions/ms-go-book-payments/app/factory"
	"github.com/vibast-solutions/ms-go-book-payments/app/gateway"
	"github.com/vibast-solutions/ms-go-book-payments/app/repository"
	"github.com/vibast-solutions/ms-go-book-payments/config"
)

const (
	defaultListLimit = int32(50)
	maxListLimit     = int32(100)
	defaultBatchSize = int32(100)
	defaultClientIP  = "127.0.0.1"

	reasonBookIsFree        = "book is free"
	reasonAlreadyPurchased  = "already purchased"
	defaultInitiateLockTTL  = 45 * time.Second
	initiateLockKeyTemplate = "payments:initiate:%d:%d"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	Update(ctx context.Context, payment *entity.Payment) error
	UpdateLockedByID(ctx context.Context, id string, fn func(*entity.Payment) error) (*entity.Payment, error)
	UpdateLockedByPayID(ctx context.Context, payID string, fn func(*entity.Payment) error) (*entity.Payment, error)
	FindByID(ctx context.Context, id string) (*entity.Payment, error)
	FindLatestPending(ctx context.Context, userID, bookID uint64, since time.Time) (*entity.Payment, error)
	ExistsWithStatus(ctx context.Context, userID, bookID uint64, status entity.PaymentStatus) (bool, error)
	ListByUser(ctx context.Context, userID uint64, limit, offset int32) ([]*entity.Payment, error)
	ListForReconcile(ctx context.Context, before time.Time, limit int32) ([]*entity.Payment, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Payment, error)
}

type paymentLogRepository interface {
	Create(ctx context.Context, entry *entity.PaymentLog) error
	ListByPayment(ctx context.Context, paymentID string) ([]*entity.PaymentLog, error)
}

type bookRepository interface {
	FindByID(ctx context.Context, id uint64) (*entity.Book, error)
}

type credentialRepository interface {
	FindByID(ctx context.Context, id uint64) (*entity.CredentialSet, error)
	List(ctx context.Context) ([]*entity.CredentialSet, error)
	Save(ctx context.Context, set *entity.CredentialSet) error
}

type purchaseGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type settlementPublisher interface {
	PublishSettlement(ctx context.Context, event events.Settlement) error
}

type historyRequest interface {
	GetLimit() int32
	GetOffset() int32
}

type PaymentService struct {
	paymentRepo    paymentRepository
	logRepo        paymentLogRepository
	bookRepo       bookRepository
	credentialRepo credentialRepository
	gateway        *gateway.Factory
	paymentsCfg    config.PaymentsConfig
	guard          purchaseGuard
	publisher      settlementPublisher
	logger         logrus.FieldLogger
}

func NewPaymentService(
	paymentRepo paymentRepository,
	logRepo paymentLogRepository,
	bookRepo bookRepository,
	credentialRepo credentialRepository,
	gatewayFactory *gateway.Factory,
	paymentsCfg config.PaymentsConfig,
) *PaymentService {
	if strings.TrimSpace(paymentsCfg.Currency) == "" {
		paymentsCfg.Currency = "MDL"
	}
	paymentsCfg.Currency = strings.ToUpper(strings.TrimSpace(paymentsCfg.Currency))

	return &PaymentService{
		paymentRepo:    paymentRepo,
		logRepo:        logRepo,
		bookRepo:       bookRepo,
		credentialRepo: credentialRepo,
		gateway:        gatewayFactory,
		paymentsCfg:    paymentsCfg,
		logger:         factory.NewModuleLogger("payments-service"),
	}
}

// UsePurchaseGuard enables the cross-instance in-flight guard on Initiate.
func (s *PaymentService) UsePurchaseGuard(guard purchaseGuard) {
	s.guard = guard
}

// UseSettlementPublisher enables settlement events after OK and REFUNDED.
func (s *PaymentService) UseSettlementPublisher(publisher settlementPublisher) {
	s.publisher = publisher
}

type InitiateResult struct {
	Payment           *entity.Payment
	RedirectURL       string
	AlreadyAccessible bool
	Reason            string
	Reused            bool
}

// Initiate starts a hosted payment for book on behalf of user and returns the
// page to redirect to. Free and already purchased books short-circuit
// without touching the gateway.
func (s *PaymentService) Initiate(ctx context.Context, user *entity.User, bookID uint64, origin gateway.Origin) (*InitiateResult, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if bookID == 0 {
		return nil, ErrInvalidRequest
	}

	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	if !book.RequiresPurchase() {
		return &InitiateResult{AlreadyAccessible: true, Reason: reasonBookIsFree}, nil
	}

	purchased, err := s.paymentRepo.ExistsWithStatus(ctx, user.ID, book.ID, entity.PaymentStatusOK)
	if err != nil {
		return nil, err
	}
	if purchased {
		return &InitiateResult{AlreadyAccessible: true, Reason: reasonAlreadyPurchased}, nil
	}

	release, err := s.acquirePurchase(ctx, user.ID, book.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	if s.paymentsCfg.ReuseWindow > 0 {
		since := time.Now().UTC().Add(-s.paymentsCfg.ReuseWindow)
		existing, err := s.paymentRepo.FindLatestPending(ctx, user.ID, book.ID, since)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.PayURL != nil {
			return &InitiateResult{Payment: existing, RedirectURL: *existing.PayURL, Reused: true}, nil
		}
	}

	client, err := s.gateway.Open(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Gateway unavailable for payment initiation")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	now := time.Now().UTC()
	clientIP := strings.TrimSpace(origin.ClientIP)
	if clientIP == "" {
		clientIP = defaultClientIP
	}
	payment := &entity.Payment{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		BookID:      book.ID,
		Amount:      book.Price,
		Currency:    s.paymentsCfg.Currency,
		Status:      entity.PaymentStatusPending,
		ClientIP:    clientIP,
		Description: "Payment for book: " + book.Title,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	origin.ClientIP = clientIP
	_, err = client.InitiatePayment(ctx, payment, gateway.Order{
		Origin:      origin,
		ItemID:      strconv.FormatUint(book.ID, 10),
		ItemName:    book.Title,
		Description: payment.Description,
		Email:       user.Email,
		ClientName:  user.DisplayName,
	})
	if err != nil {
		message := gatewayMessage(err)
		if terr := payment.TransitionTo(entity.PaymentStatusFail); terr != nil {
			return nil, terr
		}
		payment.StatusMessage = &message
		payment.UpdatedAt = time.Now().UTC()
		if uerr := s.paymentRepo.Update(ctx, payment); uerr != nil {
			s.logger.WithError(uerr).WithField("payment_id", payment.ID).Error("Failed to persist failed initiation")
		}
		return nil, fmt.Errorf("%w: %s", ErrInitiationFailed, message)
	}

	payment.UpdatedAt = time.Now().UTC()
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	return &InitiateResult{Payment: payment, RedirectURL: *payment.PayURL}, nil
}

// CheckStatus returns the payment, first asking the gateway when it is still
// PENDING so a missed callback does not leave the buyer waiting.
func (s *PaymentService) CheckStatus(ctx context.Context, user *entity.User, paymentID string) (*entity.Payment, error) {
	payment, err := s.ownedPayment(ctx, user, paymentID)
	if err != nil {
		return nil, err
	}
	return s.refreshStatus(ctx, payment), nil
}

// LookupStatus is CheckStatus for trusted internal callers.
func (s *PaymentService) LookupStatus(ctx context.Context, paymentID string) (*entity.Payment, error) {
	payment, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return s.refreshStatus(ctx, payment), nil
}

func (s *PaymentService) refreshStatus(ctx context.Context, payment *entity.Payment) *entity.Payment {
	if payment.Status != entity.PaymentStatusPending || payment.PayID == nil {
		return payment
	}
	return s.reconcileQuietly(ctx, payment)
}

// ConfirmReturn backs the success return page. The redirect itself proves
// nothing, so the outcome still comes from the gateway.
func (s *PaymentService) ConfirmReturn(ctx context.Context, user *entity.User, paymentID string) (*entity.Payment, error) {
	payment, err := s.CheckStatus(ctx, user, paymentID)
	if err != nil {
		return nil, err
	}
	s.writeLog(ctx, &payment.ID, entity.PaymentLogInfo, fmt.Sprintf("Customer returned from the hosted page: %s", payment.Status), nil)
	return payment, nil
}

// MarkReturnFailed backs the failure return page. The gateway is asked first;
// only a payment it still reports as open is moved to FAIL.
func (s *PaymentService) MarkReturnFailed(ctx context.Context, user *entity.User, paymentID string) (*entity.Payment, error) {
	payment, err := s.ownedPayment(ctx, user, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != entity.PaymentStatusPending {
		return payment, nil
	}
	if payment.PayID != nil {
		payment = s.reconcileQuietly(ctx, payment)
		if payment.Status != entity.PaymentStatusPending {
			return payment, nil
		}
	}

	updated, err := s.paymentRepo.UpdateLockedByID(ctx, payment.ID, func(p *entity.Payment) error {
		if p.Status != entity.PaymentStatusPending {
			return repository.ErrSkipUpdate
		}
		return p.TransitionTo(entity.PaymentStatusFail)
	})
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if updated.Status == entity.PaymentStatusFail {
		s.writeLog(ctx, &updated.ID, entity.PaymentLogInfo, "Customer returned from the hosted page without paying", nil)
	}
	return updated, nil
}

func (s *PaymentService) History(ctx context.Context, user *entity.User, req historyRequest) ([]*entity.Payment, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	limit := req.GetLimit()
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := req.GetOffset()
	if offset < 0 {
		offset = 0
	}
	return s.paymentRepo.ListByUser(ctx, user.ID, limit, offset)
}

// GetPaymentDetails returns a payment with its full audit trail.
func (s *PaymentService) GetPaymentDetails(ctx context.Context, paymentID string) (*entity.Payment, []*entity.PaymentLog, error) {
	payment, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.logRepo.ListByPayment(ctx, payment.ID)
	if err != nil {
		return nil, nil, err
	}
	return payment, logs, nil
}

func (s *PaymentService) findPayment(ctx context.Context, paymentID string) (*entity.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, ErrInvalidRequest
	}
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// ownedPayment hides payments of other users behind ErrPaymentNotFound.
func (s *PaymentService) ownedPayment(ctx context.Context, user *entity.User, paymentID string) (*entity.Payment, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	payment, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != user.ID && !user.IsAdmin {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func (s *PaymentService) reconcileQuietly(ctx context.Context, payment *entity.Payment) *entity.Payment {
	client, err := s.gateway.Open(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("payment_id", payment.ID).Warn("Status poll skipped")
		return payment
	}
	updated, err := s.reconcile(ctx, client, payment)
	if err != nil {
		s.logger.WithError(err).WithField("payment_id", payment.ID).Warn("Status poll failed")
		return payment
	}
	return updated
}

// reconcile polls the gateway and applies its answer under the row lock.
func (s *PaymentService) reconcile(ctx context.Context, client *gateway.Client, payment *entity.Payment) (*entity.Payment, error) {
	result, err := client.PollStatus(ctx, payment)
	if err != nil {
		return payment, err
	}
	if result == nil {
		return payment, nil
	}

	var (
		anomaly    error
		transition bool
	)
	now := time.Now().UTC()
	updated, err := s.paymentRepo.UpdateLockedByID(ctx, payment.ID, func(p *entity.Payment) error {
		before := p.Status
		changed, err := applyGatewayResult(p, result, entity.PaymentStatusPending, now)
		if err != nil {
			anomaly = err
			return repository.ErrSkipUpdate
		}
		if !changed {
			return repository.ErrSkipUpdate
		}
		transition = before != p.Status
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return payment, ErrPaymentNotFound
		}
		return payment, err
	}

	if anomaly != nil {
		s.writeLog(ctx, &updated.ID, entity.PaymentLogError, "Status poll anomaly: "+anomaly.Error(), result.Raw)
		return updated, nil
	}
	if transition {
		s.writeLog(ctx, &updated.ID, entity.PaymentLogInfo, "Status reconciled: "+string(updated.Status), result.Raw)
		s.publishSettlement(ctx, updated)
	}
	return updated, nil
}

// applyGatewayResult folds the gateway's view of a transaction into payment
// and reports whether any stored field changed. A status the state machine
// does not allow from the current one is returned as an error and payment
// is left untouched. fallback is used when the result carries no status.
func applyGatewayResult(payment *entity.Payment, result *gateway.Result, fallback entity.PaymentStatus, now time.Time) (bool, error) {
	status, ok := result.PaymentStatus()
	if !ok {
		status = fallback
	}

	changed := false
	if status != payment.Status {
		if !payment.CanTransitionTo(status) {
			return false, fmt.Errorf("%w: %s -> %s", entity.ErrInvalidTransition, payment.Status, status)
		}
		payment.Status = status
		changed = true
	}

	changed = assignString(&payment.StatusCode, result.StatusCode) || changed
	changed = assignString(&payment.StatusMessage, result.StatusMessage) || changed
	changed = assignString(&payment.RRN, result.RRN) || changed
	changed = assignString(&payment.ApprovalCode, result.Approval) || changed
	changed = assignString(&payment.CardNumber, result.CardNumber) || changed
	changed = assignString(&payment.ThreeDS, result.ThreeDS) || changed

	if payment.Status == entity.PaymentStatusOK && payment.PaidAt == nil {
		paidAt := now
		payment.PaidAt = &paidAt
		changed = true
	}
	if payment.Status == entity.PaymentStatusRefunded && payment.RefundDate == nil {
		refundedAt := now
		payment.RefundDate = &refundedAt
		refunded := payment.Amount
		if result.RefundAmount != nil {
			refunded = *result.RefundAmount
		}
		payment.RefundAmount = &refunded
		changed = true
	}

	return changed, nil
}

func assignString(field **string, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if *field != nil && **field == value {
		return false
	}
	v := value
	*field = &v
	return true
}

func (s *PaymentService) acquirePurchase(ctx context.Context, userID, bookID uint64) (func(), error) {
	if s.guard == nil {
		return func() {}, nil
	}

	ttl := s.paymentsCfg.InitiateLockTTL
	if ttl <= 0 {
		ttl = defaultInitiateLockTTL
	}
	key := fmt.Sprintf(initiateLockKeyTemplate, userID, bookID)
	token, ok, err := s.guard.Acquire(ctx, key, ttl)
	if err != nil {
		// The guard only narrows duplicate sessions; Redis trouble must not
		// block purchases.
		s.logger.WithError(err).WithField("key", key).Warn("Purchase guard unavailable")
		return func() {}, nil
	}
	if !ok {
		return nil, ErrPurchaseInProgress
	}

	return func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to release purchase guard")
		}
	}, nil
}

func (s *PaymentService) publishSettlement(ctx context.Context, payment *entity.Payment) {
	if s.publisher == nil || !payment.Status.IsSettled() {
		return
	}
	if err := s.publisher.PublishSettlement(context.WithoutCancel(ctx), events.NewSettlement(payment)); err != nil {
		s.logger.WithError(err).WithField("payment_id", payment.ID).Warn("Failed to publish settlement event")
	}
}

// writeLog appends to the payment audit log. Failures only reach the
// process log.
func (s *PaymentService) writeLog(ctx context.Context, paymentID *string, kind entity.PaymentLogKind, message string, data interface{}) {
	entry := &entity.PaymentLog{
		PaymentID: paymentID,
		Kind:      kind,
		Message:   truncate(message, 1024),
		CreatedAt: time.Now().UTC(),
	}
	if data != nil {
		if encoded, err := json.Marshal(data); err == nil {
			raw := string(encoded)
			entry.DataJSON = &raw
		}
	}
	if err := s.logRepo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.WithError(err).WithField("kind", kind).Warn("Failed to write payment log")
	}
}

func (s *PaymentService) batchSize() int32 {
	if s.paymentsCfg.JobBatchSize > 0 {
		return s.paymentsCfg.JobBatchSize
	}
	return defaultBatchSize
}

// gatewayMessage is the gateway's own description of a failure, without the
// operation prefix.
func gatewayMessage(err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return gwErr.Message
	}
	if errors.Is(err, gateway.ErrTokenUnavailable) {
		return gateway.ErrTokenUnavailable.Error()
	}
	return err.Error()
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
