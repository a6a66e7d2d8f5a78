package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/payments-service/pkg/db/models"
	"github.com/angelmondragon/payments-service/pkg/enums"
	pkgerrors "github.com/angelmondragon/payments-service/pkg/errors"
	"github.com/angelmondragon/payments-service/pkg/logger"
	"github.com/angelmondragon/payments-service/pkg/outbox"
	"github.com/angelmondragon/payments-service/pkg/outbox/payloads"
)

const (
	processingFailedPrefix = "Payment processing failed: "
	orderLockKeyPrefix     = "order:"
	defaultOrderLockTTL    = 30 * time.Second
	eventVersion           = 1

	maxCurrencyLen      = 3
	maxPaymentMethodLen = 64
)

// maxAmount is the largest value a numeric(10,2) column holds.
var maxAmount = decimal.RequireFromString("99999999.99")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OrderLocker serialises payment attempts for the same order across
// instances. A lock that is not acquired is reported with ok=false.
type OrderLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// MetricsRecorder receives payment outcomes.
type MetricsRecorder interface {
	PaymentProcessed(status enums.PaymentStatus, amount decimal.Decimal)
	PaymentRefunded()
}

// ServiceParams groups dependencies for the payment service.
type ServiceParams struct {
	Repo    Repository
	DB      txRunner
	Outbox  outboxPublisher
	Decider Decider
	Locker  OrderLocker
	LockTTL time.Duration
	Metrics MetricsRecorder
	Logger  *logger.Logger
}

// Service orchestrates payment creation, lookups and refunds.
type Service interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (PaymentResponse, error)
	GetPaymentsByUserID(ctx context.Context, userID int64) ([]PaymentResponse, error)
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*PaymentResponse, error)
	GetPaymentByID(ctx context.Context, id int64) (*PaymentResponse, error)
	RefundPayment(ctx context.Context, id int64) (PaymentResponse, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	machine *StateMachine
	locker  OrderLocker
	lockTTL time.Duration
	metrics MetricsRecorder
	logg    *logger.Logger
}

// NewService builds a payment service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment repo is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox publisher is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	ttl := params.LockTTL
	if ttl <= 0 {
		ttl = defaultOrderLockTTL
	}
	return &service{
		repo:    params.Repo,
		tx:      params.DB,
		outbox:  params.Outbox,
		machine: NewStateMachine(params.Decider),
		locker:  params.Locker,
		lockTTL: ttl,
		metrics: params.Metrics,
		logg:    logg,
	}, nil
}

func (s *service) ProcessPayment(ctx context.Context, req PaymentRequest) (PaymentResponse, error) {
	if err := checkRequest(req); err != nil {
		return PaymentResponse{}, err
	}
	orderID := *req.OrderID
	ctx = s.logg.WithOrderID(ctx, orderID)

	if s.locker != nil {
		key := orderLockKeyPrefix + strconv.FormatInt(orderID, 10)
		token, ok, err := s.locker.TryLock(ctx, key, s.lockTTL)
		if err != nil {
			return PaymentResponse{}, processingError(err, "acquire order lock")
		}
		if !ok {
			return PaymentResponse{}, pkgerrors.New(pkgerrors.CodeProcessing,
				fmt.Sprintf("%spayment already in progress for order %d", processingFailedPrefix, orderID))
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "release order lock failed")
			}
		}()
	}

	var (
		payment  models.Payment
		decision Decision
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment = models.Payment{
			OrderID:       orderID,
			UserID:        *req.UserID,
			Amount:        *req.Amount,
			Currency:      enums.NormalizeCurrency(req.Currency),
			PaymentMethod: req.PaymentMethod,
			Status:        enums.PaymentStatusProcessing,
		}
		if err := repo.Create(ctx, &payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		var err error
		decision, err = s.machine.Resolve(&payment)
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, &payment); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		return s.emit(ctx, tx, payment)
	})
	if err != nil {
		s.logg.Error(ctx, "payment processing failed", err)
		return PaymentResponse{}, processingError(err, "")
	}

	if s.metrics != nil {
		s.metrics.PaymentProcessed(payment.Status, payment.Amount)
	}
	logCtx := s.logg.WithFields(s.logg.WithPaymentID(ctx, payment.ID), map[string]any{
		"status": payment.Status,
	})
	message := MessageProcessed
	if payment.Status == enums.PaymentStatusFailed {
		message = MessageFailed
		s.logg.Info(s.logg.WithField(logCtx, "reason", decision.Reason), "payment declined")
	} else {
		s.logg.Info(logCtx, "payment completed")
	}
	return NewPaymentResponse(payment, message), nil
}

func (s *service) GetPaymentsByUserID(ctx context.Context, userID int64) ([]PaymentResponse, error) {
	rows, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return toResponses(rows), nil
}

func (s *service) GetPaymentByOrderID(ctx context.Context, orderID int64) (*PaymentResponse, error) {
	payment, err := s.repo.FindLatestByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment by order")
	}
	if payment == nil {
		return nil, nil
	}
	resp := NewPaymentResponse(*payment, "")
	return &resp, nil
}

func (s *service) GetPaymentByID(ctx context.Context, id int64) (*PaymentResponse, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment == nil {
		return nil, nil
	}
	resp := NewPaymentResponse(*payment, "")
	return &resp, nil
}

func (s *service) RefundPayment(ctx context.Context, id int64) (PaymentResponse, error) {
	ctx = s.logg.WithPaymentID(ctx, id)
	var refunded models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgPaymentNotFound)
		}
		next, err := s.machine.Refund(*payment)
		if err != nil {
			return err
		}
		ok, err := repo.TransitionStatus(ctx, id, enums.PaymentStatusCompleted, enums.PaymentStatusRefunded)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, msgRefundNotAllowed)
		}
		stored, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
		}
		if stored != nil {
			next = *stored
		}
		refunded = next
		return s.emit(ctx, tx, refunded)
	})
	if err != nil {
		if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) && !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			s.logg.Error(ctx, "payment refund failed", err)
		}
		return PaymentResponse{}, err
	}

	if s.metrics != nil {
		s.metrics.PaymentRefunded()
	}
	s.logg.Info(s.logg.WithOrderID(ctx, refunded.OrderID), "payment refunded")
	return NewPaymentResponse(refunded, MessageRefunded), nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, payment models.Payment) error {
	eventType, ok := enums.EventTypeForStatus(payment.Status)
	if !ok {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayment,
		AggregateID:   strconv.FormatInt(payment.ID, 10),
		Data: payloads.PaymentEvent{
			PaymentID:     payment.ID,
			OrderID:       payment.OrderID,
			UserID:        payment.UserID,
			Amount:        json.Number(payment.Amount.StringFixed(2)),
			Currency:      payment.Currency,
			PaymentMethod: payment.PaymentMethod,
			Status:        payment.Status,
			TransactionID: payment.TransactionID,
			OccurredAt:    payment.UpdatedAt,
		},
		Version:    eventVersion,
		OccurredAt: payment.UpdatedAt,
	})
}

func checkRequest(req PaymentRequest) error {
	switch {
	case req.OrderID == nil:
		return pkgerrors.New(pkgerrors.CodeProcessing, processingFailedPrefix+"orderId is required")
	case req.UserID == nil:
		return pkgerrors.New(pkgerrors.CodeProcessing, processingFailedPrefix+"userId is required")
	case req.Amount == nil || !req.Amount.IsPositive():
		return pkgerrors.New(pkgerrors.CodeProcessing, processingFailedPrefix+"amount must be greater than 0")
	case !req.Amount.Equal(req.Amount.Round(2)):
		return pkgerrors.New(pkgerrors.CodeProcessing, processingFailedPrefix+"amount must have at most 2 decimal places")
	case req.Amount.GreaterThan(maxAmount):
		return pkgerrors.New(pkgerrors.CodeProcessing, processingFailedPrefix+"amount must be at most "+maxAmount.StringFixed(2))
	case utf8.RuneCountInString(strings.TrimSpace(req.Currency)) > maxCurrencyLen:
		return pkgerrors.New(pkgerrors.CodeProcessing, processingFailedPrefix+"currency must be at most 3 characters")
	case strings.TrimSpace(req.PaymentMethod) == "":
		return pkgerrors.New(pkgerrors.CodeProcessing, processingFailedPrefix+"paymentMethod is required")
	case utf8.RuneCountInString(req.PaymentMethod) > maxPaymentMethodLen:
		return pkgerrors.New(pkgerrors.CodeProcessing, processingFailedPrefix+"paymentMethod must be at most 64 characters")
	}
	return nil
}

// processingError wraps err so the public message carries the processing
// prefix followed by the most specific detail available.
func processingError(err error, detail string) *pkgerrors.Error {
	if detail == "" {
		if typed := pkgerrors.As(err); typed != nil {
			detail = typed.Message()
		} else {
			detail = err.Error()
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeProcessing, err, processingFailedPrefix+detail)
}
