package service

import (
	"context"
	"fmt"
	"time"

	"rental-service/internal/apperr"
	"rental-service/internal/gateway"
	"rental-service/internal/models"
	"rental-service/internal/money"
	"rental-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway abstracts the external gateway client so initiation
// can be tested against a scripted fake.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*gateway.Order, error)
	CreatePaymentLink(ctx context.Context, amountMinor int64, orderID string) (*gateway.PaymentLink, error)
	FetchOrder(ctx context.Context, orderID string) (*gateway.Order, error)
	FetchOrderPayments(ctx context.Context, orderID string) ([]gateway.Payment, error)
}

// PaymentStore is the persistence surface for payment initiation and
// status reconciliation.
type PaymentStore interface {
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	CreatePaymentIntent(ctx context.Context, intent *models.PaymentIntent) error
	MarkPaymentIntentFailed(ctx context.Context, gatewayOrderID string) error
}

// InitiatedPayment is returned to the client so it can complete the
// checkout at the gateway's hosted page.
type InitiatedPayment struct {
	TransactionID  string `json:"transaction_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	PaymentURL     string `json:"payment_url"`
	AmountMinor    int64  `json:"amount_minor"`
	Amount         string `json:"amount"`
}

// PaymentService creates payment intents against the external gateway
// and polls order status as a fallback to the callback.
type PaymentService struct {
	store         PaymentStore
	gateway       PaymentGateway
	reconciler    *Reconciler
	events        InitiatedEventPublisher
	retryAttempts int
	retryBackoff  time.Duration
	logger        *zap.Logger
}

// InitiatedEventPublisher is implemented by the broker event publisher.
type InitiatedEventPublisher interface {
	PublishPaymentInitiated(ctx context.Context, event *models.PaymentInitiatedEvent) error
}

// NewPaymentService creates a new payment service. events may be nil.
func NewPaymentService(store PaymentStore, gw PaymentGateway, reconciler *Reconciler, events InitiatedEventPublisher, retryAttempts int, retryBackoff time.Duration) *PaymentService {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &PaymentService{
		store:         store,
		gateway:       gw,
		reconciler:    reconciler,
		events:        events,
		retryAttempts: retryAttempts,
		retryBackoff:  retryBackoff,
		logger:        util.GetLogger(),
	}
}

// Initiate creates a gateway order and payment link for a booking and
// records a pending payment intent. Gateway calls are retried a bounded
// number of times; if they never succeed nothing is persisted and the
// caller gets apperr.ErrGatewayUnavailable, so no dangling pending
// intents are left behind.
func (s *PaymentService) Initiate(ctx context.Context, bookingID, amount string) (*InitiatedPayment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Initiate")
	defer span.End()

	amountMinor, err := money.ParseAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %v: %w", err, apperr.ErrValidation)
	}
	if amountMinor <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", apperr.ErrValidation)
	}

	booking, err := s.store.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusActive {
		return nil, fmt.Errorf("booking is %s, payment can only be initiated for an active booking: %w",
			booking.Status, apperr.ErrValidation)
	}

	transactionID := uuid.New().String()

	order, err := s.createOrderWithRetry(ctx, amountMinor, transactionID)
	if err != nil {
		return nil, err
	}

	link, err := s.createLinkWithRetry(ctx, amountMinor, order.ID)
	if err != nil {
		return nil, err
	}

	intent := &models.PaymentIntent{
		ID:             uuid.New().String(),
		TransactionID:  transactionID,
		BookingID:      booking.ID,
		UserID:         booking.UserID,
		ApartmentID:    booking.ApartmentID,
		AmountMinor:    amountMinor,
		GatewayOrderID: order.ID,
		Status:         models.PaymentStatusPending,
	}
	if err := s.store.CreatePaymentIntent(ctx, intent); err != nil {
		return nil, err
	}

	util.PaymentIntentsCreatedTotal.Inc()
	s.logger.Info("Payment initiated",
		zap.String("booking_id", booking.ID),
		zap.String("gateway_order_id", order.ID),
		zap.Int64("amount_minor", amountMinor))

	if s.events != nil {
		event := &models.PaymentInitiatedEvent{
			BaseEvent:      newBaseEvent(models.EventTypePaymentInitiated),
			IntentID:       intent.ID,
			BookingID:      booking.ID,
			UserID:         booking.UserID,
			AmountMinor:    amountMinor,
			GatewayOrderID: order.ID,
		}
		if err := s.events.PublishPaymentInitiated(ctx, event); err != nil {
			s.logger.Error("Failed to publish PaymentInitiated event", zap.Error(err))
		}
	}

	return &InitiatedPayment{
		TransactionID:  transactionID,
		GatewayOrderID: order.ID,
		PaymentURL:     link.ShortURL,
		AmountMinor:    amountMinor,
		Amount:         money.Format(amountMinor),
	}, nil
}

// Confirm routes a gateway success callback through the reconciler.
func (s *PaymentService) Confirm(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.ConfirmResult, error) {
	return s.reconciler.Confirm(ctx, gatewayOrderID, gatewayPaymentID)
}

// CheckStatus polls the gateway for an order and, if the gateway says
// it is paid, routes the result through the same reconciler as the
// callback path. Polling is a fallback for lost callbacks; both paths
// converge on the one idempotent confirmation. When the order is not
// paid and every payment attempt against it failed, the intent is
// moved to failed so it does not linger pending forever.
func (s *PaymentService) CheckStatus(ctx context.Context, gatewayOrderID string) (*models.ConfirmResult, string, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CheckStatus")
	defer span.End()

	order, err := s.gateway.FetchOrder(ctx, gatewayOrderID)
	if err != nil {
		util.PaymentInitiationsFailedTotal.WithLabelValues("status_poll").Inc()
		return nil, "", fmt.Errorf("could not fetch order from gateway: %w", apperr.ErrGatewayUnavailable)
	}

	payments, err := s.gateway.FetchOrderPayments(ctx, gatewayOrderID)
	if err != nil {
		s.logger.Warn("Could not list order payments",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.Error(err))
		payments = nil
	}

	if order.Status != "paid" {
		if allAttemptsFailed(payments) {
			if err := s.store.MarkPaymentIntentFailed(ctx, gatewayOrderID); err != nil {
				s.logger.Warn("Failed to mark payment intent failed",
					zap.String("gateway_order_id", gatewayOrderID),
					zap.Error(err))
			} else {
				s.logger.Info("Payment intent marked failed",
					zap.String("gateway_order_id", gatewayOrderID))
			}
		}
		return nil, order.Status, nil
	}

	result, err := s.reconciler.Confirm(ctx, gatewayOrderID, capturedPaymentID(payments))
	if err != nil {
		return nil, order.Status, err
	}
	return result, order.Status, nil
}

// capturedPaymentID picks the payment that actually went through so a
// poll-confirmed intent records the same gateway payment id a callback
// would have carried.
func capturedPaymentID(payments []gateway.Payment) string {
	for _, p := range payments {
		if p.Status == "captured" || p.Status == "paid" {
			return p.ID
		}
	}
	if len(payments) > 0 {
		return payments[0].ID
	}
	return ""
}

func allAttemptsFailed(payments []gateway.Payment) bool {
	if len(payments) == 0 {
		return false
	}
	for _, p := range payments {
		if p.Status != "failed" {
			return false
		}
	}
	return true
}

func (s *PaymentService) createOrderWithRetry(ctx context.Context, amountMinor int64, receipt string) (*gateway.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		order, err := s.gateway.CreateOrder(ctx, amountMinor, receipt)
		if err == nil {
			return order, nil
		}
		lastErr = err
		s.logger.Warn("Gateway order creation failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < s.retryAttempts {
			util.GatewayRetriesTotal.Inc()
			select {
			case <-time.After(s.retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	util.PaymentInitiationsFailedTotal.WithLabelValues("order").Inc()
	return nil, fmt.Errorf("gateway order creation exhausted %d attempts: %v: %w",
		s.retryAttempts, lastErr, apperr.ErrGatewayUnavailable)
}

func (s *PaymentService) createLinkWithRetry(ctx context.Context, amountMinor int64, orderID string) (*gateway.PaymentLink, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		link, err := s.gateway.CreatePaymentLink(ctx, amountMinor, orderID)
		if err == nil {
			return link, nil
		}
		lastErr = err
		s.logger.Warn("Gateway payment link creation failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < s.retryAttempts {
			util.GatewayRetriesTotal.Inc()
			select {
			case <-time.After(s.retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	util.PaymentInitiationsFailedTotal.WithLabelValues("payment_link").Inc()
	return nil, fmt.Errorf("gateway payment link creation exhausted %d attempts: %v: %w",
		s.retryAttempts, lastErr, apperr.ErrGatewayUnavailable)
}
