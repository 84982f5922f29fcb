package service

import (
	"context"
	"fmt"
	"time"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/util"

	"go.uber.org/zap"
)

// ReconcilerStore is the persistence surface the reconciler needs. The
// SQL implementation serializes ConfirmBookingPayment per apartment
// with a row lock; fakes must provide equivalent mutual exclusion.
type ReconcilerStore interface {
	GetPaymentIntentByOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentIntent, error)
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	ConfirmBookingPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.ConfirmResult, error)
}

// AvailabilityCache mirrors committed capacity for listing reads.
type AvailabilityCache interface {
	DecrementAvailability(ctx context.Context, apartmentID string) (bool, error)
	SetAvailability(ctx context.Context, apartmentID string, available int) error
}

// OutcomePublisher emits booking outcome events after commit.
type OutcomePublisher interface {
	PublishBookingConfirmed(ctx context.Context, event *models.BookingConfirmedEvent) error
	PublishBookingCancelled(ctx context.Context, event *models.BookingCancelledEvent) error
}

// Reconciler makes booking and apartment state consistent with a
// gateway "paid" callback exactly once, even under concurrent or
// duplicate deliveries. The callback is untrusted input; everything it
// claims is re-checked against the store.
type Reconciler struct {
	store  ReconcilerStore
	cache  AvailabilityCache
	events OutcomePublisher
	logger *zap.Logger
}

// NewReconciler creates a new confirmation reconciler. cache and events
// may be nil.
func NewReconciler(store ReconcilerStore, cache AvailabilityCache, events OutcomePublisher) *Reconciler {
	return &Reconciler{
		store:  store,
		cache:  cache,
		events: events,
		logger: util.GetLogger(),
	}
}

// Confirm applies a successful-payment callback for a gateway order.
//
// Outcomes:
//   - intent unknown: apperr.ErrNotFound, no state change
//   - intent already paid: no-op success returning the committed state
//   - capacity remains: booking confirmed, one bed consumed, intent paid
//   - capacity exhausted: booking cancelled, intent still paid (the
//     charge succeeded at the gateway; refunding is an external concern)
//
// All three writes commit atomically or not at all.
func (r *Reconciler) Confirm(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.ConfirmResult, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.Confirm")
	defer span.End()

	if gatewayOrderID == "" {
		return nil, fmt.Errorf("gateway order id is required: %w", apperr.ErrValidation)
	}

	start := time.Now()
	defer func() {
		util.ConfirmationLatency.Observe(time.Since(start).Seconds())
	}()

	intent, err := r.store.GetPaymentIntentByOrderID(ctx, gatewayOrderID)
	if err != nil {
		util.PaymentCallbacksTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	// Fast path for duplicate deliveries. The transaction re-checks
	// under the lock, so a race between this read and the commit below
	// still resolves to a single decrement.
	if intent.Status == models.PaymentStatusPaid {
		booking, err := r.store.GetBookingByID(ctx, intent.BookingID)
		if err != nil {
			return nil, err
		}
		util.PaymentCallbacksTotal.WithLabelValues("duplicate").Inc()
		r.logger.Info("Duplicate payment callback",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.String("booking_id", booking.ID))
		return &models.ConfirmResult{
			Intent:      intent,
			Booking:     booking,
			Confirmed:   booking.Status == models.BookingStatusConfirmed,
			AlreadyPaid: true,
		}, nil
	}

	result, err := r.store.ConfirmBookingPayment(ctx, gatewayOrderID, gatewayPaymentID)
	if err != nil {
		return nil, fmt.Errorf("confirmation failed: %w", err)
	}

	if result.AlreadyPaid {
		util.PaymentCallbacksTotal.WithLabelValues("duplicate").Inc()
		return result, nil
	}

	if result.Confirmed {
		util.PaymentCallbacksTotal.WithLabelValues("confirmed").Inc()
		util.BookingsConfirmedTotal.Inc()
		r.logger.Info("Booking confirmed",
			zap.String("booking_id", result.Booking.ID),
			zap.String("apartment_id", result.Booking.ApartmentID),
			zap.Int("available_beds", result.AvailableBeds))
	} else {
		util.PaymentCallbacksTotal.WithLabelValues("capacity_exhausted").Inc()
		util.BookingsCancelledTotal.WithLabelValues("capacity_exhausted").Inc()
		r.logger.Warn("Payment received but no beds left, booking cancelled",
			zap.String("booking_id", result.Booking.ID),
			zap.String("apartment_id", result.Booking.ApartmentID))
	}

	r.publishOutcome(ctx, result, gatewayPaymentID)

	if r.cache != nil {
		r.refreshCache(ctx, result)
	}

	return result, nil
}

// refreshCache mirrors the committed capacity change into Redis. A
// confirmed booking decrements atomically; on a miss or any drift the
// entry is repaired with the value the transaction committed.
func (r *Reconciler) refreshCache(ctx context.Context, result *models.ConfirmResult) {
	apartmentID := result.Booking.ApartmentID

	if result.Confirmed {
		ok, err := r.cache.DecrementAvailability(ctx, apartmentID)
		if err == nil && ok {
			return
		}
		if err != nil {
			r.logger.Warn("Availability cache decrement failed",
				zap.String("apartment_id", apartmentID),
				zap.Error(err))
		}
	}

	if err := r.cache.SetAvailability(ctx, apartmentID, result.AvailableBeds); err != nil {
		r.logger.Warn("Failed to refresh availability cache",
			zap.String("apartment_id", apartmentID),
			zap.Error(err))
	}
}

func (r *Reconciler) publishOutcome(ctx context.Context, result *models.ConfirmResult, gatewayPaymentID string) {
	if r.events == nil {
		return
	}

	if result.Confirmed {
		event := &models.BookingConfirmedEvent{
			BaseEvent:        newBaseEvent(models.EventTypeBookingConfirmed),
			BookingID:        result.Booking.ID,
			ApartmentID:      result.Booking.ApartmentID,
			UserID:           result.Booking.UserID,
			GatewayPaymentID: gatewayPaymentID,
			AvailableBeds:    result.AvailableBeds,
		}
		if err := r.events.PublishBookingConfirmed(ctx, event); err != nil {
			r.logger.Error("Failed to publish BookingConfirmed event", zap.Error(err))
		}
		return
	}

	event := &models.BookingCancelledEvent{
		BaseEvent:   newBaseEvent(models.EventTypeBookingCancelled),
		BookingID:   result.Booking.ID,
		ApartmentID: result.Booking.ApartmentID,
		UserID:      result.Booking.UserID,
		Reason:      "no beds available at confirmation",
	}
	if err := r.events.PublishBookingCancelled(ctx, event); err != nil {
		r.logger.Error("Failed to publish BookingCancelled event", zap.Error(err))
	}
}
