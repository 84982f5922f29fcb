package worker

import (
	"context"
	"fmt"

	"rental-service/internal/broker"
	"rental-service/internal/models"
	"rental-service/internal/store"
	"rental-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationWorker consumes booking outcome events and writes
// notification rows so seekers see confirmation results in-app.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, st *store.Store) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		store:    st,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnBookingConfirmed(w.handleBookingConfirmed)
	eventHandler.OnBookingCancelled(w.handleBookingCancelled)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleBookingConfirmed(ctx context.Context, event *models.BookingConfirmedEvent) error {
	n := &models.Notification{
		ID:      uuid.New().String(),
		UserID:  event.UserID,
		Message: fmt.Sprintf("Your booking %s is confirmed.", event.BookingID),
	}
	if err := w.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to store confirmation notification: %w", err)
	}

	w.logger.Info("Booking confirmation notification written",
		zap.String("booking_id", event.BookingID),
		zap.String("user_id", event.UserID))
	return nil
}

func (w *NotificationWorker) handleBookingCancelled(ctx context.Context, event *models.BookingCancelledEvent) error {
	msg := fmt.Sprintf("Your booking %s was cancelled: %s.", event.BookingID, event.Reason)
	n := &models.Notification{
		ID:      uuid.New().String(),
		UserID:  event.UserID,
		Message: msg,
	}
	if err := w.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to store cancellation notification: %w", err)
	}

	w.logger.Warn("Booking cancellation notification written",
		zap.String("booking_id", event.BookingID),
		zap.String("reason", event.Reason))
	return nil
}
