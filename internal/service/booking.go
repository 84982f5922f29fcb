package service

import (
	"context"
	"fmt"
	"time"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/redisclient"
	"rental-service/internal/store"
	"rental-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

// CreatedEventPublisher is implemented by the broker event publisher.
type CreatedEventPublisher interface {
	PublishBookingCreated(ctx context.Context, event *models.BookingCreatedEvent) error
}

// BookingStore is the persistence surface the booking service needs.
type BookingStore interface {
	GetApartmentByID(ctx context.Context, id string) (*models.Apartment, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	GetBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
	GetBookingsByApartment(ctx context.Context, apartmentID string) ([]models.Booking, error)
	GetPaymentIntentsByUser(ctx context.Context, userID string) ([]models.PaymentIntent, error)
	GetPaymentIntentsByApartment(ctx context.Context, apartmentID string) ([]models.PaymentIntent, error)
}

// BookingCache dedupes client retries of the same create request.
type BookingCache interface {
	GetIdempotencyKey(ctx context.Context, key string) (string, bool, error)
	SetIdempotencyKey(ctx context.Context, key, bookingID string, ttl time.Duration) error
}

var (
	_ BookingStore = (*store.Store)(nil)
	_ BookingCache = (*redisclient.Client)(nil)
)

// BookingService creates and lists bookings. A new booking starts in
// the active state and consumes no capacity until its payment is
// confirmed.
type BookingService struct {
	store  BookingStore
	cache  BookingCache
	events CreatedEventPublisher
	logger *zap.Logger
}

func NewBookingService(st BookingStore, cache BookingCache, events CreatedEventPublisher) *BookingService {
	return &BookingService{
		store:  st,
		cache:  cache,
		events: events,
		logger: util.GetLogger(),
	}
}

// Create creates a booking for a seeker against an approved apartment.
// The capacity check here is advisory only, real admission happens in
// the confirmation transaction. idemKey, when non-empty, dedupes client
// retries of the same create request. Keys are scoped per user so one
// caller cannot replay another caller's key.
func (s *BookingService) Create(ctx context.Context, userID, apartmentID string, checkoutDate time.Time, idemKey string) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.Create")
	defer span.End()

	if userID == "" || apartmentID == "" {
		return nil, fmt.Errorf("user_id and apartment_id are required: %w", apperr.ErrValidation)
	}

	scopedKey := ""
	if idemKey != "" {
		scopedKey = userID + ":" + idemKey
	}

	if scopedKey != "" && s.cache != nil {
		if bookingID, ok, err := s.cache.GetIdempotencyKey(ctx, scopedKey); err != nil {
			s.logger.Warn("Idempotency key lookup failed", zap.Error(err))
		} else if ok {
			return s.store.GetBookingByID(ctx, bookingID)
		}
	}

	apt, err := s.store.GetApartmentByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	if apt.Approval != models.ApprovalApproved {
		return nil, fmt.Errorf("apartment is not open for booking: %w", apperr.ErrValidation)
	}
	if apt.AvailableBeds <= 0 {
		return nil, fmt.Errorf("no beds available: %w", apperr.ErrCapacityExhausted)
	}

	booking := &models.Booking{
		ID:           uuid.New().String(),
		ApartmentID:  apartmentID,
		UserID:       userID,
		Status:       models.BookingStatusActive,
		CheckoutDate: checkoutDate,
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	util.BookingsCreatedTotal.Inc()
	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID),
		zap.String("apartment_id", apartmentID),
		zap.String("user_id", userID))

	if scopedKey != "" && s.cache != nil {
		if err := s.cache.SetIdempotencyKey(ctx, scopedKey, booking.ID, idempotencyTTL); err != nil {
			s.logger.Warn("Failed to record idempotency key", zap.Error(err))
		}
	}

	if s.events != nil {
		event := &models.BookingCreatedEvent{
			BaseEvent:   newBaseEvent(models.EventTypeBookingCreated),
			BookingID:   booking.ID,
			ApartmentID: apartmentID,
			UserID:      userID,
		}
		if err := s.events.PublishBookingCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish BookingCreated event", zap.Error(err))
		}
	}

	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	return s.store.GetBookingByID(ctx, id)
}

func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.store.GetBookingsByUser(ctx, userID)
}

func (s *BookingService) ListByApartment(ctx context.Context, apartmentID string) ([]models.Booking, error) {
	return s.store.GetBookingsByApartment(ctx, apartmentID)
}

func (s *BookingService) ListPayments(ctx context.Context, userID string) ([]models.PaymentIntent, error) {
	return s.store.GetPaymentIntentsByUser(ctx, userID)
}

func (s *BookingService) ListPaymentsByApartment(ctx context.Context, apartmentID string) ([]models.PaymentIntent, error) {
	return s.store.GetPaymentIntentsByApartment(ctx, apartmentID)
}
