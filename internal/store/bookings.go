package store

import (
	"context"
	"database/sql"
	"fmt"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
)

// CreateBooking creates a new booking in active state. Capacity is not
// consumed here; that happens at payment confirmation.
func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (id, apartment_id, user_id, status, checkout_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING booking_date`

	return s.db.GetContext(ctx, booking, query,
		booking.ID, booking.ApartmentID, booking.UserID, booking.Status, booking.CheckoutDate)
}

// GetBookingByID retrieves a booking by ID
func (s *Store) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.GetContext(ctx, &booking, "SELECT * FROM bookings WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("booking %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBookings retrieves all bookings, newest first
func (s *Store) GetBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.SelectContext(ctx, &bookings,
		"SELECT * FROM bookings ORDER BY booking_date DESC")
	return bookings, err
}

// GetBookingsByUser retrieves bookings for a user
func (s *Store) GetBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.SelectContext(ctx, &bookings,
		"SELECT * FROM bookings WHERE user_id = $1 ORDER BY booking_date DESC", userID)
	return bookings, err
}

// GetBookingsByApartment retrieves bookings for an apartment
func (s *Store) GetBookingsByApartment(ctx context.Context, apartmentID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.SelectContext(ctx, &bookings,
		"SELECT * FROM bookings WHERE apartment_id = $1 ORDER BY booking_date DESC", apartmentID)
	return bookings, err
}

// CreatePaymentIntent persists a pending payment intent. The gateway
// order must already exist; failed gateway calls never reach this.
func (s *Store) CreatePaymentIntent(ctx context.Context, intent *models.PaymentIntent) error {
	query := `
		INSERT INTO payment_intents
			(id, transaction_id, booking_id, user_id, apartment_id,
			 amount_minor, gateway_order_id, status, method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := s.db.GetContext(ctx, intent, query,
		intent.ID, intent.TransactionID, intent.BookingID, intent.UserID,
		intent.ApartmentID, intent.AmountMinor, intent.GatewayOrderID,
		intent.Status, intent.Method)
	if isUniqueViolation(err) {
		return fmt.Errorf("payment intent for order %s: %w", intent.GatewayOrderID, apperr.ErrConflict)
	}
	return err
}

// MarkPaymentIntentFailed moves a still-pending intent to failed after
// the gateway reported its payment attempts as terminally failed. Paid
// or already-failed intents are left untouched, so this is safe to
// repeat.
func (s *Store) MarkPaymentIntentFailed(ctx context.Context, gatewayOrderID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE payment_intents SET status = $1, updated_at = NOW() WHERE gateway_order_id = $2 AND status = $3",
		models.PaymentStatusFailed, gatewayOrderID, models.PaymentStatusPending)
	return err
}

// GetPaymentIntentByOrderID retrieves an intent by gateway order id
func (s *Store) GetPaymentIntentByOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := s.db.GetContext(ctx, &intent,
		"SELECT * FROM payment_intents WHERE gateway_order_id = $1", gatewayOrderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment intent for order %s: %w", gatewayOrderID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// GetPaymentIntentByTransactionID retrieves an intent by the
// application-assigned transaction id
func (s *Store) GetPaymentIntentByTransactionID(ctx context.Context, transactionID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := s.db.GetContext(ctx, &intent,
		"SELECT * FROM payment_intents WHERE transaction_id = $1", transactionID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment intent %s: %w", transactionID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// GetPaymentIntentsByBooking retrieves intents for a booking
func (s *Store) GetPaymentIntentsByBooking(ctx context.Context, bookingID string) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	err := s.db.SelectContext(ctx, &intents,
		"SELECT * FROM payment_intents WHERE booking_id = $1 ORDER BY created_at DESC", bookingID)
	return intents, err
}

// GetPaymentIntentsByUser retrieves intents for a user
func (s *Store) GetPaymentIntentsByUser(ctx context.Context, userID string) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	err := s.db.SelectContext(ctx, &intents,
		"SELECT * FROM payment_intents WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return intents, err
}

// GetPaymentIntentsByApartment retrieves intents for an apartment
func (s *Store) GetPaymentIntentsByApartment(ctx context.Context, apartmentID string) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	err := s.db.SelectContext(ctx, &intents,
		"SELECT * FROM payment_intents WHERE apartment_id = $1 ORDER BY created_at DESC", apartmentID)
	return intents, err
}
