package models

import "time"

// Event types
const (
	EventTypeBookingCreated   = "BOOKING_CREATED"
	EventTypePaymentInitiated = "PAYMENT_INITIATED"
	EventTypeBookingConfirmed = "BOOKING_CONFIRMED"
	EventTypeBookingCancelled = "BOOKING_CANCELLED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCreatedEvent published when a seeker creates a booking
type BookingCreatedEvent struct {
	BaseEvent
	BookingID   string `json:"booking_id"`
	ApartmentID string `json:"apartment_id"`
	UserID      string `json:"user_id"`
}

// PaymentInitiatedEvent published when a payment intent is created
type PaymentInitiatedEvent struct {
	BaseEvent
	IntentID       string `json:"intent_id"`
	BookingID      string `json:"booking_id"`
	UserID         string `json:"user_id"`
	AmountMinor    int64  `json:"amount_minor"`
	GatewayOrderID string `json:"gateway_order_id"`
}

// BookingConfirmedEvent published after a confirmation transaction
// commits with remaining capacity
type BookingConfirmedEvent struct {
	BaseEvent
	BookingID        string `json:"booking_id"`
	ApartmentID      string `json:"apartment_id"`
	UserID           string `json:"user_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	AvailableBeds    int    `json:"available_beds"`
}

// BookingCancelledEvent published when confirmation found no capacity
// left and the booking was cancelled
type BookingCancelledEvent struct {
	BaseEvent
	BookingID   string `json:"booking_id"`
	ApartmentID string `json:"apartment_id"`
	UserID      string `json:"user_id"`
	Reason      string `json:"reason"`
}
