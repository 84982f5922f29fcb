package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"rental-service/internal/apperr"
	"rental-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookingStore struct {
	mu         sync.Mutex
	apartments map[string]*models.Apartment
	bookings   map[string]*models.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		apartments: make(map[string]*models.Apartment),
		bookings:   make(map[string]*models.Booking),
	}
}

func (f *fakeBookingStore) GetApartmentByID(_ context.Context, id string) (*models.Apartment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.apartments[id]
	if !ok {
		return nil, fmt.Errorf("apartment %s: %w", id, apperr.ErrNotFound)
	}
	cp := *apt
	return &cp, nil
}

func (f *fakeBookingStore) CreateBooking(_ context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *booking
	f.bookings[booking.ID] = &cp
	return nil
}

func (f *fakeBookingStore) GetBookingByID(_ context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, apperr.ErrNotFound)
	}
	cp := *booking
	return &cp, nil
}

func (f *fakeBookingStore) GetBookingsByUser(_ context.Context, userID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) GetBookingsByApartment(_ context.Context, apartmentID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.ApartmentID == apartmentID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) GetPaymentIntentsByUser(_ context.Context, _ string) ([]models.PaymentIntent, error) {
	return nil, nil
}

func (f *fakeBookingStore) GetPaymentIntentsByApartment(_ context.Context, _ string) ([]models.PaymentIntent, error) {
	return nil, nil
}

// fakeBookingCache is a plain map standing in for the Redis
// idempotency keys.
type fakeBookingCache struct {
	mu   sync.Mutex
	keys map[string]string
}

func newFakeBookingCache() *fakeBookingCache {
	return &fakeBookingCache{keys: make(map[string]string)}
}

func (f *fakeBookingCache) GetIdempotencyKey(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bookingID, ok := f.keys[key]
	return bookingID, ok, nil
}

func (f *fakeBookingCache) SetIdempotencyKey(_ context.Context, key, bookingID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = bookingID
	return nil
}

func seedApprovedApartment(store *fakeBookingStore, beds int) {
	store.apartments["apt-1"] = &models.Apartment{
		ID:            "apt-1",
		TotalBeds:     4,
		AvailableBeds: beds,
		Approval:      models.ApprovalApproved,
	}
}

func TestCreateBookingIdempotentRetry(t *testing.T) {
	store := newFakeBookingStore()
	seedApprovedApartment(store, 2)
	cache := newFakeBookingCache()
	svc := NewBookingService(store, cache, nil)

	checkout := time.Now().AddDate(0, 1, 0)
	first, err := svc.Create(context.Background(), "user-1", "apt-1", checkout, "req-abc")
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), "user-1", "apt-1", checkout, "req-abc")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.bookings, 1)
}

func TestCreateBookingIdempotencyKeyScopedToUser(t *testing.T) {
	store := newFakeBookingStore()
	seedApprovedApartment(store, 2)
	cache := newFakeBookingCache()
	svc := NewBookingService(store, cache, nil)

	checkout := time.Now().AddDate(0, 1, 0)
	first, err := svc.Create(context.Background(), "user-1", "apt-1", checkout, "req-abc")
	require.NoError(t, err)

	// A different caller reusing the same key gets their own booking,
	// not user-1's.
	second, err := svc.Create(context.Background(), "user-2", "apt-1", checkout, "req-abc")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "user-2", second.UserID)
	assert.Len(t, store.bookings, 2)
}

func TestCreateBookingUnapprovedApartment(t *testing.T) {
	store := newFakeBookingStore()
	store.apartments["apt-1"] = &models.Apartment{
		ID:            "apt-1",
		TotalBeds:     4,
		AvailableBeds: 4,
		Approval:      models.ApprovalPending,
	}
	svc := NewBookingService(store, newFakeBookingCache(), nil)

	_, err := svc.Create(context.Background(), "user-1", "apt-1", time.Now(), "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateBookingNoBedsAdvisory(t *testing.T) {
	store := newFakeBookingStore()
	seedApprovedApartment(store, 0)
	svc := NewBookingService(store, newFakeBookingCache(), nil)

	_, err := svc.Create(context.Background(), "user-1", "apt-1", time.Now(), "")
	assert.ErrorIs(t, err, apperr.ErrCapacityExhausted)
}
