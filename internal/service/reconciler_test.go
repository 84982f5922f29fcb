package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"rental-service/internal/apperr"
	"rental-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReconcilerStore implements ReconcilerStore in memory with the
// same mutual-exclusion guarantee the SQL row lock provides.
type fakeReconcilerStore struct {
	mu         sync.Mutex
	intents    map[string]*models.PaymentIntent
	bookings   map[string]*models.Booking
	apartments map[string]*models.Apartment
}

func newFakeReconcilerStore() *fakeReconcilerStore {
	return &fakeReconcilerStore{
		intents:    make(map[string]*models.PaymentIntent),
		bookings:   make(map[string]*models.Booking),
		apartments: make(map[string]*models.Apartment),
	}
}

func (f *fakeReconcilerStore) GetPaymentIntentByOrderID(_ context.Context, orderID string) (*models.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[orderID]
	if !ok {
		return nil, fmt.Errorf("payment intent for order %s: %w", orderID, apperr.ErrNotFound)
	}
	cp := *intent
	return &cp, nil
}

func (f *fakeReconcilerStore) GetBookingByID(_ context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, apperr.ErrNotFound)
	}
	cp := *booking
	return &cp, nil
}

func (f *fakeReconcilerStore) ConfirmBookingPayment(_ context.Context, orderID, paymentID string) (*models.ConfirmResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	intent, ok := f.intents[orderID]
	if !ok {
		return nil, fmt.Errorf("payment intent for order %s: %w", orderID, apperr.ErrNotFound)
	}
	booking := f.bookings[intent.BookingID]
	apt := f.apartments[booking.ApartmentID]

	if intent.Status == models.PaymentStatusPaid {
		ic, bc := *intent, *booking
		return &models.ConfirmResult{
			Intent:        &ic,
			Booking:       &bc,
			AvailableBeds: apt.AvailableBeds,
			Confirmed:     booking.Status == models.BookingStatusConfirmed,
			AlreadyPaid:   true,
		}, nil
	}

	intent.Status = models.PaymentStatusPaid
	intent.GatewayPaymentID = paymentID

	confirmed := apt.AvailableBeds > 0
	if confirmed {
		apt.AvailableBeds--
		booking.Status = models.BookingStatusConfirmed
	} else {
		booking.Status = models.BookingStatusCancelled
	}

	ic, bc := *intent, *booking
	return &models.ConfirmResult{
		Intent:        &ic,
		Booking:       &bc,
		AvailableBeds: apt.AvailableBeds,
		Confirmed:     confirmed,
	}, nil
}

func (f *fakeReconcilerStore) seed(orderID string, availableBeds int) {
	f.apartments["apt-1"] = &models.Apartment{
		ID:            "apt-1",
		TotalBeds:     4,
		AvailableBeds: availableBeds,
		Approval:      models.ApprovalApproved,
	}
	bookingID := "booking-" + orderID
	f.bookings[bookingID] = &models.Booking{
		ID:          bookingID,
		ApartmentID: "apt-1",
		UserID:      "user-1",
		Status:      models.BookingStatusActive,
	}
	f.intents[orderID] = &models.PaymentIntent{
		ID:             "intent-" + orderID,
		BookingID:      bookingID,
		UserID:         "user-1",
		ApartmentID:    "apt-1",
		AmountMinor:    150050,
		GatewayOrderID: orderID,
		Status:         models.PaymentStatusPending,
	}
}

// fakeAvailabilityCache records cache traffic and can simulate a
// missing key or a Redis error.
type fakeAvailabilityCache struct {
	mu         sync.Mutex
	miss       bool
	decErr     error
	decrements []string
	sets       map[string]int
}

func newFakeAvailabilityCache() *fakeAvailabilityCache {
	return &fakeAvailabilityCache{sets: make(map[string]int)}
}

func (f *fakeAvailabilityCache) DecrementAvailability(_ context.Context, apartmentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decErr != nil {
		return false, f.decErr
	}
	f.decrements = append(f.decrements, apartmentID)
	return !f.miss, nil
}

func (f *fakeAvailabilityCache) SetAvailability(_ context.Context, apartmentID string, available int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[apartmentID] = available
	return nil
}

func TestConfirmWithCapacity(t *testing.T) {
	store := newFakeReconcilerStore()
	store.seed("order-1", 2)
	r := NewReconciler(store, nil, nil)

	result, err := r.Confirm(context.Background(), "order-1", "pay-1")
	require.NoError(t, err)

	assert.True(t, result.Confirmed)
	assert.False(t, result.AlreadyPaid)
	assert.Equal(t, models.BookingStatusConfirmed, result.Booking.Status)
	assert.Equal(t, models.PaymentStatusPaid, result.Intent.Status)
	assert.Equal(t, "pay-1", result.Intent.GatewayPaymentID)
	assert.Equal(t, 1, result.AvailableBeds)
	assert.Equal(t, 1, store.apartments["apt-1"].AvailableBeds)
}

func TestConfirmCapacityExhausted(t *testing.T) {
	store := newFakeReconcilerStore()
	store.seed("order-1", 0)
	r := NewReconciler(store, nil, nil)

	result, err := r.Confirm(context.Background(), "order-1", "pay-1")
	require.NoError(t, err)

	assert.False(t, result.Confirmed)
	assert.Equal(t, models.BookingStatusCancelled, result.Booking.Status)
	// The charge went through at the gateway, so the intent is still paid.
	assert.Equal(t, models.PaymentStatusPaid, result.Intent.Status)
	assert.Equal(t, 0, result.AvailableBeds)
}

func TestConfirmIdempotent(t *testing.T) {
	store := newFakeReconcilerStore()
	store.seed("order-1", 1)
	r := NewReconciler(store, nil, nil)

	first, err := r.Confirm(context.Background(), "order-1", "pay-1")
	require.NoError(t, err)
	assert.True(t, first.Confirmed)
	assert.Equal(t, 0, store.apartments["apt-1"].AvailableBeds)

	second, err := r.Confirm(context.Background(), "order-1", "pay-1")
	require.NoError(t, err)
	assert.True(t, second.AlreadyPaid)
	assert.True(t, second.Confirmed)
	// No second decrement.
	assert.Equal(t, 0, store.apartments["apt-1"].AvailableBeds)
}

func TestConfirmDecrementsAvailabilityCache(t *testing.T) {
	store := newFakeReconcilerStore()
	store.seed("order-1", 2)
	cache := newFakeAvailabilityCache()
	r := NewReconciler(store, cache, nil)

	_, err := r.Confirm(context.Background(), "order-1", "pay-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"apt-1"}, cache.decrements)
	assert.Empty(t, cache.sets)
}

// When the cache entry is gone the committed value repairs it.
func TestConfirmRepairsAvailabilityCacheOnMiss(t *testing.T) {
	store := newFakeReconcilerStore()
	store.seed("order-1", 2)
	cache := newFakeAvailabilityCache()
	cache.miss = true
	r := NewReconciler(store, cache, nil)

	_, err := r.Confirm(context.Background(), "order-1", "pay-1")
	require.NoError(t, err)

	assert.Equal(t, 1, cache.sets["apt-1"])
}

func TestConfirmRepairsAvailabilityCacheOnError(t *testing.T) {
	store := newFakeReconcilerStore()
	store.seed("order-1", 2)
	cache := newFakeAvailabilityCache()
	cache.decErr = fmt.Errorf("redis down")
	r := NewReconciler(store, cache, nil)

	_, err := r.Confirm(context.Background(), "order-1", "pay-1")
	require.NoError(t, err)

	assert.Equal(t, 1, cache.sets["apt-1"])
}

func TestConfirmCapacityExhaustedWritesCacheValue(t *testing.T) {
	store := newFakeReconcilerStore()
	store.seed("order-1", 0)
	cache := newFakeAvailabilityCache()
	r := NewReconciler(store, cache, nil)

	_, err := r.Confirm(context.Background(), "order-1", "pay-1")
	require.NoError(t, err)

	// No bed was consumed, so no decrement. The entry still gets the
	// committed value in case it drifted.
	assert.Empty(t, cache.decrements)
	require.Contains(t, cache.sets, "apt-1")
	assert.Equal(t, 0, cache.sets["apt-1"])
}

func TestConfirmDuplicateSkipsCache(t *testing.T) {
	store := newFakeReconcilerStore()
	store.seed("order-1", 1)
	cache := newFakeAvailabilityCache()
	r := NewReconciler(store, cache, nil)

	_, err := r.Confirm(context.Background(), "order-1", "pay-1")
	require.NoError(t, err)
	require.Equal(t, []string{"apt-1"}, cache.decrements)

	_, err = r.Confirm(context.Background(), "order-1", "pay-1")
	require.NoError(t, err)

	// The duplicate delivery must not decrement a second time.
	assert.Equal(t, []string{"apt-1"}, cache.decrements)
}

func TestConfirmUnknownOrder(t *testing.T) {
	store := newFakeReconcilerStore()
	store.seed("order-1", 1)
	r := NewReconciler(store, nil, nil)

	_, err := r.Confirm(context.Background(), "order-does-not-exist", "pay-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Nothing moved.
	assert.Equal(t, 1, store.apartments["apt-1"].AvailableBeds)
	assert.Equal(t, models.PaymentStatusPending, store.intents["order-1"].Status)
	assert.Equal(t, models.BookingStatusActive, store.bookings["booking-order-1"].Status)
}

func TestConfirmEmptyOrderID(t *testing.T) {
	r := NewReconciler(newFakeReconcilerStore(), nil, nil)
	_, err := r.Confirm(context.Background(), "", "pay-1")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

// Two bookings race for the last bed. Exactly one wins regardless of
// interleaving.
func TestConfirmLastBedRace(t *testing.T) {
	store := newFakeReconcilerStore()
	store.seed("order-1", 1)

	// Second booking against the same apartment.
	store.bookings["booking-order-2"] = &models.Booking{
		ID:          "booking-order-2",
		ApartmentID: "apt-1",
		UserID:      "user-2",
		Status:      models.BookingStatusActive,
	}
	store.intents["order-2"] = &models.PaymentIntent{
		ID:             "intent-order-2",
		BookingID:      "booking-order-2",
		UserID:         "user-2",
		ApartmentID:    "apt-1",
		AmountMinor:    150050,
		GatewayOrderID: "order-2",
		Status:         models.PaymentStatusPending,
	}

	r := NewReconciler(store, nil, nil)

	results := make([]*models.ConfirmResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, orderID := range []string{"order-1", "order-2"} {
		wg.Add(1)
		go func(i int, orderID string) {
			defer wg.Done()
			results[i], errs[i] = r.Confirm(context.Background(), orderID, "pay-"+orderID)
		}(i, orderID)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	confirmed := 0
	for _, result := range results {
		if result.Confirmed {
			confirmed++
		}
	}
	assert.Equal(t, 1, confirmed)
	assert.Equal(t, 0, store.apartments["apt-1"].AvailableBeds)

	// Both intents are paid; the loser's booking was cancelled.
	assert.Equal(t, models.PaymentStatusPaid, store.intents["order-1"].Status)
	assert.Equal(t, models.PaymentStatusPaid, store.intents["order-2"].Status)
}
