package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rental-service/internal/apperr"
	"rental-service/internal/gateway"
	"rental-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentStore struct {
	bookings map[string]*models.Booking
	intents  []*models.PaymentIntent
	failed   []string
}

func (f *fakePaymentStore) GetBookingByID(_ context.Context, id string) (*models.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, apperr.ErrNotFound)
	}
	return booking, nil
}

func (f *fakePaymentStore) CreatePaymentIntent(_ context.Context, intent *models.PaymentIntent) error {
	f.intents = append(f.intents, intent)
	return nil
}

func (f *fakePaymentStore) MarkPaymentIntentFailed(_ context.Context, gatewayOrderID string) error {
	f.failed = append(f.failed, gatewayOrderID)
	return nil
}

// fakeGateway fails CreateOrder failOrders times before succeeding.
type fakeGateway struct {
	failOrders  int
	orderCalls  int
	linkCalls   int
	orderSeq    int
	payments    []gateway.Payment
	paymentsErr error
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountMinor int64, receipt string) (*gateway.Order, error) {
	f.orderCalls++
	if f.orderCalls <= f.failOrders {
		return nil, errors.New("gateway timeout")
	}
	f.orderSeq++
	return &gateway.Order{
		ID:          fmt.Sprintf("order_%d", f.orderSeq),
		AmountMinor: amountMinor,
		Receipt:     receipt,
		Status:      "created",
	}, nil
}

func (f *fakeGateway) CreatePaymentLink(_ context.Context, _ int64, orderID string) (*gateway.PaymentLink, error) {
	f.linkCalls++
	return &gateway.PaymentLink{ID: "plink_1", ShortURL: "https://pay.test/" + orderID}, nil
}

func (f *fakeGateway) FetchOrder(_ context.Context, orderID string) (*gateway.Order, error) {
	return &gateway.Order{ID: orderID, Status: "created"}, nil
}

func (f *fakeGateway) FetchOrderPayments(_ context.Context, _ string) ([]gateway.Payment, error) {
	if f.paymentsErr != nil {
		return nil, f.paymentsErr
	}
	return f.payments, nil
}

func activeBookingStore() *fakePaymentStore {
	return &fakePaymentStore{
		bookings: map[string]*models.Booking{
			"booking-1": {
				ID:          "booking-1",
				ApartmentID: "apt-1",
				UserID:      "user-1",
				Status:      models.BookingStatusActive,
			},
		},
	}
}

func TestInitiateSucceedsAfterRetries(t *testing.T) {
	store := activeBookingStore()
	gw := &fakeGateway{failOrders: 2}
	svc := NewPaymentService(store, gw, nil, nil, 3, time.Millisecond)

	resp, err := svc.Initiate(context.Background(), "booking-1", "1500.50")
	require.NoError(t, err)

	assert.Equal(t, 3, gw.orderCalls)
	assert.Equal(t, "order_1", resp.GatewayOrderID)
	assert.Equal(t, int64(150050), resp.AmountMinor)
	assert.Equal(t, "1500.50", resp.Amount)
	assert.NotEmpty(t, resp.TransactionID)
	assert.Equal(t, "https://pay.test/order_1", resp.PaymentURL)

	require.Len(t, store.intents, 1)
	intent := store.intents[0]
	assert.Equal(t, models.PaymentStatusPending, intent.Status)
	assert.Equal(t, "order_1", intent.GatewayOrderID)
	assert.Equal(t, "booking-1", intent.BookingID)
	assert.Equal(t, "user-1", intent.UserID)
	assert.Equal(t, "apt-1", intent.ApartmentID)
}

func TestInitiateRetriesExhausted(t *testing.T) {
	store := activeBookingStore()
	gw := &fakeGateway{failOrders: 10}
	svc := NewPaymentService(store, gw, nil, nil, 3, time.Millisecond)

	_, err := svc.Initiate(context.Background(), "booking-1", "1500.50")
	assert.ErrorIs(t, err, apperr.ErrGatewayUnavailable)

	assert.Equal(t, 3, gw.orderCalls)
	// No dangling pending intent when the gateway never answered.
	assert.Empty(t, store.intents)
}

func TestInitiateRejectsBadAmount(t *testing.T) {
	store := activeBookingStore()
	svc := NewPaymentService(store, &fakeGateway{}, nil, nil, 3, time.Millisecond)

	for _, amount := range []string{"", "abc", "-5.00", "1.999", "0", "0.00"} {
		_, err := svc.Initiate(context.Background(), "booking-1", amount)
		assert.ErrorIs(t, err, apperr.ErrValidation, "amount %q", amount)
	}
	assert.Empty(t, store.intents)
}

func TestInitiateUnknownBooking(t *testing.T) {
	svc := NewPaymentService(activeBookingStore(), &fakeGateway{}, nil, nil, 3, time.Millisecond)
	_, err := svc.Initiate(context.Background(), "missing", "100.00")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInitiateRejectsNonActiveBooking(t *testing.T) {
	store := activeBookingStore()
	store.bookings["booking-1"].Status = models.BookingStatusCancelled
	svc := NewPaymentService(store, &fakeGateway{}, nil, nil, 3, time.Millisecond)

	_, err := svc.Initiate(context.Background(), "booking-1", "100.00")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCheckStatusUnpaidOrder(t *testing.T) {
	svc := NewPaymentService(activeBookingStore(), &fakeGateway{}, nil, nil, 1, 0)

	result, status, err := svc.CheckStatus(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "created", status)
}

// A paid order seen through polling goes through the same reconciler
// as the callback path, and records the gateway payment id the
// callback would have carried.
func TestCheckStatusPaidOrderConfirms(t *testing.T) {
	recStore := newFakeReconcilerStore()
	recStore.seed("order_1", 1)
	reconciler := NewReconciler(recStore, nil, nil)

	gw := &paidGateway{}
	gw.payments = []gateway.Payment{
		{ID: "pay_failed", Status: "failed"},
		{ID: "pay_777", Status: "captured"},
	}
	svc := NewPaymentService(activeBookingStore(), gw, reconciler, nil, 1, 0)

	result, status, err := svc.CheckStatus(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, "paid", status)
	require.NotNil(t, result)
	assert.True(t, result.Confirmed)
	assert.Equal(t, 0, recStore.apartments["apt-1"].AvailableBeds)
	assert.Equal(t, "pay_777", recStore.intents["order_1"].GatewayPaymentID)
}

func TestCheckStatusAllAttemptsFailed(t *testing.T) {
	store := activeBookingStore()
	gw := &fakeGateway{payments: []gateway.Payment{
		{ID: "pay_1", Status: "failed"},
		{ID: "pay_2", Status: "failed"},
	}}
	svc := NewPaymentService(store, gw, nil, nil, 1, 0)

	result, status, err := svc.CheckStatus(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "created", status)
	assert.Equal(t, []string{"order_1"}, store.failed)
}

// An attempt still in flight means the order may yet be paid, so the
// intent stays pending.
func TestCheckStatusPartialFailuresStayPending(t *testing.T) {
	store := activeBookingStore()
	gw := &fakeGateway{payments: []gateway.Payment{
		{ID: "pay_1", Status: "failed"},
		{ID: "pay_2", Status: "created"},
	}}
	svc := NewPaymentService(store, gw, nil, nil, 1, 0)

	_, _, err := svc.CheckStatus(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Empty(t, store.failed)
}

func TestCheckStatusPaymentsListError(t *testing.T) {
	store := activeBookingStore()
	gw := &fakeGateway{paymentsErr: errors.New("gateway timeout")}
	svc := NewPaymentService(store, gw, nil, nil, 1, 0)

	result, status, err := svc.CheckStatus(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "created", status)
	// Without a payment listing there is no evidence of failure.
	assert.Empty(t, store.failed)
}

type paidGateway struct{ fakeGateway }

func (p *paidGateway) FetchOrder(_ context.Context, orderID string) (*gateway.Order, error) {
	return &gateway.Order{ID: orderID, Status: "paid"}, nil
}
