package service

import (
	"context"
	"errors"
	"testing"

	"rental-service/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeListingCache struct {
	entries map[string]int
	err     error
	inits   map[string]int
}

func newFakeListingCache() *fakeListingCache {
	return &fakeListingCache{
		entries: make(map[string]int),
		inits:   make(map[string]int),
	}
}

func (f *fakeListingCache) InitAvailability(_ context.Context, apartmentID string, available, _ int) error {
	f.inits[apartmentID] = available
	return nil
}

func (f *fakeListingCache) GetAvailability(_ context.Context, apartmentID string) (int, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	available, ok := f.entries[apartmentID]
	return available, ok, nil
}

func overlayFixtures() []models.Apartment {
	return []models.Apartment{
		{ID: "apt-1", AvailableBeds: 3, Approval: models.ApprovalApproved},
		{ID: "apt-2", AvailableBeds: 2, Approval: models.ApprovalApproved},
		{ID: "apt-3", AvailableBeds: 4, Approval: models.ApprovalPending},
	}
}

func TestOverlayAvailabilityUsesCachedValue(t *testing.T) {
	cache := newFakeListingCache()
	cache.entries["apt-1"] = 1
	svc := NewListingService(nil, cache, nil)

	apts := svc.overlayAvailability(context.Background(), overlayFixtures())

	assert.Equal(t, 1, apts[0].AvailableBeds)
	// No cache entry, the stored value stands.
	assert.Equal(t, 2, apts[1].AvailableBeds)
}

// Unapproved listings are never cached, their stored value is shown
// as-is even when a stale entry exists.
func TestOverlayAvailabilitySkipsUnapproved(t *testing.T) {
	cache := newFakeListingCache()
	cache.entries["apt-3"] = 0
	svc := NewListingService(nil, cache, nil)

	apts := svc.overlayAvailability(context.Background(), overlayFixtures())

	assert.Equal(t, 4, apts[2].AvailableBeds)
}

func TestOverlayAvailabilityCacheErrorFallsBack(t *testing.T) {
	cache := newFakeListingCache()
	cache.err = errors.New("redis down")
	svc := NewListingService(nil, cache, nil)

	apts := svc.overlayAvailability(context.Background(), overlayFixtures())

	assert.Equal(t, 3, apts[0].AvailableBeds)
	assert.Equal(t, 2, apts[1].AvailableBeds)
}

func TestOverlayAvailabilityNilCache(t *testing.T) {
	svc := NewListingService(nil, nil, nil)

	apts := svc.overlayAvailability(context.Background(), overlayFixtures())

	assert.Equal(t, 3, apts[0].AvailableBeds)
}
