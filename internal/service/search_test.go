package service

import (
	"context"
	"fmt"
	"testing"

	"rental-service/internal/apperr"
	"rental-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minorPtr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }

type fakeSearchStore struct {
	filters    map[string]*models.SearchFilter
	apartments []models.Apartment
}

func (f *fakeSearchStore) CreateSearchFilter(_ context.Context, filter *models.SearchFilter) error {
	f.filters[filter.UserID] = filter
	return nil
}

func (f *fakeSearchStore) GetSearchFilter(_ context.Context, userID string) (*models.SearchFilter, error) {
	filter, ok := f.filters[userID]
	if !ok {
		return nil, fmt.Errorf("search filter for user %s: %w", userID, apperr.ErrNotFound)
	}
	return filter, nil
}

func (f *fakeSearchStore) UpdateSearchFilter(_ context.Context, filter *models.SearchFilter) error {
	f.filters[filter.UserID] = filter
	return nil
}

func (f *fakeSearchStore) DeleteSearchFilter(_ context.Context, userID string) error {
	delete(f.filters, userID)
	return nil
}

func (f *fakeSearchStore) GetApartmentsMatching(_ context.Context, filter *models.SearchFilter) ([]models.Apartment, error) {
	// Categorical matching only, the way the SQL layer behaves. Rent is
	// deliberately not applied here.
	var matched []models.Apartment
	for _, apt := range f.apartments {
		if apt.Approval != models.ApprovalApproved {
			continue
		}
		if filter.Location != nil && apt.Location != *filter.Location {
			continue
		}
		if filter.SharingType != nil && apt.SharingType != *filter.SharingType {
			continue
		}
		if filter.Duration != nil && apt.Duration != *filter.Duration {
			continue
		}
		matched = append(matched, apt)
	}
	return matched, nil
}

func rentFixtures() []models.Apartment {
	return []models.Apartment{
		{ID: "a", Location: "Pune", RentMinor: 100000, Approval: models.ApprovalApproved},
		{ID: "b", Location: "Pune", RentMinor: 150050, Approval: models.ApprovalApproved},
		{ID: "c", Location: "Pune", RentMinor: 200000, Approval: models.ApprovalApproved},
	}
}

func TestFilterByRentRange(t *testing.T) {
	// 1200.00 to 1800.00 keeps only the 1500.50 listing.
	got := FilterByRent(rentFixtures(), minorPtr(120000), minorPtr(180000))
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestFilterByRentBoundaryInclusive(t *testing.T) {
	// rent_max exactly equal to a listing's rent keeps that listing.
	got := FilterByRent(rentFixtures(), nil, minorPtr(150050))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	got = FilterByRent(rentFixtures(), minorPtr(150050), nil)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestFilterByRentUnbounded(t *testing.T) {
	got := FilterByRent(rentFixtures(), nil, nil)
	assert.Len(t, got, 3)
}

func TestFilterApartmentsAppliesSavedFilter(t *testing.T) {
	store := &fakeSearchStore{
		filters: map[string]*models.SearchFilter{
			"user-1": {
				UserID:       "user-1",
				Location:     strPtr("Pune"),
				RentMinMinor: minorPtr(120000),
				RentMaxMinor: minorPtr(180000),
			},
		},
		apartments: append(rentFixtures(), models.Apartment{
			ID: "d", Location: "Mumbai", RentMinor: 150050, Approval: models.ApprovalApproved,
		}),
	}
	svc := NewSearchService(store)

	got, err := svc.FilterApartments(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestFilterApartmentsNoSavedFilter(t *testing.T) {
	svc := NewSearchService(&fakeSearchStore{filters: map[string]*models.SearchFilter{}})
	_, err := svc.FilterApartments(context.Background(), "user-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
