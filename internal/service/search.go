package service

import (
	"context"

	"rental-service/internal/models"
	"rental-service/internal/util"
)

// SearchStore is the persistence surface for saved filters and
// filtered listing reads.
type SearchStore interface {
	CreateSearchFilter(ctx context.Context, f *models.SearchFilter) error
	GetSearchFilter(ctx context.Context, userID string) (*models.SearchFilter, error)
	UpdateSearchFilter(ctx context.Context, f *models.SearchFilter) error
	DeleteSearchFilter(ctx context.Context, userID string) error
	GetApartmentsMatching(ctx context.Context, f *models.SearchFilter) ([]models.Apartment, error)
}

// SearchService manages per-user saved filters and applies them to the
// approved listing set. Categorical fields are matched in SQL; rent
// bounds are applied here on minor units so the boundary semantics are
// exact and independent of the column type.
type SearchService struct {
	store SearchStore
}

func NewSearchService(store SearchStore) *SearchService {
	return &SearchService{store: store}
}

func (s *SearchService) SaveFilter(ctx context.Context, f *models.SearchFilter) error {
	return s.store.CreateSearchFilter(ctx, f)
}

func (s *SearchService) GetFilter(ctx context.Context, userID string) (*models.SearchFilter, error) {
	return s.store.GetSearchFilter(ctx, userID)
}

func (s *SearchService) UpdateFilter(ctx context.Context, f *models.SearchFilter) error {
	return s.store.UpdateSearchFilter(ctx, f)
}

func (s *SearchService) DeleteFilter(ctx context.Context, userID string) error {
	return s.store.DeleteSearchFilter(ctx, userID)
}

// FilterApartments returns the approved apartments matching the user's
// saved filter. Absent filter fields impose no constraint.
func (s *SearchService) FilterApartments(ctx context.Context, userID string) ([]models.Apartment, error) {
	ctx, span := util.StartSpan(ctx, "SearchService.FilterApartments")
	defer span.End()

	f, err := s.store.GetSearchFilter(ctx, userID)
	if err != nil {
		return nil, err
	}

	apartments, err := s.store.GetApartmentsMatching(ctx, f)
	if err != nil {
		return nil, err
	}

	return FilterByRent(apartments, f.RentMinMinor, f.RentMaxMinor), nil
}

// FilterByRent keeps apartments whose rent falls within the inclusive
// [min, max] bounds. A nil bound is unconstrained.
func FilterByRent(apartments []models.Apartment, minMinor, maxMinor *int64) []models.Apartment {
	if minMinor == nil && maxMinor == nil {
		return apartments
	}
	matched := make([]models.Apartment, 0, len(apartments))
	for _, apt := range apartments {
		if minMinor != nil && apt.RentMinor < *minMinor {
			continue
		}
		if maxMinor != nil && apt.RentMinor > *maxMinor {
			continue
		}
		matched = append(matched, apt)
	}
	return matched
}
