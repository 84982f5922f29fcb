package service

import (
	"context"
	"fmt"

	"rental-service/internal/apperr"
	"rental-service/internal/blobstore"
	"rental-service/internal/models"
	"rental-service/internal/money"
	"rental-service/internal/redisclient"
	"rental-service/internal/store"
	"rental-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BlobStore holds listing photos outside the relational store.
type BlobStore interface {
	Put(ctx context.Context, data []byte, filename, contentType string) (string, error)
	Get(ctx context.Context, fileID string) ([]byte, string, error)
	Delete(ctx context.Context, fileID string) error
}

var _ BlobStore = (*blobstore.Client)(nil)

// ListingCache is the availability cache surface used by listings:
// seeded at approval, read back on the public listing endpoints.
type ListingCache interface {
	InitAvailability(ctx context.Context, apartmentID string, available, total int) error
	GetAvailability(ctx context.Context, apartmentID string) (int, bool, error)
}

var _ ListingCache = (*redisclient.Client)(nil)

// ListingRequest carries the owner-supplied apartment fields. Rent is a
// decimal string and is converted to minor units on the way in.
type ListingRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location" binding:"required"`
	Rent        string `json:"rent" binding:"required"`
	Duration    string `json:"duration"`
	SharingType string `json:"sharing_type"`
	BHK         string `json:"bhk"`
	Parking     bool   `json:"parking"`
	TotalBeds   int    `json:"total_beds" binding:"required"`
}

// ListingService manages apartments through their lifecycle: owner
// submission, admin approval, public visibility, photos.
type ListingService struct {
	store  *store.Store
	cache  ListingCache
	blobs  BlobStore
	logger *zap.Logger
}

func NewListingService(st *store.Store, cache ListingCache, blobs BlobStore) *ListingService {
	return &ListingService{
		store:  st,
		cache:  cache,
		blobs:  blobs,
		logger: util.GetLogger(),
	}
}

// Create submits a new listing. It starts pending and is invisible to
// seekers until an admin approves it.
func (s *ListingService) Create(ctx context.Context, ownerID string, req *ListingRequest) (*models.Apartment, error) {
	ctx, span := util.StartSpan(ctx, "ListingService.Create")
	defer span.End()

	if err := s.requireVerifiedOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	apt, err := s.apartmentFromRequest(ownerID, req)
	if err != nil {
		return nil, err
	}
	apt.ID = uuid.New().String()
	apt.Approval = models.ApprovalPending
	apt.AvailableBeds = apt.TotalBeds

	if err := s.store.CreateApartment(ctx, apt); err != nil {
		return nil, err
	}

	s.logger.Info("Listing submitted",
		zap.String("apartment_id", apt.ID),
		zap.String("owner_id", ownerID))
	return apt, nil
}

// Update modifies a listing's descriptive fields. Only the owning user
// can update, and capacity fields are not editable here because
// available_beds is owned by the confirmation transaction.
func (s *ListingService) Update(ctx context.Context, ownerID, apartmentID string, req *ListingRequest) (*models.Apartment, error) {
	ctx, span := util.StartSpan(ctx, "ListingService.Update")
	defer span.End()

	existing, err := s.store.GetApartmentByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != ownerID {
		return nil, fmt.Errorf("apartment belongs to another owner: %w", apperr.ErrPermissionDenied)
	}

	updated, err := s.apartmentFromRequest(ownerID, req)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.Approval = existing.Approval
	updated.TotalBeds = existing.TotalBeds
	updated.AvailableBeds = existing.AvailableBeds

	if err := s.store.UpdateApartment(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ListingService) Delete(ctx context.Context, ownerID, apartmentID string) error {
	existing, err := s.store.GetApartmentByID(ctx, apartmentID)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return fmt.Errorf("apartment belongs to another owner: %w", apperr.ErrPermissionDenied)
	}
	return s.store.DeleteApartment(ctx, apartmentID)
}

func (s *ListingService) Get(ctx context.Context, id string) (*models.Apartment, error) {
	apt, err := s.store.GetApartmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apts := s.overlayAvailability(ctx, []models.Apartment{*apt})
	return &apts[0], nil
}

// ListApproved is the public listing feed. Only approved apartments
// are ever shown to seekers.
func (s *ListingService) ListApproved(ctx context.Context) ([]models.Apartment, error) {
	apts, err := s.store.GetApprovedApartments(ctx)
	if err != nil {
		return nil, err
	}
	return s.overlayAvailability(ctx, apts), nil
}

// overlayAvailability replaces the bed counts of approved listings with
// the cached value when the cache has one. Advisory display state only;
// admission decisions never read it. Misses and errors fall back to the
// database value.
func (s *ListingService) overlayAvailability(ctx context.Context, apts []models.Apartment) []models.Apartment {
	if s.cache == nil {
		return apts
	}
	for i := range apts {
		if apts[i].Approval != models.ApprovalApproved {
			continue
		}
		if available, ok, err := s.cache.GetAvailability(ctx, apts[i].ID); err == nil && ok {
			apts[i].AvailableBeds = available
		}
	}
	return apts
}

func (s *ListingService) ListByOwner(ctx context.Context, ownerID string) ([]models.Apartment, error) {
	return s.store.GetApartmentsByOwner(ctx, ownerID)
}

func (s *ListingService) ListPending(ctx context.Context) ([]models.Apartment, error) {
	return s.store.GetPendingApartments(ctx)
}

// Review records an admin's approval decision. Approval seeds the
// availability cache so seekers immediately see the full capacity.
func (s *ListingService) Review(ctx context.Context, adminID, apartmentID, decision, comments string) error {
	ctx, span := util.StartSpan(ctx, "ListingService.Review")
	defer span.End()

	if decision != models.ApprovalApproved && decision != models.ApprovalRejected {
		return fmt.Errorf("decision must be %s or %s: %w", models.ApprovalApproved, models.ApprovalRejected, apperr.ErrValidation)
	}

	apt, err := s.store.GetApartmentByID(ctx, apartmentID)
	if err != nil {
		return err
	}

	if err := s.store.SetApartmentApproval(ctx, apartmentID, decision); err != nil {
		return err
	}

	approval := &models.HostelApproval{
		ID:          uuid.New().String(),
		ApartmentID: apartmentID,
		AdminID:     adminID,
		Status:      decision,
		Comments:    comments,
	}
	if err := s.store.CreateHostelApproval(ctx, approval); err != nil {
		return err
	}

	if decision == models.ApprovalApproved && s.cache != nil {
		if err := s.cache.InitAvailability(ctx, apartmentID, apt.AvailableBeds, apt.TotalBeds); err != nil {
			s.logger.Warn("Failed to seed availability cache",
				zap.String("apartment_id", apartmentID),
				zap.Error(err))
		}
	}

	s.logger.Info("Listing reviewed",
		zap.String("apartment_id", apartmentID),
		zap.String("decision", decision),
		zap.String("admin_id", adminID))
	return nil
}

// AddImage stores the photo bytes in the blob store and records the
// handle.
func (s *ListingService) AddImage(ctx context.Context, ownerID, apartmentID string, data []byte, filename, contentType string) (*models.ApartmentImage, error) {
	ctx, span := util.StartSpan(ctx, "ListingService.AddImage")
	defer span.End()

	apt, err := s.store.GetApartmentByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	if apt.OwnerID != ownerID {
		return nil, fmt.Errorf("apartment belongs to another owner: %w", apperr.ErrPermissionDenied)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image payload is empty: %w", apperr.ErrValidation)
	}

	fileID, err := s.blobs.Put(ctx, data, filename, contentType)
	if err != nil {
		return nil, fmt.Errorf("blob store upload failed: %v: %w", err, apperr.ErrGatewayUnavailable)
	}

	img := &models.ApartmentImage{
		ID:          uuid.New().String(),
		ApartmentID: apartmentID,
		FileID:      fileID,
	}
	if err := s.store.AddApartmentImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *ListingService) GetImage(ctx context.Context, imageID string) ([]byte, string, error) {
	img, err := s.store.GetApartmentImage(ctx, imageID)
	if err != nil {
		return nil, "", err
	}
	data, contentType, err := s.blobs.Get(ctx, img.FileID)
	if err != nil {
		return nil, "", fmt.Errorf("blob store fetch failed: %v: %w", err, apperr.ErrGatewayUnavailable)
	}
	return data, contentType, nil
}

func (s *ListingService) ListImages(ctx context.Context, apartmentID string) ([]models.ApartmentImage, error) {
	return s.store.GetApartmentImages(ctx, apartmentID)
}

func (s *ListingService) DeleteImage(ctx context.Context, ownerID, imageID string) error {
	img, err := s.store.GetApartmentImage(ctx, imageID)
	if err != nil {
		return err
	}
	apt, err := s.store.GetApartmentByID(ctx, img.ApartmentID)
	if err != nil {
		return err
	}
	if apt.OwnerID != ownerID {
		return fmt.Errorf("apartment belongs to another owner: %w", apperr.ErrPermissionDenied)
	}
	if err := s.blobs.Delete(ctx, img.FileID); err != nil {
		s.logger.Warn("Failed to delete blob, record removed anyway",
			zap.String("file_id", img.FileID),
			zap.Error(err))
	}
	return s.store.DeleteApartmentImage(ctx, imageID)
}

func (s *ListingService) requireVerifiedOwner(ctx context.Context, userID string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleOwner {
		return fmt.Errorf("only owners can manage listings: %w", apperr.ErrPermissionDenied)
	}
	if _, err := s.store.GetHouseOwner(ctx, userID); err != nil {
		return fmt.Errorf("owner registration required before listing: %w", apperr.ErrPermissionDenied)
	}
	return nil
}

func (s *ListingService) apartmentFromRequest(ownerID string, req *ListingRequest) (*models.Apartment, error) {
	rentMinor, err := money.ParseAmount(req.Rent)
	if err != nil {
		return nil, fmt.Errorf("invalid rent: %v: %w", err, apperr.ErrValidation)
	}
	if req.TotalBeds <= 0 {
		return nil, fmt.Errorf("total_beds must be positive: %w", apperr.ErrValidation)
	}
	if req.Title == "" || req.Location == "" {
		return nil, fmt.Errorf("title and location are required: %w", apperr.ErrValidation)
	}
	return &models.Apartment{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		RentMinor:   rentMinor,
		Duration:    req.Duration,
		SharingType: req.SharingType,
		BHK:         req.BHK,
		Parking:     req.Parking,
		TotalBeds:   req.TotalBeds,
	}, nil
}
