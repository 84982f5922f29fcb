package service

import (
	"context"
	"fmt"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/store"

	"github.com/google/uuid"
)

// CommunityService covers wishlists, direct chat, complaints and
// notification reads.
type CommunityService struct {
	store *store.Store
}

func NewCommunityService(st *store.Store) *CommunityService {
	return &CommunityService{store: st}
}

// AddToWishlist saves an approved apartment for later. Re-adding the
// same apartment is a conflict surfaced by the unique constraint.
func (s *CommunityService) AddToWishlist(ctx context.Context, userID, apartmentID string) (*models.WishlistItem, error) {
	apt, err := s.store.GetApartmentByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	if apt.Approval != models.ApprovalApproved {
		return nil, fmt.Errorf("apartment is not listed: %w", apperr.ErrValidation)
	}

	item := &models.WishlistItem{
		ID:          uuid.New().String(),
		UserID:      userID,
		ApartmentID: apartmentID,
	}
	if err := s.store.AddWishlistItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CommunityService) GetWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	return s.store.GetWishlist(ctx, userID)
}

func (s *CommunityService) RemoveFromWishlist(ctx context.Context, userID, apartmentID string) error {
	return s.store.RemoveWishlistItem(ctx, userID, apartmentID)
}

// SendMessage delivers a direct message between two registered users.
func (s *CommunityService) SendMessage(ctx context.Context, senderID, receiverID, body string) (*models.ChatMessage, error) {
	if body == "" {
		return nil, fmt.Errorf("message body is required: %w", apperr.ErrValidation)
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("cannot message yourself: %w", apperr.ErrValidation)
	}
	if _, err := s.store.GetUserByID(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
	}
	if err := s.store.CreateChatMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// GetConversation returns the two-way message history between the
// caller and another user, oldest first.
func (s *CommunityService) GetConversation(ctx context.Context, userID, otherID string) ([]models.ChatMessage, error) {
	return s.store.GetConversation(ctx, userID, otherID)
}

// FileComplaint records a grievance against an apartment. The owner is
// resolved from the apartment so the complainant cannot spoof it.
func (s *CommunityService) FileComplaint(ctx context.Context, complainantID, apartmentID, description string) (*models.Complaint, error) {
	if description == "" {
		return nil, fmt.Errorf("description is required: %w", apperr.ErrValidation)
	}
	apt, err := s.store.GetApartmentByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}

	c := &models.Complaint{
		ID:            uuid.New().String(),
		ComplainantID: complainantID,
		OwnerID:       apt.OwnerID,
		ApartmentID:   apartmentID,
		Description:   description,
		Status:        models.ComplaintStatusPending,
	}
	if err := s.store.CreateComplaint(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommunityService) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	return s.store.GetComplaints(ctx)
}

func (s *CommunityService) ListComplaintsByApartment(ctx context.Context, apartmentID string) ([]models.Complaint, error) {
	return s.store.GetComplaintsByApartment(ctx, apartmentID)
}

func (s *CommunityService) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.store.GetNotifications(ctx, userID)
}

func (s *CommunityService) MarkNotificationRead(ctx context.Context, id, userID string) error {
	return s.store.MarkNotificationRead(ctx, id, userID)
}
