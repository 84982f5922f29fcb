package store

import (
	"context"
	"database/sql"
	"fmt"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
)

// AddApartmentImage stores a blob-store handle for a listing photo.
func (s *Store) AddApartmentImage(ctx context.Context, img *models.ApartmentImage) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO apartment_images (id, apartment_id, file_id, is_primary) VALUES ($1, $2, $3, $4)",
		img.ID, img.ApartmentID, img.FileID, img.Primary)
	return err
}

// GetApartmentImages retrieves image records for an apartment
func (s *Store) GetApartmentImages(ctx context.Context, apartmentID string) ([]models.ApartmentImage, error) {
	var imgs []models.ApartmentImage
	err := s.db.SelectContext(ctx, &imgs,
		"SELECT * FROM apartment_images WHERE apartment_id = $1 ORDER BY is_primary DESC", apartmentID)
	return imgs, err
}

// GetApartmentImage retrieves a single image record
func (s *Store) GetApartmentImage(ctx context.Context, id string) (*models.ApartmentImage, error) {
	var img models.ApartmentImage
	err := s.db.GetContext(ctx, &img, "SELECT * FROM apartment_images WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("image %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// DeleteApartmentImage removes an image record
func (s *Store) DeleteApartmentImage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM apartment_images WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("image %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// AddWishlistItem saves an apartment to a user's wishlist.
func (s *Store) AddWishlistItem(ctx context.Context, item *models.WishlistItem) error {
	query := `
		INSERT INTO wishlist_items (id, user_id, apartment_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := s.db.GetContext(ctx, item, query, item.ID, item.UserID, item.ApartmentID)
	if isUniqueViolation(err) {
		return fmt.Errorf("wishlist item: %w", apperr.ErrConflict)
	}
	return err
}

// GetWishlist retrieves a user's saved apartments
func (s *Store) GetWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM wishlist_items WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return items, err
}

// RemoveWishlistItem removes an apartment from a user's wishlist
func (s *Store) RemoveWishlistItem(ctx context.Context, userID, apartmentID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM wishlist_items WHERE user_id = $1 AND apartment_id = $2", userID, apartmentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("wishlist item: %w", apperr.ErrNotFound)
	}
	return nil
}

// CreateChatMessage stores a direct message.
func (s *Store) CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, sender_id, receiver_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	return s.db.GetContext(ctx, msg, query, msg.ID, msg.SenderID, msg.ReceiverID, msg.Body)
}

// GetConversation retrieves the two-way message history between two users
func (s *Store) GetConversation(ctx context.Context, userA, userB string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := s.db.SelectContext(ctx, &msgs, `
		SELECT * FROM chat_messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at`, userA, userB)
	return msgs, err
}

// CreateComplaint files a complaint against an apartment's owner.
func (s *Store) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (id, complainant_id, owner_id, apartment_id, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return s.db.GetContext(ctx, c, query,
		c.ID, c.ComplainantID, c.OwnerID, c.ApartmentID, c.Description, c.Status)
}

// GetComplaints retrieves all complaints
func (s *Store) GetComplaints(ctx context.Context) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := s.db.SelectContext(ctx, &complaints,
		"SELECT * FROM complaints ORDER BY created_at DESC")
	return complaints, err
}

// GetComplaintsByApartment retrieves complaints for an apartment
func (s *Store) GetComplaintsByApartment(ctx context.Context, apartmentID string) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := s.db.SelectContext(ctx, &complaints,
		"SELECT * FROM complaints WHERE apartment_id = $1 ORDER BY created_at DESC", apartmentID)
	return complaints, err
}

// CreateNotification inserts a notification row. Called by the
// notification worker on booking outcome events.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, message)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	return s.db.GetContext(ctx, n, query, n.ID, n.UserID, n.Message)
}

// GetNotifications retrieves notifications for a user
func (s *Store) GetNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	var list []models.Notification
	err := s.db.SelectContext(ctx, &list,
		"SELECT * FROM notifications WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return list, err
}

// MarkNotificationRead flags a notification as read
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// CreateHostelApproval records an admin review for a pending listing.
func (s *Store) CreateHostelApproval(ctx context.Context, a *models.HostelApproval) error {
	query := `
		INSERT INTO hostel_approvals (id, apartment_id, admin_id, status, comments)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, a, query, a.ID, a.ApartmentID, a.AdminID, a.Status, a.Comments)
}

// GetHostelApprovals retrieves approval reviews for an apartment
func (s *Store) GetHostelApprovals(ctx context.Context, apartmentID string) ([]models.HostelApproval, error) {
	var list []models.HostelApproval
	err := s.db.SelectContext(ctx, &list,
		"SELECT * FROM hostel_approvals WHERE apartment_id = $1 ORDER BY created_at DESC", apartmentID)
	return list, err
}
