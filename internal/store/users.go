package store

import (
	"context"
	"database/sql"
	"fmt"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
)

// CreateUser inserts a new account row.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, identity_uid, name, email, phone, role, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := s.db.GetContext(ctx, user, query,
		user.ID, user.UserID, user.Name, user.Email, user.Phone, user.Role, user.Bio)
	if isUniqueViolation(err) {
		return fmt.Errorf("user with this email or phone: %w", apperr.ErrConflict)
	}
	return err
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", email, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserProfile updates the self-editable fields.
func (s *Store) UpdateUserProfile(ctx context.Context, id, name, bio string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET name = $1, bio = $2, updated_at = NOW() WHERE id = $3",
		name, bio, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// CreateHouseOwner attaches an owner record to a user.
func (s *Store) CreateHouseOwner(ctx context.Context, owner *models.HouseOwner) error {
	query := `
		INSERT INTO house_owners (user_id, verified, tax_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := s.db.GetContext(ctx, owner, query, owner.UserID, owner.Verified, owner.TaxID)
	if isUniqueViolation(err) {
		return fmt.Errorf("house owner record: %w", apperr.ErrConflict)
	}
	return err
}

// GetHouseOwner retrieves the owner record for a user
func (s *Store) GetHouseOwner(ctx context.Context, userID string) (*models.HouseOwner, error) {
	var owner models.HouseOwner
	err := s.db.GetContext(ctx, &owner, "SELECT * FROM house_owners WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("house owner %s: %w", userID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

// CreateSearchFilter stores a user's saved filter. One per user.
func (s *Store) CreateSearchFilter(ctx context.Context, f *models.SearchFilter) error {
	query := `
		INSERT INTO search_filters
			(user_id, location, rent_min_minor, rent_max_minor, duration, sharing_type, bhk, parking)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := s.db.GetContext(ctx, f, query,
		f.UserID, f.Location, f.RentMinMinor, f.RentMaxMinor,
		f.Duration, f.SharingType, f.BHK, f.Parking)
	if isUniqueViolation(err) {
		return fmt.Errorf("search filter: %w", apperr.ErrConflict)
	}
	return err
}

// GetSearchFilter retrieves the saved filter for a user
func (s *Store) GetSearchFilter(ctx context.Context, userID string) (*models.SearchFilter, error) {
	var f models.SearchFilter
	err := s.db.GetContext(ctx, &f, "SELECT * FROM search_filters WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("search filter for user %s: %w", userID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateSearchFilter replaces the saved filter fields.
func (s *Store) UpdateSearchFilter(ctx context.Context, f *models.SearchFilter) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE search_filters
		SET location = $1, rent_min_minor = $2, rent_max_minor = $3,
		    duration = $4, sharing_type = $5, bhk = $6, parking = $7
		WHERE user_id = $8`,
		f.Location, f.RentMinMinor, f.RentMaxMinor,
		f.Duration, f.SharingType, f.BHK, f.Parking, f.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("search filter for user %s: %w", f.UserID, apperr.ErrNotFound)
	}
	return nil
}

// DeleteSearchFilter removes the saved filter for a user
func (s *Store) DeleteSearchFilter(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM search_filters WHERE user_id = $1", userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("search filter for user %s: %w", userID, apperr.ErrNotFound)
	}
	return nil
}
