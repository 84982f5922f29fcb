package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rental-service/internal/apperr"
	"rental-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// CreateApartment inserts a new listing in pending approval state.
func (s *Store) CreateApartment(ctx context.Context, apt *models.Apartment) error {
	query := `
		INSERT INTO apartments
			(id, owner_id, title, description, location, rent_minor, duration,
			 sharing_type, bhk, parking, total_beds, available_beds, approval)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, apt, query,
		apt.ID, apt.OwnerID, apt.Title, apt.Description, apt.Location,
		apt.RentMinor, apt.Duration, apt.SharingType, apt.BHK, apt.Parking,
		apt.TotalBeds, apt.AvailableBeds, apt.Approval)
}

// GetApartmentByID retrieves an apartment by ID
func (s *Store) GetApartmentByID(ctx context.Context, id string) (*models.Apartment, error) {
	var apt models.Apartment
	err := s.db.GetContext(ctx, &apt, "SELECT * FROM apartments WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("apartment %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &apt, nil
}

// UpdateApartment updates the owner-editable listing fields.
func (s *Store) UpdateApartment(ctx context.Context, apt *models.Apartment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE apartments
		SET title = $1, description = $2, location = $3, rent_minor = $4,
		    duration = $5, sharing_type = $6, bhk = $7, parking = $8,
		    total_beds = $9, updated_at = NOW()
		WHERE id = $10`,
		apt.Title, apt.Description, apt.Location, apt.RentMinor,
		apt.Duration, apt.SharingType, apt.BHK, apt.Parking,
		apt.TotalBeds, apt.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("apartment %s: %w", apt.ID, apperr.ErrNotFound)
	}
	return nil
}

// DeleteApartment removes a listing
func (s *Store) DeleteApartment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM apartments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("apartment %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// GetApprovedApartments retrieves the publicly listable apartments
func (s *Store) GetApprovedApartments(ctx context.Context) ([]models.Apartment, error) {
	var apts []models.Apartment
	err := s.db.SelectContext(ctx, &apts,
		"SELECT * FROM apartments WHERE approval = $1 ORDER BY created_at DESC",
		models.ApprovalApproved)
	return apts, err
}

// GetApartmentsByOwner retrieves all listings of one owner
func (s *Store) GetApartmentsByOwner(ctx context.Context, ownerID string) ([]models.Apartment, error) {
	var apts []models.Apartment
	err := s.db.SelectContext(ctx, &apts,
		"SELECT * FROM apartments WHERE owner_id = $1 ORDER BY created_at DESC", ownerID)
	return apts, err
}

// GetPendingApartments retrieves listings awaiting admin review
func (s *Store) GetPendingApartments(ctx context.Context) ([]models.Apartment, error) {
	var apts []models.Apartment
	err := s.db.SelectContext(ctx, &apts,
		"SELECT * FROM apartments WHERE approval = $1 ORDER BY created_at", models.ApprovalPending)
	return apts, err
}

// SetApartmentApproval moves a listing to approved or rejected.
func (s *Store) SetApartmentApproval(ctx context.Context, apartmentID, approval string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE apartments SET approval = $1, updated_at = NOW() WHERE id = $2",
		approval, apartmentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("apartment %s: %w", apartmentID, apperr.ErrNotFound)
	}
	return nil
}

// GetApartmentsMatching returns approved apartments matching the
// categorical fields of a saved filter. Rent bounds are applied by the
// caller on exact minor units.
func (s *Store) GetApartmentsMatching(ctx context.Context, f *models.SearchFilter) ([]models.Apartment, error) {
	query := "SELECT * FROM apartments WHERE approval = $1"
	args := []interface{}{models.ApprovalApproved}

	add := func(clause string, val interface{}) {
		args = append(args, val)
		query += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}

	if f.Location != nil && *f.Location != "" {
		add("location ILIKE", "%"+*f.Location+"%")
	}
	if f.Duration != nil && *f.Duration != "" {
		add("duration =", *f.Duration)
	}
	if f.SharingType != nil && *f.SharingType != "" {
		add("sharing_type =", *f.SharingType)
	}
	if f.BHK != nil && *f.BHK != "" {
		add("bhk =", *f.BHK)
	}
	if f.Parking != nil {
		add("parking =", *f.Parking)
	}
	query += " ORDER BY created_at DESC"

	var apts []models.Apartment
	err := s.db.SelectContext(ctx, &apts, query, args...)
	return apts, err
}

// ConfirmBookingPayment runs the atomic confirmation transaction: lock
// the payment intent, then the apartment row, re-check idempotence, and
// either confirm the booking and decrement capacity or cancel it when
// no beds remain. Any failure rolls the whole transaction back so
// partial state is never observable.
func (s *Store) ConfirmBookingPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.ConfirmResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback()

	var intent models.PaymentIntent
	err = tx.GetContext(ctx, &intent,
		"SELECT * FROM payment_intents WHERE gateway_order_id = $1 FOR UPDATE", gatewayOrderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment intent for order %s: %w", gatewayOrderID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment intent: %w", err)
	}

	var booking models.Booking
	if err := tx.GetContext(ctx, &booking,
		"SELECT * FROM bookings WHERE id = $1", intent.BookingID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("booking %s: %w", intent.BookingID, apperr.ErrNotFound)
		}
		return nil, err
	}

	// A racing callback that committed first leaves the intent paid.
	// Duplicate delivery is a no-op success.
	if intent.Status == models.PaymentStatusPaid {
		var available int
		if err := tx.GetContext(ctx, &available,
			"SELECT available_beds FROM apartments WHERE id = $1", intent.ApartmentID); err != nil {
			return nil, err
		}
		return &models.ConfirmResult{
			Intent:        &intent,
			Booking:       &booking,
			AvailableBeds: available,
			Confirmed:     booking.Status == models.BookingStatusConfirmed,
			AlreadyPaid:   true,
		}, nil
	}

	// Serialize concurrent confirmations per apartment.
	var available int
	err = tx.GetContext(ctx, &available,
		"SELECT available_beds FROM apartments WHERE id = $1 FOR UPDATE", intent.ApartmentID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("apartment %s: %w", intent.ApartmentID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock apartment: %w", err)
	}

	confirmed := available > 0
	bookingStatus := models.BookingStatusCancelled
	if confirmed {
		bookingStatus = models.BookingStatusConfirmed
		if _, err := tx.ExecContext(ctx,
			"UPDATE apartments SET available_beds = available_beds - 1, updated_at = NOW() WHERE id = $1",
			intent.ApartmentID); err != nil {
			return nil, fmt.Errorf("failed to decrement capacity: %w", err)
		}
		available--
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status = $1 WHERE id = $2",
		bookingStatus, booking.ID); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE payment_intents SET status = $1, gateway_payment_id = $2, updated_at = NOW() WHERE id = $3",
		models.PaymentStatusPaid, gatewayPaymentID, intent.ID); err != nil {
		return nil, fmt.Errorf("failed to update payment intent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}

	intent.Status = models.PaymentStatusPaid
	intent.GatewayPaymentID = gatewayPaymentID
	booking.Status = bookingStatus

	return &models.ConfirmResult{
		Intent:        &intent,
		Booking:       &booking,
		AvailableBeds: available,
		Confirmed:     confirmed,
	}, nil
}
