package models

import "time"

// User represents a registered account. UserID is the stable identifier
// assigned by the external identity provider.
type User struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"identity_uid" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Role      string    `db:"role" json:"role"`
	Bio       string    `db:"bio" json:"bio,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HouseOwner holds the owner-specific record attached to a user.
type HouseOwner struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Verified  bool      `db:"verified" json:"verified"`
	TaxID     string    `db:"tax_id" json:"tax_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Apartment is a rentable listing. Rent is in minor currency units.
// AvailableBeds is only mutated inside the confirmation transaction and
// stays within [0, TotalBeds].
type Apartment struct {
	ID            string    `db:"id" json:"id"`
	OwnerID       string    `db:"owner_id" json:"owner_id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description,omitempty"`
	Location      string    `db:"location" json:"location"`
	RentMinor     int64     `db:"rent_minor" json:"rent_minor"`
	Duration      string    `db:"duration" json:"duration"`
	SharingType   string    `db:"sharing_type" json:"sharing_type"`
	BHK           string    `db:"bhk" json:"bhk"`
	Parking       bool      `db:"parking" json:"parking"`
	TotalBeds     int       `db:"total_beds" json:"total_beds"`
	AvailableBeds int       `db:"available_beds" json:"available_beds"`
	Approval      string    `db:"approval" json:"approval"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ApartmentImage stores the blob-store handle for one listing photo,
// never the bytes themselves.
type ApartmentImage struct {
	ID          string `db:"id" json:"id"`
	ApartmentID string `db:"apartment_id" json:"apartment_id"`
	FileID      string `db:"file_id" json:"file_id"`
	Primary     bool   `db:"is_primary" json:"is_primary"`
}

// SearchFilter is a user's saved listing filter. Nil pointers mean the
// field imposes no constraint.
type SearchFilter struct {
	UserID       string    `db:"user_id" json:"user_id"`
	Location     *string   `db:"location" json:"location,omitempty"`
	RentMinMinor *int64    `db:"rent_min_minor" json:"rent_min_minor,omitempty"`
	RentMaxMinor *int64    `db:"rent_max_minor" json:"rent_max_minor,omitempty"`
	Duration     *string   `db:"duration" json:"duration,omitempty"`
	SharingType  *string   `db:"sharing_type" json:"sharing_type,omitempty"`
	BHK          *string   `db:"bhk" json:"bhk,omitempty"`
	Parking      *bool     `db:"parking" json:"parking,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Booking reserves a bed in an apartment. Capacity is consumed at
// payment confirmation, not at creation.
type Booking struct {
	ID           string    `db:"id" json:"id"`
	ApartmentID  string    `db:"apartment_id" json:"apartment_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Status       string    `db:"status" json:"status"`
	BookingDate  time.Time `db:"booking_date" json:"booking_date"`
	CheckoutDate time.Time `db:"checkout_date" json:"checkout_date"`
}

// PaymentIntent records one payment attempt against a booking.
type PaymentIntent struct {
	ID               string    `db:"id" json:"id"`
	TransactionID    string    `db:"transaction_id" json:"transaction_id"`
	BookingID        string    `db:"booking_id" json:"booking_id"`
	UserID           string    `db:"user_id" json:"user_id"`
	ApartmentID      string    `db:"apartment_id" json:"apartment_id"`
	AmountMinor      int64     `db:"amount_minor" json:"amount_minor"`
	GatewayOrderID   string    `db:"gateway_order_id" json:"gateway_order_id"`
	GatewayPaymentID string    `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	Status           string    `db:"status" json:"status"`
	Method           string    `db:"method" json:"method"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// ConfirmResult is the outcome of the atomic confirmation transaction.
type ConfirmResult struct {
	Intent        *PaymentIntent `json:"intent"`
	Booking       *Booking       `json:"booking"`
	AvailableBeds int            `json:"available_beds"`
	Confirmed     bool           `json:"confirmed"`
	AlreadyPaid   bool           `json:"already_paid"`
}

// WishlistItem marks an apartment a user saved for later.
type WishlistItem struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	ApartmentID string    `db:"apartment_id" json:"apartment_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ChatMessage is one direct message between two users.
type ChatMessage struct {
	ID         string    `db:"id" json:"id"`
	SenderID   string    `db:"sender_id" json:"sender_id"`
	ReceiverID string    `db:"receiver_id" json:"receiver_id"`
	Body       string    `db:"body" json:"body"`
	Read       bool      `db:"is_read" json:"is_read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Complaint is filed by a seeker against an owner's apartment.
type Complaint struct {
	ID            string     `db:"id" json:"id"`
	ComplainantID string     `db:"complainant_id" json:"complainant_id"`
	OwnerID       string     `db:"owner_id" json:"owner_id"`
	ApartmentID   string     `db:"apartment_id" json:"apartment_id"`
	Description   string     `db:"description" json:"description"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt    *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// Notification is written by the notification worker when booking
// outcome events arrive.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HostelApproval is an admin's review of a pending apartment.
type HostelApproval struct {
	ID          string    `db:"id" json:"id"`
	ApartmentID string    `db:"apartment_id" json:"apartment_id"`
	AdminID     string    `db:"admin_id" json:"admin_id"`
	Status      string    `db:"status" json:"status"`
	Comments    string    `db:"comments" json:"comments,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// User roles
const (
	RoleSeeker = "seeker"
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
)

// Apartment enumerations
const (
	DurationShortTerm = "short-term"
	DurationLongTerm  = "long-term"

	SharingPrivate = "private"
	SharingShared  = "shared"
)

// Approval statuses, shared by apartments and hostel approvals
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Booking statuses
const (
	BookingStatusActive    = "active"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Payment intent statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Complaint statuses
const (
	ComplaintStatusPending  = "pending"
	ComplaintStatusResolved = "resolved"
	ComplaintStatusRejected = "rejected"
)
