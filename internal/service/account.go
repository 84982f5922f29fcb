package service

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"rental-service/internal/apperr"
	"rental-service/internal/identity"
	"rental-service/internal/models"
	"rental-service/internal/store"
	"rental-service/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdentityProvider is the external credential store. Passwords never
// touch our database.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, phone string) (string, error)
	VerifyPassword(ctx context.Context, email, password string) (string, error)
}

// SignUpRequest carries a registration.
type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// AccountService handles registration, login and profile management.
type AccountService struct {
	store     *store.Store
	idp       IdentityProvider
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAccountService(st *store.Store, idp IdentityProvider, jwtSecret string, tokenTTL time.Duration) *AccountService {
	return &AccountService{
		store:     st,
		idp:       idp,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    util.GetLogger(),
	}
}

var _ IdentityProvider = (*identity.Client)(nil)

// SignUp registers the credentials with the identity provider and then
// persists the profile row keyed by the provider's uid.
func (s *AccountService) SignUp(ctx context.Context, req *SignUpRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.SignUp")
	defer span.End()

	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		return nil, fmt.Errorf("name, email, phone and password are required: %w", apperr.ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("invalid email address: %w", apperr.ErrValidation)
	}

	role := req.Role
	switch role {
	case "":
		role = models.RoleSeeker
	case models.RoleSeeker, models.RoleOwner:
	default:
		return nil, fmt.Errorf("role must be %s or %s: %w", models.RoleSeeker, models.RoleOwner, apperr.ErrValidation)
	}

	uid, err := s.idp.SignUp(ctx, req.Email, req.Password, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("identity provider rejected signup: %v: %w", err, apperr.ErrGatewayUnavailable)
	}

	user := &models.User{
		ID:     uuid.New().String(),
		UserID: uid,
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Role:   role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("role", role))
	return user, nil
}

// Login verifies credentials with the identity provider and issues a
// signed access token carrying the user's role.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Login")
	defer span.End()

	if email == "" || password == "" {
		return "", nil, fmt.Errorf("email and password are required: %w", apperr.ErrValidation)
	}

	if _, err := s.idp.VerifyPassword(ctx, email, password); err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", apperr.ErrPermissionDenied)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

func (s *AccountService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AccountService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID, name, bio string) (*models.User, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", apperr.ErrValidation)
	}
	if err := s.store.UpdateUserProfile(ctx, userID, name, bio); err != nil {
		return nil, err
	}
	return s.store.GetUserByID(ctx, userID)
}

// RegisterOwner attaches the owner record to a user with the owner
// role. Verification is a manual back-office step, the record starts
// unverified.
func (s *AccountService) RegisterOwner(ctx context.Context, userID, taxID string) (*models.HouseOwner, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleOwner {
		return nil, fmt.Errorf("only users with the owner role can register as house owners: %w", apperr.ErrPermissionDenied)
	}

	owner := &models.HouseOwner{
		UserID: userID,
		TaxID:  taxID,
	}
	if err := s.store.CreateHouseOwner(ctx, owner); err != nil {
		return nil, err
	}
	return owner, nil
}

func (s *AccountService) GetOwner(ctx context.Context, userID string) (*models.HouseOwner, error) {
	return s.store.GetHouseOwner(ctx, userID)
}
