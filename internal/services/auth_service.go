package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fieldstone/task-tracker-api/internal/constants"
	"github.com/fieldstone/task-tracker-api/internal/models"
	"github.com/fieldstone/task-tracker-api/internal/repository"
)

var (
	ErrDuplicateEmail       = errors.New("email is already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidInvite        = errors.New("invite is invalid or has expired")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrTenantRequired       = errors.New("user has no organization")
)

// AuthService handles credential verification and account creation.
type AuthService struct {
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, orgRepo repository.OrganizationRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		orgRepo:  orgRepo,
	}
}

// RegisterInput represents the required information to create a founding
// admin and their organization.
type RegisterInput struct {
	Name             string
	Email            string
	Password         string
	OrganizationName string
}

// Register creates an admin user and their organization in one transaction.
func (s *AuthService) Register(input RegisterInput) (*models.User, *models.Organization, error) {
	email := normalizeEmail(input.Email)
	if len(input.Password) < constants.MinPasswordLength {
		return nil, nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, ErrFailedToHashPassword
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: string(hashed),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}

	slug, err := uniqueSlug(s.orgRepo, input.OrganizationName, uuid.Nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute organization slug: %w", err)
	}

	org := &models.Organization{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.OrganizationName),
		Slug:        slug,
		Settings:    defaultSettings(),
		IsActive:    true,
		CreatedByID: user.ID,
	}

	if err := s.userRepo.CreateWithOrganization(user, org); err != nil {
		return nil, nil, fmt.Errorf("failed to complete registration: %w", err)
	}

	return user, org, nil
}

// Login verifies credentials and returns the authenticated user. Unknown
// email, inactive account, and wrong password all produce the same error.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return user, nil
}

// GetSessionUser resolves a verified token subject to an active user with the
// organization preloaded. Deleted and deactivated users are rejected.
func (s *AuthService) GetSessionUser(id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.FindByIDWithOrganization(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// AcceptInviteInput represents the information needed to accept an invite.
type AcceptInviteInput struct {
	Name        string
	Email       string
	Password    string
	InviteToken string
}

// AcceptInvite activates a pending invite placeholder as a real member of the
// inviting organization.
func (s *AuthService) AcceptInvite(input AcceptInviteInput) (*models.User, error) {
	placeholder, err := s.userRepo.FindByInviteToken(input.InviteToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInvite
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}

	if !placeholder.PendingInvite() {
		return nil, ErrInvalidInvite
	}
	if placeholder.InviteExpiresAt == nil || placeholder.InviteExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidInvite
	}

	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	email := normalizeEmail(input.Email)
	if existing, err := s.userRepo.FindByEmail(email); err == nil {
		if existing.ID != placeholder.ID {
			return nil, ErrDuplicateEmail
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	now := time.Now()
	placeholder.Name = strings.TrimSpace(input.Name)
	placeholder.Email = email
	placeholder.PasswordHash = string(hashed)
	placeholder.IsActive = true
	placeholder.InviteToken = nil
	placeholder.InviteExpiresAt = nil
	placeholder.LastLoginAt = &now

	if err := s.userRepo.Update(placeholder); err != nil {
		return nil, fmt.Errorf("failed to activate invited user: %w", err)
	}

	return placeholder, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// tenantID binds an authenticated user to their organization scope. A user
// without an organization should not exist past registration, but the check
// is made anyway.
func tenantID(actor *models.User) (uuid.UUID, error) {
	if actor.OrganizationID == nil {
		return uuid.Nil, ErrTenantRequired
	}
	return *actor.OrganizationID, nil
}

func defaultSettings() models.OrganizationSettings {
	return models.OrganizationSettings{
		Theme:             models.ThemeLight,
		AllowPublicSignup: false,
		DefaultRole:       models.RoleMember,
	}
}
