package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldstone/task-tracker-api/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating the user fails inside the registration transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateOrganization is returned when creating the organization fails inside the registration transaction.
	ErrCreateOrganization = errors.New("user repository: create organization failed")
	// ErrLinkOrganization is returned when linking the user to the organization fails inside the registration transaction.
	ErrLinkOrganization = errors.New("user repository: link organization failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// CreateWithOrganization creates the founding admin and their organization
// atomically. The organization references the user as creator and the user is
// then linked back, so a failure at any step rolls everything back.
func (r *GormUserRepository) CreateWithOrganization(user *models.User, org *models.Organization) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		org.CreatedByID = user.ID
		if err := tx.Create(org).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOrganization, err)
		}

		user.OrganizationID = &org.ID
		if err := tx.Model(user).Update("organization_id", org.ID).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrLinkOrganization, err)
		}

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDWithOrganization finds a user with the organization preloaded
func (r *GormUserRepository) FindByIDWithOrganization(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Organization").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email, case-insensitively
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("lower(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByInviteToken finds a pending invite placeholder by its token
func (r *GormUserRepository) FindByInviteToken(token string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("invite_token = ?", token).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update persists changes to a user
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// ListActiveByOrganization lists active members of an organization, newest first
func (r *GormUserRepository) ListActiveByOrganization(orgID uuid.UUID) ([]models.User, error) {
	var users []models.User
	if err := r.db.
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
