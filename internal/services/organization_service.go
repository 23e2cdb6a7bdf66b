package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldstone/task-tracker-api/internal/authz"
	"github.com/fieldstone/task-tracker-api/internal/constants"
	"github.com/fieldstone/task-tracker-api/internal/models"
	"github.com/fieldstone/task-tracker-api/internal/repository"
	"github.com/fieldstone/task-tracker-api/internal/utils"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrForbidden            = errors.New("action not permitted for this role")
	ErrSelfModification     = errors.New("cannot modify your own membership")
	ErrMemberNotFound       = errors.New("organization member not found")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidTheme         = errors.New("invalid theme")
	ErrInvalidDefaultRole   = errors.New("default role must be manager or member")
)

// OrganizationService provides organization and membership business logic.
type OrganizationService struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
	baseURL  string
}

// NewOrganizationService creates a new OrganizationService. baseURL is used to
// construct invite join URLs.
func NewOrganizationService(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository, baseURL string) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Get returns the organization with its creator resolved.
func (s *OrganizationService) Get(orgID uuid.UUID) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

// UpdateSettingsInput carries a partial organization update. Nil fields are
// left untouched; settings merge field-by-field.
type UpdateSettingsInput struct {
	Name              *string
	Description       *string
	Theme             *models.Theme
	AllowPublicSignup *bool
	DefaultRole       *models.Role
}

// UpdateSettings applies a partial update to the organization. Admin only.
// A name change recomputes the slug and re-disambiguates it.
func (s *OrganizationService) UpdateSettings(actor *models.User, input UpdateSettingsInput) (*models.Organization, error) {
	if !authz.Can(actor.Role, authz.ActionOrgUpdateSettings) {
		return nil, ErrForbidden
	}

	orgID, err := tenantID(actor)
	if err != nil {
		return nil, err
	}

	org, err := s.Get(orgID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) != org.Name {
		name := strings.TrimSpace(*input.Name)
		slug, err := uniqueSlug(s.orgRepo, name, org.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to recompute slug: %w", err)
		}
		org.Name = name
		org.Slug = slug
	}
	if input.Description != nil {
		org.Description = *input.Description
	}
	if input.Theme != nil {
		if !models.ValidTheme(*input.Theme) {
			return nil, ErrInvalidTheme
		}
		org.Settings.Theme = *input.Theme
	}
	if input.AllowPublicSignup != nil {
		org.Settings.AllowPublicSignup = *input.AllowPublicSignup
	}
	if input.DefaultRole != nil {
		if *input.DefaultRole != models.RoleManager && *input.DefaultRole != models.RoleMember {
			return nil, ErrInvalidDefaultRole
		}
		org.Settings.DefaultRole = *input.DefaultRole
	}

	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return org, nil
}

// ListMembers returns the active members of the actor's organization, newest
// first. Credentials are excluded at the DTO layer.
func (s *OrganizationService) ListMembers(actor *models.User) ([]models.User, error) {
	orgID, err := tenantID(actor)
	if err != nil {
		return nil, err
	}

	members, err := s.userRepo.ListActiveByOrganization(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// Invite is the result of issuing an invite.
type Invite struct {
	Token     string      `json:"token"`
	JoinURL   string      `json:"join_url"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// InviteMember issues an invite token for an email address. Admin or manager
// only. A still-pending invite to the same email gets a fresh token instead
// of a duplicate record.
func (s *OrganizationService) InviteMember(actor *models.User, email string, role models.Role) (*Invite, error) {
	if !authz.Can(actor.Role, authz.ActionMemberInvite) {
		return nil, ErrForbidden
	}

	orgID, err := tenantID(actor)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = models.RoleMember
	}
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	email = normalizeEmail(email)
	token, err := utils.GenerateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite token: %w", err)
	}
	expiresAt := time.Now().Add(constants.InviteTokenTTL)

	existing, err := s.userRepo.FindByEmail(email)
	switch {
	case err == nil && existing.PendingInvite() && existing.OrganizationID != nil && *existing.OrganizationID == orgID:
		existing.InviteToken = &token
		existing.InviteExpiresAt = &expiresAt
		existing.Role = role
		if err := s.userRepo.Update(existing); err != nil {
			return nil, fmt.Errorf("failed to refresh invite: %w", err)
		}
	case err == nil:
		return nil, ErrDuplicateEmail
	case errors.Is(err, gorm.ErrRecordNotFound):
		placeholder := &models.User{
			ID:    uuid.New(),
			Email: email,
			// never a valid bcrypt hash, so the placeholder cannot log in
			PasswordHash:    "!invited",
			OrganizationID:  &orgID,
			Role:            role,
			IsActive:        false,
			InviteToken:     &token,
			InviteExpiresAt: &expiresAt,
		}
		if err := s.userRepo.Create(placeholder); err != nil {
			return nil, fmt.Errorf("failed to create invite: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	return &Invite{
		Token:     token,
		JoinURL:   fmt.Sprintf("%s/join?token=%s", s.baseURL, token),
		Email:     email,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

// InvitePreview is the public view of a pending invite, enough for a join
// page to render.
type InvitePreview struct {
	OrganizationName string      `json:"organization_name"`
	Email            string      `json:"email"`
	Role             models.Role `json:"role"`
}

// PreviewInvite resolves a pending invite token without authentication.
func (s *OrganizationService) PreviewInvite(token string) (*InvitePreview, error) {
	placeholder, err := s.userRepo.FindByInviteToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInvite
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}

	if !placeholder.PendingInvite() || placeholder.InviteExpiresAt == nil ||
		placeholder.InviteExpiresAt.Before(time.Now()) || placeholder.OrganizationID == nil {
		return nil, ErrInvalidInvite
	}

	org, err := s.Get(*placeholder.OrganizationID)
	if err != nil {
		return nil, err
	}

	return &InvitePreview{
		OrganizationName: org.Name,
		Email:            placeholder.Email,
		Role:             placeholder.Role,
	}, nil
}

// ChangeMemberRole changes another member's role. Admin only; never the
// actor's own account.
func (s *OrganizationService) ChangeMemberRole(actor *models.User, targetID uuid.UUID, newRole models.Role) (*models.User, error) {
	if !authz.Can(actor.Role, authz.ActionMemberChangeRole) {
		return nil, ErrForbidden
	}
	if actor.ID == targetID {
		return nil, ErrSelfModification
	}
	if !models.ValidRole(newRole) {
		return nil, ErrInvalidRole
	}

	target, err := s.activeMember(actor, targetID)
	if err != nil {
		return nil, err
	}

	target.Role = newRole
	if err := s.userRepo.Update(target); err != nil {
		return nil, fmt.Errorf("failed to change role: %w", err)
	}

	return target, nil
}

// RemoveMember deactivates a member. Admin only; never the actor's own
// account. The record is kept so historical task references stay resolvable.
func (s *OrganizationService) RemoveMember(actor *models.User, targetID uuid.UUID) error {
	if !authz.Can(actor.Role, authz.ActionMemberRemove) {
		return ErrForbidden
	}
	if actor.ID == targetID {
		return ErrSelfModification
	}

	target, err := s.activeMember(actor, targetID)
	if err != nil {
		return err
	}

	target.IsActive = false
	if err := s.userRepo.Update(target); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// activeMember loads the target and verifies it is an active member of the
// actor's organization.
func (s *OrganizationService) activeMember(actor *models.User, targetID uuid.UUID) (*models.User, error) {
	orgID, err := tenantID(actor)
	if err != nil {
		return nil, err
	}

	target, err := s.userRepo.FindByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	if !target.IsActive || target.OrganizationID == nil || *target.OrganizationID != orgID {
		return nil, ErrMemberNotFound
	}

	return target, nil
}

// uniqueSlug derives a slug from the name and disambiguates collisions by
// suffixing -1, -2, ... excludeID skips the organization being renamed.
func uniqueSlug(orgRepo repository.OrganizationRepository, name string, excludeID uuid.UUID) (string, error) {
	base := utils.Slugify(name)
	if base == "" {
		base = "org"
	}

	candidate := base
	for i := 1; ; i++ {
		existing, err := orgRepo.FindBySlug(candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if existing.ID == excludeID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
