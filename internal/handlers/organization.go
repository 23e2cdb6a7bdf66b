package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldstone/task-tracker-api/internal/apierrors"
	"github.com/fieldstone/task-tracker-api/internal/dto"
	"github.com/fieldstone/task-tracker-api/internal/middleware"
	"github.com/fieldstone/task-tracker-api/internal/models"
	"github.com/fieldstone/task-tracker-api/internal/services"
)

// OrganizationHandler coordinates organization and membership HTTP handlers.
type OrganizationHandler struct {
	orgService *services.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
	}
}

// Get returns the caller's organization with its creator resolved.
func (h *OrganizationHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	if user.OrganizationID == nil {
		apierrors.Forbidden(c, "user has no organization")
		return
	}

	org, err := h.orgService.Get(*user.OrganizationID)
	if err != nil {
		respondOrgError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// UpdateSettings applies a partial update to the organization. Admin only.
func (h *OrganizationHandler) UpdateSettings(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type UpdateSettingsRequest struct {
		Name              *string       `json:"name" binding:"omitempty,min=2,max=100"`
		Description       *string       `json:"description"`
		Theme             *models.Theme `json:"theme"`
		AllowPublicSignup *bool         `json:"allowPublicSignup"`
		DefaultRole       *models.Role  `json:"defaultRole"`
	}

	var req UpdateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.orgService.UpdateSettings(user, services.UpdateSettingsInput{
		Name:              req.Name,
		Description:       req.Description,
		Theme:             req.Theme,
		AllowPublicSignup: req.AllowPublicSignup,
		DefaultRole:       req.DefaultRole,
	})
	if err != nil {
		respondOrgError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// ListMembers returns the active members of the caller's organization.
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	members, err := h.orgService.ListMembers(user)
	if err != nil {
		respondOrgError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": dto.ToMemberDTOs(members)})
}

// Invite issues an invite token for an email address.
func (h *OrganizationHandler) Invite(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type InviteRequest struct {
		Email string      `json:"email" binding:"required,email"`
		Role  models.Role `json:"role"`
	}

	var req InviteRequest
	if !bindJSON(c, &req) {
		return
	}

	invite, err := h.orgService.InviteMember(user, req.Email, req.Role)
	if err != nil {
		respondOrgError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invite)
}

// PreviewInvite resolves a pending invite token for the public join page.
func (h *OrganizationHandler) PreviewInvite(c *gin.Context) {
	preview, err := h.orgService.PreviewInvite(c.Param("token"))
	if err != nil {
		respondOrgError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// ChangeMemberRole changes another member's role. Admin only.
func (h *OrganizationHandler) ChangeMemberRole(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.NotFound(c, "Member not found")
		return
	}

	type ChangeRoleRequest struct {
		Role models.Role `json:"role" binding:"required"`
	}

	var req ChangeRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.orgService.ChangeMemberRole(user, targetID, req.Role)
	if err != nil {
		respondOrgError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*member))
}

// RemoveMember deactivates a member. Admin only.
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.NotFound(c, "Member not found")
		return
	}

	if err := h.orgService.RemoveMember(user, targetID); err != nil {
		respondOrgError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

func respondOrgError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, "")
	case errors.Is(err, services.ErrTenantRequired):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrSelfModification),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidTheme),
		errors.Is(err, services.ErrInvalidDefaultRole),
		errors.Is(err, services.ErrInvalidInvite):
		apierrors.BadRequest(c, err.Error())
	default:
		serverError(c, err)
	}
}
