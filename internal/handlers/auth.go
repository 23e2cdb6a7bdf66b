package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldstone/task-tracker-api/internal/apierrors"
	"github.com/fieldstone/task-tracker-api/internal/dto"
	"github.com/fieldstone/task-tracker-api/internal/middleware"
	"github.com/fieldstone/task-tracker-api/internal/services"
	"github.com/fieldstone/task-tracker-api/internal/token"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	tokens      *token.Manager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, tokens *token.Manager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
	}
}

// Register creates a founding admin and their organization.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Name             string `json:"name" binding:"required,min=2,max=100"`
		Email            string `json:"email" binding:"required,email"`
		Password         string `json:"password" binding:"required,min=6"`
		OrganizationName string `json:"organizationName" binding:"required,min=2,max=100"`
	}

	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, org, err := h.authService.Register(services.RegisterInput{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	sessionToken, err := h.tokens.Issue(user.ID)
	if err != nil {
		serverError(c, err)
		return
	}

	orgDTO := dto.ToOrganizationDTO(*org)
	c.JSON(http.StatusCreated, dto.AuthResponse{
		Token:        sessionToken,
		User:         dto.ToUserDTO(*user),
		Organization: &orgDTO,
	})
}

// Login verifies credentials and issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	sessionToken, err := h.tokens.Issue(user.ID)
	if err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Token: sessionToken,
		User:  dto.ToUserDTO(*user),
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": dto.ToUserDTO(*user)})
}

// Join accepts an invite and issues a session token for the new member.
func (h *AuthHandler) Join(c *gin.Context) {
	type JoinRequest struct {
		Name        string `json:"name" binding:"required,min=2,max=100"`
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=6"`
		InviteToken string `json:"inviteToken" binding:"required"`
	}

	var req JoinRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.AcceptInvite(services.AcceptInviteInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		InviteToken: req.InviteToken,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	sessionToken, err := h.tokens.Issue(user.ID)
	if err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{
		Token: sessionToken,
		User:  dto.ToUserDTO(*user),
	})
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrInvalidInvite),
		errors.Is(err, services.ErrInvalidCredentials):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.Unauthorized(c, "")
	default:
		serverError(c, err)
	}
}
