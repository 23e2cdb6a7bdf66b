package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fieldstone/task-tracker-api/internal/apierrors"
	"github.com/fieldstone/task-tracker-api/internal/constants"
	"github.com/fieldstone/task-tracker-api/internal/models"
	"github.com/fieldstone/task-tracker-api/internal/services"
	"github.com/fieldstone/task-tracker-api/internal/token"
)

// RequireAuth verifies the bearer session token, resolves it to an active
// user with their organization, and binds both into the request context.
// Every downstream query is scoped to that organization.
func RequireAuth(tokens *token.Manager, authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		userID, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		user, err := authService.GetSessionUser(userID)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// CurrentUser retrieves the authenticated user from context.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}

	user, ok := value.(*models.User)
	return user, ok
}
