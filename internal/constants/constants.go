package constants

import "time"

const (
	// ContextKeyUser is the gin context key holding the authenticated user.
	ContextKeyUser = "current_user"

	MinPasswordLength = 6
	MinNameLength     = 2
	MaxNameLength     = 100

	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxCommentLength     = 1000

	DefaultPageSize = 10
	MaxPageSize     = 100

	SessionTokenTTL = 7 * 24 * time.Hour
	InviteTokenTTL  = 7 * 24 * time.Hour
)
