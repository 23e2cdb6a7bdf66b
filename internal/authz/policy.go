// Package authz holds the role/action permission table. Every mutating
// operation consults this single table instead of branching per route.
package authz

import (
	"github.com/fieldstone/task-tracker-api/internal/models"
)

type Action string

const (
	ActionTaskCreate        Action = "task:create"
	ActionTaskUpdateAny     Action = "task:update_any"
	ActionTaskDelete        Action = "task:delete"
	ActionOrgUpdateSettings Action = "org:update_settings"
	ActionMemberInvite      Action = "member:invite"
	ActionMemberChangeRole  Action = "member:change_role"
	ActionMemberRemove      Action = "member:remove"
)

var policy = map[models.Role]map[Action]bool{
	models.RoleAdmin: {
		ActionTaskCreate:        true,
		ActionTaskUpdateAny:     true,
		ActionTaskDelete:        true,
		ActionOrgUpdateSettings: true,
		ActionMemberInvite:      true,
		ActionMemberChangeRole:  true,
		ActionMemberRemove:      true,
	},
	models.RoleManager: {
		ActionTaskCreate:    true,
		ActionTaskUpdateAny: true,
		ActionTaskDelete:    true,
		ActionMemberInvite:  true,
	},
	models.RoleMember: {},
}

// Can reports whether the role is allowed to perform the action.
func Can(role models.Role, action Action) bool {
	return policy[role][action]
}

// CanViewTask reports whether the user may view the task. Admins and managers
// see everything in their organization; members only tasks they created or
// are assigned to.
func CanViewTask(user *models.User, task *models.Task) bool {
	if user.Role != models.RoleMember {
		return true
	}
	if task.CreatedByID == user.ID {
		return true
	}
	return task.AssignedToID != nil && *task.AssignedToID == user.ID
}

// CanMemberUpdateStatus reports whether a member may perform a status-only
// update on the task: they must be the assignee.
func CanMemberUpdateStatus(user *models.User, task *models.Task) bool {
	return task.AssignedToID != nil && *task.AssignedToID == user.ID
}
