package services

import (
	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"
)

// IsAdmin reports whether p is an authenticated admin.
func IsAdmin(p *models.Principal) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleRegular:
		return false
	default:
		return false
	}
}

// IsRegular reports whether p is an authenticated regular user. Admins are
// not regular users.
func IsRegular(p *models.Principal) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case models.RoleAdmin:
		return false
	case models.RoleRegular:
		return true
	default:
		return false
	}
}

// VisibleTasks is the set of tasks p may read, change or delete. It is
// applied before any client filter.
func VisibleTasks(p *models.Principal) repositories.TaskScope {
	if p == nil {
		return repositories.NoTasks()
	}
	switch p.Role {
	case models.RoleAdmin:
		return repositories.AllTasks()
	case models.RoleRegular:
		return repositories.OwnedBy(p.ID)
	default:
		return repositories.NoTasks()
	}
}
