package models

// RoleName is the slug of a seeded role.
type RoleName string

const (
	RoleStudent     RoleName = "student"
	RoleCoordinator RoleName = "coordinator"
	RoleCommittee   RoleName = "committee"
	RoleFinance     RoleName = "finance"
	RoleAdmin       RoleName = "admin"
)

// Valid reports whether r is one of the seeded roles.
func (r RoleName) Valid() bool {
	switch r {
	case RoleStudent, RoleCoordinator, RoleCommittee, RoleFinance, RoleAdmin:
		return true
	}
	return false
}

// JSONMap is a free-form JSON object stored in a JSONB column.
type JSONMap map[string]interface{}
