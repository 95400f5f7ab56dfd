package auth

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/repositories"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/logger"
)

// Permission is a capability token stored on a role.
type Permission string

const (
	PermAll Permission = "*"

	PermApplicationsCreate  Permission = "applications:create"
	PermApplicationsOwn     Permission = "applications:own"
	PermApplicationsRead    Permission = "applications:read"
	PermApplicationsReview  Permission = "applications:review"
	PermScholarshipsManage  Permission = "scholarships:manage"
	PermScholarshipsRead    Permission = "scholarships:read"
	PermScholarshipsActive  Permission = "scholarships:read_active"
	PermPaymentsRead        Permission = "payments:read"
	PermPaymentsProcess     Permission = "payments:process"
	PermReportsFinancial    Permission = "reports:financial"
	PermNotificationsSend   Permission = "notifications:send"
	PermNotificationsRead   Permission = "notifications:read"
	PermUsersManage         Permission = "users:manage"
	PermSettingsManage      Permission = "settings:manage"
	PermAnalyticsRead       Permission = "analytics:read"
	PermNotificationsManage Permission = "notifications:manage"
)

// DefaultRolePermissions mirrors the roles seeded by migration. It serves
// until the table has been loaded.
var DefaultRolePermissions = map[models.RoleName][]Permission{
	models.RoleStudent: {
		PermApplicationsCreate, PermApplicationsOwn, PermScholarshipsActive, PermNotificationsRead,
	},
	models.RoleCoordinator: {
		PermScholarshipsManage, PermScholarshipsRead, PermApplicationsRead, PermApplicationsReview,
		PermNotificationsSend, PermNotificationsRead,
	},
	models.RoleCommittee: {
		PermScholarshipsRead, PermApplicationsRead, PermApplicationsReview, PermNotificationsRead,
	},
	models.RoleFinance: {
		PermPaymentsRead, PermPaymentsProcess, PermReportsFinancial, PermScholarshipsRead, PermNotificationsRead,
	},
	models.RoleAdmin: {PermAll},
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID int64
	Email  string
	Role   models.RoleName
}

// AuthorizationService answers capability and ownership questions. Role
// permissions are cached after the first load since roles do not change at
// runtime.
type AuthorizationService struct {
	roleRepo repositories.IRoleRepository

	mu    sync.RWMutex
	perms map[models.RoleName]map[Permission]struct{}
}

// NewAuthorizationService creates a new AuthorizationService seeded with DefaultRolePermissions
func NewAuthorizationService(roleRepo repositories.IRoleRepository) *AuthorizationService {
	s := &AuthorizationService{roleRepo: roleRepo}
	s.setPermissions(DefaultRolePermissions)
	return s
}

func (s *AuthorizationService) setPermissions(table map[models.RoleName][]Permission) {
	perms := make(map[models.RoleName]map[Permission]struct{}, len(table))
	for role, list := range table {
		set := make(map[Permission]struct{}, len(list))
		for _, p := range list {
			set[p] = struct{}{}
		}
		perms[role] = set
	}
	s.mu.Lock()
	s.perms = perms
	s.mu.Unlock()
}

// LoadRoles replaces the cached permissions with the roles table.
func (s *AuthorizationService) LoadRoles(ctx context.Context) error {
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	table := make(map[models.RoleName][]Permission, len(roles))
	for _, r := range roles {
		if !r.IsActive {
			continue
		}
		list := make([]Permission, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			list = append(list, Permission(p))
		}
		table[r.Name] = list
	}
	s.setPermissions(table)
	logger.Info().Int("roles", len(table)).Msg("Role permissions loaded")
	return nil
}

// Can reports whether actor's role grants perm. "*" grants everything.
func (s *AuthorizationService) Can(actor Actor, perm Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.perms[actor.Role]
	if !ok {
		return false
	}
	if _, all := set[PermAll]; all {
		return true
	}
	_, granted := set[perm]
	return granted
}

// Authorize is Can as an error.
func (s *AuthorizationService) Authorize(actor Actor, perm Permission) error {
	if s.Can(actor, perm) {
		return nil
	}
	return apperrors.NewForbiddenError("you don't have permission for this action").
		WithDetails(map[string]interface{}{"permission": string(perm)})
}

// RequireOwner allows only the owning user, whatever their role.
func RequireOwner(actor Actor, ownerID int64) error {
	if actor.UserID == ownerID {
		return nil
	}
	return apperrors.NewForbiddenError("only the owner can perform this action")
}

// AuthorizeRead lets the owner or a holder of perm read a resource. Anyone
// else gets notFound so the resource's existence is not disclosed.
func (s *AuthorizationService) AuthorizeRead(actor Actor, ownerID int64, perm Permission, notFound error) error {
	if actor.UserID == ownerID || s.Can(actor, perm) {
		return nil
	}
	return notFound
}

// Permissions lists what role grants, sorted.
func (s *AuthorizationService) Permissions(role models.RoleName) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.perms[role]))
	for p := range s.perms[role] {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}
