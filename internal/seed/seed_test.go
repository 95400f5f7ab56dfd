package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appModels "github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/auth"
)

type memUsers struct {
	emails  map[string]bool
	created []*appModels.User
}

func (m *memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	return m.emails[email], nil
}

func (m *memUsers) CreateUser(_ context.Context, u *appModels.User) (int64, error) {
	m.created = append(m.created, u)
	return int64(len(m.created)), nil
}

type memRoles map[appModels.RoleName]int64

func (m memRoles) GetByName(_ context.Context, name appModels.RoleName) (*appModels.Role, error) {
	id, ok := m[name]
	if !ok {
		return nil, apperrors.ErrRoleNotFound
	}
	return &appModels.Role{ID: id, Name: name}, nil
}

func TestCreateDefaultData_CreatesAdminOnce(t *testing.T) {
	users := &memUsers{emails: map[string]bool{}}
	roles := memRoles{appModels.RoleAdmin: 5}
	admin := AdminAccount{Email: " Admin@Example.edu ", Password: "S3cure!pass"}

	require.NoError(t, CreateDefaultData(context.Background(), users, roles, admin, zerolog.Nop()))
	require.Len(t, users.created, 1)

	u := users.created[0]
	assert.Equal(t, "admin@example.edu", u.Email)
	assert.Equal(t, int64(5), u.RoleID)
	assert.True(t, u.IsActive)
	assert.True(t, u.EmailVerified)
	assert.True(t, auth.CheckPassword(u.Password, "S3cure!pass"))

	users.emails["admin@example.edu"] = true
	require.NoError(t, CreateDefaultData(context.Background(), users, roles, admin, zerolog.Nop()))
	assert.Len(t, users.created, 1)
}

func TestCreateDefaultData_SkipsWithoutConfig(t *testing.T) {
	users := &memUsers{emails: map[string]bool{}}
	require.NoError(t, CreateDefaultData(context.Background(), users, memRoles{}, AdminAccount{}, zerolog.Nop()))
	assert.Empty(t, users.created)
}

func TestCreateDefaultData_MissingRole(t *testing.T) {
	users := &memUsers{emails: map[string]bool{}}
	err := CreateDefaultData(context.Background(), users, memRoles{},
		AdminAccount{Email: "admin@example.edu", Password: "x"}, zerolog.Nop())
	assert.True(t, errors.Is(err, apperrors.ErrRoleNotFound))
}
