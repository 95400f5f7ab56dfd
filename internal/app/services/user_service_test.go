package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

func TestUserService_CreateStaffAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.Create(ctx, admin, &dto.CreateUserRequest{
		Email:     "New.Reviewer@uni.edu",
		Password:  "reviewer123",
		FirstName: "New",
		LastName:  "Reviewer",
		Role:      string(models.RoleCommittee),
	})
	require.NoError(t, err)
	assert.Equal(t, "new.reviewer@uni.edu", u.Email)
	assert.Equal(t, models.RoleCommittee, u.Role)
	assert.True(t, u.EmailVerified)
	assert.Nil(t, u.Student)

	_, err = e.users.Create(ctx, admin, &dto.CreateUserRequest{
		Email: "s@uni.edu", Password: "student123", FirstName: "S", LastName: "T", Role: string(models.RoleStudent),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = e.users.Create(ctx, coordinator, &dto.CreateUserRequest{
		Email: "x@uni.edu", Password: "secret123", FirstName: "X", LastName: "Y", Role: string(models.RoleAdmin),
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestUserService_CreateStudentAccount(t *testing.T) {
	e := newEnv(t)

	u, err := e.users.Create(context.Background(), admin, &dto.CreateUserRequest{
		Email:     "transfer@uni.edu",
		Password:  "student123",
		FirstName: "Transfer",
		LastName:  "Student",
		Role:      string(models.RoleStudent),
		Student: &dto.StudentProfileRequest{
			StudentID:   "20249999",
			Department:  "Physics",
			YearOfStudy: string(domain.YearGraduate),
			GPA:         3.1,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, u.Student)
	assert.Equal(t, "Physics", u.Student.Department)
}

func TestUserService_SelfModificationBlocked(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.users.SetActive(ctx, admin, adminUser, false)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "SELF_MODIFICATION", errCode(err))

	_, err = e.users.UpdateRole(ctx, admin, adminUser, models.RoleStudent)
	assert.Equal(t, "SELF_MODIFICATION", errCode(err))
}

func TestUserService_DeactivateRevokesSessions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tokens := fakeRefreshTokens{e.store}
	require.NoError(t, tokens.CreateToken(ctx, "refresh-1", committeeUser, testNow.Add(time.Hour)))

	u, err := e.users.SetActive(ctx, admin, committeeUser, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, _, revoked, err := tokens.GetTokenByValue(ctx, "refresh-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestUserService_UpdateRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.users.UpdateRole(ctx, admin, committeeUser, models.RoleStudent)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	u, err := e.users.UpdateRole(ctx, admin, committeeUser, models.RoleCoordinator)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCoordinator, u.Role)

	role := models.RoleCoordinator
	items, total, err := e.users.List(ctx, admin, models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	roles, err := e.users.ListRoles(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, roles, 5)
}
