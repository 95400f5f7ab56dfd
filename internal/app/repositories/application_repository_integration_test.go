//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

// seedStudent inserts a student user and removes it, with its applications,
// when the test ends.
func seedStudent(t *testing.T, database *db.PostgresDB) int64 {
	t.Helper()
	ctx := context.Background()

	role, err := NewRoleRepository(database).GetByName(ctx, models.RoleStudent)
	require.NoError(t, err)
	id, err := NewUserRepository(database).CreateUser(ctx, &models.User{
		Email:     "it-" + uuid.NewString() + "@uni.edu",
		Password:  "x",
		FirstName: "Integration",
		LastName:  "Student",
		RoleID:    role.ID,
		IsActive:  true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = database.Pool.Exec(ctx, "DELETE FROM applications WHERE student_id = $1", id)
		_, _ = database.Pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	})
	return id
}

func seedScholarship(t *testing.T, database *db.PostgresDB) int64 {
	t.Helper()
	repo := NewScholarshipRepository(database)
	id, err := repo.Create(context.Background(), &models.Scholarship{
		Name:                "Integration Need Award " + uuid.NewString()[:8],
		Description:         "created by the integration suite",
		Amount:              500,
		TotalFunding:        1000,
		MaxRecipients:       2,
		ApplicationDeadline: time.Now().Add(24 * time.Hour).UTC(),
		AcademicYear:        "2026-2027",
		Department:          domain.DepartmentAll,
		YearOfStudy:         []domain.YearOfStudy{domain.Year3},
		Status:              domain.ScholarshipActive,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Delete(context.Background(), id) })
	return id
}

func TestApplicationRepository_Integration(t *testing.T) {
	database := openTestDB(t)
	repo := NewApplicationRepository(database)
	ctx := context.Background()

	scholarshipID := seedScholarship(t, database)
	studentID := seedStudent(t, database)

	draft := &models.Application{StudentID: studentID, ScholarshipID: scholarshipID, Status: domain.StatusDraft}
	id, err := repo.Create(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, 1, draft.Version)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, stored.Status)
	assert.Empty(t, stored.CriteriaScores)
	assert.Empty(t, stored.Essays)
	assert.Equal(t, []models.Document{}, stored.Documents)

	t.Run("second active application is a duplicate", func(t *testing.T) {
		exists, err := repo.ExistsActive(ctx, studentID, scholarshipID)
		require.NoError(t, err)
		assert.True(t, exists)

		_, err = repo.Create(ctx, &models.Application{StudentID: studentID, ScholarshipID: scholarshipID, Status: domain.StatusDraft})
		assert.ErrorIs(t, err, apperrors.ErrDuplicateApplication)
	})

	t.Run("documents keep their order", func(t *testing.T) {
		app, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		app.Essays = models.JSONMap{"motivation": "why me"}
		for _, docID := range []string{"c", "a", "b"} {
			app.Documents = append(app.Documents, models.Document{ID: docID, Type: domain.DocTranscript, FileName: docID + ".pdf"})
		}
		require.NoError(t, repo.Update(ctx, app))

		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		require.Len(t, got.Documents, 3)
		assert.Equal(t, "c", got.Documents[0].ID)
		assert.Equal(t, "a", got.Documents[1].ID)
		assert.Equal(t, "b", got.Documents[2].ID)
		assert.Equal(t, "why me", got.Essays["motivation"])
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		first, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		second, err := repo.GetByID(ctx, id)
		require.NoError(t, err)

		first.Status = domain.StatusSubmitted
		require.NoError(t, repo.Update(ctx, first))
		assert.Equal(t, second.Version+1, first.Version)

		second.Status = domain.StatusWithdrawn
		assert.ErrorIs(t, repo.Update(ctx, second), apperrors.ErrStaleVersion)
	})

	t.Run("decision without criteria scores", func(t *testing.T) {
		err := database.WithTransaction(ctx, func(ctx context.Context) error {
			app, err := repo.LockByID(ctx, id)
			if err != nil {
				return err
			}
			score := 7.5
			app.Status = domain.StatusUnderReview
			app.Score = &score
			app.CriteriaScores = nil
			return repo.Update(ctx, app)
		})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusUnderReview, got.Status)
		assert.Empty(t, got.CriteriaScores)
	})

	t.Run("decision with criteria scores", func(t *testing.T) {
		app, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		app.Status = domain.StatusApproved
		app.CriteriaScores = map[string]float64{"academic": 9, "need": 6.5}
		require.NoError(t, repo.Update(ctx, app))

		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"academic": 9, "need": 6.5}, got.CriteriaScores)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.Update(ctx, &models.Application{ID: -1, Status: domain.StatusDraft, Version: 1}), apperrors.ErrApplicationNotFound)
	})
}
