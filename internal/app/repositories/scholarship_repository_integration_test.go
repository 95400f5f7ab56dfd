//go:build integration

package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/scholarhub/internal/app/migrations"
	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/config"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

// openTestDB connects with the regular config (CONFIG_PATH, .env and DB_*
// variables) and applies the schema. Run with: go test -tags integration ./...
func openTestDB(t *testing.T) *db.PostgresDB {
	t.Helper()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "../../../configs/config.yaml"
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Skipf("no usable config: %v", err)
	}
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(database.Close)

	sqlDB := database.SQLDB()
	sqlDB.SetMaxIdleConns(0)
	migrator := migrations.NewMigrator(sqlDB, zerolog.Nop())
	require.NoError(t, migrator.MigrateFromDirectory(context.Background(), "../../../migrations"))
	return database
}

func TestScholarshipRepository_Integration(t *testing.T) {
	database := openTestDB(t)
	repo := NewScholarshipRepository(database)
	ctx := context.Background()

	deadline := time.Now().Add(-time.Minute).UTC()
	s := &models.Scholarship{
		Name:                "Integration Merit Award",
		Description:         "created by the integration suite",
		Amount:              1000,
		TotalFunding:        2000,
		MaxRecipients:       2,
		ApplicationDeadline: deadline,
		AcademicYear:        "2026-2027",
		Department:          domain.DepartmentAll,
		YearOfStudy:         []domain.YearOfStudy{domain.Year3},
		Status:              domain.ScholarshipActive,
	}
	id, err := repo.Create(ctx, s)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Delete(context.Background(), id) })

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, s.Name, got.Name)
	assert.Equal(t, []domain.YearOfStudy{domain.Year3}, got.YearOfStudy)

	t.Run("recipient cap is enforced in SQL", func(t *testing.T) {
		require.NoError(t, repo.IncrementRecipients(ctx, id))
		require.NoError(t, repo.IncrementRecipients(ctx, id))
		assert.ErrorIs(t, repo.IncrementRecipients(ctx, id), apperrors.ErrRecipientCapReached)
	})

	t.Run("expired scholarships close", func(t *testing.T) {
		closed, err := repo.CloseExpired(ctx, time.Now())
		require.NoError(t, err)

		var found bool
		for _, c := range closed {
			if c.ID == id {
				found = true
				assert.Equal(t, domain.ScholarshipClosed, c.Status)
			}
		}
		assert.True(t, found)
	})
}
