package repository

import (
	"context"
	"testing"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingPersonRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMissingPersonRepository(db)
	ctx := context.Background()

	t.Run("create missing person successfully", func(t *testing.T) {
		report := &model.MissingPersonReport{
			Name:         "Maria Santos",
			Age:          12,
			Gender:       "female",
			Description:  "Last seen in a red jacket\n\n[via SMS] my daughter maria is missing",
			Location:     model.Location{Address: "Tacloban City"},
			LastSeenDate: "2026-08-30",
			Status:       "Active",
			Provenance: model.Provenance{
				ReporterName:   "SMS Reporter",
				ContactNumber:  "+639171234567",
				ReportedViaSMS: true,
				SmsSenderPhone: "+639171234567",
			},
		}

		created, err := repo.Create(ctx, report)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "Maria Santos", created.Name)
		assert.Equal(t, 12, created.Age)
		assert.Equal(t, "Active", created.Status)
	})

	t.Run("round trip preserves provenance", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.MissingPersonReport{
			Name:         "Unknown",
			Age:          30,
			Gender:       "other",
			Description:  "[via SMS] elderly man lost near market",
			Location:     model.Location{Address: model.UnknownAddress},
			LastSeenDate: "2026-08-31",
			Status:       "Active",
			Provenance: model.Provenance{
				ReporterName:   "SMS Reporter",
				ContactNumber:  "+639175555555",
				ReportedViaSMS: true,
				SmsSenderPhone: "+639175555555",
			},
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, got.ReportedViaSMS)
		assert.Equal(t, "+639175555555", got.ContactNumber)
		assert.Equal(t, "+639175555555", got.SmsSenderPhone)
	})
}

func TestMissingPersonRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMissingPersonRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.MissingPersonReport{
		Name:         "Jose Cruz",
		Age:          45,
		Gender:       "male",
		Description:  "[via SMS] jose missing since the typhoon",
		Location:     model.Location{Address: model.UnknownAddress},
		LastSeenDate: "2026-08-29",
		Status:       model.CategoryMissingPerson.StatusLabel(model.StateOpen),
	})
	require.NoError(t, err)

	closed := model.CategoryMissingPerson.StatusLabel(model.StateClosed)
	require.NoError(t, repo.UpdateStatus(ctx, created.ID, closed))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Closed", got.Status)
}
