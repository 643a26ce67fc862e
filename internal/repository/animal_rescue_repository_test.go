package repository

import (
	"context"
	"testing"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnimalRescueRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewAnimalRescueRepository(db)
	ctx := context.Background()

	t.Run("create animal rescue successfully", func(t *testing.T) {
		breed := "aspin"
		report := &model.AnimalRescueReport{
			AnimalType:  "dog",
			Breed:       &breed,
			Condition:   "injured",
			IsDangerous: false,
			Notes:       "Limping near the bridge\n\n[via SMS] injured dog near bridge pls help",
			Location:    model.Location{Address: "Quezon City"},
			Status:      "Pending",
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
		assert.Equal(t, "dog", created.AnimalType)
		require.NotNil(t, created.Breed)
		assert.Equal(t, "aspin", *created.Breed)
		assert.Equal(t, "Pending", created.Status)
	})

	t.Run("nil breed stays nil", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.AnimalRescueReport{
			AnimalType: "cat",
			Condition:  "trapped",
			Notes:      "[via SMS] cat stuck on roof",
			Location:   model.Location{Address: model.UnknownAddress},
			Status:     "Pending",
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Breed)
	})
}

func TestAnimalRescueRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewAnimalRescueRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.AnimalRescueReport{
		AnimalType: "dog",
		Condition:  "trapped",
		Notes:      "[via SMS] dog trapped in debris",
		Location:   model.Location{Address: model.UnknownAddress},
		Status:     model.CategoryAnimalRescue.StatusLabel(model.StateOpen),
	})
	require.NoError(t, err)

	rescued := model.CategoryAnimalRescue.StatusLabel(model.StateClosed)
	require.NoError(t, repo.UpdateStatus(ctx, created.ID, rescued))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rescued", got.Status)
}
