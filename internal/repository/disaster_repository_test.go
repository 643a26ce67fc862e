package repository

import (
	"context"
	"testing"
	"time"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisasterRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewDisasterRepository(db)
	ctx := context.Background()

	t.Run("create disaster successfully", func(t *testing.T) {
		lat, lng := 14.5995, 120.9842
		report := &model.DisasterReport{
			DisasterType: "flood",
			Severity:     "high",
			Needs:        &model.DisasterNeeds{Rescue: true, Water: true},
			Description:  "Flooding near the river\n\n[via SMS] flood in barangay san roque",
			Location:     model.Location{Lat: &lat, Lng: &lng, Address: "San Roque, Manila"},
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
		assert.Equal(t, report.DisasterType, created.DisasterType)
		assert.Equal(t, report.Severity, created.Severity)
		assert.Equal(t, report.Location.Address, created.Location.Address)
		assert.NotZero(t, created.CreatedAt)
	})

	t.Run("needs round trip", func(t *testing.T) {
		report := &model.DisasterReport{
			DisasterType: "earthquake",
			Severity:     "severe",
			Needs:        &model.DisasterNeeds{Medical: true, Shelter: true},
			Description:  "[via SMS] buildings collapsed",
			Location:     model.Location{Address: model.UnknownAddress},
			Status:       "Active",
		}

		created, err := repo.Create(ctx, report)
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Needs)
		assert.True(t, got.Needs.Medical)
		assert.True(t, got.Needs.Shelter)
		assert.False(t, got.Needs.Rescue)
	})

	t.Run("nil needs stays nil", func(t *testing.T) {
		report := &model.DisasterReport{
			DisasterType: "fire",
			Severity:     "moderate",
			Description:  "[via SMS] fire on main street",
			Location:     model.Location{Address: model.UnknownAddress},
			Status:       "Active",
		}

		created, err := repo.Create(ctx, report)
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Needs)
	})
}

func TestDisasterRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewDisasterRepository(db)
	ctx := context.Background()

	sender := "+639170000001"
	for i := 0; i < 5; i++ {
		report := &model.DisasterReport{
			DisasterType: "flood",
			Severity:     "moderate",
			Description:  "[via SMS] water rising",
			Location:     model.Location{Address: model.UnknownAddress},
			Status:       "Active",
			Provenance: model.Provenance{
				ReporterName:   "SMS Reporter",
				ContactNumber:  sender,
				ReportedViaSMS: true,
				SmsSenderPhone: sender,
			},
		}
		_, err := repo.Create(ctx, report)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	t.Run("list all", func(t *testing.T) {
		reports, total, err := repo.List(ctx, model.ReportFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, reports, 5)
	})

	t.Run("list with pagination", func(t *testing.T) {
		reports, total, err := repo.List(ctx, model.ReportFilter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, reports, 2)
	})

	t.Run("order desc returns newest first", func(t *testing.T) {
		reports, _, err := repo.List(ctx, model.ReportFilter{Limit: 10, Desc: true})
		require.NoError(t, err)
		require.Len(t, reports, 5)
		for i := 1; i < len(reports); i++ {
			assert.True(t, !reports[i].CreatedAt.After(reports[i-1].CreatedAt))
		}
	})

	t.Run("filter by sender", func(t *testing.T) {
		other := "+639179999999"
		reports, total, err := repo.List(ctx, model.ReportFilter{Sender: &other, Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, reports)
	})
}

func TestDisasterRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewDisasterRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.DisasterReport{
		DisasterType: "landslide",
		Severity:     "high",
		Description:  "[via SMS] road blocked",
		Location:     model.Location{Address: model.UnknownAddress},
		Status:       model.CategoryDisaster.StatusLabel(model.StateOpen),
	})
	require.NoError(t, err)

	t.Run("resolve report", func(t *testing.T) {
		resolved := model.CategoryDisaster.StatusLabel(model.StateClosed)
		err := repo.UpdateStatus(ctx, created.ID, resolved)
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Resolved", got.Status)
	})

	t.Run("missing report", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, 999999, "Resolved")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
