package repository

import (
	"context"
	"testing"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessingLogRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewProcessingLogRepository(db)
	ctx := context.Background()

	t.Run("successful attempt", func(t *testing.T) {
		category := model.CategoryDisaster
		confidence := 0.92
		recordID := int64(17)
		entry := &model.ProcessingLogEntry{
			SenderPhone:      "+639171234567",
			RawMessage:       "flood in barangay san roque",
			DetectedCategory: &category,
			Confidence:       &confidence,
			Success:          true,
			CreatedRecordID:  &recordID,
			SmsID:            "sms-001",
			DeviceID:         "device-01",
		}

		created, err := repo.Create(ctx, entry)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		require.NotNil(t, created.DetectedCategory)
		assert.Equal(t, model.CategoryDisaster, *created.DetectedCategory)
		assert.NotZero(t, created.ProcessedAt)
	})

	t.Run("failed attempt keeps category nil", func(t *testing.T) {
		errMsg := "classification failed"
		entry := &model.ProcessingLogEntry{
			SenderPhone:  "+639171234567",
			RawMessage:   "asdf qwerty",
			Success:      false,
			ErrorMessage: &errMsg,
			SmsID:        "sms-002",
		}

		created, err := repo.Create(ctx, entry)
		require.NoError(t, err)

		got, _, err := repo.List(ctx, ProcessingLogFilter{Limit: 10, Desc: true})
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Nil(t, got[0].DetectedCategory)
		assert.Nil(t, got[0].CreatedRecordID)
		require.NotNil(t, got[0].ErrorMessage)
		assert.Equal(t, "classification failed", *got[0].ErrorMessage)
		assert.Equal(t, created.ID, got[0].ID)
	})
}

func TestProcessingLogRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewProcessingLogRepository(db)
	ctx := context.Background()

	sender := "+639170000002"
	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &model.ProcessingLogEntry{
			SenderPhone: sender,
			RawMessage:  "help",
			Success:     i%2 == 0,
		})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, &model.ProcessingLogEntry{
		SenderPhone: "+639179999999",
		RawMessage:  "other sender",
		Success:     true,
	})
	require.NoError(t, err)

	t.Run("filter by sender", func(t *testing.T) {
		entries, total, err := repo.List(ctx, ProcessingLogFilter{SenderPhone: &sender, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, entries, 3)
	})

	t.Run("filter by success", func(t *testing.T) {
		failed := false
		entries, total, err := repo.List(ctx, ProcessingLogFilter{SenderPhone: &sender, Success: &failed, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, entries, 1)
		assert.False(t, entries[0].Success)
	})
}
