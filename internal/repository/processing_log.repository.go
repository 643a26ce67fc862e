package repository

import (
	"context"
	"time"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/pkg/pg"
)

// ProcessingLogFilter controls audit log queries.
type ProcessingLogFilter struct {
	SenderPhone *string
	Success     *bool
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
	Desc        bool
}

type ProcessingLogRepository struct {
	*pg.DB
}

func NewProcessingLogRepository(db *pg.DB) *ProcessingLogRepository {
	return &ProcessingLogRepository{
		db,
	}
}

func (r *ProcessingLogRepository) Create(ctx context.Context, entry *model.ProcessingLogEntry) (*model.ProcessingLogEntry, error) {
	entity := toProcessingLogEntity(entry)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toProcessingLogModel(entity), nil
}

func (r *ProcessingLogRepository) List(ctx context.Context, f ProcessingLogFilter) ([]*model.ProcessingLogEntry, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ProcessingLogEntity{})

	if f.SenderPhone != nil && *f.SenderPhone != "" {
		q = q.Where("sender_phone = ?", *f.SenderPhone)
	}
	if f.Success != nil {
		q = q.Where("processing_success = ?", *f.Success)
	}
	if f.From != nil {
		q = q.Where("processed_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("processed_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "processed_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*ProcessingLogEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toProcessingLogModels(entities), total, nil
}
