package repository

import (
	"context"
	"errors"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a report does not exist.
	ErrNotFound = errors.New("report not found")
)

type DisasterRepository struct {
	*pg.DB
}

func NewDisasterRepository(db *pg.DB) *DisasterRepository {
	return &DisasterRepository{
		db,
	}
}

func (r *DisasterRepository) Create(ctx context.Context, report *model.DisasterReport) (*model.DisasterReport, error) {
	entity := toDisasterEntity(report)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toDisasterModel(entity), nil
}

func (r *DisasterRepository) Get(ctx context.Context, id int64) (*model.DisasterReport, error) {
	var entity DisasterEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDisasterModel(&entity), nil
}

func (r *DisasterRepository) List(ctx context.Context, f model.ReportFilter) ([]*model.DisasterReport, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&DisasterEntity{})
	q = applyReportFilter(q, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entities []*DisasterEntity
	if err := paginate(q, f).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toDisasterModels(entities), total, nil
}

// UpdateStatus moves a report between lifecycle labels, e.g. Active to
// Resolved once responders close it out.
func (r *DisasterRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res := r.Write(ctx).WithContext(ctx).
		Model(&DisasterEntity{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func applyReportFilter(q *gorm.DB, f model.ReportFilter) *gorm.DB {
	if f.Status != nil && *f.Status != "" {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Sender != nil && *f.Sender != "" {
		q = q.Where("sms_sender_phone = ?", *f.Sender)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	return q
}

func paginate(q *gorm.DB, f model.ReportFilter) *gorm.DB {
	order := "created_at"
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

	return q.Order(order).Limit(limit).Offset(offset)
}
