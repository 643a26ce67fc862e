package repository

import (
	"context"
	"errors"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/pkg/pg"
	"gorm.io/gorm"
)

type MissingPersonRepository struct {
	*pg.DB
}

func NewMissingPersonRepository(db *pg.DB) *MissingPersonRepository {
	return &MissingPersonRepository{
		db,
	}
}

func (r *MissingPersonRepository) Create(ctx context.Context, report *model.MissingPersonReport) (*model.MissingPersonReport, error) {
	entity := toMissingPersonEntity(report)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toMissingPersonModel(entity), nil
}

func (r *MissingPersonRepository) Get(ctx context.Context, id int64) (*model.MissingPersonReport, error) {
	var entity MissingPersonEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toMissingPersonModel(&entity), nil
}

func (r *MissingPersonRepository) List(ctx context.Context, f model.ReportFilter) ([]*model.MissingPersonReport, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&MissingPersonEntity{})
	q = applyReportFilter(q, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entities []*MissingPersonEntity
	if err := paginate(q, f).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toMissingPersonModels(entities), total, nil
}

func (r *MissingPersonRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res := r.Write(ctx).WithContext(ctx).
		Model(&MissingPersonEntity{}).
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
