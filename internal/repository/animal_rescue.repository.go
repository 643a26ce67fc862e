package repository

import (
	"context"
	"errors"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/pkg/pg"
	"gorm.io/gorm"
)

type AnimalRescueRepository struct {
	*pg.DB
}

func NewAnimalRescueRepository(db *pg.DB) *AnimalRescueRepository {
	return &AnimalRescueRepository{
		db,
	}
}

func (r *AnimalRescueRepository) Create(ctx context.Context, report *model.AnimalRescueReport) (*model.AnimalRescueReport, error) {
	entity := toAnimalRescueEntity(report)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toAnimalRescueModel(entity), nil
}

func (r *AnimalRescueRepository) Get(ctx context.Context, id int64) (*model.AnimalRescueReport, error) {
	var entity AnimalRescueEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toAnimalRescueModel(&entity), nil
}

func (r *AnimalRescueRepository) List(ctx context.Context, f model.ReportFilter) ([]*model.AnimalRescueReport, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&AnimalRescueEntity{})
	q = applyReportFilter(q, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entities []*AnimalRescueEntity
	if err := paginate(q, f).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toAnimalRescueModels(entities), total, nil
}

func (r *AnimalRescueRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res := r.Write(ctx).WithContext(ctx).
		Model(&AnimalRescueEntity{}).
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
