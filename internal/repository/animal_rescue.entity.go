package repository

import (
	"time"

	"github.com/relieflink/report-gateway/internal/model"
)

type AnimalRescueEntity struct {
	ID             int64     `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	AnimalType     string    `db:"animal_type"      gorm:"column:animal_type;not null"`
	Breed          *string   `db:"breed"            gorm:"column:breed"`
	Condition      string    `db:"condition"        gorm:"column:condition;not null"`
	IsDangerous    bool      `db:"is_dangerous"     gorm:"column:is_dangerous;not null"`
	Notes          string    `db:"notes"            gorm:"column:notes;not null"`
	Lat            *float64  `db:"lat"              gorm:"column:lat"`
	Lng            *float64  `db:"lng"              gorm:"column:lng"`
	Address        string    `db:"address"          gorm:"column:address;not null"`
	Status         string    `db:"status"           gorm:"column:status;not null;index"`
	ReporterName   string    `db:"reporter_name"    gorm:"column:reporter_name;not null"`
	ContactNumber  string    `db:"contact_number"   gorm:"column:contact_number;not null"`
	ReportedViaSMS bool      `db:"reported_via_sms" gorm:"column:reported_via_sms;not null"`
	SmsSenderPhone string    `db:"sms_sender_phone" gorm:"column:sms_sender_phone"`
	CreatedAt      time.Time `db:"created_at"       gorm:"column:created_at;autoCreateTime;index"`
}

func (AnimalRescueEntity) TableName() string {
	return "animal_rescues"
}

func toAnimalRescueEntity(m *model.AnimalRescueReport) *AnimalRescueEntity {
	if m == nil {
		return nil
	}
	return &AnimalRescueEntity{
		ID:             m.ID,
		AnimalType:     m.AnimalType,
		Breed:          m.Breed,
		Condition:      m.Condition,
		IsDangerous:    m.IsDangerous,
		Notes:          m.Notes,
		Lat:            m.Location.Lat,
		Lng:            m.Location.Lng,
		Address:        m.Location.Address,
		Status:         m.Status,
		ReporterName:   m.ReporterName,
		ContactNumber:  m.ContactNumber,
		ReportedViaSMS: m.ReportedViaSMS,
		SmsSenderPhone: m.SmsSenderPhone,
		CreatedAt:      m.CreatedAt,
	}
}

func toAnimalRescueModel(e *AnimalRescueEntity) *model.AnimalRescueReport {
	if e == nil {
		return nil
	}
	return &model.AnimalRescueReport{
		ID:          e.ID,
		AnimalType:  e.AnimalType,
		Breed:       e.Breed,
		Condition:   e.Condition,
		IsDangerous: e.IsDangerous,
		Notes:       e.Notes,
		Location:    model.Location{Lat: e.Lat, Lng: e.Lng, Address: e.Address},
		Status:      e.Status,
		Provenance: model.Provenance{
			ReporterName:   e.ReporterName,
			ContactNumber:  e.ContactNumber,
			ReportedViaSMS: e.ReportedViaSMS,
			SmsSenderPhone: e.SmsSenderPhone,
		},
		CreatedAt: e.CreatedAt,
	}
}

func toAnimalRescueModels(entities []*AnimalRescueEntity) []*model.AnimalRescueReport {
	if entities == nil {
		return nil
	}
	models := make([]*model.AnimalRescueReport, len(entities))
	for i, e := range entities {
		models[i] = toAnimalRescueModel(e)
	}
	return models
}
