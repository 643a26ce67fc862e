package repository

import (
	"time"

	"github.com/relieflink/report-gateway/internal/model"
)

type MissingPersonEntity struct {
	ID             int64     `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	Name           string    `db:"name"             gorm:"column:name;not null"`
	Age            int       `db:"age"              gorm:"column:age;not null"`
	Gender         string    `db:"gender"           gorm:"column:gender;not null"`
	Description    string    `db:"description"      gorm:"column:description;not null"`
	Lat            *float64  `db:"lat"              gorm:"column:lat"`
	Lng            *float64  `db:"lng"              gorm:"column:lng"`
	Address        string    `db:"address"          gorm:"column:address;not null"`
	LastSeenDate   string    `db:"last_seen_date"   gorm:"column:last_seen_date;not null"`
	Status         string    `db:"status"           gorm:"column:status;not null;index"`
	ReporterName   string    `db:"reporter_name"    gorm:"column:reporter_name;not null"`
	ContactNumber  string    `db:"contact_number"   gorm:"column:contact_number;not null"`
	ReportedViaSMS bool      `db:"reported_via_sms" gorm:"column:reported_via_sms;not null"`
	SmsSenderPhone string    `db:"sms_sender_phone" gorm:"column:sms_sender_phone"`
	CreatedAt      time.Time `db:"created_at"       gorm:"column:created_at;autoCreateTime;index"`
}

func (MissingPersonEntity) TableName() string {
	return "missing_persons"
}

func toMissingPersonEntity(m *model.MissingPersonReport) *MissingPersonEntity {
	if m == nil {
		return nil
	}
	return &MissingPersonEntity{
		ID:             m.ID,
		Name:           m.Name,
		Age:            m.Age,
		Gender:         m.Gender,
		Description:    m.Description,
		Lat:            m.Location.Lat,
		Lng:            m.Location.Lng,
		Address:        m.Location.Address,
		LastSeenDate:   m.LastSeenDate,
		Status:         m.Status,
		ReporterName:   m.ReporterName,
		ContactNumber:  m.ContactNumber,
		ReportedViaSMS: m.ReportedViaSMS,
		SmsSenderPhone: m.SmsSenderPhone,
		CreatedAt:      m.CreatedAt,
	}
}

func toMissingPersonModel(e *MissingPersonEntity) *model.MissingPersonReport {
	if e == nil {
		return nil
	}
	return &model.MissingPersonReport{
		ID:           e.ID,
		Name:         e.Name,
		Age:          e.Age,
		Gender:       e.Gender,
		Description:  e.Description,
		Location:     model.Location{Lat: e.Lat, Lng: e.Lng, Address: e.Address},
		LastSeenDate: e.LastSeenDate,
		Status:       e.Status,
		Provenance: model.Provenance{
			ReporterName:   e.ReporterName,
			ContactNumber:  e.ContactNumber,
			ReportedViaSMS: e.ReportedViaSMS,
			SmsSenderPhone: e.SmsSenderPhone,
		},
		CreatedAt: e.CreatedAt,
	}
}

func toMissingPersonModels(entities []*MissingPersonEntity) []*model.MissingPersonReport {
	if entities == nil {
		return nil
	}
	models := make([]*model.MissingPersonReport, len(entities))
	for i, e := range entities {
		models[i] = toMissingPersonModel(e)
	}
	return models
}
