package repository

import (
	"encoding/json"
	"time"

	"github.com/relieflink/report-gateway/internal/model"
)

type DisasterEntity struct {
	ID             int64     `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	DisasterType   string    `db:"disaster_type"    gorm:"column:disaster_type;not null"`
	Severity       string    `db:"severity"         gorm:"column:severity;not null"`
	PeopleAffected *string   `db:"people_affected"  gorm:"column:people_affected"`
	Casualties     *string   `db:"casualties"       gorm:"column:casualties"`
	Needs          string    `db:"needs"            gorm:"column:needs"`
	Description    string    `db:"description"      gorm:"column:description;not null"`
	Lat            *float64  `db:"lat"              gorm:"column:lat"`
	Lng            *float64  `db:"lng"              gorm:"column:lng"`
	Address        string    `db:"address"          gorm:"column:address;not null"`
	OccurredDate   *string   `db:"occurred_date"    gorm:"column:occurred_date"`
	AreaSize       *string   `db:"area_size"        gorm:"column:area_size"`
	Status         string    `db:"status"           gorm:"column:status;not null;index"`
	ReporterName   string    `db:"reporter_name"    gorm:"column:reporter_name;not null"`
	ContactNumber  string    `db:"contact_number"   gorm:"column:contact_number;not null"`
	ReportedViaSMS bool      `db:"reported_via_sms" gorm:"column:reported_via_sms;not null"`
	SmsSenderPhone string    `db:"sms_sender_phone" gorm:"column:sms_sender_phone"`
	CreatedAt      time.Time `db:"created_at"       gorm:"column:created_at;autoCreateTime;index"`
}

func (DisasterEntity) TableName() string {
	return "disasters"
}

func toDisasterEntity(m *model.DisasterReport) *DisasterEntity {
	if m == nil {
		return nil
	}
	return &DisasterEntity{
		ID:             m.ID,
		DisasterType:   m.DisasterType,
		Severity:       m.Severity,
		PeopleAffected: m.PeopleAffected,
		Casualties:     m.Casualties,
		Needs:          marshalNeeds(m.Needs),
		Description:    m.Description,
		Lat:            m.Location.Lat,
		Lng:            m.Location.Lng,
		Address:        m.Location.Address,
		OccurredDate:   m.OccurredDate,
		AreaSize:       m.AreaSize,
		Status:         m.Status,
		ReporterName:   m.ReporterName,
		ContactNumber:  m.ContactNumber,
		ReportedViaSMS: m.ReportedViaSMS,
		SmsSenderPhone: m.SmsSenderPhone,
		CreatedAt:      m.CreatedAt,
	}
}

func toDisasterModel(e *DisasterEntity) *model.DisasterReport {
	if e == nil {
		return nil
	}
	return &model.DisasterReport{
		ID:             e.ID,
		DisasterType:   e.DisasterType,
		Severity:       e.Severity,
		PeopleAffected: e.PeopleAffected,
		Casualties:     e.Casualties,
		Needs:          unmarshalNeeds(e.Needs),
		Description:    e.Description,
		Location:       model.Location{Lat: e.Lat, Lng: e.Lng, Address: e.Address},
		OccurredDate:   e.OccurredDate,
		AreaSize:       e.AreaSize,
		Status:         e.Status,
		Provenance: model.Provenance{
			ReporterName:   e.ReporterName,
			ContactNumber:  e.ContactNumber,
			ReportedViaSMS: e.ReportedViaSMS,
			SmsSenderPhone: e.SmsSenderPhone,
		},
		CreatedAt: e.CreatedAt,
	}
}

func toDisasterModels(entities []*DisasterEntity) []*model.DisasterReport {
	if entities == nil {
		return nil
	}
	models := make([]*model.DisasterReport, len(entities))
	for i, e := range entities {
		models[i] = toDisasterModel(e)
	}
	return models
}

func marshalNeeds(n *model.DisasterNeeds) string {
	if n == nil {
		return ""
	}
	b, err := json.Marshal(n)
	if err != nil {
		return ""
	}
	return string(b)
}

func unmarshalNeeds(s string) *model.DisasterNeeds {
	if s == "" {
		return nil
	}
	var n model.DisasterNeeds
	if err := json.Unmarshal([]byte(s), &n); err != nil {
		return nil
	}
	return &n
}
