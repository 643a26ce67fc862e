package repository

import (
	"time"

	"github.com/relieflink/report-gateway/internal/model"
)

type ProcessingLogEntity struct {
	ID               int64     `db:"id"                 gorm:"primaryKey;autoIncrement;column:id"`
	SenderPhone      string    `db:"sender_phone"       gorm:"column:sender_phone;not null;index"`
	RawMessage       string    `db:"raw_message"        gorm:"column:raw_message;not null"`
	DetectedCategory *string   `db:"detected_category"  gorm:"column:detected_category"`
	Confidence       *float64  `db:"confidence"         gorm:"column:confidence"`
	Success          bool      `db:"processing_success" gorm:"column:processing_success;not null"`
	CreatedRecordID  *int64    `db:"created_record_id"  gorm:"column:created_record_id"`
	ErrorMessage     *string   `db:"error_message"      gorm:"column:error_message"`
	SmsID            string    `db:"sms_id"             gorm:"column:sms_id"`
	DeviceID         string    `db:"device_id"          gorm:"column:device_id"`
	ProcessedAt      time.Time `db:"processed_at"       gorm:"column:processed_at;autoCreateTime;index"`
}

func (ProcessingLogEntity) TableName() string {
	return "sms_processing_log"
}

func toProcessingLogEntity(m *model.ProcessingLogEntry) *ProcessingLogEntity {
	if m == nil {
		return nil
	}
	var category *string
	if m.DetectedCategory != nil {
		s := string(*m.DetectedCategory)
		category = &s
	}
	return &ProcessingLogEntity{
		ID:               m.ID,
		SenderPhone:      m.SenderPhone,
		RawMessage:       m.RawMessage,
		DetectedCategory: category,
		Confidence:       m.Confidence,
		Success:          m.Success,
		CreatedRecordID:  m.CreatedRecordID,
		ErrorMessage:     m.ErrorMessage,
		SmsID:            m.SmsID,
		DeviceID:         m.DeviceID,
		ProcessedAt:      m.ProcessedAt,
	}
}

func toProcessingLogModel(e *ProcessingLogEntity) *model.ProcessingLogEntry {
	if e == nil {
		return nil
	}
	var category *model.Category
	if e.DetectedCategory != nil {
		c := model.Category(*e.DetectedCategory)
		category = &c
	}
	return &model.ProcessingLogEntry{
		ID:               e.ID,
		SenderPhone:      e.SenderPhone,
		RawMessage:       e.RawMessage,
		DetectedCategory: category,
		Confidence:       e.Confidence,
		Success:          e.Success,
		CreatedRecordID:  e.CreatedRecordID,
		ErrorMessage:     e.ErrorMessage,
		SmsID:            e.SmsID,
		DeviceID:         e.DeviceID,
		ProcessedAt:      e.ProcessedAt,
	}
}

func toProcessingLogModels(entities []*ProcessingLogEntity) []*model.ProcessingLogEntry {
	if entities == nil {
		return nil
	}
	models := make([]*model.ProcessingLogEntry, len(entities))
	for i, e := range entities {
		models[i] = toProcessingLogModel(e)
	}
	return models
}
