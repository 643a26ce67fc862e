package model

import "time"

// ProcessingLogEntry is the audit record of one processing attempt.
// Exactly one is written per MESSAGE_RECEIVED event, success or failure.
// DetectedCategory is nil when classification failed.
type ProcessingLogEntry struct {
	ID               int64     `json:"id"`
	SenderPhone      string    `json:"sender_phone"`
	RawMessage       string    `json:"raw_message"`
	DetectedCategory *Category `json:"detected_category"`
	Confidence       *float64  `json:"confidence"`
	Success          bool      `json:"processing_success"`
	CreatedRecordID  *int64    `json:"created_record_id"`
	ErrorMessage     *string   `json:"error_message"`
	SmsID            string    `json:"sms_id"`
	DeviceID         string    `json:"device_id"`
	ProcessedAt      time.Time `json:"processed_at"`
}
