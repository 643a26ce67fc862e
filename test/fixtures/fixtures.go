package fixtures

import (
	"fmt"
	"time"

	"github.com/relieflink/report-gateway/internal/model"
)

func NewInboundSmsEvent(sender, message string) *model.InboundSmsEvent {
	return &model.InboundSmsEvent{
		SmsID:        fmt.Sprintf("sms-%d", time.Now().UnixNano()),
		Sender:       sender,
		Message:      message,
		ReceivedAt:   time.Now().UTC().Format(time.RFC3339),
		DeviceID:     "test-device",
		WebhookEvent: model.WebhookEventMessageReceived,
	}
}

func NewStatusUpdateEvent(sender string) *model.InboundSmsEvent {
	e := NewInboundSmsEvent(sender, "")
	e.WebhookEvent = model.WebhookEventStatusUpdate
	return e
}

// DisasterClassifierJSON is a classifier envelope for a flood report, in
// the exact shape the model is prompted to return.
func DisasterClassifierJSON(address string) string {
	return fmt.Sprintf(`{
		"category": "disaster",
		"confidence": 0.93,
		"data": {
			"disaster_type": "flood",
			"severity": "high",
			"people_affected": "3 families",
			"casualties": null,
			"needs": {"food": false, "water": true, "medical": false, "shelter": true, "rescue": true},
			"location_address": %q,
			"occurred_date": null,
			"area_size": null,
			"reporter_name": "SMS Reporter"
		}
	}`, address)
}

func MissingPersonClassifierJSON(name, address string) string {
	return fmt.Sprintf(`{
		"category": "missing_person",
		"confidence": 0.88,
		"data": {
			"name": %q,
			"age": 12,
			"gender": "female",
			"description": "last seen wearing a red shirt",
			"location_address": %q,
			"last_seen_date": "2026-08-30",
			"reporter_name": "SMS Reporter"
		}
	}`, name, address)
}

func AnimalRescueClassifierJSON(address string) string {
	return fmt.Sprintf(`{
		"category": "animal_rescue",
		"confidence": 0.81,
		"data": {
			"animal_type": "dog",
			"breed": null,
			"condition": "injured",
			"is_dangerous": true,
			"location_address": %q,
			"reporter_name": "SMS Reporter"
		}
	}`, address)
}

var (
	SampleSenders = []string{
		"+639171234567",
		"+639281112233",
		"+639059876543",
	}

	SampleDisasterMessages = []string{
		"Flood in Barangay San Roque, water waist deep, 3 families trapped",
		"Fire spreading near the public market, several houses burning",
		"Landslide blocked the highway in Sitio Maligaya, people buried",
	}
)

func ReportFilterBySender(sender string) model.ReportFilter {
	return model.ReportFilter{
		Sender: &sender,
		Limit:  50,
		Offset: 0,
		Desc:   false,
	}
}

func ReportFilterByStatus(status string) model.ReportFilter {
	return model.ReportFilter{
		Status: &status,
		Limit:  50,
		Offset: 0,
		Desc:   false,
	}
}
