package model

// WebhookEvent is the delivery type reported by the SMS gateway.
type WebhookEvent string

const (
	WebhookEventMessageReceived WebhookEvent = "MESSAGE_RECEIVED"
	WebhookEventStatusUpdate    WebhookEvent = "STATUS_UPDATE"
)

// InboundSmsEvent is one webhook delivery from the SMS gateway. It exists
// only for the duration of a request; the gateway-assigned SmsID is not
// guaranteed unique across gateway redeployments, so it is never used as a
// primary key.
type InboundSmsEvent struct {
	SmsID                 string       `json:"smsId"`
	Sender                string       `json:"sender"`
	Message               string       `json:"message"`
	ReceivedAt            string       `json:"receivedAt"`
	DeviceID              string       `json:"deviceId"`
	WebhookSubscriptionID string       `json:"webhookSubscriptionId"`
	WebhookEvent          WebhookEvent `json:"webhookEvent"`
}

// WebhookResponse is the body every reachable handler invocation answers
// with. The gateway retries on non-200, so processing failures still
// return 200 with Success=false.
type WebhookResponse struct {
	Success       bool           `json:"success"`
	Category      string         `json:"category,omitempty"`
	Confidence    float64        `json:"confidence,omitempty"`
	RecordID      string         `json:"record_id,omitempty"`
	Table         string         `json:"table,omitempty"`
	Reply         string         `json:"reply,omitempty"`
	Message       string         `json:"message,omitempty"`
	ExtractedData any            `json:"extracted_data,omitempty"`
	Error         string         `json:"error,omitempty"`
}
