package model

import "time"

// ReplyMessage is one confirmation text queued for delivery back to the
// sender. Replies go through the outbox, never inline from the webhook
// handler.
type ReplyMessage struct {
	ReplyID   string    `json:"reply_id"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	SmsID     string    `json:"sms_id"`
	CreatedAt time.Time `json:"created_at"`
}
