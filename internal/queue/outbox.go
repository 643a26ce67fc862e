package queue

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/pkg/redis"
)

// DeliverFunc processes one outbound reply. Returning nil acks the entry;
// returning an error leaves it pending so it is reclaimed and retried.
type DeliverFunc func(ctx context.Context, reply *model.ReplyMessage, attempt int) error

type Config struct {
	Stream            string
	Group             string
	Consumer          string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
	EnableDLQ         bool
}

// Outbox is the durable buffer between report ingestion and SMS delivery.
// Ingestion appends confirmation replies to a redis stream and returns;
// the reply processor consumes the stream through a consumer group, so
// replies survive restarts and slow providers never block the webhook.
type Outbox struct {
	adapter redis.RedisAdapter
	config  Config
	handler DeliverFunc
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type Stats struct {
	TotalEntries   int64
	PendingEntries int64
	ConsumerCount  int64
}

func NewOutbox(adapter redis.RedisAdapter, config Config) (*Outbox, error) {
	if config.Stream == "" {
		return nil, fmt.Errorf("outbox stream name is required")
	}
	if config.Group == "" {
		config.Group = "reply-senders"
	}
	if config.Consumer == "" {
		config.Consumer = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.VisibilityTimeout == 0 {
		config.VisibilityTimeout = 30 * time.Second
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	o := &Outbox{
		adapter: adapter,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
	}

	// Group might already exist, which is fine.
	_ = o.adapter.XGroupCreateMkStream(config.Stream, config.Group, "0")

	return o, nil
}

// Publish appends a reply to the stream and returns its entry ID.
func (o *Outbox) Publish(ctx context.Context, reply *model.ReplyMessage) (string, error) {
	if reply == nil {
		return "", fmt.Errorf("reply is required")
	}
	if reply.To == "" {
		return "", fmt.Errorf("reply recipient is required")
	}

	createdAt := reply.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	values := map[string]interface{}{
		"reply_id":   reply.ReplyID,
		"to":         reply.To,
		"body":       reply.Body,
		"sms_id":     reply.SmsID,
		"created_at": createdAt.Unix(),
	}

	id, err := o.adapter.XAdd(o.config.Stream, values)
	if err != nil {
		return "", fmt.Errorf("failed to publish reply: %w", err)
	}

	if o.config.MaxLen > 0 {
		_ = o.adapter.XTrimApprox(o.config.Stream, o.config.MaxLen)
	}

	return id, nil
}

// Consume starts delivering replies with the given handler. Successful
// deliveries are acked; failures stay pending until the visibility timeout
// expires and the entry is reclaimed.
func (o *Outbox) Consume(handler DeliverFunc) error {
	if handler == nil {
		return fmt.Errorf("deliver handler is required")
	}

	o.handler = handler
	o.wg.Add(1)

	go o.consumeLoop()

	return nil
}

func (o *Outbox) consumeLoop() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			o.deliverNew()
			o.claimStuckEntries()
		}
	}
}

func (o *Outbox) deliverNew() {
	messages, err := o.adapter.XReadGroup(
		o.config.Group,
		o.config.Consumer,
		o.config.Stream,
		">",
		o.config.BatchSize,
	)
	if err != nil {
		return
	}

	for _, streamMsg := range messages {
		o.handleEntry(streamMsg.ID, decodeStreamEntry(streamMsg), 0)
	}
}

func (o *Outbox) claimStuckEntries() {
	pending, err := o.adapter.XPending(o.config.Stream, o.config.Group)
	if err != nil || pending == nil || pending.Count == 0 {
		return
	}

	pendingExt, err := o.adapter.XPendingExt(
		o.config.Stream,
		o.config.Group,
		"-",
		"+",
		100,
	)
	if err != nil || len(pendingExt) == 0 {
		return
	}

	// XPENDING's delivery counter is the authoritative attempt count.
	var idsToReclaim []string
	attemptsByID := make(map[string]int)
	for _, entry := range pendingExt {
		if entry.Idle >= o.config.VisibilityTimeout {
			idsToReclaim = append(idsToReclaim, entry.ID)
			attemptsByID[entry.ID] = int(entry.RetryCount)
		}
	}

	if len(idsToReclaim) == 0 {
		return
	}

	messages, err := o.adapter.XClaim(
		o.config.Stream,
		o.config.Group,
		o.config.Consumer,
		o.config.VisibilityTimeout,
		idsToReclaim...,
	)
	if err != nil {
		return
	}

	for _, streamMsg := range messages {
		o.handleEntry(streamMsg.ID, decodeStreamEntry(streamMsg), attemptsByID[streamMsg.ID])
	}
}

func (o *Outbox) handleEntry(id string, reply *model.ReplyMessage, attempt int) {
	if attempt >= o.config.MaxRetries {
		o.moveToDeadLetter(id, reply, attempt)
		_ = o.ack(id)
		return
	}

	ctx, cancel := context.WithTimeout(o.ctx, o.config.VisibilityTimeout)
	defer cancel()

	if err := o.handler(ctx, reply, attempt); err != nil {
		// Leave pending; the next reclaim pass retries it.
		return
	}

	_ = o.ack(id)
}

func (o *Outbox) ack(id string) error {
	return o.adapter.XAck(o.config.Stream, o.config.Group, id)
}

func (o *Outbox) moveToDeadLetter(id string, reply *model.ReplyMessage, attempt int) {
	if !o.config.EnableDLQ {
		return
	}

	values := map[string]interface{}{
		"reply_id":    reply.ReplyID,
		"to":          reply.To,
		"body":        reply.Body,
		"sms_id":      reply.SmsID,
		"original_id": id,
		"attempts":    attempt,
		"failed_at":   time.Now().Unix(),
	}

	_, _ = o.adapter.XAdd(o.config.Stream+":dlq", values)
}

func decodeStreamEntry(streamMsg redis.StreamMessage) *model.ReplyMessage {
	reply := &model.ReplyMessage{}

	for k, v := range streamMsg.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch k {
		case "reply_id":
			reply.ReplyID = s
		case "to":
			reply.To = s
		case "body":
			reply.Body = s
		case "sms_id":
			reply.SmsID = s
		case "created_at":
			if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
				reply.CreatedAt = time.Unix(unix, 0)
			}
		}
	}

	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}

	return reply
}

func (o *Outbox) Stop(timeout time.Duration) error {
	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for outbox to stop")
	}
}

func (o *Outbox) GetStats() (*Stats, error) {
	total, err := o.adapter.XLen(o.config.Stream)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalEntries: total}

	if pending, err := o.adapter.XPending(o.config.Stream, o.config.Group); err == nil && pending != nil {
		stats.PendingEntries = pending.Count
		stats.ConsumerCount = int64(len(pending.Consumers))
	}

	return stats, nil
}
