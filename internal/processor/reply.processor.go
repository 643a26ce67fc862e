package processor

import (
	"context"
	"errors"

	gateway "github.com/relieflink/report-gateway/internal/gateways"
	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/pkg/logger"
	"github.com/relieflink/report-gateway/pkg/prom"
)

// SMSClient sends one reply through the provider pool.
type SMSClient interface {
	SendReply(ctx context.Context, reply *model.ReplyMessage) (*gateway.SendResponse, error)
}

type ReplyProcessor struct {
	client      SMSClient
	idempotency *IdempotencyService
}

func NewReplyProcessor(client SMSClient, idempotency *IdempotencyService) *ReplyProcessor {
	return &ReplyProcessor{
		client:      client,
		idempotency: idempotency,
	}
}

func (p *ReplyProcessor) GetType() string {
	return "reply"
}

// Process delivers one confirmation reply with idempotency guarantees.
// Returning nil acks the outbox entry; returning an error leaves it
// pending for the reclaim pass.
func (p *ReplyProcessor) Process(ctx context.Context, reply *model.ReplyMessage, attempt int) error {
	if reply == nil || reply.ReplyID == "" {
		logger.Error("Reply is missing its ID, dropping", "attempt", attempt)
		prom.IncReplyDelivered("invalid")
		return nil // ACK - a malformed entry will never succeed on retry
	}

	dc, err := p.idempotency.AcquireDeliveryLock(ctx, reply.ReplyID)
	if err != nil {
		if errors.Is(err, ErrAlreadySent) {
			logger.Info("Reply already sent, skipping", "reply_id", reply.ReplyID)
			return nil // ACK to remove from outbox
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			logger.Error("Max delivery retries exceeded", "reply_id", reply.ReplyID)
			prom.IncReplyDelivered("abandoned")
			return nil // ACK so the entry moves on
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			logger.Info("Lock held by another consumer, will retry", "reply_id", reply.ReplyID)
			return errors.New("lock held by another consumer")
		}
		logger.Error("Failed to acquire delivery lock", "reply_id", reply.ReplyID, "error", err)
		return err
	}

	defer func() {
		if dc.lockAcquired {
			p.idempotency.ReleaseLock(ctx, dc)
		}
	}()

	logger.Info("Delivering reply",
		"reply_id", reply.ReplyID,
		"to", reply.To,
		"retry_count", dc.RetryCount,
		"is_retry", dc.IsRetry)

	res, err := p.client.SendReply(ctx, reply)
	if err != nil {
		logger.Error("Failed to send reply", "reply_id", reply.ReplyID, "error", err)
		prom.IncReplyDelivered("failed")
		if markErr := p.idempotency.MarkFailure(ctx, dc, err); markErr != nil {
			logger.Error("Failed to mark failure", "reply_id", reply.ReplyID, "error", markErr)
		}
		return err // NACK to retry from outbox
	}

	if res.Status == gateway.StatusDelivered || res.Status == gateway.StatusPending {
		prom.IncReplyDelivered("sent")

		if markErr := p.idempotency.MarkSent(ctx, dc); markErr != nil {
			logger.Error("Failed to mark sent", "reply_id", reply.ReplyID, "error", markErr)
			// Continue - the reply was delivered
		}

		logger.Info("Reply delivered",
			"reply_id", reply.ReplyID,
			"to", reply.To,
			"status", string(res.Status),
			"provider", res.ProviderID)

		return nil // ACK
	}

	// Provider returned FAILED - treat as failure
	logger.Warn("Reply not delivered", "reply_id", reply.ReplyID, "status", string(res.Status))
	prom.IncReplyDelivered("failed")
	if markErr := p.idempotency.MarkFailure(ctx, dc, errors.New("provider returned failed status")); markErr != nil {
		logger.Error("Failed to mark failure", "reply_id", reply.ReplyID, "error", markErr)
	}
	return errors.New("failed to deliver reply")
}
