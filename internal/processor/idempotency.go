package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relieflink/report-gateway/pkg/logger"
	"github.com/relieflink/report-gateway/pkg/redis"
)

var (
	ErrAlreadySent        = errors.New("reply already sent")
	ErrLockAcquireFailed  = errors.New("failed to acquire delivery lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

type IdempotencyConfig struct {
	LockTTL time.Duration

	SentTTL time.Duration

	MaxRetries int

	RetryKeyPrefix string

	LockKeyPrefix string

	SentKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:        30 * time.Second,
		SentTTL:        24 * time.Hour,
		MaxRetries:     3,
		RetryKeyPrefix: "reply:retry:",
		LockKeyPrefix:  "reply:lock:",
		SentKeyPrefix:  "reply:sent:",
	}
}

// IdempotencyService guards reply delivery. A reclaimed outbox entry must
// not produce a second SMS to the reporter, so each reply carries a
// short-term delivery lock and a long-term sent marker keyed by reply ID.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type DeliveryContext struct {
	ReplyID      string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
	service      *IdempotencyService
}

func (s *IdempotencyService) AcquireDeliveryLock(ctx context.Context, replyID string) (*DeliveryContext, error) {
	// Check the long-term sent marker first.
	sentKey := s.config.SentKeyPrefix + replyID
	exists, err := s.redis.Exist(sentKey)
	if err != nil {
		logger.Warn("Failed to check sent status", "reply_id", replyID, "error", err)
		// Continue even if check fails - better to risk a duplicate reply
		// than to block delivery entirely
	} else if exists > 0 {
		return nil, ErrAlreadySent
	}

	retryKey := s.config.RetryKeyPrefix + replyID
	retryCountBytes, err := s.redis.Get(retryKey)
	retryCount := 0
	if err == nil && len(retryCountBytes) > 0 {
		fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	}

	if retryCount >= s.config.MaxRetries {
		logger.Error("Max retries exceeded for reply", "reply_id", replyID, "retry_count", retryCount)
		return nil, fmt.Errorf("%w: reply_id=%s, retries=%d", ErrMaxRetriesExceeded, replyID, retryCount)
	}

	lockKey := s.config.LockKeyPrefix + replyID
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := s.redis.SetNX(lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		logger.Error("Failed to acquire lock", "reply_id", replyID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	if !acquired {
		logger.Info("Lock already held by another consumer", "reply_id", replyID)
		return nil, ErrLockAcquireFailed
	}

	logger.Debug("Delivery lock acquired", "reply_id", replyID, "retry_count", retryCount)

	return &DeliveryContext{
		ReplyID:      replyID,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
		service:      s,
	}, nil
}

func (s *IdempotencyService) MarkSent(ctx context.Context, dc *DeliveryContext) error {
	replyID := dc.ReplyID

	sentKey := s.config.SentKeyPrefix + replyID
	err := s.redis.Set(sentKey, []byte("1"), s.config.SentTTL)
	if err != nil {
		logger.Error("Failed to mark reply as sent", "reply_id", replyID, "error", err)
		return fmt.Errorf("failed to mark as sent: %w", err)
	}

	s.cleanup(ctx, dc)

	logger.Info("Reply marked as sent", "reply_id", replyID, "retry_count", dc.RetryCount)

	return nil
}

func (s *IdempotencyService) MarkFailure(ctx context.Context, dc *DeliveryContext, reason error) error {
	replyID := dc.ReplyID

	retryKey := s.config.RetryKeyPrefix + replyID
	newRetryCount := dc.RetryCount + 1
	retryValue := []byte(fmt.Sprintf("%d", newRetryCount))

	// Keep retry counter for longer to track across retries
	err := s.redis.Set(retryKey, retryValue, s.config.SentTTL)
	if err != nil {
		logger.Error("Failed to increment retry counter", "reply_id", replyID, "error", err)
	}

	lockKey := s.config.LockKeyPrefix + replyID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to remove lock", "reply_id", replyID, "error", err)
	}

	logger.Warn("Reply delivery failed, will retry",
		"reply_id", replyID,
		"retry_count", newRetryCount,
		"max_retries", s.config.MaxRetries,
		"reason", reason)

	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, dc *DeliveryContext) error {
	if dc == nil || !dc.lockAcquired {
		return nil
	}

	lockKey := s.config.LockKeyPrefix + dc.ReplyID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to release lock", "reply_id", dc.ReplyID, "error", err)
		return err
	}

	dc.lockAcquired = false
	logger.Debug("Delivery lock released", "reply_id", dc.ReplyID)
	return nil
}

func (s *IdempotencyService) cleanup(ctx context.Context, dc *DeliveryContext) {
	replyID := dc.ReplyID

	lockKey := s.config.LockKeyPrefix + replyID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to cleanup lock", "reply_id", replyID, "error", err)
	}

	retryKey := s.config.RetryKeyPrefix + replyID
	if err := s.redis.Del(retryKey); err != nil {
		logger.Warn("Failed to cleanup retry counter", "reply_id", replyID, "error", err)
	}

	dc.lockAcquired = false
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, replyID string) (int, error) {
	retryKey := s.config.RetryKeyPrefix + replyID
	retryCountBytes, err := s.redis.Get(retryKey)
	if err != nil {
		if err == redis.NilError {
			return 0, nil
		}
		return 0, err
	}

	retryCount := 0
	fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	return retryCount, nil
}

func (s *IdempotencyService) IsSent(ctx context.Context, replyID string) (bool, error) {
	sentKey := s.config.SentKeyPrefix + replyID
	exists, err := s.redis.Exist(sentKey)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
