package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func testConfig(stream string) Config {
	return Config{
		Stream:            stream,
		Group:             "test-group",
		Consumer:          "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      100 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	}
}

func TestOutbox_PublishAndConsume(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	outbox, err := NewOutbox(adapter, testConfig("test:replies"))
	require.NoError(t, err)
	defer outbox.Stop(time.Second)

	ctx := context.Background()
	_, err = outbox.Publish(ctx, &model.ReplyMessage{
		ReplyID: "r-1",
		To:      "+639171234567",
		Body:    "Disaster report received. Help is being coordinated.",
		SmsID:   "sms-001",
	})
	require.NoError(t, err)

	received := make(chan *model.ReplyMessage, 1)
	err = outbox.Consume(func(ctx context.Context, reply *model.ReplyMessage, attempt int) error {
		received <- reply
		return nil
	})
	require.NoError(t, err)

	select {
	case reply := <-received:
		assert.Equal(t, "r-1", reply.ReplyID)
		assert.Equal(t, "+639171234567", reply.To)
		assert.Equal(t, "sms-001", reply.SmsID)
		assert.Contains(t, reply.Body, "Disaster report received")
	case <-time.After(3 * time.Second):
		t.Fatal("reply was not consumed")
	}
}

func TestOutbox_PublishValidation(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	outbox, err := NewOutbox(adapter, testConfig("test:replies:validation"))
	require.NoError(t, err)

	ctx := context.Background()

	_, err = outbox.Publish(ctx, nil)
	assert.Error(t, err)

	_, err = outbox.Publish(ctx, &model.ReplyMessage{ReplyID: "r-1", Body: "no recipient"})
	assert.Error(t, err)
}

func TestOutbox_FailedDeliveryStaysPending(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	config := testConfig("test:replies:retry")
	outbox, err := NewOutbox(adapter, config)
	require.NoError(t, err)
	defer outbox.Stop(time.Second)

	ctx := context.Background()
	_, err = outbox.Publish(ctx, &model.ReplyMessage{
		ReplyID: "r-2",
		To:      "+639170000000",
		Body:    "Report received.",
	})
	require.NoError(t, err)

	var attempts int32
	err = outbox.Consume(func(ctx context.Context, reply *model.ReplyMessage, attempt int) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("provider unavailable")
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&attempts) >= 1
	}, 3*time.Second, 50*time.Millisecond)

	stats, err := outbox.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingEntries)
}

func TestOutbox_ExhaustedRetriesMoveToDeadLetter(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	config := testConfig("test:replies:deadletter")
	config.VisibilityTimeout = 50 * time.Millisecond
	config.PollInterval = 25 * time.Millisecond
	outbox, err := NewOutbox(adapter, config)
	require.NoError(t, err)
	defer outbox.Stop(time.Second)

	ctx := context.Background()
	_, err = outbox.Publish(ctx, &model.ReplyMessage{
		ReplyID: "r-3",
		To:      "+639170000001",
		Body:    "Report received.",
		SmsID:   "sms-dead",
	})
	require.NoError(t, err)

	var attempts, maxAttempt int32
	err = outbox.Consume(func(ctx context.Context, reply *model.ReplyMessage, attempt int) error {
		atomic.AddInt32(&attempts, 1)
		if int32(attempt) > atomic.LoadInt32(&maxAttempt) {
			atomic.StoreInt32(&maxAttempt, int32(attempt))
		}
		return errors.New("provider unavailable")
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		n, err := adapter.XLen("test:replies:deadletter:dlq")
		return err == nil && n == 1
	}, 5*time.Second, 50*time.Millisecond)

	// Delivery stops once the entry is dead-lettered.
	assert.Equal(t, int32(config.MaxRetries), atomic.LoadInt32(&attempts))
	assert.Equal(t, int32(config.MaxRetries-1), atomic.LoadInt32(&maxAttempt))

	stats, err := outbox.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PendingEntries)
}

func TestOutbox_MissingStreamName(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	_, err := NewOutbox(adapter, Config{})
	assert.Error(t, err)
}

func TestOutbox_Stats(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	outbox, err := NewOutbox(adapter, testConfig("test:replies:stats"))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := outbox.Publish(ctx, &model.ReplyMessage{
			ReplyID: "r-stat",
			To:      "+639171111111",
			Body:    "Report received.",
		})
		require.NoError(t, err)
	}

	stats, err := outbox.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalEntries)
}
