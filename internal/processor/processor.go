package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/relieflink/report-gateway/internal/config"
	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/internal/queue"
	"github.com/relieflink/report-gateway/pkg/logger"
	"github.com/relieflink/report-gateway/pkg/redis"
	"github.com/relieflink/report-gateway/pkg/worker"
)

const DeliveryTimeout = time.Second * 5
const HealthInterval = time.Second * 30
const ShutdownTimeout = time.Minute

// Processor interface for reply delivery implementations
type Processor interface {
	Process(ctx context.Context, reply *model.ReplyMessage, attempt int) error
	GetType() string
}

// ReplySenderService drains the reply outbox and hands entries to a worker
// pool for delivery.
type ReplySenderService struct {
	adapter   redis.RedisAdapter
	outboxes  []*queue.Outbox
	processor Processor
	metrics   *ServiceMetrics
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	worker    *worker.WorkerManager
}

func NewReplySenderService(redisAdapter redis.RedisAdapter) (*ReplySenderService, error) {
	ctx, cancel := context.WithCancel(context.Background())
	service := &ReplySenderService{
		adapter:  redisAdapter,
		outboxes: make([]*queue.Outbox, 0),
		metrics:  NewServiceMetrics(),
		ctx:      ctx,
		cancel:   cancel,
		worker:   worker.NewWorkerManager(10_000, 100, nil),
	}
	return service, nil
}

// RegisterProcessor registers the reply processor
func (s *ReplySenderService) RegisterProcessor(processor Processor) {
	s.processor = processor
	logger.Info("Registered processor", "type", processor.GetType())
}

// Start starts the reply sender service
func (s *ReplySenderService) Start() error {
	logger.Info("Starting Reply Sender Service...")

	s.worker.SetWorker(s.workerHandler)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil {
			logger.Error("Worker manager stopped", "error", err)
		}
	}()

	for i := 0; i < 10; i++ {
		outboxConfig := queue.Config{
			Stream:            config.Get().ReplyQueueName,
			Group:             config.Get().ReplyQueueConsumerGroup,
			Consumer:          fmt.Sprintf("%s-instance-%d", config.Get().ReplyQueueConsumerName, i),
			MaxRetries:        config.Get().ReplyQueueMaxRetries,
			VisibilityTimeout: config.Get().ReplyQueueVisibilityTimeout,
			PollInterval:      config.Get().ReplyQueuePollInterval,
			BatchSize:         config.Get().ReplyQueueBatchSize,
			MaxLen:            config.Get().ReplyQueueMaxLen,
			EnableDLQ:         config.Get().ReplyQueueEnableDLQ,
		}

		o, err := queue.NewOutbox(s.adapter, outboxConfig)
		if err != nil {
			return fmt.Errorf("failed to create outbox consumer %d: %w", i, err)
		}

		if err := o.Consume(s.replyHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}

		s.outboxes = append(s.outboxes, o)
		logger.Info("Started consumer instance", "instance", i)
	}

	s.wg.Add(2)
	go s.metricsReporter()
	go s.healthChecker()

	logger.Info("Reply Sender Service started", "consumers", len(s.outboxes), "workers", 100)
	return nil
}

func (s *ReplySenderService) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportMetrics()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ReplySenderService) reportMetrics() {
	stats := s.metrics.GetStats()

	logger.Info("Delivery metrics", "total_delivered", stats["total_delivered"], "total_failed", stats["total_failed"], "rate_per_second", stats["rate_per_second"], "avg_duration_ms", stats["avg_duration_ms"], "uptime_seconds", stats["uptime_seconds"])

	for i, o := range s.outboxes {
		if oStats, err := o.GetStats(); err == nil {
			logger.Info("Outbox stats", "outbox", i, "total", oStats.TotalEntries, "pending", oStats.PendingEntries)
		}
	}
}

func (s *ReplySenderService) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ReplySenderService) performHealthCheck() {
	if err := s.adapter.Client().Ping(context.Background()).Err(); err != nil {
		logger.Error("HEALTH CHECK FAILED: Redis connection error", "error", err)
		return
	}

	for i, o := range s.outboxes {
		stats, err := o.GetStats()
		if err != nil {
			logger.Warn("HEALTH CHECK WARNING: Outbox stats unavailable", "outbox", i, "error", err)
			continue
		}

		if stats.PendingEntries > 10000 {
			logger.Warn("HEALTH CHECK WARNING: Outbox has high lag", "outbox", i, "pending_entries", stats.PendingEntries)
		}
	}

	logger.Info("HEALTH CHECK: OK - Service healthy")
}

// Stop gracefully stops the service
func (s *ReplySenderService) Stop() {
	logger.Info("Shutting down Reply Sender Service...")

	s.cancel()

	timeout := ShutdownTimeout
	stopChan := make(chan bool, len(s.outboxes))

	for i, o := range s.outboxes {
		go func(index int, outbox *queue.Outbox) {
			if err := outbox.Stop(timeout); err != nil {
				logger.Error("Error stopping outbox", "outbox", index, "error", err)
			}
			stopChan <- true
		}(i, o)
	}

	for range s.outboxes {
		select {
		case <-stopChan:
		case <-time.After(timeout + 5*time.Second):
			logger.Warn("Timeout waiting for outboxes to stop")
		}
	}

	s.worker.Exit()

	s.wg.Wait()

	s.reportMetrics()

	logger.Info("Reply Sender Service stopped")
}

type jobResult struct {
	reply      *model.ReplyMessage
	attempt    int
	resultChan chan error
	ctx        context.Context
}

// replyHandler receives outbox entries and enqueues them to the worker pool
func (s *ReplySenderService) replyHandler(ctx context.Context, reply *model.ReplyMessage, attempt int) error {
	resultChan := make(chan error, 1)

	msgCtx, cancel := context.WithTimeout(ctx, DeliveryTimeout+time.Second)
	defer cancel()

	job := &jobResult{
		reply:      reply,
		attempt:    attempt,
		resultChan: resultChan,
		ctx:        msgCtx,
	}

	s.worker.Enqueue(job)

	select {
	case err := <-resultChan:
		return err
	case <-msgCtx.Done():
		return fmt.Errorf("timeout waiting for worker to deliver reply: %w", msgCtx.Err())
	}
}

// workerHandler delivers replies in the worker pool
func (s *ReplySenderService) workerHandler(workerIndex int, job interface{}) {
	jobRes, ok := job.(*jobResult)
	if !ok {
		logger.Error("Invalid job type in worker", "worker", workerIndex)
		return
	}

	start := time.Now()
	var resultErr error

	select {
	case <-jobRes.ctx.Done():
		logger.Warn("Job context cancelled before delivery started", "worker", workerIndex)
		return
	default:
	}

	if s.processor == nil {
		logger.Info("No processor registered", "worker", workerIndex)
		s.metrics.RecordFailure()
		resultErr = nil // ACK - nothing will change on retry
	} else {
		if err := s.processor.Process(jobRes.ctx, jobRes.reply, jobRes.attempt); err != nil {
			s.metrics.RecordFailure()
			logger.Error("Failed to deliver reply", "worker", workerIndex, "error", err)
			resultErr = err // NACK
		} else {
			s.metrics.RecordSuccess(time.Since(start))
			resultErr = nil // ACK
		}
	}

	// If replyHandler timed out, the channel may have no receiver
	select {
	case jobRes.resultChan <- resultErr:
	case <-jobRes.ctx.Done():
		logger.Warn("Context cancelled while sending result", "worker", workerIndex)
	}
}
