package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/relieflink/report-gateway/internal/builder"
	"github.com/relieflink/report-gateway/internal/geocoder"
	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/pkg/logger"
	"github.com/relieflink/report-gateway/pkg/prom"
)

const (
	replyEmptyMessage = "Your message was empty. Please describe the emergency, missing person, or animal in need and send it again."
	replyUnparseable  = "We could not understand your message. Please resend it with more detail: what happened, where, and who is affected."
	replyTryLater     = "We received your message but could not save your report right now. Please try again in a few minutes."
	replyDuplicate    = "We already received this report. It is being processed, no need to resend."
)

type Classifier interface {
	Classify(ctx context.Context, message, sender string, receivedAt time.Time) (*model.ClassifiedReport, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocoder.Coordinates, error)
}

type Deduper interface {
	Enabled() bool
	Seen(ctx context.Context, sender, message string) bool
}

type ReplyPublisher interface {
	Publish(ctx context.Context, reply *model.ReplyMessage) (string, error)
}

type DisasterRepository interface {
	Create(ctx context.Context, report *model.DisasterReport) (*model.DisasterReport, error)
}

type MissingPersonRepository interface {
	Create(ctx context.Context, report *model.MissingPersonReport) (*model.MissingPersonReport, error)
}

type AnimalRescueRepository interface {
	Create(ctx context.Context, report *model.AnimalRescueReport) (*model.AnimalRescueReport, error)
}

type ProcessingLogRepository interface {
	Create(ctx context.Context, entry *model.ProcessingLogEntry) (*model.ProcessingLogEntry, error)
}

// IngestService runs the whole pipeline for one webhook delivery:
// dedup, classify, geocode, build, persist, audit, queue the reply.
// It never returns an error to the handler; every outcome maps to a
// WebhookResponse so the gateway always gets its 200.
type IngestService struct {
	classifier    Classifier
	geocoder      Geocoder
	dedup         Deduper
	replies       ReplyPublisher
	disasterRepo  DisasterRepository
	missingRepo   MissingPersonRepository
	animalRepo    AnimalRescueRepository
	processingLog ProcessingLogRepository
}

func NewIngestService(
	classifier Classifier,
	geo Geocoder,
	dedup Deduper,
	replies ReplyPublisher,
	disasterRepo DisasterRepository,
	missingRepo MissingPersonRepository,
	animalRepo AnimalRescueRepository,
	processingLog ProcessingLogRepository,
) *IngestService {
	return &IngestService{
		classifier:    classifier,
		geocoder:      geo,
		dedup:         dedup,
		replies:       replies,
		disasterRepo:  disasterRepo,
		missingRepo:   missingRepo,
		animalRepo:    animalRepo,
		processingLog: processingLog,
	}
}

// Process handles one inbound delivery end to end.
func (s *IngestService) Process(ctx context.Context, event *model.InboundSmsEvent) *model.WebhookResponse {
	if event.WebhookEvent != model.WebhookEventMessageReceived {
		logger.Info("Ignoring non-message event", "event", string(event.WebhookEvent), "sms_id", event.SmsID)
		prom.IncReportIngested("none", "ignored")
		return &model.WebhookResponse{Success: true, Message: "Event ignored"}
	}

	if strings.TrimSpace(event.Message) == "" {
		logger.Info("Empty message body", "sender", event.Sender, "sms_id", event.SmsID)
		prom.IncReportIngested("none", "empty")
		s.queueReply(ctx, event, replyEmptyMessage)
		return &model.WebhookResponse{Success: false, Reply: replyEmptyMessage}
	}

	if s.dedup != nil && s.dedup.Seen(ctx, event.Sender, event.Message) {
		prom.IncDedupHit()
		prom.IncReportIngested("none", "duplicate")
		return &model.WebhookResponse{
			Success: true,
			Message: "Duplicate message ignored",
			Reply:   replyDuplicate,
		}
	}

	receivedAt := parseReceivedAt(event.ReceivedAt)

	report, err := s.classifier.Classify(ctx, event.Message, event.Sender, receivedAt)
	if err != nil {
		logger.Warn("Classification failed", "sender", event.Sender, "sms_id", event.SmsID, "error", err)
		prom.IncClassificationFailure()
		prom.IncReportIngested("none", "classification_failed")
		s.writeAudit(ctx, event, nil, nil, false, nil, "classification failed")
		s.queueReply(ctx, event, replyUnparseable)
		return &model.WebhookResponse{
			Success: false,
			Error:   "Could not parse message",
			Reply:   replyUnparseable,
		}
	}

	// Confidence is advisory: recorded and logged, never gates insertion.
	prom.ObserveClassificationConfidence(string(report.Category), report.Confidence)
	if report.Confidence < 0.5 {
		logger.Warn("Low classification confidence", "category", string(report.Category), "confidence", report.Confidence, "sms_id", event.SmsID)
	}

	location := s.resolveLocation(ctx, report.Address())

	recordID, table, reply, err := s.persist(ctx, report, event.Sender, location)
	if err != nil {
		logger.Error("Failed to persist report", "category", string(report.Category), "sender", event.Sender, "error", err)
		prom.IncReportIngested(string(report.Category), "persistence_failed")
		s.writeAudit(ctx, event, &report.Category, &report.Confidence, false, nil, err.Error())
		s.queueReply(ctx, event, replyTryLater)
		return &model.WebhookResponse{
			Success: false,
			Error:   "Failed to save report",
			Reply:   replyTryLater,
		}
	}

	prom.IncReportIngested(string(report.Category), "created")
	s.writeAudit(ctx, event, &report.Category, &report.Confidence, true, &recordID, "")
	s.queueReply(ctx, event, reply)

	logger.Info("Report created",
		"category", string(report.Category),
		"record_id", recordID,
		"table", table,
		"confidence", report.Confidence,
		"sender", event.Sender)

	return &model.WebhookResponse{
		Success:       true,
		Category:      string(report.Category),
		Confidence:    report.Confidence,
		RecordID:      strconv.FormatInt(recordID, 10),
		Table:         table,
		Reply:         reply,
		ExtractedData: report.Data(),
	}
}

// resolveLocation geocodes the extracted address. Failures are silent:
// the report keeps its address text and null coordinates.
func (s *IngestService) resolveLocation(ctx context.Context, address string) model.Location {
	if address == "" {
		return model.NewLocation(nil, nil, "")
	}

	coords, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		if !errors.Is(err, geocoder.ErrNotFound) {
			logger.Warn("Geocoding failed", "address", address, "error", err)
		}
		return model.NewLocation(nil, nil, address)
	}

	return model.NewLocation(&coords.Lat, &coords.Lng, address)
}

func (s *IngestService) persist(ctx context.Context, report *model.ClassifiedReport, sender string, location model.Location) (int64, string, string, error) {
	switch report.Category {
	case model.CategoryDisaster:
		row, err := builder.BuildDisaster(report, sender, location)
		if err != nil {
			return 0, "", "", err
		}
		created, err := s.disasterRepo.Create(ctx, row)
		if err != nil {
			return 0, "", "", err
		}
		reply := fmt.Sprintf("Your disaster report has been registered (ref #%d). Emergency teams have been notified and help is being coordinated.", created.ID)
		return created.ID, report.Category.Table(), reply, nil

	case model.CategoryMissingPerson:
		row, err := builder.BuildMissingPerson(report, sender, location)
		if err != nil {
			return 0, "", "", err
		}
		created, err := s.missingRepo.Create(ctx, row)
		if err != nil {
			return 0, "", "", err
		}
		reply := fmt.Sprintf("Your missing person report for %s has been registered (ref #%d). Authorities and volunteers have been alerted.", created.Name, created.ID)
		return created.ID, report.Category.Table(), reply, nil

	case model.CategoryAnimalRescue:
		row, err := builder.BuildAnimalRescue(report, sender, location)
		if err != nil {
			return 0, "", "", err
		}
		created, err := s.animalRepo.Create(ctx, row)
		if err != nil {
			return 0, "", "", err
		}
		reply := fmt.Sprintf("Your animal rescue report has been registered (ref #%d). Rescue volunteers have been notified.", created.ID)
		return created.ID, report.Category.Table(), reply, nil
	}

	return 0, "", "", model.ErrUnknownCategory
}

// writeAudit records one processing attempt. Best effort: a failed audit
// write is logged server-side and never changes the response.
func (s *IngestService) writeAudit(ctx context.Context, event *model.InboundSmsEvent, category *model.Category, confidence *float64, success bool, recordID *int64, errMsg string) {
	if s.processingLog == nil {
		return
	}

	entry := &model.ProcessingLogEntry{
		SenderPhone:      event.Sender,
		RawMessage:       event.Message,
		DetectedCategory: category,
		Confidence:       confidence,
		Success:          success,
		CreatedRecordID:  recordID,
		SmsID:            event.SmsID,
		DeviceID:         event.DeviceID,
		ProcessedAt:      time.Now(),
	}
	if errMsg != "" {
		entry.ErrorMessage = &errMsg
	}

	if _, err := s.processingLog.Create(ctx, entry); err != nil {
		logger.Error("Failed to write processing log", "sms_id", event.SmsID, "error", err)
	}
}

// queueReply appends the confirmation text to the reply outbox. Best
// effort: the webhook response carries the reply string either way.
func (s *IngestService) queueReply(ctx context.Context, event *model.InboundSmsEvent, body string) {
	if s.replies == nil {
		return
	}

	reply := &model.ReplyMessage{
		ReplyID:   uuid.NewString(),
		To:        event.Sender,
		Body:      body,
		SmsID:     event.SmsID,
		CreatedAt: time.Now(),
	}

	if _, err := s.replies.Publish(ctx, reply); err != nil {
		logger.Error("Failed to queue reply", "sms_id", event.SmsID, "to", event.Sender, "error", err)
	}
}

func parseReceivedAt(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Now()
}
