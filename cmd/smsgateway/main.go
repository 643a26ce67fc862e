package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DeliveryStatus represents the delivery status of a reply SMS
type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
	StatusPending   DeliveryStatus = "PENDING"
)

// SendReplyRequest represents a reply delivery request from the processor
type SendReplyRequest struct {
	ReplyID     string `json:"reply_id" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Content     string `json:"content" binding:"required"`
	SmsID       string `json:"sms_id"`
}

// SendReplyResponse represents the response from a reply delivery
type SendReplyResponse struct {
	ReplyID     string         `json:"reply_id"`
	Status      DeliveryStatus `json:"status"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	ProviderID  string         `json:"provider_id"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// StatusCheckResponse represents delivery status response
type StatusCheckResponse struct {
	ReplyID     string         `json:"reply_id"`
	Status      DeliveryStatus `json:"status"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	ProviderID  string         `json:"provider_id"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status       string    `json:"status"`
	ProviderID   string    `json:"provider_id"`
	Timestamp    time.Time `json:"timestamp"`
	DeliveryRate float64   `json:"delivery_rate"`
}

// inboundSmsEvent mirrors the webhook payload the ingest API accepts.
type inboundSmsEvent struct {
	SmsID                 string `json:"smsId"`
	Sender                string `json:"sender"`
	Message               string `json:"message"`
	ReceivedAt            string `json:"receivedAt"`
	DeviceID              string `json:"deviceId"`
	WebhookSubscriptionID string `json:"webhookSubscriptionId"`
	WebhookEvent          string `json:"webhookEvent"`
}

// MockGateway simulates an Android SMS gateway device: it delivers reply
// messages handed to it and forwards incoming reports to the webhook.
type MockGateway struct {
	deliveryRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	providerID   string
	rng          *rand.Rand
}

func NewMockGateway(deliveryRate float64, minDelay, maxDelay time.Duration) *MockGateway {
	return &MockGateway{
		deliveryRate: deliveryRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		providerID:   "MOCK_GATEWAY_" + uuid.New().String()[:8],
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// simulateDelivery simulates sending one reply SMS over the air
func (m *MockGateway) simulateDelivery(req *SendReplyRequest) *SendReplyResponse {
	delay := m.randomDelay()
	time.Sleep(delay)

	response := &SendReplyResponse{
		ReplyID:     req.ReplyID,
		ProviderID:  m.providerID,
		ProcessedAt: time.Now(),
	}

	if m.shouldSucceed() {
		now := time.Now()
		response.Status = StatusDelivered
		response.DeliveredAt = &now

		log.Info().
			Str("reply_id", req.ReplyID).
			Str("phone", req.PhoneNumber).
			Dur("delay", delay).
			Msg("Reply delivered successfully")
	} else {
		response.Status = StatusFailed
		response.ErrorCode = m.randomErrorCode()
		response.ErrorMsg = m.errorMessage(response.ErrorCode)

		log.Warn().
			Str("reply_id", req.ReplyID).
			Str("phone", req.PhoneNumber).
			Str("error_code", response.ErrorCode).
			Msg("Reply delivery failed")
	}

	return response
}

func (m *MockGateway) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	randomDelta := time.Duration(m.rng.Int63n(int64(delta)))
	return m.minDelay + randomDelta
}

func (m *MockGateway) shouldSucceed() bool {
	return m.rng.Float64() < m.deliveryRate
}

func (m *MockGateway) randomErrorCode() string {
	errorCodes := []string{
		"INVALID_NUMBER",
		"NETWORK_ERROR",
		"TIMEOUT",
		"NO_SIGNAL",
		"SIM_REJECTED",
	}
	return errorCodes[m.rng.Intn(len(errorCodes))]
}

func (m *MockGateway) errorMessage(code string) string {
	messages := map[string]string{
		"INVALID_NUMBER": "The phone number is invalid or not in service",
		"NETWORK_ERROR":  "Network connectivity issue with the carrier",
		"TIMEOUT":        "Reply delivery timed out",
		"NO_SIGNAL":      "Device has no cellular signal",
		"SIM_REJECTED":   "Carrier rejected the SIM for outbound SMS",
	}

	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

// Handler struct holds the mock gateway and routes
type Handler struct {
	gateway *MockGateway
}

func NewHandler(gateway *MockGateway) *Handler {
	return &Handler{gateway: gateway}
}

// SendReply handles reply delivery requests from the processor
func (h *Handler) SendReply(c *gin.Context) {
	var req SendReplyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	log.Info().
		Str("reply_id", req.ReplyID).
		Str("phone", req.PhoneNumber).
		Msg("Received reply send request")

	response := h.gateway.simulateDelivery(&req)

	statusCode := http.StatusOK
	if response.Status == StatusFailed {
		statusCode = http.StatusAccepted // 202: accepted but failed delivery
	}

	c.JSON(statusCode, response)
}

// GetStatus handles delivery status check requests
func (h *Handler) GetStatus(c *gin.Context) {
	replyID := c.Param("reply_id")

	if replyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "reply_id is required",
		})
		return
	}

	time.Sleep(100 * time.Millisecond)

	response := StatusCheckResponse{
		ReplyID:    replyID,
		ProviderID: h.gateway.providerID,
	}

	if h.gateway.shouldSucceed() {
		now := time.Now()
		response.Status = StatusDelivered
		response.DeliveredAt = &now
	} else {
		response.Status = StatusFailed
		response.ErrorCode = "TIMEOUT"
		response.ErrorMsg = "Reply delivery timed out"
	}

	c.JSON(http.StatusOK, response)
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	// Simulate 5% downtime
	if h.gateway.rng.Float64() < 0.05 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "Gateway temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		ProviderID:   h.gateway.providerID,
		Timestamp:    time.Now(),
		DeliveryRate: h.gateway.deliveryRate,
	})
}

// UpdateConfig allows changing gateway configuration at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		DeliveryRate *float64 `json:"delivery_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.DeliveryRate != nil {
		if *config.DeliveryRate >= 0 && *config.DeliveryRate <= 1.0 {
			h.gateway.deliveryRate = *config.DeliveryRate
			log.Info().Float64("rate", *config.DeliveryRate).Msg("Updated delivery rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Configuration updated",
		"delivery_rate": h.gateway.deliveryRate,
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sms/send", handler.SendReply)
		v1.GET("/sms/status/:reply_id", handler.GetStatus)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	// Root health check
	router.GET("/health", handler.HealthCheck)

	return router
}

// webhookFeeder periodically posts signed report SMS deliveries to the
// ingest API, simulating citizens texting the relief number.
type webhookFeeder struct {
	webhookURL string
	secret     string
	interval   time.Duration
	client     *http.Client
	rng        *rand.Rand
}

var sampleReports = []string{
	"Flood in Barangay San Roque, water waist deep, 3 families on rooftops need evacuation",
	"My father Pedro Ramos, 68 years old, missing since the landslide in Sitio Maligaya yesterday",
	"Injured dog trapped under collapsed wall near Tacloban public market, looks aggressive",
	"Earthquake damage in Carigara, several houses cracked, elderly couple needs medical help",
	"Cat stuck in storm drain on Rizal Avenue corner Mabini Street, meowing for two days",
	"Looking for my sister Ana Dela Cruz, 34, last seen near the evacuation center in Palo",
}

var samplePhones = []string{
	"+639171234567",
	"+639281112233",
	"+639059876543",
	"+639221230987",
}

func (f *webhookFeeder) run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.sendOne(ctx)
		}
	}
}

func (f *webhookFeeder) sendOne(ctx context.Context) {
	event := inboundSmsEvent{
		SmsID:        uuid.New().String(),
		Sender:       samplePhones[f.rng.Intn(len(samplePhones))],
		Message:      sampleReports[f.rng.Intn(len(sampleReports))],
		ReceivedAt:   time.Now().UTC().Format(time.RFC3339),
		DeviceID:     "sim-device-01",
		WebhookEvent: "MESSAGE_RECEIVED",
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal webhook event")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.webhookURL, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("Failed to build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if f.secret != "" {
		mac := hmac.New(sha256.New, []byte(f.secret))
		mac.Write(body)
		req.Header.Set("x-signature", hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	log.Info().
		Str("sms_id", event.SmsID).
		Str("sender", event.Sender).
		Int("status", resp.StatusCode).
		Msg("Webhook delivered")
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8081")
	deliveryRate := getEnvFloat("DELIVERY_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 1*time.Second)
	maxDelay := getEnvDuration("MAX_DELAY", 5*time.Second)
	webhookURL := getEnv("WEBHOOK_URL", "")
	webhookSecret := getEnv("WEBHOOK_SHARED_SECRET", "")
	feedInterval := getEnvDuration("WEBHOOK_FEED_INTERVAL", 15*time.Second)

	log.Info().
		Str("port", port).
		Float64("delivery_rate", deliveryRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("Starting Mock SMS Gateway")

	gw := NewMockGateway(deliveryRate, minDelay, maxDelay)
	handler := NewHandler(gw)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	feederCtx, cancelFeeder := context.WithCancel(context.Background())
	if webhookURL != "" {
		feeder := &webhookFeeder{
			webhookURL: webhookURL,
			secret:     webhookSecret,
			interval:   feedInterval,
			client:     &http.Client{Timeout: 30 * time.Second},
			rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		}
		log.Info().
			Str("webhook_url", webhookURL).
			Dur("interval", feedInterval).
			Msg("Starting webhook feeder")
		go feeder.run(feederCtx)
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancelFeeder()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
