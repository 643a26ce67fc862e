package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/internal/signature"
	xhttp "github.com/relieflink/report-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Process(ctx context.Context, event *model.InboundSmsEvent) *model.WebhookResponse {
	args := m.Called(ctx, event)
	return args.Get(0).(*model.WebhookResponse)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookBody(t *testing.T) []byte {
	t.Helper()
	b, err := json.Marshal(model.InboundSmsEvent{
		SmsID:        "sms-123",
		Sender:       "+639171234567",
		Message:      "flood in galle, need rescue",
		ReceivedAt:   "2026-08-31T10:15:00Z",
		DeviceID:     "device-01",
		WebhookEvent: model.WebhookEventMessageReceived,
	})
	require.NoError(t, err)
	return b
}

func TestWebhookHandler_ReceiveSms(t *testing.T) {
	t.Run("valid signature reaches the service", func(t *testing.T) {
		svc := new(MockIngestService)
		handler := NewWebhookHandler(svc, signature.NewVerifier("topsecret"))

		svc.On("Process", mock.Anything, mock.MatchedBy(func(e *model.InboundSmsEvent) bool {
			return e.Sender == "+639171234567" && e.SmsID == "sms-123"
		})).Return(&model.WebhookResponse{Success: true, Category: "disaster", RecordID: "42"})

		body := webhookBody(t)
		ctx := setupTestContext("POST", "/api/v1/webhooks/sms", body)
		ctx.Request.Header.Set("x-signature", sign("topsecret", body))
		handler.ReceiveSms(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.WebhookResponse
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.True(t, response.Success)
		assert.Equal(t, "42", response.RecordID)

		svc.AssertExpectations(t)
	})

	t.Run("bad signature is rejected before parsing", func(t *testing.T) {
		svc := new(MockIngestService)
		handler := NewWebhookHandler(svc, signature.NewVerifier("topsecret"))

		body := webhookBody(t)
		ctx := setupTestContext("POST", "/api/v1/webhooks/sms", body)
		ctx.Request.Header.Set("x-signature", sign("wrong-secret", body))
		handler.ReceiveSms(ctx)

		assert.Equal(t, 401, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Process")
	})

	t.Run("missing signature is rejected when a secret is configured", func(t *testing.T) {
		svc := new(MockIngestService)
		handler := NewWebhookHandler(svc, signature.NewVerifier("topsecret"))

		ctx := setupTestContext("POST", "/api/v1/webhooks/sms", webhookBody(t))
		handler.ReceiveSms(ctx)

		assert.Equal(t, 401, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Process")
	})

	t.Run("tampered body fails verification", func(t *testing.T) {
		svc := new(MockIngestService)
		handler := NewWebhookHandler(svc, signature.NewVerifier("topsecret"))

		body := webhookBody(t)
		sig := sign("topsecret", body)
		tampered := append([]byte{}, body...)
		tampered[len(tampered)-2] = 'X'

		ctx := setupTestContext("POST", "/api/v1/webhooks/sms", tampered)
		ctx.Request.Header.Set("x-signature", sig)
		handler.ReceiveSms(ctx)

		assert.Equal(t, 401, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Process")
	})

	t.Run("no secret configured skips verification", func(t *testing.T) {
		svc := new(MockIngestService)
		handler := NewWebhookHandler(svc, signature.NewVerifier(""))

		svc.On("Process", mock.Anything, mock.Anything).
			Return(&model.WebhookResponse{Success: true})

		ctx := setupTestContext("POST", "/api/v1/webhooks/sms", webhookBody(t))
		handler.ReceiveSms(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("malformed JSON still answers 200", func(t *testing.T) {
		svc := new(MockIngestService)
		handler := NewWebhookHandler(svc, signature.NewVerifier(""))

		ctx := setupTestContext("POST", "/api/v1/webhooks/sms", []byte("{not json"))
		handler.ReceiveSms(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.WebhookResponse
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.False(t, response.Success)
		assert.Equal(t, "Invalid request body", response.Error)
		assert.NotEmpty(t, response.Reply)
		svc.AssertNotCalled(t, "Process")
	})

	t.Run("unknown top-level fields are tolerated", func(t *testing.T) {
		svc := new(MockIngestService)
		handler := NewWebhookHandler(svc, signature.NewVerifier(""))

		svc.On("Process", mock.Anything, mock.MatchedBy(func(e *model.InboundSmsEvent) bool {
			return e.Sender == "+639171234567" && e.Message == "hi"
		})).Return(&model.WebhookResponse{Success: true})

		ctx := setupTestContext("POST", "/api/v1/webhooks/sms",
			[]byte(`{"sender":"+639171234567","message":"hi","webhookEvent":"MESSAGE_RECEIVED","newGatewayField":"value"}`))
		handler.ReceiveSms(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.WebhookResponse
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.True(t, response.Success)
		svc.AssertExpectations(t)
	})

	t.Run("processing failure response is passed through with 200", func(t *testing.T) {
		svc := new(MockIngestService)
		handler := NewWebhookHandler(svc, signature.NewVerifier(""))

		svc.On("Process", mock.Anything, mock.Anything).Return(&model.WebhookResponse{
			Success: false,
			Error:   "Could not parse message",
			Reply:   "We could not understand your message.",
		})

		ctx := setupTestContext("POST", "/api/v1/webhooks/sms", webhookBody(t))
		handler.ReceiveSms(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.WebhookResponse
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.False(t, response.Success)
		assert.Equal(t, "Could not parse message", response.Error)
	})
}
