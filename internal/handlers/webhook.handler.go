package handlers

import (
	"context"
	"encoding/json"

	"github.com/fasthttp/router"
	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/internal/signature"
	xhttp "github.com/relieflink/report-gateway/pkg/http"
	"github.com/relieflink/report-gateway/pkg/logger"
)

const replyBadRequest = "We could not read your message. Please send a plain text SMS describing the emergency."

type IngestService interface {
	Process(ctx context.Context, event *model.InboundSmsEvent) *model.WebhookResponse
}

type WebhookHandler struct {
	svc      IngestService
	verifier *signature.Verifier
}

func RegisterWebhookRoutes(e *router.Group, h *WebhookHandler) {
	e.POST("/webhooks/sms", h.ReceiveSms)
}

func NewWebhookHandler(ingestService IngestService, verifier *signature.Verifier) *WebhookHandler {
	return &WebhookHandler{
		svc:      ingestService,
		verifier: verifier,
	}
}

// ReceiveSms accepts one webhook delivery from the SMS gateway. The
// signature covers the exact raw body bytes and is checked before any
// parsing. Past that point the gateway always gets a 200: it retries
// non-200 responses, and retrying a processing failure would just fail
// again and duplicate replies to the sender.
func (h *WebhookHandler) ReceiveSms(ctx *xhttp.RequestCtx) {
	body := ctx.PostBody()

	sig := string(ctx.Request.Header.Peek("x-signature"))
	if err := h.verifier.Verify(body, sig); err != nil {
		logger.Warn("webhook signature rejected", "error", err.Error(), "remote", ctx.RemoteIP().String())
		writeError(ctx, xhttp.StatusUnauthorized, "invalid signature")
		return
	}

	event, err := decodeInboundEvent(body)
	if err != nil {
		logger.Warn("webhook body rejected", "error", err.Error())
		writeJSON(ctx, xhttp.StatusOK, &model.WebhookResponse{
			Success: false,
			Error:   "Invalid request body",
			Reply:   replyBadRequest,
		})
		return
	}

	resp := h.svc.Process(ctx, event)
	writeJSON(ctx, xhttp.StatusOK, resp)
}

// decodeInboundEvent tolerates unknown fields: gateway app updates add
// envelope fields over time and a delivery must not start failing because
// of one. The strict whitelist sits on the classifier output instead.
func decodeInboundEvent(body []byte) (*model.InboundSmsEvent, error) {
	var event model.InboundSmsEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}
