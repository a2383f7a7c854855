package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/service"
	"github.com/bivex/stripe-gateway/internal/infrastructure/logging"
	"github.com/bivex/stripe-gateway/internal/interfaces/http/response"
)

// WebhookHandler receives gateway notifications. The body is authenticated
// by HMAC signature when a secret is configured, but only the event id is
// trusted either way: the reconciler re-fetches the event before acting.
type WebhookHandler struct {
	reconciler    *service.WebhookReconciler
	webhookSecret string
	gctx          gateway.Context
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(reconciler *service.WebhookReconciler, webhookSecret string, gctx gateway.Context) *WebhookHandler {
	return &WebhookHandler{
		reconciler:    reconciler,
		webhookSecret: webhookSecret,
		gctx:          gctx,
	}
}

// Receive handles a gateway webhook event
// @Summary Gateway webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Router /webhook/stripe [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "Failed to read body")
		return
	}

	if h.webhookSecret != "" {
		signature := c.GetHeader("Stripe-Signature")
		if signature == "" {
			response.Unauthorized(c, "Missing signature")
			return
		}
		if !h.verifyHMAC(body, signature) {
			response.Unauthorized(c, "Invalid signature")
			return
		}
	}

	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &event); err != nil || event.ID == "" {
		response.BadRequest(c, "Invalid event body")
		return
	}

	if err := h.reconciler.Process(c.Request.Context(), h.gctx, event.ID); err != nil {
		// A non-2xx tells the gateway to redeliver; processing is
		// idempotent so the retry is safe.
		logging.CaptureError("webhook processing failed", err,
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
		)
		response.InternalError(c, "Event processing failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// verifyHMAC checks the signature header: t=timestamp,v1=hmac over
// "timestamp.body" with the webhook secret.
func (h *WebhookHandler) verifyHMAC(body []byte, signature string) bool {
	var timestamp, v1 string
	for _, part := range strings.Split(signature, ",") {
		switch {
		case strings.HasPrefix(part, "t="):
			timestamp = strings.TrimPrefix(part, "t=")
		case strings.HasPrefix(part, "v1="):
			v1 = strings.TrimPrefix(part, "v1=")
		}
	}
	if timestamp == "" || v1 == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(v1))
}
