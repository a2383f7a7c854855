package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/application/command"
	"github.com/bivex/stripe-gateway/internal/application/dto"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/interfaces/http/response"
)

// SubscriptionHandler handles subscription lifecycle endpoints
type SubscriptionHandler struct {
	cancelCmd        *command.CancelSubscriptionCommand
	pauseCmd         *command.PauseSubscriptionCommand
	resumeCmd        *command.ResumeSubscriptionCommand
	paymentMethodCmd *command.UpdatePaymentMethodCommand
	gctx             gateway.Context
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(
	cancelCmd *command.CancelSubscriptionCommand,
	pauseCmd *command.PauseSubscriptionCommand,
	resumeCmd *command.ResumeSubscriptionCommand,
	paymentMethodCmd *command.UpdatePaymentMethodCommand,
	gctx gateway.Context,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		cancelCmd:        cancelCmd,
		pauseCmd:         pauseCmd,
		resumeCmd:        resumeCmd,
		paymentMethodCmd: paymentMethodCmd,
		gctx:             gctx,
	}
}

func subscriptionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid subscription id")
		return uuid.Nil, false
	}
	return id, true
}

// actor returns who is performing the request, for attribution
func actor(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return userID
	}
	return "unknown"
}

// Cancel cancels a subscription
// @Summary Cancel a subscription
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} response.SuccessResponse{data=dto.SubscriptionResponse}
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /v1/subscriptions/{id} [delete]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	var req dto.CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.cancelCmd.Execute(c.Request.Context(), h.gctx, id, actor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, resp)
}

// Pause pauses a subscription's billing
// @Summary Pause a subscription
// @Tags subscriptions
// @Produce json
// @Security Bearer
// @Success 200 {object} response.SuccessResponse{data=dto.SubscriptionResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /v1/subscriptions/{id}/pause [post]
func (h *SubscriptionHandler) Pause(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	resp, err := h.pauseCmd.Execute(c.Request.Context(), h.gctx, id, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, resp)
}

// Resume resumes a paused subscription
// @Summary Resume a subscription
// @Tags subscriptions
// @Produce json
// @Security Bearer
// @Success 200 {object} response.SuccessResponse{data=dto.SubscriptionResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /v1/subscriptions/{id}/resume [post]
func (h *SubscriptionHandler) Resume(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	resp, err := h.resumeCmd.Execute(c.Request.Context(), h.gctx, id, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, resp)
}

// UpdatePaymentMethod points the subscription at a stored payment token
// @Summary Update a subscription's payment method
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} response.SuccessResponse{data=dto.SubscriptionResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /v1/subscriptions/{id}/payment-method [put]
func (h *SubscriptionHandler) UpdatePaymentMethod(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	var req dto.UpdatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.paymentMethodCmd.Execute(c.Request.Context(), h.gctx, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, resp)
}
