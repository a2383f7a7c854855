package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/bivex/stripe-gateway/internal/application/command"
	"github.com/bivex/stripe-gateway/internal/application/dto"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/interfaces/http/response"
)

// CheckoutHandler handles purchase endpoints
type CheckoutHandler struct {
	purchaseCmd *command.PurchaseCommand
	gctx        gateway.Context
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(purchaseCmd *command.PurchaseCommand, gctx gateway.Context) *CheckoutHandler {
	return &CheckoutHandler{purchaseCmd: purchaseCmd, gctx: gctx}
}

// Checkout runs a purchase
// @Summary Purchase a product
// @Tags checkout
// @Accept json
// @Produce json
// @Security Bearer
// @Success 201 {object} response.SuccessResponse{data=dto.CheckoutResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /v1/checkout [post]
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// The billed customer is the authenticated session, never a body
	// field. Anonymous requests check out as guests.
	req.CustomerID = c.GetString("user_id")

	resp, err := h.purchaseCmd.Execute(c.Request.Context(), h.gctx, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, resp)
}
