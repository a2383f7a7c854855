package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/application/command"
	"github.com/bivex/stripe-gateway/internal/application/dto"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/interfaces/http/response"
)

// AdminHandler handles admin-only endpoints
type AdminHandler struct {
	refundCmd *command.RefundCommand
	gctx      gateway.Context
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(refundCmd *command.RefundCommand, gctx gateway.Context) *AdminHandler {
	return &AdminHandler{refundCmd: refundCmd, gctx: gctx}
}

// Refund refunds part or all of a transaction
// @Summary Refund a transaction
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} response.SuccessResponse{data=dto.RefundResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /v1/admin/transactions/{id}/refund [post]
func (h *AdminHandler) Refund(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid transaction id")
		return
	}

	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.refundCmd.Execute(c.Request.Context(), h.gctx, transactionID, actor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, resp)
}
