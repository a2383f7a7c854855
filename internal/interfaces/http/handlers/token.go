package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/application/command"
	"github.com/bivex/stripe-gateway/internal/application/dto"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/interfaces/http/response"
)

// TokenHandler handles stored payment source endpoints
type TokenHandler struct {
	tokenizeCmd *command.TokenizeCommand
	expiryCmd   *command.UpdateTokenExpiryCommand
	gctx        gateway.Context
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(tokenizeCmd *command.TokenizeCommand, expiryCmd *command.UpdateTokenExpiryCommand, gctx gateway.Context) *TokenHandler {
	return &TokenHandler{tokenizeCmd: tokenizeCmd, expiryCmd: expiryCmd, gctx: gctx}
}

// Tokenize stores a payment source
// @Summary Store a payment source
// @Tags tokens
// @Accept json
// @Produce json
// @Security Bearer
// @Success 201 {object} response.SuccessResponse{data=dto.TokenResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /v1/tokens [post]
func (h *TokenHandler) Tokenize(c *gin.Context) {
	var req dto.TokenizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.tokenizeCmd.Execute(c.Request.Context(), h.gctx, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, resp)
}

// UpdateExpiry refreshes a stored card's expiration
// @Summary Update a stored card's expiration
// @Tags tokens
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} response.SuccessResponse{data=dto.TokenResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /v1/tokens/{id} [patch]
func (h *TokenHandler) UpdateExpiry(c *gin.Context) {
	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid token id")
		return
	}

	var req dto.UpdateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.expiryCmd.Execute(c.Request.Context(), h.gctx, tokenID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, resp)
}
