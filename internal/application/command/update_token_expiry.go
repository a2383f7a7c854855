package command

import (
	"context"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/application/dto"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/service"
)

// UpdateTokenExpiryCommand refreshes a stored card's expiration, remotely
// first so the local record never runs ahead of the gateway.
type UpdateTokenExpiryCommand struct {
	provisioner *service.CustomerProvisioner
}

// NewUpdateTokenExpiryCommand creates a new update token expiry command
func NewUpdateTokenExpiryCommand(provisioner *service.CustomerProvisioner) *UpdateTokenExpiryCommand {
	return &UpdateTokenExpiryCommand{provisioner: provisioner}
}

// Execute executes the update token expiry command
func (c *UpdateTokenExpiryCommand) Execute(ctx context.Context, gctx gateway.Context, tokenID uuid.UUID, req *dto.UpdateTokenRequest) (*dto.TokenResponse, error) {
	token, err := c.provisioner.UpdateTokenExpiry(ctx, gctx, tokenID, req.ExpMonth, req.ExpYear)
	if err != nil {
		return nil, err
	}
	return toTokenResponse(token), nil
}
