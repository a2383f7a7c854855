package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/application/dto"
	"github.com/bivex/stripe-gateway/internal/domain/entity"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/service"
)

// TokenizeCommand stores a payment source for later checkouts. Raw card and
// bank details pass straight through to the gateway; only the redacted
// token record is kept.
type TokenizeCommand struct {
	provisioner *service.CustomerProvisioner
}

// NewTokenizeCommand creates a new tokenize command
func NewTokenizeCommand(provisioner *service.CustomerProvisioner) *TokenizeCommand {
	return &TokenizeCommand{provisioner: provisioner}
}

// Execute executes the tokenize command
func (c *TokenizeCommand) Execute(ctx context.Context, gctx gateway.Context, req *dto.TokenizeRequest) (*dto.TokenResponse, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid customer id", domainErrors.ErrInvalidInput)
	}

	params, err := sourceParams(req)
	if err != nil {
		return nil, err
	}

	token, err := c.provisioner.Tokenize(ctx, gctx, customerID, req.Email, req.Label, params, req.MakePrimary)
	if err != nil {
		return nil, err
	}

	return toTokenResponse(token), nil
}

func sourceParams(req *dto.TokenizeRequest) (gateway.SourceParams, error) {
	set := 0
	if req.Token != "" {
		set++
	}
	if req.Card != nil {
		set++
	}
	if req.BankAccount != nil {
		set++
	}
	if set != 1 {
		return gateway.SourceParams{}, &domainErrors.ValidationError{
			Field:  "source",
			Reason: "exactly one of token, card, or bank_account must be provided",
		}
	}

	params := gateway.SourceParams{Token: req.Token}
	if req.Card != nil {
		params.Card = &gateway.CardParams{
			Number:     req.Card.Number,
			ExpMonth:   req.Card.ExpMonth,
			ExpYear:    req.Card.ExpYear,
			CVC:        req.Card.CVC,
			HolderName: req.Card.HolderName,
		}
	}
	if req.BankAccount != nil {
		params.BankAccount = &gateway.BankAccountParams{
			AccountNumber: req.BankAccount.AccountNumber,
			RoutingNumber: req.BankAccount.RoutingNumber,
			Country:       req.BankAccount.Country,
			Currency:      req.BankAccount.Currency,
			HolderName:    req.BankAccount.HolderName,
			HolderType:    req.BankAccount.HolderType,
		}
	}
	return params, nil
}

func toTokenResponse(token *entity.PaymentToken) *dto.TokenResponse {
	return &dto.TokenResponse{
		ID:        token.ID.String(),
		Kind:      string(token.Kind),
		Label:     token.Label,
		Redacted:  token.Redacted,
		Brand:     token.Brand,
		ExpMonth:  token.ExpMonth,
		ExpYear:   token.ExpYear,
		Funding:   token.Funding,
		IsPrimary: token.IsPrimary,
	}
}
