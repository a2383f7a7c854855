package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/repository"
	"github.com/bivex/stripe-gateway/internal/infrastructure/logging"
)

// CustomerProvisioner keeps local customers mapped to remote gateway
// customers, one remote customer per (customer, mode), and manages the
// stored payment tokens attached to them.
type CustomerProvisioner struct {
	customerRepo repository.CustomerRepository
	tokenRepo    repository.PaymentTokenRepository
	client       gateway.Client
}

// NewCustomerProvisioner creates a customer provisioner
func NewCustomerProvisioner(
	customerRepo repository.CustomerRepository,
	tokenRepo repository.PaymentTokenRepository,
	client gateway.Client,
) *CustomerProvisioner {
	return &CustomerProvisioner{
		customerRepo: customerRepo,
		tokenRepo:    tokenRepo,
		client:       client,
	}
}

// EnsureRemoteCustomer returns the remote customer mapped for the local
// customer, creating and mapping one on first contact. A mapping whose
// remote customer was deleted on the gateway side is replaced rather than
// reused.
func (s *CustomerProvisioner) EnsureRemoteCustomer(ctx context.Context, gctx gateway.Context, customerID uuid.UUID, email string) (*gateway.Customer, error) {
	remoteID, err := s.customerRepo.GetRemoteID(ctx, customerID, gctx.Mode)
	if err != nil && !domainErrors.IsNotFound(err) {
		return nil, err
	}

	if remoteID != "" {
		cus, err := s.client.RetrieveCustomer(ctx, gctx, remoteID)
		if err == nil && !cus.Deleted {
			return cus, nil
		}
		if err != nil && !domainErrors.IsNotFound(err) {
			return nil, err
		}
		logging.Warn("mapped remote customer gone, recreating",
			zap.String("customer_id", customerID.String()),
			zap.String("remote_customer_id", remoteID),
		)
	}

	cus, err := s.client.CreateCustomer(ctx, gctx, gateway.CustomerParams{
		Email:   email,
		LocalID: customerID.String(),
	})
	if err != nil {
		return nil, err
	}

	mapping := entity.NewCustomerMapping(customerID, gctx.Mode, cus.ID)
	if err := s.customerRepo.SetRemoteID(ctx, mapping); err != nil {
		return nil, err
	}

	return cus, nil
}

// CreateGuestCustomer creates a remote customer with no local mapping. Guest
// checkouts get a fresh remote customer per purchase.
func (s *CustomerProvisioner) CreateGuestCustomer(ctx context.Context, gctx gateway.Context, email, source string) (*gateway.Customer, error) {
	return s.client.CreateCustomer(ctx, gctx, gateway.CustomerParams{
		Email:   email,
		IsGuest: true,
		Source:  source,
	})
}

// Tokenize attaches a payment source to the customer's remote record and
// stores a redacted token locally. The customer's first token in a mode
// becomes their primary automatically.
func (s *CustomerProvisioner) Tokenize(ctx context.Context, gctx gateway.Context, customerID uuid.UUID, email, label string, params gateway.SourceParams, makePrimary bool) (*entity.PaymentToken, error) {
	cus, err := s.EnsureRemoteCustomer(ctx, gctx, customerID, email)
	if err != nil {
		return nil, err
	}

	src, err := s.client.CreateSource(ctx, gctx, cus.ID, params)
	if err != nil {
		return nil, err
	}

	count, err := s.tokenRepo.CountByCustomer(ctx, customerID, gctx.Mode)
	if err != nil {
		return nil, err
	}

	token := entity.NewPaymentToken(customerID, gctx.Mode, entity.TokenKind(src.Kind), src.ID, src.Last4)
	token.Label = label
	token.Brand = src.Brand
	token.ExpMonth = src.ExpMonth
	token.ExpYear = src.ExpYear
	token.Funding = src.Funding
	token.IsPrimary = makePrimary || count == 0

	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	if token.IsPrimary {
		if err := s.tokenRepo.MakePrimary(ctx, token.ID); err != nil {
			return nil, err
		}
		if _, err := s.client.UpdateDefaultSource(ctx, gctx, cus.ID, src.ID); err != nil {
			return nil, err
		}
	}

	return token, nil
}

// UpdateTokenExpiry refreshes a stored card's expiration remotely and in the
// local record. Only cards carry an expiration.
func (s *CustomerProvisioner) UpdateTokenExpiry(ctx context.Context, gctx gateway.Context, tokenID uuid.UUID, expMonth, expYear int) (*entity.PaymentToken, error) {
	token, err := s.tokenRepo.GetByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if token.Kind != entity.TokenKindCard {
		return nil, &domainErrors.ValidationError{Field: "token", Reason: "only cards carry an expiration"}
	}
	if token.Mode != gctx.Mode {
		return nil, fmt.Errorf("payment token %s: %w", tokenID, domainErrors.ErrNotFound)
	}

	remoteID, err := s.customerRepo.GetRemoteID(ctx, token.CustomerID, gctx.Mode)
	if err != nil {
		return nil, err
	}

	src, err := s.client.UpdateSourceExpiry(ctx, gctx, remoteID, token.Token, expMonth, expYear)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.UpdateExpiry(ctx, token.ID, src.ExpMonth, src.ExpYear); err != nil {
		return nil, err
	}
	token.ExpMonth = src.ExpMonth
	token.ExpYear = src.ExpYear

	return token, nil
}
