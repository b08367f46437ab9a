package payouts

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/payout"

	pkgstripe "github.com/stagepass/stagepass-backend/pkg/stripe"
)

// StripePayoutClient exposes the subset of Stripe operations the payout
// service needs.
type StripePayoutClient interface {
	CreatePayout(ctx context.Context, params *stripe.PayoutParams) (*stripe.Payout, error)
	CancelPayout(ctx context.Context, id string, params *stripe.PayoutParams) (*stripe.Payout, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the payout service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripePayoutClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreatePayout(ctx context.Context, params *stripe.PayoutParams) (*stripe.Payout, error) {
	if params != nil {
		params.Context = ctx
	}
	return payout.New(params)
}

func (w *stripeClientWrapper) CancelPayout(ctx context.Context, id string, params *stripe.PayoutParams) (*stripe.Payout, error) {
	if params == nil {
		params = &stripe.PayoutParams{}
	}
	params.Context = ctx
	return payout.Cancel(id, params)
}
