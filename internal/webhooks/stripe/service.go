package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/stagepass/stagepass-backend/internal/payouts"
	"github.com/stagepass/stagepass-backend/internal/purchases"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

type ServiceParams struct {
	Purchases purchases.Service
	Payouts   payouts.Service
	Logger    *logger.Logger
}

// Service translates Stripe events into ledger transitions. Delivery is
// at-least-once and unordered; every branch re-derives state from the stored
// row, so replays and stale events fall through as no-ops.
type Service struct {
	purchases purchases.Service
	payouts   payouts.Service
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Purchases == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "purchases service required")
	}
	if params.Payouts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payouts service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		purchases: params.Purchases,
		payouts:   params.Payouts,
		logg:      params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
		}
		intentID := ""
		if session.PaymentIntent != nil {
			intentID = session.PaymentIntent.ID
		}
		return s.purchases.CompleteByCheckoutSession(ctx, session.ID, intentID)

	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.purchases.CompleteByPaymentIntent(ctx, intent.ID)

	case stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.purchases.FailByPaymentIntent(ctx, intent.ID)

	case stripe.EventTypePayoutPaid,
		stripe.EventTypePayoutFailed,
		stripe.EventTypePayoutCanceled,
		stripe.EventTypePayoutUpdated:
		var remote stripe.Payout
		if err := json.Unmarshal(event.Data.Raw, &remote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payout event")
		}
		return s.syncPayout(ctx, &remote)

	case stripe.EventTypeAccountUpdated:
		var account stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode account event")
		}
		return s.payouts.UpdatePaymentAccount(ctx, account.ID, account.PayoutsEnabled, account.DetailsSubmitted)

	default:
		s.logg.Info(ctx, fmt.Sprintf("ignoring stripe event type %s", event.Type))
		return nil
	}
}

func (s *Service) syncPayout(ctx context.Context, remote *stripe.Payout) error {
	if remote == nil || remote.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout id missing")
	}
	status, err := enums.ParsePayoutStatus(string(remote.Status))
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("ignoring payout %s with unknown status %q", remote.ID, remote.Status))
		return nil
	}

	var failureReason *string
	if remote.FailureMessage != "" {
		msg := remote.FailureMessage
		failureReason = &msg
	} else if remote.FailureCode != "" {
		code := string(remote.FailureCode)
		failureReason = &code
	}

	var arrivalDate *time.Time
	if remote.ArrivalDate > 0 {
		at := time.Unix(remote.ArrivalDate, 0).UTC()
		arrivalDate = &at
	}

	return s.payouts.OnWebhookUpdate(ctx, remote.ID, status, failureReason, arrivalDate)
}
