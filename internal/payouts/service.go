package payouts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/internal/revenue"
	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/pagination"
)

const defaultPayoutCurrency = "usd"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns payout requests and their reconciliation against processor
// webhooks. The revenue debit is optimistic: it happens when the payout is
// requested, and a compensating reversal runs if the processor later reports
// failed or canceled.
type Service interface {
	Request(ctx context.Context, artistID uuid.UUID, input RequestPayoutInput) (*models.ArtistPayout, error)
	OnWebhookUpdate(ctx context.Context, stripePayoutID string, status enums.PayoutStatus, failureReason *string, arrivalDate *time.Time) error
	History(ctx context.Context, artistID uuid.UUID, page pagination.Params) ([]models.ArtistPayout, error)
	UpdatePaymentAccount(ctx context.Context, stripeAccountID string, payoutsEnabled, detailsSubmitted bool) error
}

type service struct {
	repo    Repository
	revenue revenue.Service
	tx      txRunner
	stripe  StripePayoutClient
	now     func() time.Time
}

// RequestPayoutInput carries an artist's withdrawal request.
type RequestPayoutInput struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewService wires a payout service with its collaborators.
func NewService(repo Repository, revenueSvc revenue.Service, tx txRunner, stripeClient StripePayoutClient) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if revenueSvc == nil {
		return nil, fmt.Errorf("revenue service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe payout client required")
	}
	return &service{
		repo:    repo,
		revenue: revenueSvc,
		tx:      tx,
		stripe:  stripeClient,
		now:     time.Now,
	}, nil
}

func (s *service) Request(ctx context.Context, artistID uuid.UUID, input RequestPayoutInput) (*models.ArtistPayout, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "artist identity missing")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
	}
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultPayoutCurrency
	}

	account, err := s.repo.FindPaymentAccount(ctx, artistID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no linked payout account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment account")
	}
	if !account.PayoutsEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payout account is not enabled")
	}

	snapshot, err := s.revenue.Snapshot(ctx, artistID)
	if err != nil {
		return nil, err
	}
	if snapshot.PendingRevenue.LessThan(input.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient pending revenue")
	}

	// Processor call happens before anything persists: a failure here leaves
	// the ledger untouched and surfaces as retryable.
	remote, err := s.stripe.CreatePayout(ctx, &stripe.PayoutParams{
		Params: stripe.Params{
			StripeAccount: stripe.String(account.StripeAccountID),
		},
		Amount:   stripe.Int64(input.Amount.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency: stripe.String(currency),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create processor payout")
	}

	payout := &models.ArtistPayout{
		ArtistID:       artistID,
		Amount:         input.Amount.Round(2),
		Currency:       currency,
		StripePayoutID: remote.ID,
		Status:         enums.PayoutStatusPending,
	}
	if remote.ArrivalDate > 0 {
		arrival := time.Unix(remote.ArrivalDate, 0).UTC()
		payout.ArrivalDate = &arrival
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payout")
		}
		return s.revenue.DebitForPayout(ctx, tx, artistID, payout.Amount)
	})
	if txErr != nil {
		// The processor payout exists but nothing persisted, so stop it.
		// Best effort only: instant payouts cannot be canceled, and those
		// show up later as out-of-band transfers the webhook ignores.
		_, _ = s.stripe.CancelPayout(ctx, remote.ID, &stripe.PayoutParams{
			Params: stripe.Params{
				StripeAccount: stripe.String(account.StripeAccountID),
			},
		})
		return nil, txErr
	}
	return payout, nil
}

// OnWebhookUpdate applies a processor payout event. Unknown payout ids are
// ignored; they belong to out-of-band transfers. The reversal runs only on
// the first transition into failed/canceled: ReversedAt records that the
// compensating credit already happened, so a redelivered terminal event is a
// status write and nothing else.
func (s *service) OnWebhookUpdate(ctx context.Context, stripePayoutID string, status enums.PayoutStatus, failureReason *string, arrivalDate *time.Time) error {
	if stripePayoutID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payout status")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payout, err := repo.FindByStripePayoutIDForUpdate(ctx, stripePayoutID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}

		// Once the compensating credit has run the payout is terminal.
		// Stripe does not order deliveries, so a stale paid/pending event
		// can still arrive afterwards; it must not resurrect the payout
		// while the reversal stands.
		if payout.ReversedAt != nil && !status.RequiresReversal() {
			return nil
		}

		payout.Status = status
		if failureReason != nil {
			payout.FailureReason = failureReason
		}
		if arrivalDate != nil {
			payout.ArrivalDate = arrivalDate
		}

		if status.RequiresReversal() && payout.ReversedAt == nil {
			if err := s.revenue.ReversePayout(ctx, tx, payout.ArtistID, payout.Amount); err != nil {
				return err
			}
			now := s.now()
			payout.ReversedAt = &now
		}

		if err := repo.Save(ctx, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}
		return nil
	})
}

func (s *service) History(ctx context.Context, artistID uuid.UUID, page pagination.Params) ([]models.ArtistPayout, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "artist identity missing")
	}
	payouts, err := s.repo.ListByArtist(ctx, artistID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payout history")
	}
	return payouts, nil
}

// UpdatePaymentAccount mirrors the processor's capability flags. Accounts we
// have never linked are ignored.
func (s *service) UpdatePaymentAccount(ctx context.Context, stripeAccountID string, payoutsEnabled, detailsSubmitted bool) error {
	if stripeAccountID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	account, err := s.repo.FindPaymentAccountByStripeID(ctx, stripeAccountID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment account")
	}
	account.PayoutsEnabled = payoutsEnabled
	account.DetailsSubmitted = detailsSubmitted
	if err := s.repo.SavePaymentAccount(ctx, account); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment account")
	}
	return nil
}
